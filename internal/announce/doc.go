// Package announce implements the event fan-out engine: a registry of
// subscriber inboxes, non-blocking publish with slow-subscriber eviction,
// and a periodic keep-alive that stops intermediaries from closing idle
// SSE connections.
package announce
