// Package boundary exposes the announcer across a process boundary. The
// engine process serves exactly three operations on a loopback address,
// guarded by a shared auth key: subscribe (a websocket stream of SSE-framed
// events), publish, and listener count. The client side implements the same
// Broadcaster surface as the in-process announcer, so the HTTP layer does
// not care where the engine runs.
package boundary
