// Package server is the HTTP layer: the SSE subscribe endpoint, the
// audience API routes that publish through the announcer, and connection
// limiting for the long-lived event streams.
package server
