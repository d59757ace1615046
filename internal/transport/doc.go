// ABOUTME: WebSocket transport for relay peers
// ABOUTME: Listen with bind-conflict detection, dial, and per-connection events
// Package transport moves opaque binary frames between relay nodes over
// WebSocket connections.
//
// Listen reports ErrBindConflict when the port is already owned, which is
// the signal a node uses to fall back to the client role. Every connection,
// accepted or dialed, reports Connected, Received and Disconnected events to
// a Handler and sends through a bounded per-connection queue drained by its
// own writer goroutine.
package transport
