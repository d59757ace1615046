// ABOUTME: Relay wire protocol package
// ABOUTME: Defines the buffer envelope and its binary encoding
// Package protocol implements the relay wire format.
//
// Every WebSocket binary frame carries exactly one Envelope encoded as CBOR.
// The envelope holds a single channel-major buffer and nothing else: no
// sequence numbers, timestamps or sender identity.
//
// Example:
//
//	frame, err := protocol.Encode(buf)
//	env, err := protocol.Decode(frame)
package protocol
