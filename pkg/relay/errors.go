// ABOUTME: Relay error values
// ABOUTME: Sentinel errors for startup, server loss and shape mismatches
package relay

import "errors"

var (
	// ErrTransport wraps listen and dial failures that prevent startup
	ErrTransport = errors.New("relay transport failure")

	// ErrServerLost is reported by a client node whose server went away
	ErrServerLost = errors.New("relay server lost")

	// ErrShapeMismatch describes a remote buffer whose shape differs from the local one
	ErrShapeMismatch = errors.New("buffer shape mismatch")
)
