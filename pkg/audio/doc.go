// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines the channel-major Buffer, sample conversions and the fold mix
// Package audio provides the audio types exchanged between relay nodes.
//
// This package defines:
//   - Buffer: A fixed-shape channel × sample block of float32 amplitudes
//   - Fold: The pairwise averaging rule used to mix remote buffers in
//
// It also provides conversions between float amplitudes and the integer
// sample formats used by decoders and output devices.
//
// Example:
//
//	buf := audio.NewBuffer(2, 1024)
//	buf[0][0] = 0.5
//
//	// Average a remote buffer into buf
//	audio.Fold(buf, remote, 2, 1024)
package audio
