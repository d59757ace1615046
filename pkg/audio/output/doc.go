// ABOUTME: Audio output package for playing or recording the mixed stream
// ABOUTME: Provides Output interface with oto, WAV and discard implementations
// Package output provides sinks for the buffers a relay node produces.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(48000, 2)
//	err = out.Write(buf)
package output
