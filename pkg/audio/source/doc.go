// ABOUTME: Local audio source package
// ABOUTME: Test tone and MP3/FLAC/WAV file producers for a relay node
// Package source provides the local audio a relay node contributes.
//
// A Source yields interleaved float samples at its native rate. Reader
// adapts any Source to the node's fixed buffer shape, mapping channels and
// resampling when the rates differ.
//
// Example:
//
//	src, err := source.New("song.flac", 440, 48000, 2)
//	r := source.NewReader(src, 48000, 2)
//	buf := audio.NewBuffer(2, 1024)
//	err = r.ReadBuffer(buf)
package source
