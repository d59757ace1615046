// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts local audio sources to the relay's sample rate
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates.
// Handles both upsampling and downsampling, and keeps the last input frame
// between calls so chunked input is interpolated without seams.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	consumed, produced := r.Resample(inputSamples, outputSamples)
package resample
