// ABOUTME: Audio type definitions
// ABOUTME: Defines the channel-major Buffer and sample conversion helpers
package audio

import (
	goaudio "github.com/go-audio/audio"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Buffer is a block of audio indexed as [channel][sample]
type Buffer [][]float32

// NewBuffer allocates a zeroed buffer with the given shape
func NewBuffer(channels, samples int) Buffer {
	// One backing array keeps the rows contiguous
	backing := make([]float32, channels*samples)
	b := make(Buffer, channels)
	for ch := range b {
		b[ch] = backing[ch*samples : (ch+1)*samples : (ch+1)*samples]
	}
	return b
}

// Channels returns the number of channel rows
func (b Buffer) Channels() int {
	return len(b)
}

// Samples returns the length of the first channel row (0 for an empty buffer)
func (b Buffer) Samples() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// HasShape reports whether the buffer has exactly channels rows of samples each
func (b Buffer) HasShape(channels, samples int) bool {
	if len(b) != channels {
		return false
	}
	for _, row := range b {
		if len(row) != samples {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the buffer
func (b Buffer) Clone() Buffer {
	c := NewBuffer(b.Channels(), b.Samples())
	for ch, row := range b {
		copy(c[ch], row)
	}
	return c
}

// Interleave writes the buffer into dst as frame-major interleaved samples.
// Returns the number of samples written.
func (b Buffer) Interleave(dst []float32) int {
	channels := b.Channels()
	if channels == 0 {
		return 0
	}
	frames := b.Samples()
	if limit := len(dst) / channels; frames > limit {
		frames = limit
	}
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			dst[f*channels+ch] = b[ch][f]
		}
	}
	return frames * channels
}

// Deinterleave fills the buffer from frame-major interleaved samples.
// Frames missing from src are zeroed. Returns the number of frames copied.
func (b Buffer) Deinterleave(src []float32) int {
	channels := b.Channels()
	if channels == 0 {
		return 0
	}
	frames := len(src) / channels
	if frames > b.Samples() {
		frames = b.Samples()
	}
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			b[ch][f] = src[f*channels+ch]
		}
	}
	for ch := 0; ch < channels; ch++ {
		clear(b[ch][frames:])
	}
	return frames
}

// ToIntBuffer converts the buffer to an interleaved go-audio IntBuffer at bitDepth
func (b Buffer) ToIntBuffer(sampleRate, bitDepth int) *goaudio.IntBuffer {
	channels := b.Channels()
	frames := b.Samples()
	scale := fullScale(bitDepth)

	data := make([]int, frames*channels)
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			data[f*channels+ch] = int(clamp(b[ch][f]) * (scale - 1))
		}
	}

	return &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
}

// FromIntBuffer fills the buffer from the first n interleaved samples of an
// IntBuffer recorded at bitDepth. Returns the number of frames copied.
func (b Buffer) FromIntBuffer(src *goaudio.IntBuffer, n, bitDepth int) int {
	channels := b.Channels()
	if channels == 0 || src == nil {
		return 0
	}
	srcChannels := channels
	if src.Format != nil && src.Format.NumChannels > 0 {
		srcChannels = src.Format.NumChannels
	}
	if n > len(src.Data) {
		n = len(src.Data)
	}

	scale := fullScale(bitDepth)
	frames := n / srcChannels
	if frames > b.Samples() {
		frames = b.Samples()
	}
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			// Fewer source channels than ours: repeat the last one
			srcCh := ch
			if srcCh >= srcChannels {
				srcCh = srcChannels - 1
			}
			b[ch][f] = float32(src.Data[f*srcChannels+srcCh]) / scale
		}
	}
	for ch := 0; ch < channels; ch++ {
		clear(b[ch][frames:])
	}
	return frames
}

// SampleToInt16 converts a float amplitude in [-1, 1] to int16 with clipping
func SampleToInt16(sample float32) int16 {
	return int16(clamp(sample) * 32767)
}

// SampleFromInt16 converts an int16 sample to a float amplitude
func SampleFromInt16(sample int16) float32 {
	return float32(sample) / 32768
}

// SampleFrom24Bit converts a 24-bit sample held in an int32 to a float amplitude
func SampleFrom24Bit(sample int32) float32 {
	return float32(sample) / -Min24Bit
}

// SampleTo24Bit converts a float amplitude to a 24-bit sample held in an int32
func SampleTo24Bit(sample float32) int32 {
	return int32(clamp(sample) * Max24Bit)
}

func fullScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128
	case 24:
		return 8388608
	case 32:
		return 2147483648
	default:
		return 32768
	}
}

func clamp(sample float32) float32 {
	if sample > 1 {
		return 1
	}
	if sample < -1 {
		return -1
	}
	return sample
}
