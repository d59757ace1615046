// ABOUTME: Sine test tone source
// ABOUTME: Generates a fixed-frequency tone on every channel
package source

import (
	"fmt"
	"math"
	"sync"
)

const (
	DefaultToneHz     = 440.0
	DefaultSampleRate = 48000
	DefaultChannels   = 2

	// 50% amplitude leaves headroom for the fold mix
	toneAmplitude = 0.5
)

// ToneSource generates a sine tone
type ToneSource struct {
	sampleIndex uint64
	sampleMu    sync.Mutex
	frequency   float64
	sampleRate  int
	channels    int
}

// NewTone creates a new tone generator. Zero values fall back to defaults.
func NewTone(frequency float64, sampleRate, channels int) *ToneSource {
	if frequency <= 0 {
		frequency = DefaultToneHz
	}
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}
	if channels == 0 {
		channels = DefaultChannels
	}

	return &ToneSource{
		frequency:  frequency,
		sampleRate: sampleRate,
		channels:   channels,
	}
}

func (s *ToneSource) Read(samples []float32) (int, error) {
	s.sampleMu.Lock()
	defer s.sampleMu.Unlock()

	frames := len(samples) / s.channels

	for i := 0; i < frames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.sampleRate)
		value := float32(math.Sin(2*math.Pi*s.frequency*t) * toneAmplitude)

		for ch := 0; ch < s.channels; ch++ {
			samples[i*s.channels+ch] = value
		}
	}

	s.sampleIndex += uint64(frames)

	return frames * s.channels, nil
}

func (s *ToneSource) SampleRate() int { return s.sampleRate }
func (s *ToneSource) Channels() int   { return s.channels }
func (s *ToneSource) Metadata() (string, string, string) {
	return fmt.Sprintf("Test Tone (%.0fHz)", s.frequency), "Resonate Relay", "Test Signal"
}
func (s *ToneSource) Close() error { return nil }
