// ABOUTME: Tests for local audio sources
// ABOUTME: Covers tone generation, WAV decoding and format dispatch
package source

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestNewToneDefaults(t *testing.T) {
	tone := NewTone(0, 0, 0)

	if tone.SampleRate() != DefaultSampleRate {
		t.Errorf("expected sample rate %d, got %d", DefaultSampleRate, tone.SampleRate())
	}
	if tone.Channels() != DefaultChannels {
		t.Errorf("expected %d channels, got %d", DefaultChannels, tone.Channels())
	}
	if tone.frequency != DefaultToneHz {
		t.Errorf("expected %v Hz, got %v", DefaultToneHz, tone.frequency)
	}
}

func TestToneRead(t *testing.T) {
	tone := NewTone(1000, 8000, 2)
	samples := make([]float32, 16)

	n, err := tone.Read(samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 16 {
		t.Fatalf("expected 16 samples, got %d", n)
	}

	// 1kHz at 8kHz: frame 2 is a quarter period, the peak
	if math.Abs(float64(samples[4])-toneAmplitude) > 1e-6 {
		t.Errorf("expected peak %v, got %v", toneAmplitude, samples[4])
	}
	for f := 0; f < 8; f++ {
		if samples[f*2] != samples[f*2+1] {
			t.Errorf("frame %d: channels differ (%v, %v)", f, samples[f*2], samples[f*2+1])
		}
	}

	// Phase continues across reads
	tone.Read(samples)
	if math.Abs(float64(samples[0])) > 1e-6 {
		t.Errorf("expected zero crossing at frame 8, got %v", samples[0])
	}
}

func TestNewUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.ogg")
	if err := os.WriteFile(path, []byte("OggS"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := New(path, 0, 48000, 2)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestNewMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.mp3"), 0, 48000, 2)
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewEmptyPathIsTone(t *testing.T) {
	src, err := New("", 220, 44100, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := src.(*ToneSource); !ok {
		t.Errorf("expected *ToneSource, got %T", src)
	}
}

// writeWAV writes a 16-bit PCM WAV file with the given interleaved samples
func writeWAV(t *testing.T, sampleRate, channels int, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to write samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to close encoder: %v", err)
	}
	return path
}

func TestWAVSource(t *testing.T) {
	path := writeWAV(t, 16000, 2, []int{16384, -16384, 8192, -8192})

	src, err := New(path, 0, 16000, 2)
	if err != nil {
		t.Fatalf("failed to open wav: %v", err)
	}
	defer src.Close()

	if src.SampleRate() != 16000 || src.Channels() != 2 {
		t.Fatalf("unexpected format: %dHz %dch", src.SampleRate(), src.Channels())
	}

	samples := make([]float32, 4)
	n, err := src.Read(samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 samples, got %d", n)
	}
	expected := []float32{0.5, -0.5, 0.25, -0.25}
	for i := range expected {
		if samples[i] != expected[i] {
			t.Errorf("index %d: expected %v, got %v", i, expected[i], samples[i])
		}
	}

	title, _, _ := src.Metadata()
	if title != "clip" {
		t.Errorf("expected title clip, got %s", title)
	}
}

func TestWAVSourceRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data at all, no sir"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := NewWAV(path); !errors.Is(err, ErrNotWavFile) {
		t.Errorf("expected ErrNotWavFile, got %v", err)
	}
}
