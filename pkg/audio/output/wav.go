// ABOUTME: WAV recorder output
// ABOUTME: Writes the mixed stream to a 16-bit PCM WAV file with go-audio/wav
package output

import (
	"fmt"
	"log"
	"os"

	"github.com/Resonate-Protocol/resonate-relay/pkg/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth  = 16
	wavPCMFormat = 1
)

// WAVRecorder records buffers to a WAV file
type WAVRecorder struct {
	path       string
	file       *os.File
	encoder    *wav.Encoder
	sampleRate int
	frames     int64
}

// NewWAVRecorder creates a recorder that writes to path when opened
func NewWAVRecorder(path string) *WAVRecorder {
	return &WAVRecorder{path: path}
}

// Open creates the file and writes the header
func (w *WAVRecorder) Open(sampleRate, channels int) error {
	if w.encoder != nil {
		return nil
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}

	w.file = f
	w.sampleRate = sampleRate
	w.encoder = wav.NewEncoder(f, sampleRate, wavBitDepth, channels, wavPCMFormat)

	log.Printf("Recording to %s (%dHz, %d channels)", w.path, sampleRate, channels)
	return nil
}

// Write appends one buffer
func (w *WAVRecorder) Write(buf audio.Buffer) error {
	if w.encoder == nil {
		return fmt.Errorf("recorder not opened")
	}

	if err := w.encoder.Write(buf.ToIntBuffer(w.sampleRate, wavBitDepth)); err != nil {
		return fmt.Errorf("wav write failed: %w", err)
	}
	w.frames += int64(buf.Samples())
	return nil
}

// Frames returns how many frames have been recorded
func (w *WAVRecorder) Frames() int64 {
	return w.frames
}

// Close finalizes the header and closes the file
func (w *WAVRecorder) Close() error {
	if w.encoder == nil {
		return nil
	}

	err := w.encoder.Close()
	if closeErr := w.file.Close(); err == nil {
		err = closeErr
	}
	w.encoder = nil
	w.file = nil

	if err != nil {
		return fmt.Errorf("failed to finalize recording: %w", err)
	}
	log.Printf("Recording saved: %s (%d frames)", w.path, w.frames)
	return nil
}
