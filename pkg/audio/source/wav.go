// ABOUTME: WAV file source
// ABOUTME: Decodes PCM WAV with go-audio/wav and loops at end of file
package source

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotWavFile is returned when the file lacks a RIFF/WAVE header
var ErrNotWavFile = errors.New("not a valid WAV file")

// WAVSource reads from a PCM WAV file
type WAVSource struct {
	file       *os.File
	decoder    *wav.Decoder
	intBuf     *goaudio.IntBuffer
	sampleRate int
	channels   int
	bitDepth   int
	scale      float32
	title      string
}

// NewWAV creates a new WAV audio source
func NewWAV(filePath string) (*WAVSource, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotWavFile, filePath)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)
	if format == nil || format.NumChannels == 0 || bitDepth == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: missing format chunk", ErrNotWavFile)
	}

	title := titleFromPath(filePath)
	log.Printf("Loaded WAV: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		title, format.SampleRate, format.NumChannels, bitDepth)

	return &WAVSource{
		file:       f,
		decoder:    decoder,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		bitDepth:   bitDepth,
		scale:      float32(int64(1) << (bitDepth - 1)),
		title:      title,
	}, nil
}

func (s *WAVSource) Read(samples []float32) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(samples) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(samples)),
			Format: s.decoder.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(samples)]
	}

	n, err := s.decoder.PCMBuffer(s.intBuf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("wav decode error: %w", err)
	}

	for i := 0; i < n; i++ {
		samples[i] = float32(s.intBuf.Data[i]) / s.scale
	}

	if n == 0 || err == io.EOF || s.decoder.EOF() {
		if rewindErr := s.decoder.Rewind(); rewindErr != nil {
			return n, fmt.Errorf("failed to rewind: %w", rewindErr)
		}
	}

	return n, nil
}

func (s *WAVSource) SampleRate() int { return s.sampleRate }
func (s *WAVSource) Channels() int   { return s.channels }
func (s *WAVSource) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *WAVSource) Close() error {
	return s.file.Close()
}
