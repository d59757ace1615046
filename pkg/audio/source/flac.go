// ABOUTME: FLAC file source
// ABOUTME: Decodes FLAC frames with mewkiz/flac and loops at end of file
package source

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

// FLACSource reads from a FLAC file
type FLACSource struct {
	file       *os.File
	stream     *flac.Stream
	sampleRate int
	channels   int
	scale      float32
	title      string

	// Partially consumed frame from the previous Read
	pending *frame.Frame
	offset  int
}

// NewFLAC creates a new FLAC audio source
func NewFLAC(filePath string) (*FLACSource, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	title := titleFromPath(filePath)

	log.Printf("Loaded FLAC: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		title, info.SampleRate, info.NChannels, info.BitsPerSample)

	return &FLACSource{
		file:       f,
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		scale:      float32(int64(1) << (info.BitsPerSample - 1)),
		title:      title,
	}, nil
}

func (s *FLACSource) Read(samples []float32) (int, error) {
	samplesRead := 0

	for samplesRead+s.channels <= len(samples) {
		if s.pending == nil {
			fr, err := s.stream.ParseNext()
			if err == io.EOF {
				if loopErr := s.rewind(); loopErr != nil {
					return samplesRead, loopErr
				}
				continue
			}
			if err != nil {
				return samplesRead, err
			}
			s.pending = fr
			s.offset = 0
		}

		blockSize := int(s.pending.BlockSize)
		for s.offset < blockSize && samplesRead+s.channels <= len(samples) {
			for ch := 0; ch < s.channels; ch++ {
				samples[samplesRead] = float32(s.pending.Subframes[ch].Samples[s.offset]) / s.scale
				samplesRead++
			}
			s.offset++
		}

		if s.offset >= blockSize {
			s.pending = nil
		}
	}

	return samplesRead, nil
}

// rewind loops back to the start of the file
func (s *FLACSource) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := flac.New(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new stream: %w", err)
	}
	s.stream = stream
	return nil
}

func (s *FLACSource) SampleRate() int { return s.sampleRate }
func (s *FLACSource) Channels() int   { return s.channels }
func (s *FLACSource) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *FLACSource) Close() error {
	return s.file.Close()
}
