// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback and recording backends
package output

import "github.com/Resonate-Protocol/resonate-relay/pkg/audio"

// Output represents an audio sink
type Output interface {
	// Open initializes the output
	Open(sampleRate, channels int) error

	// Write outputs one buffer
	Write(buf audio.Buffer) error

	// Close releases output resources
	Close() error
}

// Multi writes every buffer to all outputs, stopping at the first error
type Multi []Output

func (m Multi) Open(sampleRate, channels int) error {
	for _, o := range m {
		if err := o.Open(sampleRate, channels); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Write(buf audio.Buffer) error {
	for _, o := range m {
		if err := o.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Close() error {
	var first error
	for _, o := range m {
		if err := o.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Discard drops everything written to it
type Discard struct{}

func (Discard) Open(sampleRate, channels int) error { return nil }
func (Discard) Write(buf audio.Buffer) error        { return nil }
func (Discard) Close() error                        { return nil }
