// ABOUTME: Host audio driver for a relay node
// ABOUTME: Calls StreamAudio once per buffer period with local source audio
package host

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/resonate-relay/pkg/audio"
	"github.com/Resonate-Protocol/resonate-relay/pkg/audio/output"
)

const (
	DefaultSampleRate = 48000
	DefaultChannels   = 2
	DefaultSamples    = 1024
)

// Streamer is the per-cycle audio entry point of a relay node
type Streamer interface {
	StreamAudio(buf audio.Buffer, numSamples, numChannels int)
}

// BufferReader fills a buffer with local audio
type BufferReader interface {
	ReadBuffer(buf audio.Buffer) error
}

// Config holds the buffer shape and pacing
type Config struct {
	SampleRate int
	Channels   int
	Samples    int // frames per buffer
	Debug      bool
}

// Driver stands in for an audio device callback
type Driver struct {
	config Config
	node   Streamer
	input  BufferReader
	output output.Output

	cycles      atomic.Uint64
	readErrors  atomic.Uint64
	writeErrors atomic.Uint64

	stopChan chan struct{}
	stopOnce sync.Once
	running  sync.WaitGroup
}

// New creates a driver; input may be nil for silence and out may be nil to discard
func New(config Config, node Streamer, input BufferReader, out output.Output) *Driver {
	if config.SampleRate <= 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.Channels <= 0 {
		config.Channels = DefaultChannels
	}
	if config.Samples <= 0 {
		config.Samples = DefaultSamples
	}
	if out == nil {
		out = output.Discard{}
	}

	return &Driver{
		config:   config,
		node:     node,
		input:    input,
		output:   out,
		stopChan: make(chan struct{}),
	}
}

// Period is the wall-clock duration of one buffer
func (d *Driver) Period() time.Duration {
	return time.Duration(d.config.Samples) * time.Second / time.Duration(d.config.SampleRate)
}

// Start runs cycles at the buffer period until Stop
func (d *Driver) Start() {
	d.running.Add(1)
	defer d.running.Done()

	log.Printf("Audio driver starting: %d ch x %d samples @ %d Hz (%v per buffer)",
		d.config.Channels, d.config.Samples, d.config.SampleRate, d.Period())

	ticker := time.NewTicker(d.Period())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.Cycle()
		case <-d.stopChan:
			log.Printf("Audio driver stopping after %d cycles", d.cycles.Load())
			return
		}
	}
}

// Stop ends Start and waits for the cycle in progress
func (d *Driver) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopChan)
	})
	d.running.Wait()
}

// Cycle runs one processing cycle and returns the buffer handed to the node.
// Each cycle allocates a new buffer because the node keeps a reference to
// it until broadcast.
func (d *Driver) Cycle() audio.Buffer {
	buf := audio.NewBuffer(d.config.Channels, d.config.Samples)

	if d.input != nil {
		if err := d.input.ReadBuffer(buf); err != nil {
			d.readErrors.Add(1)
			log.Printf("Error reading local audio: %v", err)
			for _, row := range buf {
				clear(row)
			}
		}
	}

	d.node.StreamAudio(buf, d.config.Samples, d.config.Channels)

	if err := d.output.Write(buf); err != nil {
		d.writeErrors.Add(1)
		if d.config.Debug || d.writeErrors.Load() == 1 {
			log.Printf("Error writing audio output: %v", err)
		}
	}

	n := d.cycles.Add(1)
	if d.config.Debug && n%500 == 0 {
		log.Printf("[DEBUG] Audio driver: %d cycles, %d read errors, %d write errors",
			n, d.readErrors.Load(), d.writeErrors.Load())
	}
	return buf
}

// Cycles returns the number of completed cycles
func (d *Driver) Cycles() uint64 {
	return d.cycles.Load()
}
