// ABOUTME: Adapts a Source to fixed-shape relay buffers
// ABOUTME: Maps channel counts and resamples to the node sample rate
package source

import (
	"fmt"

	"github.com/Resonate-Protocol/resonate-relay/pkg/audio"
	"github.com/Resonate-Protocol/resonate-relay/pkg/audio/resample"
)

// Reader pulls from a Source and fills buffers of the node's shape
type Reader struct {
	src        Source
	sampleRate int
	channels   int

	resampler *resample.Resampler
	raw       []float32 // interleaved at source rate and channel count
	pending   []float32 // raw samples not yet consumed by the resampler
	mapped    []float32 // interleaved at node rate, source channel count
}

// NewReader creates a reader producing sampleRate/channels buffers from src
func NewReader(src Source, sampleRate, channels int) *Reader {
	r := &Reader{
		src:        src,
		sampleRate: sampleRate,
		channels:   channels,
	}
	if src.SampleRate() != sampleRate {
		r.resampler = resample.New(src.SampleRate(), sampleRate, src.Channels())
	}
	return r
}

// ReadBuffer fills buf, which must have the reader's channel count
func (r *Reader) ReadBuffer(buf audio.Buffer) error {
	if buf.Channels() != r.channels {
		return fmt.Errorf("buffer has %d channels, reader produces %d", buf.Channels(), r.channels)
	}

	srcChannels := r.src.Channels()
	want := buf.Samples() * srcChannels
	if cap(r.mapped) < want {
		r.mapped = make([]float32, want)
	}
	mapped := r.mapped[:want]

	var err error
	if r.resampler == nil {
		err = r.readDirect(mapped)
	} else {
		err = r.readResampled(mapped)
	}
	if err != nil {
		return err
	}

	mapChannels(buf, mapped, srcChannels)
	return nil
}

// readDirect reads until dst is full
func (r *Reader) readDirect(dst []float32) error {
	filled := 0
	for filled < len(dst) {
		n, err := r.src.Read(dst[filled:])
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
		filled += n
	}
	clear(dst[filled:])
	return nil
}

// readResampled feeds the resampler until dst is full
func (r *Reader) readResampled(dst []float32) error {
	produced := 0
	for produced < len(dst) {
		if len(r.pending) == 0 {
			need := r.resampler.InputSamplesNeeded(len(dst) - produced)
			if cap(r.raw) < need {
				r.raw = make([]float32, need)
			}
			n, err := r.src.Read(r.raw[:need])
			if err != nil {
				return err
			}
			if n == 0 {
				break
			}
			r.pending = r.raw[:n]
		}

		consumed, out := r.resampler.Resample(r.pending, dst[produced:])
		r.pending = r.pending[consumed:]
		produced += out
		if consumed == 0 && out == 0 {
			// Fewer than one frame left over; drop it
			r.pending = r.pending[:0]
		}
	}
	clear(dst[produced:])
	return nil
}

// mapChannels deinterleaves src into buf, folding or repeating channels
func mapChannels(buf audio.Buffer, src []float32, srcChannels int) {
	channels := buf.Channels()
	if srcChannels == channels {
		buf.Deinterleave(src)
		return
	}

	frames := buf.Samples()
	for f := 0; f < frames; f++ {
		frame := src[f*srcChannels : (f+1)*srcChannels]
		switch {
		case channels == 1:
			var sum float32
			for _, v := range frame {
				sum += v
			}
			buf[0][f] = sum / float32(srcChannels)
		default:
			for ch := 0; ch < channels; ch++ {
				if ch < srcChannels {
					buf[ch][f] = frame[ch]
				} else {
					buf[ch][f] = frame[srcChannels-1]
				}
			}
		}
	}
}
