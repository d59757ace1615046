// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Used to convert between different sample rates using linear interpolation
package resample

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64   // read position; 0 is lastFrame, 1 is the first frame of the next input
	lastFrame  []float32 // one sample per channel
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		position:   1.0,
		lastFrame:  make([]float32, channels),
	}
}

// Resample converts interleaved input at inputRate into interleaved output
// at outputRate. It returns how many input samples were consumed and how many
// output samples were produced; unconsumed input must be passed again.
func (r *Resampler) Resample(input []float32, output []float32) (consumed, produced int) {
	inputFrames := len(input) / r.channels
	outputFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outputFrames {
		idx := int(r.position)
		frac := float32(r.position - float64(idx))

		// Frame idx is lastFrame followed by input; interpolating needs idx+1 too
		if idx > inputFrames || (frac > 0 && idx+1 > inputFrames) {
			break
		}

		for ch := 0; ch < r.channels; ch++ {
			a := r.frameSample(input, idx, ch)
			if frac == 0 {
				output[outIdx*r.channels+ch] = a
				continue
			}
			b := r.frameSample(input, idx+1, ch)
			output[outIdx*r.channels+ch] = a*(1-frac) + b*frac
		}

		outIdx++
		r.position += r.ratio
	}

	used := int(r.position)
	if used > inputFrames {
		used = inputFrames
	}
	if used > 0 {
		copy(r.lastFrame, input[(used-1)*r.channels:used*r.channels])
		r.position -= float64(used)
	}

	return used * r.channels, outIdx * r.channels
}

// frameSample returns channel ch of frame idx where frame 0 is lastFrame
func (r *Resampler) frameSample(input []float32, idx, ch int) float32 {
	if idx == 0 {
		return r.lastFrame[ch]
	}
	return input[(idx-1)*r.channels+ch]
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 1.0
	for i := range r.lastFrame {
		r.lastFrame[i] = 0
	}
}

// Ratio returns input rate divided by output rate
func (r *Resampler) Ratio() float64 {
	return r.ratio
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames) / r.ratio)
	return outputFrames * r.channels
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames)*r.ratio) + 1
	return inputFrames * r.channels
}
