// ABOUTME: Pairwise averaging mix used to combine remote audio into a local buffer
// ABOUTME: Folds buffers sequentially so arrival order affects the weighting
package audio

// Fold averages src into dst in place over the first channels × samples
// region: dst[c][s] = (dst[c][s] + src[c][s]) * 0.5.
//
// Folding several buffers one after another is not an N-way mean; each fold
// halves the weight of everything mixed before it. Callers must check shapes
// first, Fold indexes without bounds checks beyond Go's own.
func Fold(dst, src Buffer, channels, samples int) {
	for ch := 0; ch < channels; ch++ {
		d := dst[ch][:samples]
		s := src[ch][:samples]
		for i := range d {
			d[i] = (d[i] + s[i]) * 0.5
		}
	}
}
