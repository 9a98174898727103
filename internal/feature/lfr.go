package feature

// applyLFR merges m consecutive frames into one stacked frame every n
// input frames. The first (m-1)/2 frames are mirrored from the start and
// the tail is padded with the last frame, so every output frame has the
// full stacked width.
func applyLFR(frames [][]float32, m, n int) [][]float32 {
	t := len(frames)
	if t == 0 {
		return nil
	}

	leftPad := (m - 1) / 2
	padded := make([][]float32, 0, leftPad+t)
	for i := 0; i < leftPad; i++ {
		padded = append(padded, frames[0])
	}
	padded = append(padded, frames...)

	dim := len(frames[0])
	outFrames := (t + n - 1) / n
	out := make([][]float32, outFrames)
	for i := range out {
		stacked := make([]float32, 0, m*dim)
		for j := 0; j < m; j++ {
			idx := i*n + j
			if idx >= len(padded) {
				idx = len(padded) - 1
			}
			stacked = append(stacked, padded[idx]...)
		}
		out[i] = stacked
	}
	return out
}
