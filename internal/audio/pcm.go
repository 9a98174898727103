package audio

import (
	"encoding/binary"
)

// PCM16LEToFloat32 converts little-endian int16 PCM to float32 in [-1,1].
func PCM16LEToFloat32(pcm []byte) []float32 {
	count := len(pcm) / 2
	out := make([]float32, count)

	for i := range count {
		v := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		out[i] = float32(v) / 32768.0
	}

	return out
}

// ResampleMono linearly resamples a mono waveform between sample rates.
func ResampleMono(in []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(in) == 0 {
		return in
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(in)) / ratio)
	if outLen < 1 {
		outLen = 1
	}

	out := make([]float32, outLen)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}
