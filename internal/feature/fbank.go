// Package feature extracts the acoustic features the model consumes:
// log-mel filterbank energies, low-frame-rate stacking and cepstral
// mean/variance normalization.
package feature

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Options configures filterbank extraction. Zero values fall back to the
// model's training setup: 80 mel bins over 25 ms frames with a 10 ms hop.
type Options struct {
	SampleRate  int
	NumMelBins  int
	FrameLength int // samples
	FrameShift  int // samples
	LFRStack    int // frames merged per output frame (m)
	LFRStride   int // hop between merged frames (n)
}

func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = 16000
	}
	if o.NumMelBins <= 0 {
		o.NumMelBins = 80
	}
	if o.FrameLength <= 0 {
		o.FrameLength = o.SampleRate / 40 // 25 ms
	}
	if o.FrameShift <= 0 {
		o.FrameShift = o.SampleRate / 100 // 10 ms
	}
	if o.LFRStack <= 0 {
		o.LFRStack = 7
	}
	if o.LFRStride <= 0 {
		o.LFRStride = 6
	}
	return o
}

const (
	preemphasis = 0.97
	logFloor    = 1e-10

	// Input is rescaled to 16-bit range to match the normalization stats
	// the model was trained with.
	sampleScale = 32768.0
)

// Extractor converts waveform segments into padded, normalized feature
// buffers. It is stateless per call and safe for sequential reuse within
// one pipeline run.
type Extractor struct {
	opts     Options
	fft      *fourier.FFT
	fftSize  int
	window   []float64
	melBanks [][]float64
	cmvn     *CMVN
}

func NewExtractor(opts Options, cmvn *CMVN) *Extractor {
	opts = opts.withDefaults()

	fftSize := 1
	for fftSize < opts.FrameLength {
		fftSize <<= 1
	}

	return &Extractor{
		opts:     opts,
		fft:      fourier.NewFFT(fftSize),
		fftSize:  fftSize,
		window:   hammingWindow(opts.FrameLength),
		melBanks: melFilterBanks(opts.NumMelBins, fftSize, opts.SampleRate),
		cmvn:     cmvn,
	}
}

// Dim is the feature dimension after LFR stacking.
func (e *Extractor) Dim() int {
	return e.opts.NumMelBins * e.opts.LFRStack
}

// Extract computes normalized LFR features for one segment.
func (e *Extractor) Extract(segment []float32) [][]float32 {
	frames := applyLFR(e.fbank(segment), e.opts.LFRStack, e.opts.LFRStride)
	if e.cmvn != nil {
		e.cmvn.Apply(frames)
	}
	return frames
}

// ExtractBatch extracts every segment and flattens the results into one
// zero-padded row-major buffer of shape [len(segments), maxFrames, Dim].
// The returned counts carry each segment's true frame count.
func (e *Extractor) ExtractBatch(segments [][]float32) (feats []float32, frameCounts []int) {
	perSegment := make([][][]float32, len(segments))
	frameCounts = make([]int, len(segments))
	maxFrames := 0
	for i, seg := range segments {
		perSegment[i] = e.Extract(seg)
		frameCounts[i] = len(perSegment[i])
		if frameCounts[i] > maxFrames {
			maxFrames = frameCounts[i]
		}
	}

	dim := e.Dim()
	feats = make([]float32, len(segments)*maxFrames*dim)
	for i, frames := range perSegment {
		base := i * maxFrames * dim
		for t, frame := range frames {
			copy(feats[base+t*dim:], frame)
		}
	}
	return feats, frameCounts
}

// fbank computes per-frame log-mel filterbank energies.
func (e *Extractor) fbank(segment []float32) [][]float32 {
	o := e.opts
	if len(segment) < o.FrameLength {
		return nil
	}
	numFrames := 1 + (len(segment)-o.FrameLength)/o.FrameShift

	frame := make([]float64, e.fftSize)
	out := make([][]float32, numFrames)
	for t := 0; t < numFrames; t++ {
		off := t * o.FrameShift

		// Pre-emphasize and window the frame, zero-padding up to the FFT
		// size.
		for i := 0; i < o.FrameLength; i++ {
			s := float64(segment[off+i]) * sampleScale
			prev := s
			if i > 0 {
				prev = float64(segment[off+i-1]) * sampleScale
			}
			frame[i] = (s - preemphasis*prev) * e.window[i]
		}
		for i := o.FrameLength; i < e.fftSize; i++ {
			frame[i] = 0
		}

		coeffs := e.fft.Coefficients(nil, frame)
		power := make([]float64, len(coeffs))
		for i, c := range coeffs {
			re, im := real(c), imag(c)
			power[i] = re*re + im*im
		}

		mel := make([]float32, o.NumMelBins)
		for b, bank := range e.melBanks {
			var energy float64
			for k, w := range bank {
				energy += w * power[k]
			}
			if energy < logFloor {
				energy = logFloor
			}
			mel[b] = float32(math.Log(energy))
		}
		out[t] = mel
	}
	return out
}

func hammingWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func melScale(hz float64) float64 {
	return 1127.0 * math.Log(1.0+hz/700.0)
}

// melFilterBanks builds triangular mel filters over the power spectrum bins.
func melFilterBanks(numBins, fftSize, sampleRate int) [][]float64 {
	numSpectrumBins := fftSize/2 + 1
	lowMel := melScale(20.0)
	highMel := melScale(float64(sampleRate) / 2)

	centers := make([]float64, numBins+2)
	for i := range centers {
		centers[i] = lowMel + (highMel-lowMel)*float64(i)/float64(numBins+1)
	}

	banks := make([][]float64, numBins)
	for b := range banks {
		bank := make([]float64, numSpectrumBins)
		left, center, right := centers[b], centers[b+1], centers[b+2]
		for k := 0; k < numSpectrumBins; k++ {
			mel := melScale(float64(k) * float64(sampleRate) / float64(fftSize))
			switch {
			case mel <= left || mel >= right:
			case mel <= center:
				bank[k] = (mel - left) / (center - left)
			default:
				bank[k] = (right - mel) / (right - center)
			}
		}
		banks[b] = bank
	}
	return banks
}
