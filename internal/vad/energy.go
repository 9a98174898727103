package vad

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/antelcat/fsmnsub/internal/model/window"
)

var ErrInvalidSampleRate = errors.New("sample rate must be positive")

// EnergyOptions tunes the energy detector. Zero values fall back to the
// defaults below.
type EnergyOptions struct {
	// Threshold is the per-frame RMS level above which a frame counts as
	// speech, for samples in [-1, 1].
	Threshold float64
	// FrameSize is the analysis frame length.
	FrameSize time.Duration
	// MinSpeech discards windows shorter than this.
	MinSpeech time.Duration
	// MaxSilence is the quiet gap that closes an open window.
	MaxSilence time.Duration
	// Padding widens each emitted window on both sides, clamped to the
	// waveform bounds.
	Padding time.Duration
}

func (o EnergyOptions) withDefaults() EnergyOptions {
	if o.Threshold <= 0 {
		o.Threshold = 0.01
	}
	if o.FrameSize <= 0 {
		o.FrameSize = 30 * time.Millisecond
	}
	if o.MinSpeech <= 0 {
		o.MinSpeech = 100 * time.Millisecond
	}
	if o.MaxSilence <= 0 {
		o.MaxSilence = 500 * time.Millisecond
	}
	return o
}

// EnergyDetector is a frame-RMS gate with a silence hangover. It is the
// built-in Detector; model-based detectors plug in behind the same
// interface.
type EnergyDetector struct {
	sampleRate int
	opts       EnergyOptions
	logger     *slog.Logger
}

func NewEnergyDetector(sampleRate int, opts EnergyOptions, logger *slog.Logger) (*EnergyDetector, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	return &EnergyDetector{
		sampleRate: sampleRate,
		opts:       opts.withDefaults(),
		logger:     logger,
	}, nil
}

func (d *EnergyDetector) Detect(ctx context.Context, samples []float32) (<-chan window.TimeWindow, error) {
	out := make(chan window.TimeWindow)

	go func() {
		defer close(out)
		d.scan(ctx, samples, out)
	}()

	return out, nil
}

func (d *EnergyDetector) scan(ctx context.Context, samples []float32, out chan<- window.TimeWindow) {
	log := d.logger.With("method", "scan")

	frameSamples := int(d.opts.FrameSize.Seconds() * float64(d.sampleRate))
	if frameSamples < 1 {
		frameSamples = 1
	}
	total := d.sampleDuration(len(samples))

	var (
		inSpeech     bool
		speechBegin  time.Duration
		lastVoiced   time.Duration
		emittedCount int
	)

	emit := func(begin, end time.Duration) {
		begin -= d.opts.Padding
		if begin < 0 {
			begin = 0
		}
		end += d.opts.Padding
		if end > total {
			end = total
		}
		if end-begin < d.opts.MinSpeech {
			return
		}
		w, err := window.New(begin, end)
		if err != nil {
			return
		}
		select {
		case <-ctx.Done():
		case out <- w:
			emittedCount++
		}
	}

	for off := 0; off < len(samples); off += frameSamples {
		select {
		case <-ctx.Done():
			return
		default:
		}

		end := off + frameSamples
		if end > len(samples) {
			end = len(samples)
		}
		frameBegin := d.sampleDuration(off)
		frameEnd := d.sampleDuration(end)

		voiced := rms(samples[off:end]) > d.opts.Threshold
		switch {
		case voiced && !inSpeech:
			inSpeech = true
			speechBegin = frameBegin
			lastVoiced = frameEnd
		case voiced:
			lastVoiced = frameEnd
		case inSpeech && frameEnd-lastVoiced >= d.opts.MaxSilence:
			emit(speechBegin, lastVoiced)
			inSpeech = false
		}
	}

	if inSpeech {
		emit(speechBegin, lastVoiced)
	}

	log.DebugContext(ctx, "scan done",
		"totalSamples", len(samples),
		"windows", emittedCount,
	)
}

func (d *EnergyDetector) sampleDuration(n int) time.Duration {
	return time.Duration(n) * time.Second / time.Duration(d.sampleRate)
}

func rms(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}

var _ Detector = (*EnergyDetector)(nil)
