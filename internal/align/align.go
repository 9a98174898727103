// Package align converts raw per-frame model output into time-stamped
// tokens and groups them into subtitle-sized spans.
package align

import (
	"time"
)

const (
	// A frame fires when its peak score exceeds this threshold.
	firingThreshold = 1.0 - 1e-4

	// Frames of leading/trailing slack before synthetic silence is emitted.
	startEndThreshold = 5.0

	// Longest range one token may cover before the rest becomes silence.
	maxTokenDuration = 30.0

	// DefaultTimeShift compensates the encoder look-ahead, in frames.
	DefaultTimeShift = -1.5
)

// frameDuration is the model stride after its internal frame-rate
// reduction: 10 ms hop, LFR factor 6, upsampled by 3.
const frameDuration = time.Duration(10*6) * time.Millisecond / 3

// TimeRange is the time interval assigned to one decoded token.
type TimeRange struct {
	Begin time.Duration
	End   time.Duration
}

// Config carries the per-segment alignment parameters.
type Config struct {
	// TimeShift is applied to every firing frame index, in frames.
	TimeShift float64
	// BeginShift moves all resulting ranges by a global offset.
	BeginShift time.Duration
}

func DefaultConfig() Config {
	return Config{TimeShift: DefaultTimeShift}
}

type frameRange struct {
	begin   float64
	end     float64
	silence bool
}

// TokenRanges derives one TimeRange per decoded token from the per-frame
// peak scores. A segment with no tokens or no firing frames yields nil.
func (c Config) TokenRanges(tokens []string, peaks []float32) []TimeRange {
	if len(tokens) == 0 {
		return nil
	}

	var fires []float64
	for i, p := range peaks {
		if float64(p) > firingThreshold {
			fires = append(fires, float64(i)+c.TimeShift)
		}
	}
	if len(fires) == 0 {
		return nil
	}

	numFrames := float64(len(peaks))
	ranges := make([]frameRange, 0, len(fires)+2)

	if fires[0] > startEndThreshold {
		ranges = append(ranges, frameRange{begin: 0, end: fires[0], silence: true})
	}

	for i := 0; i+1 < len(fires); i++ {
		if fires[i+1]-fires[i] <= maxTokenDuration {
			ranges = append(ranges, frameRange{begin: fires[i], end: fires[i+1]})
			continue
		}
		// An anomalously long gap: cap the token and fill with silence.
		split := fires[i] + maxTokenDuration
		ranges = append(ranges,
			frameRange{begin: fires[i], end: split},
			frameRange{begin: split, end: fires[i+1], silence: true},
		)
	}

	last := fires[len(fires)-1]
	if numFrames-last > startEndThreshold {
		mid := (numFrames + last) / 2
		ranges = append(ranges,
			frameRange{begin: last, end: mid},
			frameRange{begin: mid, end: numFrames, silence: true},
		)
	} else {
		ranges = append(ranges, frameRange{begin: last, end: numFrames})
	}

	out := make([]TimeRange, 0, len(tokens))
	for _, r := range ranges {
		if r.silence {
			continue
		}
		out = append(out, TimeRange{
			Begin: c.scale(r.begin),
			End:   c.scale(r.end),
		})
		if len(out) == len(tokens) {
			break
		}
	}
	return out
}

func (c Config) scale(frames float64) time.Duration {
	if frames < 0 {
		frames = 0
	}
	return time.Duration(frames*float64(frameDuration)) + c.BeginShift
}
