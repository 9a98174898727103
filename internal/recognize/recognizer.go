// Package recognize defines the contract of the acoustic inference adapter.
package recognize

import "context"

// Utterance is the raw model output for one waveform segment: the decoded
// token sequence and the per-frame alignment peak scores, where values near
// 1.0 mark frames at which a token was emitted.
type Utterance struct {
	Tokens []string
	Peaks  []float32
}

// Recognizer runs batched acoustic inference over waveform segments. The
// result slice is parallel to the input batch; a segment the model could not
// decode yields an empty Utterance at its position.
//
// Implementations hold native resources and are scoped for exclusive use by
// one pipeline run at a time.
type Recognizer interface {
	Recognize(ctx context.Context, batch [][]float32) ([]Utterance, error)

	// SampleRate is the waveform sample rate the model expects.
	SampleRate() int

	Close() error
}
