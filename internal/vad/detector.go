// Package vad detects speech regions in a waveform.
package vad

import (
	"context"

	"github.com/antelcat/fsmnsub/internal/model/window"
)

// Detector scans a waveform and emits speech windows as it finds them.
// The returned channel is finite and single-pass: it closes once the whole
// waveform has been scanned or the context is cancelled.
type Detector interface {
	Detect(ctx context.Context, samples []float32) (<-chan window.TimeWindow, error)
}
