package generate_svc

import (
	"time"

	"github.com/antelcat/fsmnsub/internal/pipeline"
	"github.com/antelcat/fsmnsub/internal/vad"
)

type GenerateOpts struct {
	EnableVad   *bool
	CurrentTime pipeline.CurrentTimeFunc
	TimeShift   *float64
	BeginShift  *time.Duration
	VadOptions  *vad.EnergyOptions
}

type GenerateOpt func(opts *GenerateOpts)

func WithVad(v bool) GenerateOpt {
	return func(opts *GenerateOpts) { opts.EnableVad = &v }
}

func WithCurrentTime(fn pipeline.CurrentTimeFunc) GenerateOpt {
	return func(opts *GenerateOpts) { opts.CurrentTime = fn }
}

func WithTimeShift(frames float64) GenerateOpt {
	return func(opts *GenerateOpts) { opts.TimeShift = &frames }
}

func WithBeginShift(v time.Duration) GenerateOpt {
	return func(opts *GenerateOpts) { opts.BeginShift = &v }
}

func WithVadOptions(v vad.EnergyOptions) GenerateOpt {
	return func(opts *GenerateOpts) { opts.VadOptions = &v }
}
