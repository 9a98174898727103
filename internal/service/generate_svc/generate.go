package generate_svc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/antelcat/fsmnsub/internal/align"
	"github.com/antelcat/fsmnsub/internal/model/span"
	"github.com/antelcat/fsmnsub/internal/monitor"
	"github.com/antelcat/fsmnsub/internal/pipeline"
	"github.com/antelcat/fsmnsub/internal/recognize"
	"github.com/antelcat/fsmnsub/internal/vad"
)

var (
	ErrGenerateServiceBusy = errors.New("generate service is busy")
)

type GenerateService interface {
	// Generate starts one subtitle-generation run over the waveform and
	// returns the running pipeline. The caller observes results through the
	// pipeline's result collection and waits on Done.
	Generate(
		ctx context.Context,
		samples []float32,
		opts ...GenerateOpt,
	) (*pipeline.Pipeline, error)
}

type GenerateServiceImpl struct {
	recognizer  recognize.Recognizer
	detector    vad.Detector
	logger      *slog.Logger
	loadMonitor monitor.LoadMonitor
	metrics     *Metrics
}

func NewGenerateService(
	recognizer recognize.Recognizer,
	detector vad.Detector,
	logger *slog.Logger,
	loadMonitor monitor.LoadMonitor,
	metrics *Metrics,
) *GenerateServiceImpl {
	return &GenerateServiceImpl{
		recognizer:  recognizer,
		detector:    detector,
		logger:      logger,
		loadMonitor: loadMonitor,
		metrics:     metrics,
	}
}

func setParam[T any](opt *T, setter func(opt T)) {
	if opt != nil {
		setter(*opt)
	}
}

func (s *GenerateServiceImpl) Generate(
	ctx context.Context,
	samples []float32,
	opts ...GenerateOpt,
) (*pipeline.Pipeline, error) {
	if !s.loadMonitor.TryAcquire() {
		return nil, ErrGenerateServiceBusy
	}

	s.logger.DebugContext(ctx, "Acquired run slot")

	o := buildOpts(GenerateOpts{
		EnableVad: lo.ToPtr(true),
	}, opts...)

	alignCfg := align.DefaultConfig()
	setParam(o.TimeShift, func(v float64) { alignCfg.TimeShift = v })
	setParam(o.BeginShift, func(v time.Duration) { alignCfg.BeginShift = v })

	detector := s.detector
	if o.VadOptions != nil {
		custom, err := vad.NewEnergyDetector(s.recognizer.SampleRate(), *o.VadOptions, s.logger)
		if err != nil {
			s.loadMonitor.Release()
			return nil, err
		}
		detector = custom
	}

	p := pipeline.New(s.recognizer, detector, alignCfg, s.logger)
	if s.metrics != nil {
		p.Results().Subscribe(func(span.Span) {
			s.metrics.SpansEmitted.Add(ctx, 1)
		})
	}

	started := time.Now()
	if err := p.Start(ctx, samples, *o.EnableVad, o.CurrentTime); err != nil {
		s.loadMonitor.Release()
		return nil, err
	}

	go func() {
		<-p.Done()
		s.logger.DebugContext(ctx, "Generation run done",
			"state", p.CurrentState().String(),
			"spans", p.Results().Len(),
		)
		if s.metrics != nil {
			s.metrics.RunDuration.Record(ctx, time.Since(started).Seconds(),
				metric.WithAttributes(
					attribute.String("state", p.CurrentState().String()),
				))
		}
		s.loadMonitor.Release()
	}()

	return p, nil
}

func buildOpts(defaultOpts GenerateOpts, opts ...GenerateOpt) GenerateOpts {
	o := defaultOpts
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

var _ GenerateService = (*GenerateServiceImpl)(nil)
