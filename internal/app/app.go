package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"

	"github.com/antelcat/fsmnsub/internal/config"
	"github.com/antelcat/fsmnsub/internal/feature"
	"github.com/antelcat/fsmnsub/internal/monitor"
	"github.com/antelcat/fsmnsub/internal/paraformer"
	"github.com/antelcat/fsmnsub/internal/service/generate_svc"
	"github.com/antelcat/fsmnsub/internal/telemetry"
	"github.com/antelcat/fsmnsub/internal/vad"
)

type Application struct {
	Config      config.Config
	Logger      *slog.Logger
	Service     generate_svc.GenerateService
	engine      *paraformer.Engine
	sdk         *telemetry.SDK
	loadMonitor monitor.LoadMonitor
}

func New(ctx context.Context, configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	var sdk *telemetry.SDK
	if cfg.Telemetry.ConfigPath != "" {
		sdk, err = telemetry.InitFromConfig(ctx, cfg.Telemetry.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to init telemetry: %w", err)
		}
	}

	var cmvn *feature.CMVN
	if cfg.Model.CmvnPath != "" {
		cmvn, err = feature.LoadCMVN(cfg.Model.CmvnPath)
		if err != nil {
			return nil, err
		}
	}

	vocab, err := paraformer.LoadVocab(cfg.Model.TokensPath)
	if err != nil {
		return nil, err
	}

	extractor := feature.NewExtractor(feature.Options{
		SampleRate: cfg.Model.SampleRateHz,
	}, cmvn)

	engine, err := paraformer.NewEngine(
		cfg.Model.Path,
		extractor,
		vocab,
		cfg.Model.SampleRateHz,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create acoustic model: %w", err)
	}

	detector, err := vad.NewEnergyDetector(cfg.Model.SampleRateHz, vad.EnergyOptions{
		Threshold:  cfg.Vad.Threshold,
		MinSpeech:  cfg.Vad.MinSpeech,
		MaxSilence: cfg.Vad.MaxSilence,
		Padding:    cfg.Vad.Padding,
	}, log)
	if err != nil {
		return nil, err
	}

	// One model session serves one run at a time.
	loadMonitor := monitor.NewSemaphoreLoadMonitor(1)

	metrics, err := generate_svc.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	svc := generate_svc.NewGenerateService(
		engine,
		detector,
		log,
		loadMonitor,
		metrics,
	)

	return &Application{
		Config:      cfg,
		Logger:      log,
		Service:     svc,
		engine:      engine,
		sdk:         sdk,
		loadMonitor: loadMonitor,
	}, nil
}

func (a *Application) Close(ctx context.Context) error {
	if a.engine != nil {
		_ = a.engine.Close()
	}
	return a.sdk.Shutdown(ctx)
}
