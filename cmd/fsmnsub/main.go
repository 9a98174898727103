package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/antelcat/fsmnsub/internal/app"
	"github.com/antelcat/fsmnsub/internal/audio"
	"github.com/antelcat/fsmnsub/internal/model/span"
	"github.com/antelcat/fsmnsub/internal/service/generate_svc"
	"github.com/antelcat/fsmnsub/internal/srt"
	"github.com/antelcat/fsmnsub/pkg/genreport"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		inPath     = flag.String("in", "", "input wav file (PCM16LE mono)")
		outPath    = flag.String("out", "", "output srt file (default stdout)")
		useVad     = flag.Bool("vad", true, "detect speech windows before recognition")
		reportPath = flag.String("report", "", "write a JSON run report to this path")
	)
	flag.Parse()

	if *inPath == "" {
		log.Fatal("missing -in")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		cancel()
	}()

	application, err := app.New(ctx, *configPath)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer application.Close(context.Background())

	f, err := os.Open(*inPath)
	if err != nil {
		log.Fatalf("open input: %v", err)
	}
	samples, rate, err := audio.DecodeWav(f)
	f.Close()
	if err != nil {
		log.Fatalf("decode wav: %v", err)
	}
	if rate != application.Config.Model.SampleRateHz {
		samples = audio.ResampleMono(samples, rate, application.Config.Model.SampleRateHz)
	}

	genOpts := []generate_svc.GenerateOpt{generate_svc.WithVad(*useVad)}
	if ts := application.Config.Align.TimeShiftFrames; ts != nil {
		genOpts = append(genOpts, generate_svc.WithTimeShift(*ts))
	}

	started := time.Now()
	p, err := application.Service.Generate(ctx, samples, genOpts...)
	if err != nil {
		log.Fatalf("start generation: %v", err)
	}
	if err := p.Wait(); err != nil {
		log.Fatalf("generation failed: %v", err)
	}

	// The recognizer emits spans in processing order; subtitles want
	// chronological order.
	spans := p.Results().Snapshot()
	sort.SliceStable(spans, func(i, j int) bool {
		bi, _ := spans[i].Bounds()
		bj, _ := spans[j].Bounds()
		return bi < bj
	})

	if err := writeSpans(*outPath, spans); err != nil {
		log.Fatalf("write srt: %v", err)
	}

	if *reportPath != "" {
		audioDur := time.Duration(len(samples)) * time.Second /
			time.Duration(application.Config.Model.SampleRateHz)
		report := genreport.NewRunReport(*inPath, audioDur, time.Since(started))
		report.VadEnabled = *useVad
		report.WindowsProcessed = p.WindowsProcessed()
		report.SpansEmitted = len(spans)
		report.FinalState = p.CurrentState().String()
		if err := report.Save(*reportPath); err != nil {
			log.Fatalf("write report: %v", err)
		}
	}
}

func writeSpans(path string, spans []span.Span) error {
	if path == "" {
		return srt.Write(os.Stdout, spans)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := srt.Write(f, spans); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
