// Command mic records from the default capture device until interrupted,
// then generates subtitles for the recorded take.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/antelcat/fsmnsub/internal/app"
	"github.com/antelcat/fsmnsub/internal/audio"
	"github.com/antelcat/fsmnsub/internal/service/generate_svc"
	"github.com/antelcat/fsmnsub/internal/srt"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		useVad     = flag.Bool("vad", true, "detect speech windows before recognition")
	)
	flag.Parse()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	ctx := context.Background()

	application, err := app.New(ctx, *configPath)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer application.Close(ctx)

	modelRate := application.Config.Model.SampleRateHz

	ctxAudio, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {})
	if err != nil {
		log.Fatalf("init malgo: %v", err)
	}
	defer ctxAudio.Uninit()

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Channels = 1
	cfg.Capture.Format = malgo.FormatS16
	cfg.SampleRate = uint32(modelRate)

	var (
		mu       sync.Mutex
		recorded []float32
	)
	captureRate := int(cfg.SampleRate)
	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			floats := audio.PCM16LEToFloat32(pInput)
			if captureRate != modelRate && len(floats) > 0 {
				floats = audio.ResampleMono(floats, captureRate, modelRate)
			}
			mu.Lock()
			recorded = append(recorded, floats...)
			mu.Unlock()
		},
	}

	device, err := malgo.InitDevice(ctxAudio.Context, cfg, callbacks)
	if err != nil {
		log.Fatalf("init device: %v", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		log.Fatalf("start capture: %v", err)
	}
	log.Printf("recording, press Ctrl-C to stop")

	<-sigCh
	_ = device.Stop()

	mu.Lock()
	samples := recorded
	mu.Unlock()

	if len(samples) == 0 {
		log.Fatal("nothing recorded")
	}

	p, err := application.Service.Generate(ctx, samples, generate_svc.WithVad(*useVad))
	if err != nil {
		log.Fatalf("start generation: %v", err)
	}
	if err := p.Wait(); err != nil {
		log.Fatalf("generation failed: %v", err)
	}

	if err := srt.Write(os.Stdout, p.Results().Snapshot()); err != nil {
		log.Fatalf("write srt: %v", err)
	}
}
