package vad

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/antelcat/fsmnsub/internal/model/window"
)

const testRate = 16000

func newTestDetector(t *testing.T, opts EnergyOptions) *EnergyDetector {
	t.Helper()
	d, err := NewEnergyDetector(testRate, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewEnergyDetector: %v", err)
	}
	return d
}

func collect(t *testing.T, d *EnergyDetector, samples []float32) []window.TimeWindow {
	t.Helper()
	ch, err := d.Detect(context.Background(), samples)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	var out []window.TimeWindow
	for w := range ch {
		out = append(out, w)
	}
	return out
}

// tone writes a 440 Hz sine at the given amplitude into samples[from:to],
// with from/to given as durations.
func tone(samples []float32, from, to time.Duration, amplitude float64) {
	begin := int(from.Seconds() * testRate)
	end := int(to.Seconds() * testRate)
	for i := begin; i < end && i < len(samples); i++ {
		samples[i] = float32(amplitude * math.Sin(2*math.Pi*440*float64(i)/testRate))
	}
}

func TestNewEnergyDetectorRejectsBadRate(t *testing.T) {
	_, err := NewEnergyDetector(0, EnergyOptions{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if !errors.Is(err, ErrInvalidSampleRate) {
		t.Errorf("err = %v, want ErrInvalidSampleRate", err)
	}
}

func TestDetectSilenceYieldsNoWindows(t *testing.T) {
	d := newTestDetector(t, EnergyOptions{})
	if got := collect(t, d, make([]float32, 3*testRate)); len(got) != 0 {
		t.Errorf("silence produced %d windows, want 0", len(got))
	}
}

func TestDetectEmptyInput(t *testing.T) {
	d := newTestDetector(t, EnergyOptions{})
	if got := collect(t, d, nil); len(got) != 0 {
		t.Errorf("empty input produced %d windows, want 0", len(got))
	}
}

func TestDetectSingleBurst(t *testing.T) {
	samples := make([]float32, 3*testRate)
	tone(samples, 1*time.Second, 2*time.Second, 0.5)

	d := newTestDetector(t, EnergyOptions{})
	got := collect(t, d, samples)
	if len(got) != 1 {
		t.Fatalf("got %d windows, want 1", len(got))
	}

	// Frame quantization blurs the edges by at most one frame.
	const slack = 60 * time.Millisecond
	if got[0].Begin < 1*time.Second-slack || got[0].Begin > 1*time.Second+slack {
		t.Errorf("begin = %v, want about 1s", got[0].Begin)
	}
	if got[0].End < 2*time.Second-slack || got[0].End > 2*time.Second+slack {
		t.Errorf("end = %v, want about 2s", got[0].End)
	}
	if !got[0].Contains(1500 * time.Millisecond) {
		t.Error("window does not contain the burst midpoint")
	}
}

func TestDetectTwoBurstsSeparatedByLongSilence(t *testing.T) {
	samples := make([]float32, 5*testRate)
	tone(samples, 500*time.Millisecond, 1*time.Second, 0.5)
	tone(samples, 3*time.Second, 3500*time.Millisecond, 0.5)

	d := newTestDetector(t, EnergyOptions{})
	got := collect(t, d, samples)
	if len(got) != 2 {
		t.Fatalf("got %d windows, want 2", len(got))
	}
	if got[0].End >= got[1].Begin {
		t.Errorf("windows overlap: %v and %v", got[0], got[1])
	}
}

func TestDetectShortSilenceBridged(t *testing.T) {
	// A 200ms gap is below the default 500ms hangover, so both bursts
	// merge into one window.
	samples := make([]float32, 3*testRate)
	tone(samples, 500*time.Millisecond, 1*time.Second, 0.5)
	tone(samples, 1200*time.Millisecond, 1700*time.Millisecond, 0.5)

	d := newTestDetector(t, EnergyOptions{})
	got := collect(t, d, samples)
	if len(got) != 1 {
		t.Fatalf("got %d windows, want 1", len(got))
	}
	if !got[0].Contains(1100*time.Millisecond) || !got[0].Contains(1600*time.Millisecond) {
		t.Errorf("window %v does not cover both bursts", got[0])
	}
}

func TestDetectDropsTooShortSpeech(t *testing.T) {
	samples := make([]float32, testRate)
	tone(samples, 500*time.Millisecond, 530*time.Millisecond, 0.5)

	d := newTestDetector(t, EnergyOptions{MinSpeech: 200 * time.Millisecond})
	if got := collect(t, d, samples); len(got) != 0 {
		t.Errorf("30ms blip produced %d windows, want 0", len(got))
	}
}

func TestDetectPaddingClampedToWaveform(t *testing.T) {
	samples := make([]float32, 2*testRate)
	tone(samples, 0, 500*time.Millisecond, 0.5)

	d := newTestDetector(t, EnergyOptions{Padding: time.Second})
	got := collect(t, d, samples)
	if len(got) != 1 {
		t.Fatalf("got %d windows, want 1", len(got))
	}
	if got[0].Begin != 0 {
		t.Errorf("begin = %v, want 0 after clamping", got[0].Begin)
	}
	if got[0].End > 2*time.Second {
		t.Errorf("end = %v exceeds waveform length", got[0].End)
	}
}

func TestDetectCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	samples := make([]float32, 10*testRate)
	tone(samples, 0, 10*time.Second, 0.5)

	d := newTestDetector(t, EnergyOptions{})
	ch, err := d.Detect(ctx, samples)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancellation")
		}
	}
}
