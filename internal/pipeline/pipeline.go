// Package pipeline orchestrates voice-activity detection and speech
// recognition over a waveform, accumulating time-stamped subtitle spans.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/antelcat/fsmnsub/internal/align"
	"github.com/antelcat/fsmnsub/internal/model/window"
	"github.com/antelcat/fsmnsub/internal/recognize"
	"github.com/antelcat/fsmnsub/internal/vad"
	"github.com/antelcat/fsmnsub/internal/windowqueue"
)

var (
	ErrInvalidState  = errors.New("pipeline is not in standby state")
	ErrEmptyWaveform = errors.New("waveform must not be empty")
)

// CurrentTimeFunc supplies the playback position the recognizer should
// prioritize. Callers not tracking playback may return a constant.
type CurrentTimeFunc func() time.Duration

// Pipeline runs one generation pass over a waveform. A Pipeline instance
// serves exactly one Start call; its adapters hold native resources and are
// not shared across concurrent runs.
type Pipeline struct {
	recognizer recognize.Recognizer
	detector   vad.Detector
	alignCfg   align.Config
	logger     *slog.Logger

	queue   *windowqueue.Queue
	results *Results
	done    chan struct{}
	windows atomic.Int64

	mu       sync.Mutex
	state    State
	started  bool
	lastErr  error
	changing []func(StateChange)
	changed  []func(StateChange)
}

func New(
	recognizer recognize.Recognizer,
	detector vad.Detector,
	alignCfg align.Config,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		recognizer: recognizer,
		detector:   detector,
		alignCfg:   alignCfg,
		logger:     logger,
		queue:      windowqueue.New(),
		results:    NewResults(),
		done:       make(chan struct{}),
	}
}

// Results returns the observable span collection of this run.
func (p *Pipeline) Results() *Results { return p.results }

// WindowsProcessed reports how many windows the recognizer has consumed.
func (p *Pipeline) WindowsProcessed() int {
	return int(p.windows.Load())
}

func (p *Pipeline) CurrentState() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// LastError returns the error that moved the pipeline to Failed, if any.
func (p *Pipeline) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// OnStateChanging registers a callback fired with (old, new) before the
// state value changes.
func (p *Pipeline) OnStateChanging(fn func(StateChange)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changing = append(p.changing, fn)
}

// OnStateChanged registers a callback fired with (old, new) after the state
// value has changed.
func (p *Pipeline) OnStateChanged(fn func(StateChange)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, fn)
}

// Done is closed when the run reaches a terminal state.
func (p *Pipeline) Done() <-chan struct{} { return p.done }

// Wait blocks until the run finishes and returns the terminal error, nil
// when the run ended in Done.
func (p *Pipeline) Wait() error {
	<-p.done
	return p.LastError()
}

// Start begins the generation run. The pipeline must be in Standby and the
// waveform non-empty; neither failure mutates state. With enableVad the
// detector and recognizer run concurrently over the shared window queue,
// otherwise the whole waveform is recognized as a single window.
//
// Cancellation through ctx is cooperative: both loops poll it at their top
// and the run still terminates in Done with the spans emitted so far.
func (p *Pipeline) Start(
	ctx context.Context,
	samples []float32,
	enableVad bool,
	currentTime CurrentTimeFunc,
) error {
	p.mu.Lock()
	if p.state != StateStandby || p.started {
		p.mu.Unlock()
		return fmt.Errorf("%w: current state is %s", ErrInvalidState, p.state)
	}
	if len(samples) == 0 {
		p.mu.Unlock()
		return ErrEmptyWaveform
	}
	p.started = true
	p.mu.Unlock()

	if currentTime == nil {
		currentTime = func() time.Duration { return 0 }
	}

	go p.run(ctx, samples, enableVad, currentTime)
	return nil
}

func (p *Pipeline) run(
	ctx context.Context,
	samples []float32,
	enableVad bool,
	currentTime CurrentTimeFunc,
) {
	defer close(p.done)
	defer func() {
		if r := recover(); r != nil {
			p.fail(fmt.Errorf("pipeline panic: %v", r))
		}
	}()

	if !enableVad {
		p.transition(StateGenerating)
		p.queue.Enqueue(window.TimeWindow{Begin: 0, End: p.sampleTime(len(samples))})
		p.queue.MarkProducingFinished()

		if err := p.recognizeLoop(ctx, samples, currentTime); err != nil && !canceled(err) {
			p.fail(err)
			return
		}
		p.transition(StateDone)
		return
	}

	p.transition(StateDetecting)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.detectLoop(gctx, samples) })
	g.Go(func() error { return p.recognizeLoop(gctx, samples, currentTime) })

	if err := g.Wait(); err != nil && !canceled(err) {
		p.fail(err)
		return
	}
	p.transition(StateDone)
}

// detectLoop drains the detector into the queue. The queue is marked
// finished on every exit path so a blocked recognizer can never hang.
func (p *Pipeline) detectLoop(ctx context.Context, samples []float32) error {
	defer p.queue.MarkProducingFinished()
	log := p.logger.With("method", "detectLoop")

	windows, err := p.detector.Detect(ctx, samples)
	if err != nil {
		return fmt.Errorf("start detection: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case w, ok := <-windows:
			if !ok {
				log.DebugContext(ctx, "detection finished")
				p.transition(StateGenerating)
				return nil
			}
			log.DebugContext(ctx, "window detected", "begin", w.Begin, "end", w.End)
			p.queue.Enqueue(w)
		}
	}
}

// recognizeLoop consumes windows until the queue reports empty-and-finished
// or the context is cancelled.
func (p *Pipeline) recognizeLoop(
	ctx context.Context,
	samples []float32,
	currentTime CurrentTimeFunc,
) error {
	log := p.logger.With("method", "recognizeLoop")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		w, ok := p.queue.TryDequeue(currentTime())
		if !ok {
			log.DebugContext(ctx, "queue drained")
			return nil
		}
		if err := p.recognizeWindow(ctx, samples, w); err != nil {
			return err
		}
	}
}

func (p *Pipeline) recognizeWindow(ctx context.Context, samples []float32, w window.TimeWindow) error {
	log := p.logger.With("method", "recognizeWindow")

	p.windows.Add(1)

	segment := p.sliceWaveform(samples, w)
	if len(segment) == 0 {
		return nil
	}

	utterances, err := p.recognizer.Recognize(ctx, [][]float32{segment})
	if err != nil {
		if canceled(err) {
			return err
		}
		// An adapter failure means no output for this batch, not a dead
		// pipeline. Timing state of other windows is unaffected.
		log.WarnContext(ctx, "recognition failed for window",
			"begin", w.Begin,
			"end", w.End,
			"error", err,
		)
		return nil
	}

	for _, u := range utterances {
		cfg := p.alignCfg
		cfg.BeginShift += w.Begin
		for _, s := range cfg.Spans(u.Tokens, u.Peaks) {
			p.results.Append(s)
		}
	}
	return nil
}

// sliceWaveform copies the sample range covered by the window, clamping
// both bounds to the waveform. A window entirely outside the waveform
// yields a zero-length segment.
func (p *Pipeline) sliceWaveform(samples []float32, w window.TimeWindow) []float32 {
	begin := p.sampleIndex(w.Begin, len(samples))
	end := p.sampleIndex(w.End, len(samples))
	if end <= begin {
		return nil
	}
	out := make([]float32, end-begin)
	copy(out, samples[begin:end])
	return out
}

func (p *Pipeline) sampleIndex(t time.Duration, max int) int {
	i := int(t.Seconds() * float64(p.recognizer.SampleRate()))
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}

func (p *Pipeline) sampleTime(n int) time.Duration {
	return time.Duration(n) * time.Second / time.Duration(p.recognizer.SampleRate())
}

func (p *Pipeline) fail(err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()

	p.logger.Error("pipeline failed", "error", err)
	p.transition(StateFailed)
}

// transition validates the edge, fires the changing callbacks, commits the
// new state, then fires the changed callbacks. Illegal edges are dropped.
func (p *Pipeline) transition(new State) {
	p.mu.Lock()
	old := p.state
	if !legalTransition(old, new) {
		p.mu.Unlock()
		p.logger.Warn("illegal state transition ignored", "from", old, "to", new)
		return
	}
	changing := make([]func(StateChange), len(p.changing))
	copy(changing, p.changing)
	p.mu.Unlock()

	change := StateChange{Old: old, New: new}
	for _, fn := range changing {
		fn(change)
	}

	p.mu.Lock()
	p.state = new
	changed := make([]func(StateChange), len(p.changed))
	copy(changed, p.changed)
	p.mu.Unlock()

	for _, fn := range changed {
		fn(change)
	}
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
