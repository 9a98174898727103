package pipeline

import (
	"sync"

	"github.com/antelcat/fsmnsub/internal/model/span"
)

// Results is the observable, insertion-ordered span collection of one run.
// Appends come from the recognizer only; snapshots and subscriptions are
// safe from any goroutine.
type Results struct {
	mu    sync.Mutex
	spans []span.Span
	subs  []func(span.Span)
}

func NewResults() *Results {
	return &Results{}
}

// Subscribe registers a callback fired after each successful append, in
// append order. Register before the run starts to observe every span.
func (r *Results) Subscribe(fn func(span.Span)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

func (r *Results) Append(s span.Span) {
	r.mu.Lock()
	r.spans = append(r.spans, s)
	subs := make([]func(span.Span), len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

// Snapshot returns a point-in-time copy of the collection.
func (r *Results) Snapshot() []span.Span {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]span.Span, len(r.spans))
	copy(out, r.spans)
	return out
}

func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spans)
}
