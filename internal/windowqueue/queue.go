// Package windowqueue holds pending speech-time windows produced by the
// detector and lets the recognizer retrieve the next relevant one relative
// to an externally supplied current time.
package windowqueue

import (
	"sort"
	"sync"
	"time"

	"github.com/antelcat/fsmnsub/internal/model/window"
)

// Queue is a thread-safe ordered collection of time windows with blocking,
// time-biased removal. Consumers block while the queue is empty until the
// producer marks production finished.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	windows  []window.TimeWindow
	finished bool
}

func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue inserts the window at its sorted position by (Begin, End) and
// wakes one blocked consumer.
func (q *Queue) Enqueue(w window.TimeWindow) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := sort.Search(len(q.windows), func(i int) bool {
		return !q.windows[i].Less(w)
	})
	q.windows = append(q.windows, window.TimeWindow{})
	copy(q.windows[i+1:], q.windows[i:])
	q.windows[i] = w

	q.cond.Signal()
}

// MarkProducingFinished signals that no further windows will be enqueued.
// Blocked consumers wake so they can observe "empty and finished".
func (q *Queue) MarkProducingFinished() {
	q.mu.Lock()
	q.finished = true
	q.mu.Unlock()

	q.cond.Broadcast()
}

// Len reports the number of pending windows.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.windows)
}

// TryDequeue blocks until the queue is non-empty or production is finished,
// then removes and returns the most relevant window for currentTime:
// first a window containing currentTime, else the earliest window beginning
// after it, else the earliest window overall. It reports not-found only when
// the queue is empty and production is finished.
func (q *Queue) TryDequeue(currentTime time.Duration) (window.TimeWindow, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.windows) == 0 && !q.finished {
		q.cond.Wait()
	}
	if len(q.windows) == 0 {
		return window.TimeWindow{}, false
	}

	i := q.selectLocked(currentTime)
	w := q.windows[i]
	q.windows = append(q.windows[:i], q.windows[i+1:]...)
	return w, true
}

func (q *Queue) selectLocked(currentTime time.Duration) int {
	for i, w := range q.windows {
		if w.Contains(currentTime) {
			return i
		}
	}
	// Windows are sorted, so the first one beginning after currentTime is
	// also the earliest such window.
	for i, w := range q.windows {
		if w.Begin > currentTime {
			return i
		}
	}
	// Everything is already behind currentTime: drain oldest first.
	return 0
}
