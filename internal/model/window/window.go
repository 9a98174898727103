package window

import (
	"fmt"
	"time"
)

// TimeWindow is one contiguous region of elapsed audio time that the
// detector believes contains speech. Immutable once created.
type TimeWindow struct {
	Begin time.Duration
	End   time.Duration
}

func New(begin, end time.Duration) (TimeWindow, error) {
	if end < begin {
		return TimeWindow{}, fmt.Errorf("window end %s before begin %s", end, begin)
	}
	return TimeWindow{Begin: begin, End: end}, nil
}

// Contains reports whether t falls inside the window, bounds included.
func (w TimeWindow) Contains(t time.Duration) bool {
	return w.Begin <= t && t <= w.End
}

func (w TimeWindow) Duration() time.Duration {
	return w.End - w.Begin
}

// Less orders windows ascending by (Begin, End).
func (w TimeWindow) Less(other TimeWindow) bool {
	if w.Begin != other.Begin {
		return w.Begin < other.Begin
	}
	return w.End < other.End
}
