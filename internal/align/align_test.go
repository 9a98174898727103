package align

import (
	"testing"
	"time"
)

// peaks builds a score array of n frames with firing positions set to 1.0.
func peaks(n int, fires ...int) []float32 {
	p := make([]float32, n)
	for _, f := range fires {
		p[f] = 1.0
	}
	return p
}

func TestTokenRangesEmptyInputs(t *testing.T) {
	cfg := Config{}

	if got := cfg.TokenRanges(nil, peaks(10, 3)); got != nil {
		t.Errorf("no tokens: got %v, want nil", got)
	}
	if got := cfg.TokenRanges([]string{"a"}, peaks(10)); got != nil {
		t.Errorf("no firings: got %v, want nil", got)
	}
}

func TestTokenRangesNoLeadingSilenceWithinThreshold(t *testing.T) {
	cfg := Config{}

	// First firing at frame 3, inside the 5-frame threshold: no leading
	// silence, so the token owns the first range.
	got := cfg.TokenRanges([]string{"a"}, peaks(10, 3))
	if len(got) != 1 {
		t.Fatalf("got %d ranges, want 1", len(got))
	}
	if got[0].Begin != 60*time.Millisecond {
		t.Errorf("Begin = %v, want 60ms", got[0].Begin)
	}
	// Trailing slack 10-3 = 7 frames exceeds the threshold: the token ends
	// at the midpoint (10+3)/2 = 6.5 frames.
	if got[0].End != 130*time.Millisecond {
		t.Errorf("End = %v, want 130ms", got[0].End)
	}
}

func TestTokenRangesLeadingSilenceDropped(t *testing.T) {
	cfg := Config{}

	got := cfg.TokenRanges([]string{"a"}, peaks(12, 8))
	if len(got) != 1 {
		t.Fatalf("got %d ranges, want 1", len(got))
	}
	// The [0, 8) silence range is synthetic and dropped; the real token
	// starts at its firing frame.
	if got[0].Begin != 160*time.Millisecond {
		t.Errorf("Begin = %v, want 160ms", got[0].Begin)
	}
}

func TestTokenRangesMaxDurationSplit(t *testing.T) {
	cfg := Config{}

	got := cfg.TokenRanges([]string{"a", "b"}, peaks(44, 0, 40))
	if len(got) != 2 {
		t.Fatalf("got %d ranges, want 2", len(got))
	}
	// The 40-frame gap exceeds the 30-frame cap: token a is capped and the
	// remainder becomes silence.
	if got[0].Begin != 0 || got[0].End != 600*time.Millisecond {
		t.Errorf("first range = %v, want [0, 600ms]", got[0])
	}
	if got[1].Begin != 800*time.Millisecond {
		t.Errorf("second range Begin = %v, want 800ms", got[1].Begin)
	}
}

func TestTokenRangesTrailingWithinThreshold(t *testing.T) {
	cfg := Config{}

	// Last firing at frame 8 of 10: slack 2 ≤ 5, so the token extends to
	// the segment end.
	got := cfg.TokenRanges([]string{"a", "b"}, peaks(10, 2, 8))
	if len(got) != 2 {
		t.Fatalf("got %d ranges, want 2", len(got))
	}
	if got[1].End != 200*time.Millisecond {
		t.Errorf("last End = %v, want 200ms", got[1].End)
	}
}

func TestTokenRangesNegativeShiftClamped(t *testing.T) {
	cfg := Config{TimeShift: DefaultTimeShift}

	got := cfg.TokenRanges([]string{"a"}, peaks(10, 0))
	if len(got) != 1 {
		t.Fatalf("got %d ranges, want 1", len(got))
	}
	if got[0].Begin != 0 {
		t.Errorf("Begin = %v, want 0 after clamping", got[0].Begin)
	}
}

func TestTokenRangesBeginShift(t *testing.T) {
	cfg := Config{BeginShift: 2 * time.Second}

	got := cfg.TokenRanges([]string{"a"}, peaks(10, 3))
	if got[0].Begin != 2*time.Second+60*time.Millisecond {
		t.Errorf("Begin = %v, want 2.06s", got[0].Begin)
	}
}
