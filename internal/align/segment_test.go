package align

import (
	"strings"
	"testing"
	"time"

	"github.com/antelcat/fsmnsub/internal/model/span"
)

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// evenRanges builds n contiguous ranges with a constant begin-to-begin gap.
func evenRanges(n int, gap time.Duration) []TimeRange {
	out := make([]TimeRange, n)
	for i := range out {
		out[i] = TimeRange{Begin: time.Duration(i) * gap, End: time.Duration(i+1) * gap}
	}
	return out
}

func TestSplitSentencesSingleGroup(t *testing.T) {
	tokens := []string{"he", "llo"}
	spans := splitSentences(tokens, evenRanges(2, ms(20)))

	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	acc, ok := spans[0].(span.AccurateTextSpan)
	if !ok {
		t.Fatalf("span is %T, want AccurateTextSpan", spans[0])
	}
	if acc.Text != "hello" || len(acc.Parts) != 2 {
		t.Errorf("span = %q with %d parts, want %q with 2", acc.Text, len(acc.Parts), "hello")
	}
}

func TestSplitSentencesBreaksOnOutlierGap(t *testing.T) {
	tokens := []string{"a", "b", "c", "d", "e"}
	ranges := []TimeRange{
		{Begin: ms(0), End: ms(20)},
		{Begin: ms(20), End: ms(40)},
		{Begin: ms(40), End: ms(60)},
		{Begin: ms(60), End: ms(80)},
		// The 140ms jump to the next token dwarfs the 20ms pace.
		{Begin: ms(200), End: ms(220)},
	}

	spans := splitSentences(tokens, ranges)
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}

	if got := spans[0].Content(); got != "abcd" {
		t.Errorf("first span = %q, want %q", got, "abcd")
	}
	if got := spans[1].Content(); got != "e" {
		t.Errorf("second span = %q, want %q", got, "e")
	}
	if _, ok := spans[1].(span.TextSpan); !ok {
		t.Errorf("single-token span is %T, want TextSpan", spans[1])
	}
}

func TestSplitSentencesStripsSubwordMarkers(t *testing.T) {
	tokens := []string{"sub@@", "title"}
	spans := splitSentences(tokens, evenRanges(2, ms(20)))

	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if got := spans[0].Content(); got != "subtitle" {
		t.Errorf("span = %q, want %q", got, "subtitle")
	}
}

func TestSplitSentencesReconstructsTokenString(t *testing.T) {
	tokens := []string{"to@@", "day", "it", "rains", "a", "lot"}
	ranges := []TimeRange{
		{Begin: ms(0), End: ms(20)},
		{Begin: ms(20), End: ms(40)},
		{Begin: ms(40), End: ms(70)},
		{Begin: ms(300), End: ms(320)},
		{Begin: ms(320), End: ms(350)},
		{Begin: ms(350), End: ms(380)},
	}

	spans := splitSentences(tokens, ranges)
	if len(spans) < 2 {
		t.Fatalf("got %d spans, want at least 2", len(spans))
	}

	var b strings.Builder
	var prevEnd time.Duration
	for i, s := range spans {
		b.WriteString(s.Content())
		begin, end := s.Bounds()
		if i > 0 && begin < prevEnd {
			t.Errorf("span %d begins at %v before previous end %v", i, begin, prevEnd)
		}
		prevEnd = end
	}

	want := "todayitrainsalot"
	if b.String() != want {
		t.Errorf("concatenated text = %q, want %q", b.String(), want)
	}
}

func TestSpansEndToEnd(t *testing.T) {
	cfg := Config{}
	tokens := []string{"a", "b"}

	spans := cfg.Spans(tokens, peaks(20, 2, 8))
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	begin, end := spans[0].Bounds()
	if begin != 40*time.Millisecond {
		t.Errorf("begin = %v, want 40ms", begin)
	}
	if end <= begin {
		t.Errorf("end %v not after begin %v", end, begin)
	}
}
