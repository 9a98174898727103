package span

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrSplitOutOfRange = errors.New("split time outside span interior")
	ErrNoParts         = errors.New("accurate span requires at least one part")
)

// Span is a timestamped piece of subtitle text. It is implemented by both
// TextSpan and AccurateTextSpan so callers can hold either.
type Span interface {
	Content() string
	Bounds() (begin, end time.Duration)
}

// TextSpan is the atomic subtitle unit. Timestamps are global, not
// segment-relative. Immutable once created.
type TextSpan struct {
	Text  string
	Begin time.Duration
	End   time.Duration
}

func NewTextSpan(text string, begin, end time.Duration) TextSpan {
	return TextSpan{Text: text, Begin: begin, End: end}
}

func (s TextSpan) Content() string { return s.Text }

func (s TextSpan) Bounds() (begin, end time.Duration) { return s.Begin, s.End }

// AccurateTextSpan is a TextSpan whose text is the concatenation of an
// ordered, non-empty sequence of finer-grained parts, each carrying its own
// begin/end. Parts are contiguous and non-overlapping in time, ascending.
type AccurateTextSpan struct {
	TextSpan
	Parts []TextSpan
}

// NewAccurateTextSpan builds a span from its parts, deriving text and bounds.
func NewAccurateTextSpan(parts []TextSpan) (AccurateTextSpan, error) {
	if len(parts) == 0 {
		return AccurateTextSpan{}, ErrNoParts
	}

	var b strings.Builder
	for i, p := range parts {
		if i > 0 && p.Begin < parts[i-1].End {
			return AccurateTextSpan{}, fmt.Errorf("part %d begins at %s before previous end %s", i, p.Begin, parts[i-1].End)
		}
		b.WriteString(p.Text)
	}

	return AccurateTextSpan{
		TextSpan: TextSpan{
			Text:  b.String(),
			Begin: parts[0].Begin,
			End:   parts[len(parts)-1].End,
		},
		Parts: parts,
	}, nil
}

// Split partitions the span at the cut time. Parts wholly before go left,
// wholly after go right; a part straddling the cut is itself split into two
// sub-parts with its text divided proportionally by elapsed time. A side
// holding exactly one part is returned as a plain TextSpan.
func (s AccurateTextSpan) Split(at time.Duration) (left, right Span, err error) {
	if at <= s.Begin || at >= s.End {
		return nil, nil, fmt.Errorf("%w: %s not in (%s, %s)", ErrSplitOutOfRange, at, s.Begin, s.End)
	}

	var leftParts, rightParts []TextSpan
	for _, p := range s.Parts {
		switch {
		case p.End <= at:
			leftParts = append(leftParts, p)
		case p.Begin >= at:
			rightParts = append(rightParts, p)
		default:
			before, after := splitPart(p, at)
			leftParts = append(leftParts, before)
			rightParts = append(rightParts, after)
		}
	}

	left, err = fromParts(leftParts)
	if err != nil {
		return nil, nil, err
	}
	right, err = fromParts(rightParts)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func fromParts(parts []TextSpan) (Span, error) {
	if len(parts) == 1 {
		return parts[0], nil
	}
	return NewAccurateTextSpan(parts)
}

// splitPart cuts one part at the given time, allocating its runes to each
// side proportionally to the time spent on that side.
func splitPart(p TextSpan, at time.Duration) (before, after TextSpan) {
	runes := []rune(p.Text)
	n := len(runes)
	if total := p.End - p.Begin; total > 0 {
		n = int(float64(len(runes))*(float64(at-p.Begin)/float64(total)) + 0.5)
	}
	if n > len(runes) {
		n = len(runes)
	}

	before = TextSpan{Text: string(runes[:n]), Begin: p.Begin, End: at}
	after = TextSpan{Text: string(runes[n:]), Begin: at, End: p.End}
	return before, after
}
