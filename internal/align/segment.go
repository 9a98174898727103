package align

import (
	"strings"
	"time"

	"github.com/antelcat/fsmnsub/internal/model/span"
)

// Spans aligns the decoded token sequence against the peak scores and
// groups the result into subtitle spans. Tokens carrying a trailing "@@"
// sub-word marker are merged with their successor's text.
func (c Config) Spans(tokens []string, peaks []float32) []span.Span {
	ranges := c.TokenRanges(tokens, peaks)
	return splitSentences(tokens, ranges)
}

// splitSentences walks the token list left to right and flushes a group
// whenever the gap to the next token is anomalously large relative to the
// average pace of the current group. That duration-outlier rule is a
// practical proxy for clause boundaries in speech.
func splitSentences(tokens []string, ranges []TimeRange) []span.Span {
	n := len(tokens)
	if len(ranges) < n {
		n = len(ranges)
	}
	if n == 0 {
		return nil
	}

	var spans []span.Span
	beginIndex := 0
	for j := 0; j < n; j++ {
		if j == n-1 {
			spans = append(spans, flushGroup(tokens, ranges, beginIndex, j))
			break
		}

		gap := ranges[j+1].Begin - ranges[j].Begin
		if gap > 2*averageGap(ranges, beginIndex, j) {
			spans = append(spans, flushGroup(tokens, ranges, beginIndex, j))
			beginIndex = j + 1
		}
	}
	return spans
}

// averageGap is the mean begin-to-begin delta over the group [begin, j].
func averageGap(ranges []TimeRange, begin, j int) time.Duration {
	var total time.Duration
	for k := begin; k <= j; k++ {
		total += ranges[k+1].Begin - ranges[k].Begin
	}
	return total / time.Duration(j-begin+1)
}

func flushGroup(tokens []string, ranges []TimeRange, begin, end int) span.Span {
	parts := make([]span.TextSpan, 0, end-begin+1)
	for k := begin; k <= end; k++ {
		parts = append(parts, span.TextSpan{
			Text:  strings.TrimSuffix(tokens[k], "@@"),
			Begin: ranges[k].Begin,
			End:   ranges[k].End,
		})
	}
	if len(parts) == 1 {
		return parts[0]
	}

	// Parts come straight from the alignment walk, so they are already
	// contiguous and ascending.
	acc, err := span.NewAccurateTextSpan(parts)
	if err != nil {
		return parts[0]
	}
	return acc
}
