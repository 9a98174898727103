// Package srt reads and writes the SubRip subtitle text format.
package srt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/antelcat/fsmnsub/internal/model/span"
)

// Write renders spans as sequential SRT blocks:
//
//	{index}
//	{hh:mm:ss,mmm} --> {hh:mm:ss,mmm}
//	{text}
//
// separated by blank lines, in the given order.
func Write(w io.Writer, spans []span.Span) error {
	bw := bufio.NewWriter(w)
	for i, s := range spans {
		begin, end := s.Bounds()
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			i+1,
			FormatTimestamp(begin),
			FormatTimestamp(end),
			s.Content(),
		); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Parse reads blank-line-delimited SRT blocks, ignoring each block's leading
// index line. Malformed blocks fail parsing rather than being skipped.
func Parse(r io.Reader) ([]span.TextSpan, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}

	content := strings.TrimSpace(strings.ReplaceAll(string(raw), "\r\n", "\n"))
	if content == "" {
		return nil, nil
	}

	var spans []span.TextSpan
	for _, block := range strings.Split(content, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		s, err := parseBlock(block)
		if err != nil {
			return nil, err
		}
		spans = append(spans, s)
	}
	return spans, nil
}

func parseBlock(block string) (span.TextSpan, error) {
	lines := strings.Split(block, "\n")

	// A leading bare-number line is the cue index.
	if len(lines) > 1 && !strings.Contains(lines[0], "-->") {
		if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
			lines = lines[1:]
		}
	}
	if len(lines) < 2 || !strings.Contains(lines[0], "-->") {
		return span.TextSpan{}, fmt.Errorf("malformed srt block %q", block)
	}

	bounds := strings.SplitN(lines[0], "-->", 2)
	begin, err := ParseTimestamp(strings.TrimSpace(bounds[0]))
	if err != nil {
		return span.TextSpan{}, err
	}
	end, err := ParseTimestamp(strings.TrimSpace(bounds[1]))
	if err != nil {
		return span.TextSpan{}, err
	}

	return span.TextSpan{
		Text:  strings.Join(lines[1:], "\n"),
		Begin: begin,
		End:   end,
	}, nil
}

// FormatTimestamp renders a duration as hh:mm:ss,mmm.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	ms := (d % time.Second) / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseTimestamp accepts hh:mm:ss,mmm with a period tolerated in place of
// the comma.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ".", ",")
	secParts := strings.Split(value, ",")
	if len(secParts) != 2 {
		return 0, fmt.Errorf("invalid srt timestamp %q", value)
	}
	hms := strings.Split(secParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid srt timestamp %q", value)
	}

	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(secParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid srt timestamp %q", value)
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}
