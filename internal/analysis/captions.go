package analysis

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Segment is one timed line of transcript. Times are seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return max(s.End-s.Start, 0)
}

// Cue timings look like "00:01:02.500 --> 00:01:04.000" in WebVTT and
// "00:01:02,500 --> 00:01:04,000" in SRT. Hours are optional in WebVTT.
var cueTiming = regexp.MustCompile(`((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})\s*-->\s*((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})`)

var (
	inlineTags = regexp.MustCompile(`<[^>]*>`)
	bracketed  = regexp.MustCompile(`^\[[^\]]*\]`)
	musicNotes = regexp.MustCompile(`^♪\s*|\s*♪$`)
)

// ParseCaptions reads WebVTT or SRT captions. Cue text is cleaned of inline
// tags, music notes and bracketed annotations; cues that end up empty are
// dropped, as are exact repeats of the previous cue's text.
func ParseCaptions(r io.Reader) ([]Segment, error) {
	var (
		segments []Segment
		cur      *Segment
		text     []string
	)

	flush := func() {
		if cur == nil {
			return
		}
		joined := strings.Join(text, " ")
		if joined != "" && (len(segments) == 0 || segments[len(segments)-1].Text != joined) {
			cur.Text = joined
			segments = append(segments, *cur)
		}
		cur, text = nil, nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))

		if m := cueTiming.FindStringSubmatch(line); m != nil {
			flush()
			start, err := parseTimestamp(m[1])
			if err != nil {
				return nil, err
			}
			end, err := parseTimestamp(m[2])
			if err != nil {
				return nil, err
			}
			cur = &Segment{Start: start, End: end}
			continue
		}

		if cur == nil {
			continue
		}
		if line == "" {
			flush()
			continue
		}
		if clean := cleanCueText(line); clean != "" {
			text = append(text, clean)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}
	flush()
	return segments, nil
}

func cleanCueText(line string) string {
	line = inlineTags.ReplaceAllString(line, "")
	line = musicNotes.ReplaceAllString(line, "")
	line = bracketed.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

// parseTimestamp converts [HH:]MM:SS.mmm (or SRT's comma form) to seconds.
func parseTimestamp(ts string) (float64, error) {
	ts = strings.Replace(ts, ",", ".", 1)
	parts := strings.Split(ts, ":")
	var total float64
	for _, p := range parts[:len(parts)-1] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		total = total*60 + float64(n)
	}
	secs, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	return total*60 + secs, nil
}

// FormatTranscript renders segments as "[M:SS] text" lines for prompting.
func FormatTranscript(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		total := int(s.Start)
		fmt.Fprintf(&b, "[%d:%02d] %s\n", total/60, total%60, s.Text)
	}
	return b.String()
}
