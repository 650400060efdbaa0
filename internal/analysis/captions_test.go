package analysis

import (
	"strings"
	"testing"
)

const sampleVTT = `WEBVTT
Kind: captions
Language: en

00:00:01.360 --> 00:00:03.040 align:start position:0%
♪ Welcome to the<c> channel</c> ♪

00:00:03.040 --> 00:00:05.500
[Music]

00:00:05.500 --> 00:01:10.250
Today we look at how
chloroplasts capture light.

00:01:10.250 --> 00:01:12.000
Today we look at how chloroplasts capture light.

01:00:00.000 --> 01:00:02.000
Goodbye!
`

func TestParseCaptions_VTT(t *testing.T) {
	segs, err := ParseCaptions(strings.NewReader(sampleVTT))
	if err != nil {
		t.Fatalf("ParseCaptions: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3: %+v", len(segs), segs)
	}

	if segs[0].Text != "Welcome to the channel" || segs[0].Start != 1.36 || segs[0].End != 3.04 {
		t.Errorf("segment 0 = %+v", segs[0])
	}
	if segs[1].Text != "Today we look at how chloroplasts capture light." {
		t.Errorf("segment 1 text = %q", segs[1].Text)
	}
	if segs[1].End != 70.25 {
		t.Errorf("segment 1 end = %v, want 70.25", segs[1].End)
	}
	if segs[2].Start != 3600 {
		t.Errorf("segment 2 start = %v, want 3600", segs[2].Start)
	}
}

func TestParseCaptions_SRT(t *testing.T) {
	srt := "1\r\n00:00:00,000 --> 00:00:02,500\r\nHello there\r\n\r\n2\r\n00:00:02,500 --> 00:00:04,000\r\n<i>General</i> Kenobi\r\n"
	segs, err := ParseCaptions(strings.NewReader(srt))
	if err != nil {
		t.Fatalf("ParseCaptions: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[1].Text != "General Kenobi" || segs[1].Start != 2.5 || segs[1].Duration() != 1.5 {
		t.Errorf("segment 1 = %+v", segs[1])
	}
}

func TestParseCaptions_Empty(t *testing.T) {
	segs, err := ParseCaptions(strings.NewReader("WEBVTT\n\n"))
	if err != nil {
		t.Fatalf("ParseCaptions: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("got %d segments, want 0", len(segs))
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"00:00:01.360", 1.36},
		{"01:02.500", 62.5},
		{"01:00:00,250", 3600.25},
	}
	for _, tt := range tests {
		got, err := parseTimestamp(tt.in)
		if err != nil {
			t.Fatalf("parseTimestamp(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatTranscript(t *testing.T) {
	out := FormatTranscript([]Segment{{Start: 0, Text: "hi"}, {Start: 75.9, Text: "later"}})
	if out != "[0:00] hi\n[1:15] later\n" {
		t.Errorf("FormatTranscript = %q", out)
	}
}
