package components

import (
	"strings"
	"testing"
)

func TestChapterProgressFraction(t *testing.T) {
	tests := []struct {
		passed, total int
		want          float64
	}{
		{0, 3, 0},
		{1, 2, 0.5},
		{3, 3, 1},
		{5, 3, 1},
		{1, 0, 0},
	}
	for _, tt := range tests {
		got := ChapterProgress{Passed: tt.passed, Total: tt.total}.Fraction()
		if got != tt.want {
			t.Errorf("Fraction(%d/%d) = %v, want %v", tt.passed, tt.total, got, tt.want)
		}
	}
}

func TestChapterProgressView(t *testing.T) {
	out := ChapterProgress{Passed: 1, Total: 4, Width: 30}.View()
	if !strings.Contains(out, "1/4") {
		t.Errorf("View() = %q, want it to contain 1/4", out)
	}
}
