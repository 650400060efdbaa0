package llm

import (
	"math"
	"testing"
)

func TestLookupCost(t *testing.T) {
	tests := []struct {
		model string
		found bool
	}{
		{"claude-haiku-4-5-20251001", true},
		{"gpt-4o-mini", true},
		{"openai/gpt-4o-mini", true},
		{"anthropic/claude-3.5-sonnet", true},
		{"mock", false},
		{"vendor/unknown-model", false},
	}
	for _, tt := range tests {
		if got := LookupCost(tt.model); (got != nil) != tt.found {
			t.Errorf("LookupCost(%q) found = %v, want %v", tt.model, got != nil, tt.found)
		}
	}
}

func TestEstimateCost(t *testing.T) {
	cost, ok := EstimateCost("gpt-4o-mini", 1_000_000, 500_000)
	if !ok {
		t.Fatal("expected known model")
	}
	if want := 0.15 + 0.3; math.Abs(cost-want) > 1e-9 {
		t.Fatalf("cost = %f, want %f", cost, want)
	}

	if _, ok := EstimateCost("mock", 10, 10); ok {
		t.Fatal("expected unknown model")
	}
}
