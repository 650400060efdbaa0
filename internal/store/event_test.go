package store

import (
	"context"
	"testing"
)

func TestLLMEvents_AppendQueryGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{SessionID: "s1", Provider: "anthropic", Model: "claude-haiku-4-5", Purpose: "answer-evaluation", InputTokens: 120, OutputTokens: 80, LatencyMs: 900, Success: true, RequestBody: "[user]\nexplain", ResponseBody: `{"score":80}`},
		{SessionID: "s1", Provider: "anthropic", Model: "claude-haiku-4-5", Purpose: "hint", InputTokens: 50, OutputTokens: 20, LatencyMs: 300, Success: true},
		{SessionID: "s2", Provider: "anthropic", Model: "claude-haiku-4-5", Purpose: "hint", LatencyMs: 100, Success: false, ErrorMessage: "rate limited"},
	}
	for i, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3", len(all))
	}
	if all[0].Sequence < all[1].Sequence {
		t.Errorf("expected newest first, got sequences %d, %d", all[0].Sequence, all[1].Sequence)
	}
	if all[0].Success || all[0].ErrorMessage != "rate limited" {
		t.Errorf("newest event = %+v", all[0])
	}

	hints, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "hint", SessionID: "s1"})
	if err != nil {
		t.Fatalf("query filtered: %v", err)
	}
	if len(hints) != 1 || hints[0].InputTokens != 50 {
		t.Fatalf("filtered = %+v", hints)
	}

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit: got %d, want 2", len(limited))
	}

	last := all[len(all)-1]
	got, err := repo.GetLLMEvent(ctx, last.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ResponseBody != `{"score":80}` || got.RequestBody != "[user]\nexplain" {
		t.Fatalf("get returned %+v", got)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing event")
	}
}

func TestLLMUsageAggregates(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, e := range []LLMRequestEventData{
		{Provider: "p", Model: "gpt-4o-mini", Purpose: "hint", InputTokens: 10, OutputTokens: 5, LatencyMs: 100},
		{Provider: "p", Model: "gpt-4o-mini", Purpose: "hint", InputTokens: 20, OutputTokens: 5, LatencyMs: 300},
		{Provider: "p", Model: "claude-haiku-4-5", Purpose: "answer-evaluation", InputTokens: 100, OutputTokens: 50, LatencyMs: 1000},
	} {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("got %d purposes, want 2", len(byPurpose))
	}
	hint := byPurpose[1]
	if hint.Purpose != "hint" || hint.Calls != 2 || hint.InputTokens != 30 || hint.OutputTokens != 10 || hint.AvgLatencyMs != 200 {
		t.Errorf("hint stats = %+v", hint)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "claude-haiku-4-5" || byModel[1].Calls != 2 {
		t.Errorf("model usage = %+v", byModel)
	}
}

func TestTurnEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	score := 85
	turns := []TurnEventData{
		{SessionID: "s1", PhaseBefore: "WATCHING", PhaseAfter: "POST_WATCH", UserAnswer: "done", AIMessage: "What is X?"},
		{SessionID: "s1", PhaseBefore: "POST_WATCH", PhaseAfter: "CHECKPOINT", Score: &score, Passed: true, UserAnswer: "X is Y", AIMessage: "Well done"},
		{SessionID: "s2", PhaseBefore: "INITIAL", PhaseAfter: "PRE_WATCH", UserAnswer: "nothing", AIMessage: "Before we start"},
	}
	for _, tt := range turns {
		if err := repo.AppendTurnEvent(ctx, tt); err != nil {
			t.Fatalf("append turn: %v", err)
		}
	}

	got, err := repo.QueryTurnEvents(ctx, QueryOpts{SessionID: "s1"})
	if err != nil {
		t.Fatalf("query turns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d turns, want 2", len(got))
	}
	if got[0].Score != nil {
		t.Errorf("unevaluated turn has score %d", *got[0].Score)
	}
	if got[1].Score == nil || *got[1].Score != 85 || !got[1].Passed {
		t.Errorf("evaluated turn = %+v", got[1])
	}
	if got[0].Sequence >= got[1].Sequence {
		t.Errorf("turns not in sequence order")
	}

	after, err := repo.QueryTurnEvents(ctx, QueryOpts{After: got[0].Sequence})
	if err != nil {
		t.Fatalf("query after: %v", err)
	}
	if len(after) != 2 {
		t.Errorf("after filter: got %d, want 2", len(after))
	}
}

func TestHintEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for level := 1; level <= 3; level++ {
		err := repo.AppendHintEvent(ctx, HintEventData{
			SessionID:   "s1",
			Level:       level,
			Question:    "Why does the sky look blue?",
			HintText:    "Think about scattering.",
			ScoreImpact: level * 5,
		})
		if err != nil {
			t.Fatalf("append hint: %v", err)
		}
	}

	n, err := repo.CountHintEvents(ctx, "s1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
	if n, _ := repo.CountHintEvents(ctx, "other"); n != 0 {
		t.Errorf("count other = %d, want 0", n)
	}
}
