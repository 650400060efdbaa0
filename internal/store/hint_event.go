package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendHintEvent(ctx context.Context, data HintEventData) error {
	err := r.insert(ctx, "hint_events",
		[]string{"created_at", "session_id", "chapter_index", "level", "question", "hint_text", "score_impact"},
		[]any{time.Now().UnixMilli(), data.SessionID, data.ChapterIndex, data.Level, data.Question, data.HintText, data.ScoreImpact},
	)
	if err != nil {
		return fmt.Errorf("save hint event: %w", err)
	}
	return nil
}

func (r *eventRepo) CountHintEvents(ctx context.Context, sessionID string) (int, error) {
	query, args := builder().Select(entsql.Count("*")).
		From(entsql.Table("hint_events")).
		Where(entsql.EQ("session_id", sessionID)).
		Query()

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count hint events: %w", err)
	}
	return n, nil
}
