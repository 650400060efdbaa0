package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendTurnEvent(ctx context.Context, data TurnEventData) error {
	var score sql.NullInt64
	if data.Score != nil {
		score = sql.NullInt64{Int64: int64(*data.Score), Valid: true}
	}

	err := r.insert(ctx, "turn_events",
		[]string{
			"created_at", "session_id", "phase_before", "phase_after", "chapter_index",
			"score", "passed", "user_answer", "ai_message",
		},
		[]any{
			time.Now().UnixMilli(), data.SessionID, data.PhaseBefore, data.PhaseAfter, data.ChapterIndex,
			score, boolInt(data.Passed), data.UserAnswer, data.AIMessage,
		},
	)
	if err != nil {
		return fmt.Errorf("save turn event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryTurnEvents(ctx context.Context, opts QueryOpts) ([]TurnEventRecord, error) {
	sel := builder().Select(
		"id", "sequence", "created_at", "session_id", "phase_before", "phase_after",
		"chapter_index", "score", "passed", "user_answer", "ai_message",
	).From(entsql.Table("turn_events"))
	applyOpts(sel, opts)
	sel.OrderBy("sequence")

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query turn events: %w", err)
	}
	defer rows.Close()

	var out []TurnEventRecord
	for rows.Next() {
		var (
			rec     TurnEventRecord
			created int64
			score   sql.NullInt64
			passed  int
		)
		err := rows.Scan(
			&rec.ID, &rec.Sequence, &created, &rec.SessionID, &rec.PhaseBefore, &rec.PhaseAfter,
			&rec.ChapterIndex, &score, &passed, &rec.UserAnswer, &rec.AIMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan turn event: %w", err)
		}
		rec.Timestamp = time.UnixMilli(created).UTC()
		rec.Passed = passed != 0
		if score.Valid {
			v := int(score.Int64)
			rec.Score = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
