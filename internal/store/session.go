package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var sessionColumns = []string{
	"id", "video_id", "video_title", "phase", "chapter_index", "chapter_count",
	"comprehension", "state", "analysis", "created_at", "updated_at",
}

// sessionRepo implements SessionRepo with an upsert keyed on id.
type sessionRepo struct {
	db *sql.DB
}

func (r *sessionRepo) Save(ctx context.Context, rec *SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("save session: empty id")
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	query, args := builder().Insert("sessions").
		Columns(sessionColumns...).
		Values(
			rec.ID, rec.VideoID, rec.VideoTitle, rec.Phase, rec.ChapterIndex, rec.ChapterCount,
			rec.Comprehension, string(rec.State), string(rec.Analysis),
			rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli(),
		).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range sessionColumns {
					if c == "id" || c == "created_at" {
						continue
					}
					u.SetExcluded(c)
				}
			}),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*SessionRecord, error) {
	query, args := builder().Select(sessionColumns...).
		From(entsql.Table("sessions")).
		Where(entsql.EQ("id", id)).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanSession(rows)
}

func (r *sessionRepo) List(ctx context.Context, limit int) ([]SessionRecord, error) {
	sel := builder().Select(sessionColumns...).
		From(entsql.Table("sessions")).
		OrderBy(entsql.Desc("updated_at"))
	if limit > 0 {
		sel.Limit(limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	query, args := builder().Delete("sessions").
		Where(entsql.EQ("id", id)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func scanSession(rows *sql.Rows) (*SessionRecord, error) {
	var (
		rec              SessionRecord
		state, analysis  string
		created, updated int64
	)
	err := rows.Scan(
		&rec.ID, &rec.VideoID, &rec.VideoTitle, &rec.Phase, &rec.ChapterIndex, &rec.ChapterCount,
		&rec.Comprehension, &state, &analysis, &created, &updated,
	)
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	rec.State = []byte(state)
	if analysis != "" {
		rec.Analysis = []byte(analysis)
	}
	rec.CreatedAt = time.UnixMilli(created).UTC()
	rec.UpdatedAt = time.UnixMilli(updated).UTC()
	return &rec, nil
}
