package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Timestamps are stored as unix milliseconds.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		video_title TEXT NOT NULL,
		phase TEXT NOT NULL,
		chapter_index INTEGER NOT NULL DEFAULT 0,
		chapter_count INTEGER NOT NULL DEFAULT 0,
		comprehension INTEGER NOT NULL DEFAULT 0,
		state TEXT NOT NULL,
		analysis TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions (updated_at)`,

	`CREATE TABLE IF NOT EXISTS turn_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL UNIQUE,
		session_id TEXT NOT NULL,
		phase_before TEXT NOT NULL,
		phase_after TEXT NOT NULL,
		chapter_index INTEGER NOT NULL,
		score INTEGER,
		passed INTEGER NOT NULL DEFAULT 0,
		user_answer TEXT NOT NULL,
		ai_message TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_turn_events_session ON turn_events (session_id, sequence)`,

	`CREATE TABLE IF NOT EXISTS hint_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL UNIQUE,
		session_id TEXT NOT NULL,
		chapter_index INTEGER NOT NULL,
		level INTEGER NOT NULL,
		question TEXT NOT NULL,
		hint_text TEXT NOT NULL,
		score_impact INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_hint_events_session ON hint_events (session_id, sequence)`,

	`CREATE TABLE IF NOT EXISTS llm_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL UNIQUE,
		session_id TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		request_body TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_llm_events_purpose ON llm_events (purpose)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range tables {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
