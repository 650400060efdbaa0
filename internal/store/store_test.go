package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConnectionPragmas(t *testing.T) {
	s := openTestStore(t)
	s.DB().SetMaxOpenConns(3)

	// Hold several connections at once so pragmas are checked on more
	// than the first one.
	ctx := context.Background()
	for i := range 3 {
		conn, err := s.DB().Conn(ctx)
		require.NoError(t, err)
		defer conn.Close()

		var fk, sync, busy int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA synchronous").Scan(&sync))
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busy))
		assert.Equal(t, 1, fk, "conn %d foreign_keys", i)
		assert.Equal(t, 1, sync, "conn %d synchronous", i)
		assert.Equal(t, 5000, busy, "conn %d busy_timeout", i)
	}
}

func TestWithPragmas(t *testing.T) {
	assert.True(t, strings.HasPrefix(withPragmas("/tmp/v.db"), "/tmp/v.db?_pragma=busy_timeout(5000)&"))
	assert.Contains(t, withPragmas("file:x?mode=memory"), "file:x?mode=memory&_pragma=")
	assert.Equal(t, len(connPragmas), strings.Count(withPragmas("a.db"), "_pragma="))
}

func TestOpen_Schema(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"sessions", "turn_events", "hint_events", "llm_events", "global_sequence"} {
		var n int
		err := s.DB().QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s", table)
	}
	require.NoError(t, migrate(context.Background(), s.DB()), "migrate must be re-runnable")
}

func TestOpen_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "vidtutor.db")
	require.NoError(t, EnsureDir(path))

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SessionRepo().Save(context.Background(), &SessionRecord{ID: "s1", VideoID: "v", Phase: "WATCHING", State: []byte(`{}`)}))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.SessionRepo().Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "WATCHING", got.Phase)
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("VIDTUTOR_DB", filepath.Join(dir, "custom", "x.db"))
	p, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "custom", "x.db"), p)
	assert.DirExists(t, filepath.Join(dir, "custom"))

	t.Setenv("VIDTUTOR_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vidtutor", "vidtutor.db"), p)
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		got, err := s.seq.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSequenceSharedAcrossEventTypes(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "hint", Success: true}); err != nil {
		t.Fatalf("append llm: %v", err)
	}
	if err := repo.AppendTurnEvent(ctx, TurnEventData{SessionID: "s1", PhaseBefore: "WATCHING", PhaseAfter: "POST_WATCH"}); err != nil {
		t.Fatalf("append turn: %v", err)
	}

	llmEvents, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query llm: %v", err)
	}
	turns, err := repo.QueryTurnEvents(ctx, QueryOpts{SessionID: "s1"})
	if err != nil {
		t.Fatalf("query turns: %v", err)
	}
	if len(llmEvents) != 1 || len(turns) != 1 {
		t.Fatalf("got %d llm events and %d turns", len(llmEvents), len(turns))
	}
	if turns[0].Sequence <= llmEvents[0].Sequence {
		t.Errorf("turn sequence %d should follow llm sequence %d", turns[0].Sequence, llmEvents[0].Sequence)
	}
}
