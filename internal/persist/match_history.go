package persist

import (
	"context"
	"fmt"
	"time"
)

// MatchResult is one completed or aborted level attempt, recorded purely
// for post-hoc stats — it never gates gameplay and carries no per-player
// identity, since persistence of player accounts is out of scope here.
type MatchResult struct {
	LevelID     string
	StartedAt   time.Time
	EndedAt     time.Time
	WaveReached int
	Kills       int
	Deaths      int
	Outcome     string // "completed" or "game_over"
}

// MatchRecorder is the interface the game loop depends on; Recorder (pgx)
// and NoopRecorder both satisfy it so the server runs identically with or
// without a configured database.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, m MatchResult) error
}

// Recorder persists MatchResults to Postgres via the shared pool.
type Recorder struct {
	db *DB
}

func NewRecorder(db *DB) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) RecordMatch(ctx context.Context, m MatchResult) error {
	const q = `
		INSERT INTO match_history (level_id, started_at, ended_at, wave_reached, kills, deaths, outcome)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.Pool.Exec(ctx, q, m.LevelID, m.StartedAt, m.EndedAt, m.WaveReached, m.Kills, m.Deaths, m.Outcome); err != nil {
		return fmt.Errorf("persist: record match: %w", err)
	}
	return nil
}

// NoopRecorder discards match results; used when no database DSN is
// configured.
type NoopRecorder struct{}

func (NoopRecorder) RecordMatch(context.Context, MatchResult) error { return nil }
