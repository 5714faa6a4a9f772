// Package persistence provides the SQLite run ledger: summaries and event
// logs of finished runs. Runs in progress are never saved.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/terraform-garden/internal/engine"
)

// DB wraps a SQLite connection for the run ledger.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		player TEXT NOT NULL,
		score REAL NOT NULL,
		tier INTEGER NOT NULL,
		ticks INTEGER NOT NULL,
		clock_ms INTEGER NOT NULL,
		game_over INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		stats_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		at_ms INTEGER NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ledger_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_score ON runs(score DESC);
	CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RunRecord is one finished run.
type RunRecord struct {
	ID         string  `db:"id" json:"id"`
	Seed       int64   `db:"seed" json:"seed"`
	Player     string  `db:"player" json:"player"` // "autopilot", "console", ...
	Score      float64 `db:"score" json:"score"`
	Tier       int     `db:"tier" json:"tier"`
	Ticks      int64   `db:"ticks" json:"ticks"`
	ClockMS    int64   `db:"clock_ms" json:"clock_ms"`
	GameOver   bool    `db:"game_over" json:"game_over"`
	FinishedAt int64   `db:"finished_at" json:"finished_at"` // unix seconds
	StatsJSON  string  `db:"stats_json" json:"stats"`
}

// Clock returns the simulated length of the run.
func (r RunRecord) Clock() time.Duration {
	return time.Duration(r.ClockMS) * time.Millisecond
}

// Finished returns when the run was recorded.
func (r RunRecord) Finished() time.Time {
	return time.Unix(r.FinishedAt, 0)
}

// Stats decodes the stored run totals.
func (r RunRecord) Stats() (engine.Stats, error) {
	var st engine.Stats
	if r.StatsJSON == "" {
		return st, nil
	}
	if err := json.Unmarshal([]byte(r.StatsJSON), &st); err != nil {
		return st, fmt.Errorf("decode stats for run %s: %w", r.ID, err)
	}
	return st, nil
}

// NewRunRecord builds a ledger row from a simulation summary.
func NewRunRecord(sum engine.Summary, player string, finished time.Time) RunRecord {
	statsJSON, _ := json.Marshal(sum.Stats)
	return RunRecord{
		ID:         uuid.NewString(),
		Seed:       sum.Seed,
		Player:     player,
		Score:      sum.Score,
		Tier:       sum.Tier,
		Ticks:      int64(sum.Ticks),
		ClockMS:    sum.Clock.Milliseconds(),
		GameOver:   sum.GameOver,
		FinishedAt: finished.Unix(),
		StatsJSON:  string(statsJSON),
	}
}

type eventRow struct {
	Tick        uint64 `db:"tick"`
	AtMS        int64  `db:"at_ms"`
	Category    string `db:"category"`
	Description string `db:"description"`
}

// SaveRun writes a run and its event log in one transaction.
func (db *DB) SaveRun(rec RunRecord, events []engine.Event) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`INSERT INTO runs
		(id, seed, player, score, tier, ticks, clock_ms, game_over, finished_at, stats_json)
		VALUES (:id, :seed, :player, :score, :tier, :ticks, :clock_ms, :game_over, :finished_at, :stats_json)`,
		rec,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rec.ID, err)
	}

	if len(events) > 0 {
		stmt, err := tx.Preparex(`INSERT INTO run_events
			(run_id, tick, at_ms, category, description) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range events {
			if _, err := stmt.Exec(rec.ID, e.Tick, e.At.Milliseconds(), e.Category, e.Description); err != nil {
				return fmt.Errorf("insert event for run %s: %w", rec.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("run recorded", "id", rec.ID, "score", rec.Score, "tier", rec.Tier, "events", len(events))
	return nil
}

const runColumns = `id, seed, player, score, tier, ticks, clock_ms, game_over, finished_at, stats_json`

// TopRuns returns the best runs by score; earlier runs win ties.
func (db *DB) TopRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := db.conn.Select(&runs,
		"SELECT "+runColumns+" FROM runs ORDER BY score DESC, finished_at ASC LIMIT ?",
		limit,
	)
	return runs, err
}

// RecentRuns returns the most recently finished runs.
func (db *DB) RecentRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := db.conn.Select(&runs,
		"SELECT "+runColumns+" FROM runs ORDER BY finished_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	return runs, err
}

// Run fetches a single run by ID.
func (db *DB) Run(id string) (RunRecord, error) {
	var rec RunRecord
	err := db.conn.Get(&rec, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	return rec, err
}

// HighScore returns the best recorded score, or 0 with no runs.
func (db *DB) HighScore() (float64, error) {
	var best float64
	err := db.conn.Get(&best, "SELECT COALESCE(MAX(score), 0) FROM runs")
	return best, err
}

// CountRuns returns how many runs are recorded.
func (db *DB) CountRuns() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM runs")
	return n, err
}

// RunEvents returns a run's event log, oldest first.
func (db *DB) RunEvents(runID string) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT tick, at_ms, category, description FROM run_events WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, err
	}
	events := make([]engine.Event, len(rows))
	for i, r := range rows {
		events[i] = engine.Event{
			Tick:        r.Tick,
			At:          time.Duration(r.AtMS) * time.Millisecond,
			Category:    r.Category,
			Description: r.Description,
		}
	}
	return events, nil
}

// SaveMeta stores a key-value pair in ledger metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO ledger_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM ledger_meta WHERE key = ?", key)
	return value, err
}
