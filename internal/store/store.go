// Package store keeps paused sessions, per-day progress and finished session
// results in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lowaak/guided-trainer/internal/trainer"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS paused_sessions (
		week_number INTEGER NOT NULL,
		day_name    TEXT NOT NULL,
		snapshot    TEXT NOT NULL,
		saved_at    TEXT NOT NULL,
		PRIMARY KEY (week_number, day_name)
	)`,
	`CREATE TABLE IF NOT EXISTS day_progress (
		day_key           TEXT PRIMARY KEY,
		completed_indices TEXT NOT NULL,
		all_completed     INTEGER NOT NULL DEFAULT 0,
		completed_at      TEXT,
		durations         TEXT NOT NULL,
		routes            TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS session_results (
		id          TEXT PRIMARY KEY,
		week_number INTEGER NOT NULL,
		day_name    TEXT NOT NULL,
		reason      TEXT NOT NULL,
		outcome     TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_session_results_day ON session_results (week_number, day_name)`,
}

// DayProgress is the accumulated record of every session run for one day
type DayProgress struct {
	DayKey           string
	CompletedIndices []int
	AllCompleted     bool
	CompletedAt      *time.Time
	Durations        trainer.PerformanceMap
	Routes           trainer.RouteMap
	UpdatedAt        time.Time
}

// Result is one finished session
type Result struct {
	ID         string
	WeekNumber int
	DayName    string
	Outcome    trainer.Outcome
	RecordedAt time.Time
}

type Store struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// DayKey identifies a training day across sessions
func DayKey(week int, day string) string {
	return fmt.Sprintf("week%d-%s", week, day)
}

// Open opens (or creates) the database at path
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		panic("Store: logger cannot be nil")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}
	// one writer at a time keeps sqlite from reporting busy
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating store schema: %w", err)
		}
	}

	logger.Printf("Store: Opened %s", path)
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SavePaused stores snap as the paused session of its (week, day), replacing any earlier one
func (s *Store) SavePaused(ctx context.Context, snap trainer.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO paused_sessions (week_number, day_name, snapshot, saved_at) VALUES (?, ?, ?, ?)`,
		snap.WeekNumber, snap.DayName, string(data), formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("saving paused session: %w", err)
	}
	s.logger.Printf("Store: Saved paused session %s at exercise %d %s", DayKey(snap.WeekNumber, snap.DayName), snap.ExerciseIndex, snap.Phase)
	return nil
}

// LoadPaused returns the paused session of (week, day), if there is one
func (s *Store) LoadPaused(ctx context.Context, week int, day string) (trainer.Snapshot, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM paused_sessions WHERE week_number = ? AND day_name = ?`,
		week, day,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return trainer.Snapshot{}, false, nil
	}
	if err != nil {
		return trainer.Snapshot{}, false, fmt.Errorf("loading paused session: %w", err)
	}

	var snap trainer.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return trainer.Snapshot{}, false, fmt.Errorf("decoding paused session: %w", err)
	}
	return snap, true, nil
}

// ClearPaused removes the paused session of (week, day)
func (s *Store) ClearPaused(ctx context.Context, week int, day string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM paused_sessions WHERE week_number = ? AND day_name = ?`,
		week, day,
	)
	if err != nil {
		return fmt.Errorf("clearing paused session: %w", err)
	}
	return nil
}

// MergeProgress folds one session's results into the day's progress.
// Completed indices are a union; durations and routes are replaced per
// exercise index with the newer values.
func (s *Store) MergeProgress(ctx context.Context, week int, day string, totalSteps int, visited []int, performance trainer.PerformanceMap, routes trainer.RouteMap) (DayProgress, error) {
	key := DayKey(week, day)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DayProgress{}, fmt.Errorf("starting progress transaction: %w", err)
	}
	defer tx.Rollback()

	progress, found, err := loadProgress(ctx, tx, key)
	if err != nil {
		return DayProgress{}, err
	}
	if !found {
		progress = DayProgress{
			DayKey:    key,
			Durations: trainer.PerformanceMap{},
			Routes:    trainer.RouteMap{},
		}
	}

	progress.CompletedIndices = unionIndices(progress.CompletedIndices, visited)
	for idx, secs := range performance {
		progress.Durations[idx] = secs
	}
	for idx, trail := range routes {
		progress.Routes[idx] = append([]trainer.Coordinate(nil), trail...)
	}

	now := s.now()
	if !progress.AllCompleted && totalSteps > 0 && coversAll(progress.CompletedIndices, totalSteps) {
		progress.AllCompleted = true
		completedAt := now
		progress.CompletedAt = &completedAt
		s.logger.Printf("Store: Day %s completed", key)
	}
	progress.UpdatedAt = now

	if err := saveProgress(ctx, tx, progress); err != nil {
		return DayProgress{}, err
	}
	if err := tx.Commit(); err != nil {
		return DayProgress{}, fmt.Errorf("committing progress: %w", err)
	}
	return progress, nil
}

// LoadProgress returns the progress of (week, day); a day never run has empty progress
func (s *Store) LoadProgress(ctx context.Context, week int, day string) (DayProgress, error) {
	key := DayKey(week, day)
	progress, found, err := loadProgress(ctx, s.db, key)
	if err != nil {
		return DayProgress{}, err
	}
	if !found {
		return DayProgress{
			DayKey:           key,
			CompletedIndices: []int{},
			Durations:        trainer.PerformanceMap{},
			Routes:           trainer.RouteMap{},
		}, nil
	}
	return progress, nil
}

// RecordOutcome stores a finished session and returns its id
func (s *Store) RecordOutcome(ctx context.Context, week int, day string, outcome trainer.Outcome) (string, error) {
	data, err := json.Marshal(outcome)
	if err != nil {
		return "", fmt.Errorf("encoding outcome: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_results (id, week_number, day_name, reason, outcome, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, week, day, string(outcome.Reason), string(data), formatTime(s.now()),
	)
	if err != nil {
		return "", fmt.Errorf("recording outcome: %w", err)
	}
	s.logger.Printf("Store: Recorded %s session %s for %s", outcome.Reason, id, DayKey(week, day))
	return id, nil
}

// Results lists the finished sessions of (week, day), oldest first
func (s *Store) Results(ctx context.Context, week int, day string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, outcome, recorded_at FROM session_results
		 WHERE week_number = ? AND day_name = ? ORDER BY recorded_at, rowid`,
		week, day,
	)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var id, data, recordedAt string
		if err := rows.Scan(&id, &data, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r := Result{ID: id, WeekNumber: week, DayName: day}
		if err := json.Unmarshal([]byte(data), &r.Outcome); err != nil {
			return nil, fmt.Errorf("decoding result %s: %w", id, err)
		}
		if r.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, fmt.Errorf("decoding result %s: %w", id, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadProgress(ctx context.Context, q queryer, key string) (DayProgress, bool, error) {
	var (
		indices, durations, routes, updatedAt string
		allCompleted                          bool
		completedAt                           sql.NullString
	)
	err := q.QueryRowContext(ctx,
		`SELECT completed_indices, all_completed, completed_at, durations, routes, updated_at
		 FROM day_progress WHERE day_key = ?`,
		key,
	).Scan(&indices, &allCompleted, &completedAt, &durations, &routes, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return DayProgress{}, false, nil
	}
	if err != nil {
		return DayProgress{}, false, fmt.Errorf("loading progress %s: %w", key, err)
	}

	p := DayProgress{DayKey: key, AllCompleted: allCompleted}
	if err := json.Unmarshal([]byte(indices), &p.CompletedIndices); err != nil {
		return DayProgress{}, false, fmt.Errorf("decoding completed indices: %w", err)
	}
	if err := json.Unmarshal([]byte(durations), &p.Durations); err != nil {
		return DayProgress{}, false, fmt.Errorf("decoding durations: %w", err)
	}
	if err := json.Unmarshal([]byte(routes), &p.Routes); err != nil {
		return DayProgress{}, false, fmt.Errorf("decoding routes: %w", err)
	}
	if p.Durations == nil {
		p.Durations = trainer.PerformanceMap{}
	}
	if p.Routes == nil {
		p.Routes = trainer.RouteMap{}
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return DayProgress{}, false, fmt.Errorf("decoding completed_at: %w", err)
		}
		p.CompletedAt = &t
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return DayProgress{}, false, fmt.Errorf("decoding updated_at: %w", err)
	}
	return p, true, nil
}

func saveProgress(ctx context.Context, tx *sql.Tx, p DayProgress) error {
	indices, err := json.Marshal(p.CompletedIndices)
	if err != nil {
		return fmt.Errorf("encoding completed indices: %w", err)
	}
	durations, err := json.Marshal(p.Durations)
	if err != nil {
		return fmt.Errorf("encoding durations: %w", err)
	}
	routes, err := json.Marshal(p.Routes)
	if err != nil {
		return fmt.Errorf("encoding routes: %w", err)
	}
	var completedAt sql.NullString
	if p.CompletedAt != nil {
		completedAt = sql.NullString{String: formatTime(*p.CompletedAt), Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO day_progress
		 (day_key, completed_indices, all_completed, completed_at, durations, routes, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.DayKey, string(indices), p.AllCompleted, completedAt, string(durations), string(routes), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving progress %s: %w", p.DayKey, err)
	}
	return nil
}

func unionIndices(a, b []int) []int {
	set := make(map[int]struct{}, len(a)+len(b))
	for _, i := range a {
		set[i] = struct{}{}
	}
	for _, i := range b {
		set[i] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func coversAll(indices []int, total int) bool {
	covered := 0
	for _, i := range indices {
		if i >= 0 && i < total {
			covered++
		}
	}
	return covered == total
}

// timeLayout keeps every fraction digit so stored times sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
