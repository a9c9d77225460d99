// Package history keeps one readiness score per local day for trend detection.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"
)

// DayLayout is the format of the day column.
const DayLayout = "2006-01-02"

// Entry is one recorded day.
type Entry struct {
	Day   string `json:"day"`
	Score int    `json:"score"`
}

// Repository stores readiness scores in readiness_history.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a repository over db.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Record stores the score for day, replacing an earlier score of the same day.
func (r *Repository) Record(ctx context.Context, day string, score int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO readiness_history (day, score, recorded_at) VALUES (?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET score = excluded.score, recorded_at = excluded.recorded_at
	`, day, score, r.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to record readiness for %s: %w", day, err)
	}
	return nil
}

// Prior returns up to n scores recorded before day, oldest first.
func (r *Repository) Prior(ctx context.Context, day string, n int) ([]int, error) {
	entries, err := r.before(ctx, day, n)
	if err != nil {
		return nil, err
	}
	scores := make([]int, len(entries))
	for i, e := range entries {
		scores[i] = e.Score
	}
	return scores, nil
}

// Recent returns the last n entries, oldest first.
func (r *Repository) Recent(ctx context.Context, n int) ([]Entry, error) {
	return r.before(ctx, "9999-12-31", n)
}

func (r *Repository) before(ctx context.Context, day string, n int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT day, score FROM readiness_history WHERE day < ? ORDER BY day DESC LIMIT ?",
		day, n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query readiness history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Day, &e.Score); err != nil {
			return nil, fmt.Errorf("failed to scan readiness history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read readiness history: %w", err)
	}

	slices.Reverse(entries)
	return entries, nil
}
