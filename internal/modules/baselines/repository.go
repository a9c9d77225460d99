package baselines

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository persists the single baseline row.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repository over db. The baselines table must exist.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Load returns the persisted baseline, or nil when none was saved yet.
func (r *Repository) Load(ctx context.Context) (*Baseline, error) {
	var (
		b          Baseline
		computedAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT hrv_baseline, rhr_baseline, typical_sleep_hours, hrv_samples, rhr_samples, source, computed_at
		FROM baselines WHERE id = 1
	`).Scan(&b.HRVBaseline, &b.RHRBaseline, &b.TypicalSleepHours, &b.HRVSamples, &b.RHRSamples, &b.Source, &computedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load baselines: %w", err)
	}

	b.ComputedAt = time.Unix(computedAt, 0).UTC()
	return &b, nil
}

// Save overwrites the persisted baseline.
func (r *Repository) Save(ctx context.Context, b Baseline) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO baselines (id, hrv_baseline, rhr_baseline, typical_sleep_hours, hrv_samples, rhr_samples, source, computed_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			hrv_baseline = excluded.hrv_baseline,
			rhr_baseline = excluded.rhr_baseline,
			typical_sleep_hours = excluded.typical_sleep_hours,
			hrv_samples = excluded.hrv_samples,
			rhr_samples = excluded.rhr_samples,
			source = excluded.source,
			computed_at = excluded.computed_at
	`, b.HRVBaseline, b.RHRBaseline, b.TypicalSleepHours, b.HRVSamples, b.RHRSamples, b.Source, b.ComputedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save baselines: %w", err)
	}
	return nil
}

// Delete removes the persisted baseline so the next run recomputes it.
func (r *Repository) Delete(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM baselines WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to delete baselines: %w", err)
	}
	return nil
}
