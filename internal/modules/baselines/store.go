package baselines

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/vitals/internal/clients/oura"
	"github.com/rs/zerolog"
)

// Store returns the current baseline, recomputing it when it is missing or stale.
type Store struct {
	repo     *Repository
	defaults Defaults
	now      func() time.Time
	log      zerolog.Logger
}

// NewStore creates a baseline store.
func NewStore(repo *Repository, defaults Defaults, log zerolog.Logger) *Store {
	return &Store{
		repo:     repo,
		defaults: defaults,
		now:      time.Now,
		log:      log.With().Str("component", "baselines").Logger(),
	}
}

// Get returns a baseline and any warnings. It never fails: storage errors are
// logged and the best available value (computed, persisted or default) is returned.
//
// The baseline is recomputed from data when forced, when nothing was persisted,
// or when the persisted one is older than maxAgeDays. Without data a stale
// baseline is kept.
func (s *Store) Get(ctx context.Context, data *oura.Data, forceRecalculate bool, maxAgeDays int) (Baseline, []string) {
	now := s.now()

	persisted, err := s.repo.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Ignoring unreadable persisted baselines")
		persisted = nil
	}

	recompute := forceRecalculate || persisted == nil
	age := 0
	if persisted != nil {
		age = ageDays(now, persisted.ComputedAt)
		if age > maxAgeDays {
			s.log.Info().Int("age_days", age).Msg("Baselines are stale, recalculating")
			recompute = true
		}
	}

	if recompute && !data.Empty() {
		b, warnings := Compute(data, s.defaults, now)
		if err := s.repo.Save(ctx, b); err != nil {
			s.log.Error().Err(err).Msg("Failed to persist baselines")
		}
		s.log.Info().
			Float64("hrv", b.HRVBaseline).
			Int("hrv_samples", b.HRVSamples).
			Float64("rhr", b.RHRBaseline).
			Int("rhr_samples", b.RHRSamples).
			Msg("Baselines recalculated")
		return b, warnings
	}

	if persisted != nil {
		var warnings []string
		if age > maxAgeDays {
			warnings = append(warnings, fmt.Sprintf("Baselines are %d days old and no new data is available", age))
		}
		return *persisted, warnings
	}

	s.log.Warn().Msg("No baselines calculated yet, using defaults")
	return s.defaults.Default(now), []string{"No baselines calculated yet, using configured defaults"}
}

// Reset deletes the persisted baseline.
func (s *Store) Reset(ctx context.Context) error {
	return s.repo.Delete(ctx)
}

func ageDays(now, then time.Time) int {
	d := now.Sub(then)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
