package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/vitals/internal/database"
	"github.com/rs/zerolog"
)

// MaintenanceJob checks the state database and truncates its WAL
type MaintenanceJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewMaintenanceJob creates a new MaintenanceJob
func NewMaintenanceJob(db *database.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:  db,
		log: log.With().Str("job", "db_maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "db_maintenance"
}

// Run executes the integrity check and the checkpoint
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database %s failed integrity check: %w", j.db.Name(), err)
	}

	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		// a busy checkpoint is retried on the next run
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	stats, err := j.db.GetStats()
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to read database stats")
		return nil
	}

	j.log.Info().
		Str("database", j.db.Name()).
		Interface("stats", stats).
		Msg("Database maintenance completed")

	return nil
}
