package di

import (
	"fmt"

	"github.com/aristath/vitals/internal/clientdata"
	"github.com/aristath/vitals/internal/config"
	"github.com/aristath/vitals/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the background jobs and adds them to the scheduler.
// The scheduler is not started here.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	sched := scheduler.New(cfg.Location(), log)

	jobs := &JobInstances{
		Analysis:     scheduler.NewAnalysisJob(container.Analyzer, cfg.AnalysisTimeout(), log),
		CacheCleanup: clientdata.NewCleanupJob(container.Cache, cfg.Cache.RetentionDays, log),
		Maintenance:  scheduler.NewMaintenanceJob(container.DB, log),
	}

	registrations := []struct {
		schedule string
		job      scheduler.Job
	}{
		{cfg.Schedule.Analysis, jobs.Analysis},
		{cfg.Schedule.CacheCleanup, jobs.CacheCleanup},
		{cfg.Schedule.Maintenance, jobs.Maintenance},
	}
	for _, r := range registrations {
		if err := sched.AddJob(r.schedule, r.job); err != nil {
			return fmt.Errorf("failed to register %s job: %w", r.job.Name(), err)
		}
	}

	container.Scheduler = sched
	container.Jobs = jobs

	log.Info().Int("jobs", sched.Entries()).Msg("Background jobs registered")

	return nil
}
