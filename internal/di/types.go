// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/aristath/vitals/internal/clientdata"
	"github.com/aristath/vitals/internal/clients/oura"
	"github.com/aristath/vitals/internal/clients/sheets"
	"github.com/aristath/vitals/internal/clients/strava"
	"github.com/aristath/vitals/internal/database"
	"github.com/aristath/vitals/internal/modules/analysis"
	"github.com/aristath/vitals/internal/modules/baselines"
	"github.com/aristath/vitals/internal/modules/history"
	"github.com/aristath/vitals/internal/modules/scoring"
	"github.com/aristath/vitals/internal/modules/sources"
	"github.com/aristath/vitals/internal/scheduler"
)

// Container holds all dependencies for the application.
// It is created by Wire and is the single owner of every instance; nothing is global.
type Container struct {
	// Storage
	DB    *database.DB
	Cache *clientdata.Cache

	// Repositories
	BaselineRepo *baselines.Repository
	HistoryRepo  *history.Repository

	// Sources
	OuraResolver     *sources.Resolver[oura.Data]
	TrainingResolver *sources.Resolver[strava.WeeklyProgress]
	LeanMassResolver *sources.Resolver[sheets.LeanMass]

	// Services
	ScoringEngine *scoring.Engine
	BaselineStore *baselines.Store
	Analyzer      *analysis.Analyzer

	// Background jobs
	Scheduler *scheduler.Scheduler
	Jobs      *JobInstances
}

// JobInstances holds the registered jobs so they can also be run on demand.
type JobInstances struct {
	Analysis     *scheduler.AnalysisJob
	CacheCleanup *clientdata.CleanupJob
	Maintenance  *scheduler.MaintenanceJob
}

// Close releases the database.
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
