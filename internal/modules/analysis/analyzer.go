package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/vitals/internal/clients/oura"
	"github.com/aristath/vitals/internal/clients/sheets"
	"github.com/aristath/vitals/internal/clients/strava"
	"github.com/aristath/vitals/internal/modules/baselines"
	"github.com/aristath/vitals/internal/modules/history"
	"github.com/aristath/vitals/internal/modules/scoring"
	"github.com/aristath/vitals/internal/modules/sources"
	"github.com/aristath/vitals/internal/modules/training"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Source resolves one kind of data. sources.Resolver implements it.
type Source[T any] interface {
	Fetch(ctx context.Context, forceRefresh bool) (*T, sources.FetchStatus)
}

// BaselineProvider returns the current baseline.
type BaselineProvider interface {
	Get(ctx context.Context, data *oura.Data, forceRecalculate bool, maxAgeDays int) (baselines.Baseline, []string)
}

// History stores daily readiness scores.
type History interface {
	Record(ctx context.Context, day string, score int) error
	Prior(ctx context.Context, day string, n int) ([]int, error)
}

// Config holds the run parameters.
type Config struct {
	BaselineMaxAgeDays int
	Targets            strava.Targets
	Location           *time.Location
}

// Analyzer produces analyses. Runs are serialized.
type Analyzer struct {
	oura      Source[oura.Data]
	training  Source[strava.WeeklyProgress]
	leanMass  Source[sheets.LeanMass]
	baselines BaselineProvider
	history   History
	engine    *scoring.Engine
	cfg       Config
	now       func() time.Time
	log       zerolog.Logger

	runMu    sync.Mutex
	latestMu sync.RWMutex
	latest   *Analysis
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(
	ouraSource Source[oura.Data],
	trainingSource Source[strava.WeeklyProgress],
	leanMassSource Source[sheets.LeanMass],
	baselineProvider BaselineProvider,
	hist History,
	engine *scoring.Engine,
	cfg Config,
	log zerolog.Logger,
) *Analyzer {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Analyzer{
		oura:      ouraSource,
		training:  trainingSource,
		leanMass:  leanMassSource,
		baselines: baselineProvider,
		history:   hist,
		engine:    engine,
		cfg:       cfg,
		now:       time.Now,
		log:       log.With().Str("component", "analyzer").Logger(),
	}
}

// Latest returns the most recent analysis, if any run completed.
func (a *Analyzer) Latest() (*Analysis, bool) {
	a.latestMu.RLock()
	defer a.latestMu.RUnlock()
	return a.latest, a.latest != nil
}

// Run performs a full analysis. It never fails: every missing source is reported
// in Errors or Warnings and replaced by a best-effort default.
func (a *Analyzer) Run(ctx context.Context, forceRefresh bool) *Analysis {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	now := a.now()
	res := &Analysis{
		RunID:       uuid.NewString(),
		GeneratedAt: now,
		Errors:      []string{},
		Warnings:    []string{},
	}
	log := a.log.With().Str("run_id", res.RunID).Logger()
	log.Info().Bool("force_refresh", forceRefresh).Msg("Starting analysis")

	// wearable data
	ouraData, ouraStatus := a.oura.Fetch(ctx, forceRefresh)
	res.OuraStatus = ouraStatus
	switch {
	case !ouraStatus.Success:
		res.Errors = append(res.Errors, fmt.Sprintf("Oura data unavailable: %s", ouraStatus.Message))
	case ouraStatus.AgeDays > 0:
		res.Warnings = append(res.Warnings, fmt.Sprintf("Oura data is %d days old", ouraStatus.AgeDays))
	}
	if ouraStatus.AuthExpired() {
		res.Warnings = append(res.Warnings, "Oura API credentials were rejected; check the refresh token or subscription")
	}

	baseline, warnings := a.baselines.Get(ctx, ouraData, forceRefresh, a.cfg.BaselineMaxAgeDays)
	res.Baselines = baseline
	res.Warnings = append(res.Warnings, warnings...)

	hrv, rhr := a.scoreSleep(res, ouraData, baseline)

	// training
	progress, trainingStatus := a.training.Fetch(ctx, forceRefresh)
	res.Sources.Training = trainingStatus
	if progress != nil {
		res.Training = *progress
	} else {
		res.Warnings = append(res.Warnings, "No Strava data available")
		res.Training = training.EmptyProgress(a.cfg.Targets)
	}
	if trainingStatus.AuthExpired() {
		res.Warnings = append(res.Warnings, "Strava credentials were rejected; check the refresh token")
	}

	loadWindow := a.engine.Config().Readiness.LoadWindowDays
	recent := strava.CountSince(res.Training.Activities, now.AddDate(0, 0, -loadWindow))

	// readiness and recovery
	res.Readiness = a.engine.ReadinessScore(scoring.ReadinessInput{
		SleepScore:     res.Sleep.Score,
		HRV:            hrv,
		RHR:            rhr,
		HRVBaseline:    baseline.HRVBaseline,
		RHRBaseline:    baseline.RHRBaseline,
		RecentWorkouts: recent,
	})

	day := now.In(a.cfg.Location).Format(history.DayLayout)
	prior, err := a.history.Prior(ctx, day, a.engine.Config().Recovery.TrendWindow)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load readiness history, assuming a stable trend")
	}
	res.Recovery = a.engine.RecoveryStatus(res.Readiness.Score, prior)

	// only scores measured from today's wearable data feed later trends
	if ouraStatus.Success && ouraStatus.AgeDays == 0 && !res.Sleep.Estimated {
		if err := a.history.Record(ctx, day, res.Readiness.Score); err != nil {
			log.Warn().Err(err).Msg("Failed to record readiness score")
		}
	} else {
		log.Debug().Int("readiness", res.Readiness.Score).Msg("Readiness estimated, not recorded in history")
	}

	// body composition
	leanMass, leanStatus := a.leanMass.Fetch(ctx, forceRefresh)
	res.Sources.LeanMass = leanStatus
	res.LeanMass = leanMass
	if leanMass == nil {
		res.Warnings = append(res.Warnings, "No lean mass data available")
	}

	var sleepHours float64
	if res.Sleep.Breakdown != nil {
		sleepHours = res.Sleep.Breakdown.DurationHours
	}
	res.ActionItems = training.ActionItems(training.Input{
		Progress:   res.Training,
		Status:     res.Recovery.Status,
		SleepHours: sleepHours,
	})

	log.Info().
		Int("sleep", res.Sleep.Score).
		Int("readiness", res.Readiness.Score).
		Str("status", string(res.Recovery.Status)).
		Str("recommendation", res.Recovery.Recommendation).
		Int("errors", len(res.Errors)).
		Int("warnings", len(res.Warnings)).
		Msg("Analysis complete")

	a.latestMu.Lock()
	a.latest = res
	a.latestMu.Unlock()
	return res
}

// scoreSleep fills res.Sleep and returns the HRV and resting heart rate to score
// readiness with, falling back to the baseline for missing readings.
func (a *Analyzer) scoreSleep(res *Analysis, data *oura.Data, baseline baselines.Baseline) (hrv, rhr float64) {
	hrv, rhr = baseline.HRVBaseline, baseline.RHRBaseline

	if data == nil {
		res.Warnings = append(res.Warnings, "No Oura data - using estimated values")
		res.Sleep = Sleep{Score: DefaultSleepScore, Rating: "Unknown", Estimated: true}
		return hrv, rhr
	}

	sleep, hasSleep := data.LatestSleep()
	readiness, hasReadiness := data.LatestReadiness()

	if hasSleep {
		result := a.engine.SleepScore(scoring.SleepInput{
			TotalSleepSeconds: sleep.TotalSleepDuration,
			TimeInBedSeconds:  sleep.TimeInBed,
			DeepSleepSeconds:  sleep.DeepSleepDuration,
			RemSleepSeconds:   sleep.RemSleepDuration,
			LightSleepSeconds: sleep.LightSleepDuration,
		})
		res.Sleep = Sleep{
			Date:      sleep.Day,
			Score:     result.Score,
			Rating:    result.Rating,
			Breakdown: &result,
			OuraScore: sleep.Score,
		}
		if score, ok := data.DailySleepScore(sleep.Day); ok {
			res.Sleep.OuraScore = &score
		}
		if sleep.LowestHeartRate > 0 {
			rhr = sleep.LowestHeartRate
		}
	} else {
		res.Warnings = append(res.Warnings, "No sleep data available")
		res.Sleep = Sleep{Score: DefaultSleepScore, Rating: "Unknown", Estimated: true}
	}

	if hasReadiness && readiness.HRV() > 0 {
		hrv = readiness.HRV()
	}

	if !hasSleep && !hasReadiness {
		res.Warnings = append(res.Warnings, "Using baseline HRV/RHR (no recent data)")
	}

	return hrv, rhr
}
