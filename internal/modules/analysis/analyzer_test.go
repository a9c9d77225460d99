package analysis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aristath/vitals/internal/clients/oura"
	"github.com/aristath/vitals/internal/clients/sheets"
	"github.com/aristath/vitals/internal/clients/strava"
	"github.com/aristath/vitals/internal/modules/baselines"
	"github.com/aristath/vitals/internal/modules/scoring"
	"github.com/aristath/vitals/internal/modules/sources"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource[T any] struct {
	data   *T
	status sources.FetchStatus
	forced bool
}

func (f *fakeSource[T]) Fetch(_ context.Context, forceRefresh bool) (*T, sources.FetchStatus) {
	f.forced = forceRefresh
	return f.data, f.status
}

func failed[T any]() *fakeSource[T] {
	return &fakeSource[T]{status: sources.FetchStatus{Source: sources.SourceFailed, AgeDays: -1, Message: "All fetch methods failed"}}
}

type fakeBaselines struct {
	baseline baselines.Baseline
	warnings []string
	gotData  *oura.Data
	forced   bool
}

func (f *fakeBaselines) Get(_ context.Context, data *oura.Data, force bool, _ int) (baselines.Baseline, []string) {
	f.gotData = data
	f.forced = force
	return f.baseline, f.warnings
}

type fakeHistory struct {
	prior    []int
	recorded map[string]int
}

func (f *fakeHistory) Record(_ context.Context, day string, score int) error {
	if f.recorded == nil {
		f.recorded = map[string]int{}
	}
	f.recorded[day] = score
	return nil
}

func (f *fakeHistory) Prior(_ context.Context, _ string, n int) ([]int, error) {
	if len(f.prior) > n {
		return f.prior[len(f.prior)-n:], nil
	}
	return f.prior, nil
}

var (
	now     = time.Date(2024, 3, 12, 7, 30, 0, 0, time.UTC)
	targets = strava.Targets{RunTarget: 3, LiftTarget: 2, LiftBonusTarget: 3, RunMinutesTarget: 60}
)

func newTestAnalyzer(
	o Source[oura.Data],
	tr Source[strava.WeeklyProgress],
	lm Source[sheets.LeanMass],
	b BaselineProvider,
	h History,
) *Analyzer {
	a := NewAnalyzer(o, tr, lm, b, h, scoring.NewEngine(scoring.DefaultConfig()), Config{
		BaselineMaxAgeDays: 7,
		Targets:            targets,
		Location:           time.UTC,
	}, zerolog.Nop())
	a.now = func() time.Time { return now }
	return a
}

func TestRun_AllSourcesDown(t *testing.T) {
	b := &fakeBaselines{
		baseline: baselines.Defaults{HRV: 60, RHR: 55}.Default(now),
		warnings: []string{"No baselines calculated yet, using configured defaults"},
	}
	h := &fakeHistory{}
	a := newTestAnalyzer(failed[oura.Data](), failed[strava.WeeklyProgress](), failed[sheets.LeanMass](), b, h)

	res := a.Run(context.Background(), false)

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Oura data unavailable")
	assert.Contains(t, res.Warnings, "No Oura data - using estimated values")
	assert.Contains(t, res.Warnings, "No Strava data available")
	assert.Contains(t, res.Warnings, "No lean mass data available")
	assert.Contains(t, res.Warnings, "No baselines calculated yet, using configured defaults")

	assert.Equal(t, sources.SourceFailed, res.OuraStatus.Source)
	assert.Equal(t, -1, res.OuraStatus.AgeDays)

	assert.True(t, res.Sleep.Estimated)
	assert.Equal(t, DefaultSleepScore, res.Sleep.Score)

	// baseline readings: hrv 25 + rhr 15 + sleep 17.5 + no load 15
	assert.Equal(t, 72, res.Readiness.Score)
	assert.Equal(t, 60.0, res.Readiness.HRV)
	assert.Equal(t, 55.0, res.Readiness.RHR)
	assert.Equal(t, scoring.StatusYellow, res.Recovery.Status)
	assert.Equal(t, scoring.RecommendProceed, res.Recovery.Recommendation)

	assert.Nil(t, res.LeanMass)
	assert.Equal(t, targets, res.Training.Targets)
	assert.Equal(t, []string{
		"Need 3 more run(s) this week (20+ min each)",
		"Need 2 more lift session(s) this week",
	}, res.ActionItems)

	assert.Empty(t, h.recorded, "estimated scores stay out of the trend")
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, now, res.GeneratedAt)

	// the analysis object must serialize
	_, err := json.Marshal(res)
	require.NoError(t, err)
}

func TestRun_FullData(t *testing.T) {
	ouraScore := 88
	data := &oura.Data{
		Sleep: []oura.SleepRecord{{
			Day:                "2024-03-12",
			Type:               "long_sleep",
			TotalSleepDuration: 7.2 * 3600,
			TimeInBed:          7.5 * 3600,
			DeepSleepDuration:  1.3 * 3600,
			RemSleepDuration:   1.6 * 3600,
			LightSleepDuration: 4.3 * 3600,
			LowestHeartRate:    53,
		}},
		DailySleep: []oura.DailySleepRecord{{Day: "2024-03-12", Score: &ouraScore}},
		Readiness:  []oura.ReadinessRecord{{Day: "2024-03-12", HeartRateVariability: 68}},
		Source:     oura.SourceAPI,
	}
	ouraSource := &fakeSource[oura.Data]{
		data:   data,
		status: sources.FetchStatus{Success: true, Source: sources.SourceCache, AgeDays: 2, Strategy: sources.KeyOuraAPI},
	}

	progress := strava.WeeklyProgress{
		Runs: 1, Lifts: 1, RunMinutes: 30, Targets: targets, WeekStart: "2024-03-10",
		Activities: []strava.Activity{
			{Name: "Run", Type: "Run", StartDate: now.Add(-26 * time.Hour), MovingTime: 1800},
			{Name: "Gym", Type: "WeightTraining", StartDate: now.Add(-4 * time.Hour)},
			{Name: "Old run", Type: "Run", StartDate: now.AddDate(0, 0, -5)},
		},
	}
	trainingSource := &fakeSource[strava.WeeklyProgress]{
		data:   &progress,
		status: sources.FetchStatus{Success: true, Source: sources.SourcePrimary},
	}

	lm := &sheets.LeanMass{Goals: sheets.NewGoals(175, 15.5)}
	leanSource := &fakeSource[sheets.LeanMass]{data: lm, status: sources.FetchStatus{Success: true, Source: sources.SourcePrimary}}

	b := &fakeBaselines{baseline: baselines.Baseline{HRVBaseline: 65, RHRBaseline: 52, Source: oura.SourceAPI}}
	h := &fakeHistory{prior: []int{80, 90, 88, 92}}

	a := newTestAnalyzer(ouraSource, trainingSource, leanSource, b, h)
	res := a.Run(context.Background(), true)

	assert.True(t, ouraSource.forced)
	assert.True(t, trainingSource.forced)
	assert.True(t, leanSource.forced)
	assert.True(t, b.forced)
	assert.Same(t, data, b.gotData)

	assert.Empty(t, res.Errors)
	assert.Equal(t, []string{"Oura data is 2 days old"}, res.Warnings)

	assert.False(t, res.Sleep.Estimated)
	assert.Equal(t, "2024-03-12", res.Sleep.Date)
	assert.Equal(t, 95, res.Sleep.Score)
	assert.Equal(t, "Excellent", res.Sleep.Rating)
	require.NotNil(t, res.Sleep.OuraScore)
	assert.Equal(t, 88, *res.Sleep.OuraScore)

	assert.Equal(t, 2, res.Readiness.RecentWorkouts)
	assert.Equal(t, 73, res.Readiness.Score)
	assert.Equal(t, "Good to go", res.Readiness.Rating)

	// 73 against a recent mean of 90 is a decline
	assert.Equal(t, scoring.StatusYellow, res.Recovery.Status)
	assert.Equal(t, scoring.TrendDeclining, res.Recovery.Trend)
	assert.Equal(t, scoring.RecommendAwareness, res.Recovery.Recommendation)

	assert.Empty(t, h.recorded, "two day old data is not today's measurement")

	assert.Same(t, lm, res.LeanMass)
	assert.Equal(t, []string{
		"Need 2 more run(s) this week (15+ min each)",
		"Need 1 more lift session(s) this week",
	}, res.ActionItems)

	latest, ok := a.Latest()
	require.True(t, ok)
	assert.Same(t, res, latest)
}

func TestRun_AuthExpiredIsWarned(t *testing.T) {
	ouraSource := &fakeSource[oura.Data]{status: sources.FetchStatus{
		Source:  sources.SourceFailed,
		AgeDays: -1,
		Attempts: []sources.Attempt{
			{Strategy: sources.KeyOuraAPI, Kind: sources.AuthExpired.String()},
			{Strategy: sources.KeyOuraExport, Kind: sources.NotConfigured.String()},
		},
	}}
	a := newTestAnalyzer(ouraSource, failed[strava.WeeklyProgress](), failed[sheets.LeanMass](),
		&fakeBaselines{baseline: baselines.Baseline{HRVBaseline: 60, RHRBaseline: 55}}, &fakeHistory{})

	res := a.Run(context.Background(), false)
	assert.Contains(t, res.Warnings, "Oura API credentials were rejected; check the refresh token or subscription")
}

func TestRun_ReadinessWithoutSleep(t *testing.T) {
	data := &oura.Data{Readiness: []oura.ReadinessRecord{{Day: "2024-03-12", HRVBalance: 70}}}
	ouraSource := &fakeSource[oura.Data]{data: data, status: sources.FetchStatus{Success: true, Source: sources.SourceSecondary}}
	h := &fakeHistory{}
	a := newTestAnalyzer(ouraSource, failed[strava.WeeklyProgress](), failed[sheets.LeanMass](),
		&fakeBaselines{baseline: baselines.Baseline{HRVBaseline: 60, RHRBaseline: 55}}, h)

	res := a.Run(context.Background(), false)
	assert.Contains(t, res.Warnings, "No sleep data available")
	assert.Equal(t, DefaultSleepScore, res.Sleep.Score)
	assert.Equal(t, 70.0, res.Readiness.HRV)
	assert.Equal(t, 55.0, res.Readiness.RHR)
	assert.Empty(t, h.recorded)
}

func TestRun_RecordsMeasuredScore(t *testing.T) {
	data := &oura.Data{
		Sleep: []oura.SleepRecord{{
			Day:                "2024-03-12",
			Type:               "long_sleep",
			TotalSleepDuration: 7.5 * 3600,
			TimeInBed:          8 * 3600,
			LowestHeartRate:    52,
		}},
		Readiness: []oura.ReadinessRecord{{Day: "2024-03-12", HeartRateVariability: 64}},
		Source:    oura.SourceAPI,
	}
	ouraSource := &fakeSource[oura.Data]{data: data, status: sources.FetchStatus{Success: true, Source: sources.SourcePrimary}}
	h := &fakeHistory{}
	a := newTestAnalyzer(ouraSource, failed[strava.WeeklyProgress](), failed[sheets.LeanMass](),
		&fakeBaselines{baseline: baselines.Baseline{HRVBaseline: 60, RHRBaseline: 55}}, h)

	res := a.Run(context.Background(), false)
	require.False(t, res.Sleep.Estimated)
	require.Len(t, h.recorded, 1)
	assert.Equal(t, res.Readiness.Score, h.recorded["2024-03-12"])
}

func TestLatest_Empty(t *testing.T) {
	a := newTestAnalyzer(failed[oura.Data](), failed[strava.WeeklyProgress](), failed[sheets.LeanMass](),
		&fakeBaselines{}, &fakeHistory{})
	_, ok := a.Latest()
	assert.False(t, ok)
}
