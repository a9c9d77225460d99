package baselines

import (
	"context"
	"testing"
	"time"

	"github.com/aristath/vitals/internal/clients/oura"
	testutil "github.com/aristath/vitals/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaults = Defaults{HRV: 60, RHR: 55, MinDays: 7}

// history builds days of readiness and sleep with the given HRV and RHR readings.
func history(hrv, rhr []float64) *oura.Data {
	data := &oura.Data{Source: oura.SourceAPI}
	for i, v := range hrv {
		data.Readiness = append(data.Readiness, oura.ReadinessRecord{
			Day:                  time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			HeartRateVariability: v,
		})
	}
	for i, v := range rhr {
		data.Sleep = append(data.Sleep, oura.SleepRecord{
			Day:                time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			LowestHeartRate:    v,
			TotalSleepDuration: float64(7*3600 + i*600),
		})
	}
	return data
}

func TestCompute_Median(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	// the 120 outlier does not move the median
	data := history(
		[]float64{62, 64, 65, 66, 68, 70, 120},
		[]float64{50, 51, 52, 52, 53, 54, 55, 0},
	)

	b, warnings := Compute(data, defaults, now)
	assert.Empty(t, warnings)
	assert.Equal(t, 66.0, b.HRVBaseline)
	assert.Equal(t, 52.0, b.RHRBaseline)
	assert.Equal(t, 7, b.HRVSamples)
	assert.Equal(t, 7, b.RHRSamples, "zero readings are not samples")
	assert.Equal(t, oura.SourceAPI, b.Source)
	assert.Equal(t, now, b.ComputedAt)
	// durations 7h..8h10m in 10 minute steps, median of 8 values
	assert.Equal(t, 7.6, b.TypicalSleepHours)
}

func TestCompute_Idempotent(t *testing.T) {
	now := time.Now()
	data := history([]float64{70, 61, 65, 64, 66, 69, 63, 62}, []float64{52, 51, 50, 53, 54, 55, 56})

	first, _ := Compute(data, defaults, now)
	second, _ := Compute(data, defaults, now)
	assert.Equal(t, first, second)
	assert.Equal(t, 64.5, first.HRVBaseline)
}

func TestCompute_InsufficientData(t *testing.T) {
	data := history([]float64{70, 71, 72, 73, 74}, []float64{50, 51, 52, 53, 54, 55, 56})

	b, warnings := Compute(data, defaults, time.Now())
	assert.Equal(t, 60.0, b.HRVBaseline)
	assert.Equal(t, 5, b.HRVSamples)
	assert.Equal(t, 53.0, b.RHRBaseline)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Only 5 days of HRV data (need 7)")
}

func TestCompute_IgnoresNaps(t *testing.T) {
	data := &oura.Data{Source: oura.SourceAPI}
	for i := 0; i < 4; i++ {
		day := time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		data.Sleep = append(data.Sleep,
			oura.SleepRecord{Day: day, Type: "long_sleep", TotalSleepDuration: 8 * 3600, LowestHeartRate: 50},
			oura.SleepRecord{Day: day, Type: "late_nap", TotalSleepDuration: 20 * 60, LowestHeartRate: 62},
		)
	}

	b, warnings := Compute(data, defaults, time.Now())
	assert.Equal(t, 4, b.RHRSamples)
	assert.Equal(t, defaults.RHR, b.RHRBaseline, "four days do not meet the minimum")
	assert.Equal(t, 8.0, b.TypicalSleepHours)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[1], "Only 4 days of RHR data (need 7)")
}

func TestCompute_NoSleepDurations(t *testing.T) {
	b, warnings := Compute(&oura.Data{}, defaults, time.Now())
	assert.Equal(t, DefaultTypicalSleepHours, b.TypicalSleepHours)
	assert.Equal(t, SourceDefault, b.Source)
	assert.Len(t, warnings, 2)
}

func TestDeviation(t *testing.T) {
	b := Baseline{HRVBaseline: 65, RHRBaseline: 52}

	pct, bpm := Deviation(68, 53, b)
	assert.Equal(t, 4.6, pct)
	assert.Equal(t, 1.0, bpm)

	pct, _ = Deviation(68, 53, Baseline{})
	assert.Equal(t, 0.0, pct)
}

func newTestStore(t *testing.T) (*Store, *Repository, *time.Time) {
	t.Helper()
	db, cleanup := testutil.NewTestDB(t, "baselines")
	t.Cleanup(cleanup)

	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	repo := NewRepository(db.Conn())
	store := NewStore(repo, defaults, zerolog.Nop())
	store.now = func() time.Time { return now }
	return store, repo, &now
}

func sevenDays() *oura.Data {
	return history([]float64{60, 62, 64, 66, 68, 70, 72}, []float64{50, 51, 52, 53, 54, 55, 56})
}

func TestStore_DefaultsWithoutDataOrHistory(t *testing.T) {
	store, repo, _ := newTestStore(t)

	b, warnings := store.Get(context.Background(), nil, false, 7)
	assert.Equal(t, SourceDefault, b.Source)
	assert.Equal(t, 60.0, b.HRVBaseline)
	assert.Equal(t, 55.0, b.RHRBaseline)
	assert.Equal(t, 7.5, b.TypicalSleepHours)
	assert.NotEmpty(t, warnings)

	persisted, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, persisted, "defaults are not persisted")
}

func TestStore_ComputesAndPersists(t *testing.T) {
	store, repo, now := newTestStore(t)

	b, warnings := store.Get(context.Background(), sevenDays(), false, 7)
	assert.Empty(t, warnings)
	assert.Equal(t, 66.0, b.HRVBaseline)
	assert.Equal(t, 53.0, b.RHRBaseline)

	persisted, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, 66.0, persisted.HRVBaseline)
	assert.Equal(t, 7, persisted.HRVSamples)
	assert.Equal(t, oura.SourceAPI, persisted.Source)
	assert.True(t, persisted.ComputedAt.Equal(*now))
}

func TestStore_ReusesFreshBaseline(t *testing.T) {
	store, _, now := newTestStore(t)
	ctx := context.Background()

	first, _ := store.Get(ctx, sevenDays(), false, 7)

	*now = now.Add(3 * 24 * time.Hour)
	different := history([]float64{90, 90, 90, 90, 90, 90, 90}, []float64{40, 40, 40, 40, 40, 40, 40})
	b, _ := store.Get(ctx, different, false, 7)
	assert.Equal(t, first.HRVBaseline, b.HRVBaseline)

	forced, _ := store.Get(ctx, different, true, 7)
	assert.Equal(t, 90.0, forced.HRVBaseline)
}

func TestStore_RecomputesWhenStale(t *testing.T) {
	store, _, now := newTestStore(t)
	ctx := context.Background()

	_, _ = store.Get(ctx, sevenDays(), false, 7)

	*now = now.Add(8 * 24 * time.Hour)
	different := history([]float64{90, 90, 90, 90, 90, 90, 90}, []float64{40, 40, 40, 40, 40, 40, 40})
	b, _ := store.Get(ctx, different, false, 7)
	assert.Equal(t, 90.0, b.HRVBaseline)
	assert.Equal(t, 40.0, b.RHRBaseline)
}

func TestStore_KeepsStaleBaselineWithoutData(t *testing.T) {
	store, _, now := newTestStore(t)
	ctx := context.Background()

	first, _ := store.Get(ctx, sevenDays(), false, 7)

	*now = now.Add(10 * 24 * time.Hour)
	b, warnings := store.Get(ctx, &oura.Data{}, false, 7)
	assert.Equal(t, first.HRVBaseline, b.HRVBaseline)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "10 days old")
}

func TestStore_Reset(t *testing.T) {
	store, repo, _ := newTestStore(t)
	ctx := context.Background()

	_, _ = store.Get(ctx, sevenDays(), false, 7)
	require.NoError(t, store.Reset(ctx))

	persisted, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, persisted)
}
