package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/vitals/internal/config"
	"github.com/aristath/vitals/internal/modules/sources"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadConfig loads a config rooted in a temp dir with every provider unconfigured.
func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("DATA_DIR", t.TempDir())
	for _, key := range []string{
		"OURA_CLIENT_ID", "OURA_CLIENT_SECRET", "OURA_REFRESH_TOKEN",
		"OURA_EMAIL", "OURA_PASSWORD", "OURA_EXPORT_DIR",
		"STRAVA_CLIENT_ID", "STRAVA_CLIENT_SECRET", "STRAVA_REFRESH_TOKEN",
		"GOOGLE_SHEET_ID", "SCORING_CONFIG_FILE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestWire_Unconfigured(t *testing.T) {
	cfg := loadConfig(t)

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.FileExists(t, filepath.Join(cfg.DataDir, DatabaseFile))
	assert.NotNil(t, container.Cache)
	assert.NotNil(t, container.OuraResolver)
	assert.NotNil(t, container.TrainingResolver)
	assert.NotNil(t, container.LeanMassResolver)
	assert.NotNil(t, container.BaselineStore)
	assert.NotNil(t, container.Analyzer)
	assert.Equal(t, 3, container.Scheduler.Entries())
	assert.Equal(t, cfg.Cache.MaxAgeDays, container.Cache.DefaultMaxAgeDays())

	res := container.Analyzer.Run(context.Background(), false)
	require.NotNil(t, res)
	assert.False(t, res.OuraStatus.Success)
	assert.Equal(t, sources.SourceFailed, res.OuraStatus.Source)
	assert.NotEmpty(t, res.Errors)
	assert.Equal(t, sources.SourceFailed, res.Sources.Training.Source)
	assert.Equal(t, sources.SourceFailed, res.Sources.LeanMass.Source)
	assert.NotEmpty(t, res.ActionItems)

	// not configured is not an auth problem
	assert.False(t, res.OuraStatus.AuthExpired())

	assert.Error(t, container.Jobs.Analysis.Run())
	assert.NoError(t, container.Jobs.CacheCleanup.Run())
	assert.NoError(t, container.Jobs.Maintenance.Run())
}

func TestWire_ExportFallback(t *testing.T) {
	cfg := loadConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Oura.ExportDir, 0755))
	export := `{"sleep":[{"day":"2024-03-10","type":"long_sleep","total_sleep_duration":27000,` +
		`"time_in_bed":28800,"deep_sleep_duration":5400,"rem_sleep_duration":6300,` +
		`"light_sleep_duration":15300,"lowest_heart_rate":52,"average_hrv":64,"score":82}],` +
		`"readiness":[{"day":"2024-03-10","score":80,"heart_rate_variability":64}]}`
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Oura.ExportDir, "oura_export_20240310.json"), []byte(export), 0644))

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	res := container.Analyzer.Run(context.Background(), false)
	require.NotNil(t, res)
	assert.True(t, res.OuraStatus.Success)
	assert.Equal(t, sources.SourceSecondary, res.OuraStatus.Source)
	assert.Equal(t, sources.KeyOuraExport, res.OuraStatus.Strategy)
	assert.Equal(t, "2024-03-10", res.Sleep.Date)
	assert.False(t, res.Sleep.Estimated)

	_, cached := container.Cache.AgeDays(sources.KeyOuraExport)
	assert.True(t, cached)

	assert.NoError(t, container.Jobs.Analysis.Run())
}

func TestWire_OldExportReportsItsAge(t *testing.T) {
	cfg := loadConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Oura.ExportDir, 0755))
	path := filepath.Join(cfg.Oura.ExportDir, "oura_export_old.json")
	export := `{"sleep":[{"day":"2024-03-10","type":"long_sleep","total_sleep_duration":27000,"time_in_bed":28800}]}`
	require.NoError(t, os.WriteFile(path, []byte(export), 0644))
	modified := time.Now().Add(-60*24*time.Hour - time.Hour)
	require.NoError(t, os.Chtimes(path, modified, modified))

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	res := container.Analyzer.Run(context.Background(), false)
	assert.True(t, res.OuraStatus.Success)
	assert.Equal(t, sources.SourceSecondary, res.OuraStatus.Source)
	assert.Equal(t, 60, res.OuraStatus.AgeDays)
	assert.Contains(t, res.Warnings, "Oura data is 60 days old")

	_, cached := container.Cache.AgeDays(sources.KeyOuraExport)
	assert.False(t, cached)
}

func TestWire_InvalidScoringFile(t *testing.T) {
	cfg := loadConfig(t)
	cfg.ScoringFile = filepath.Join(cfg.DataDir, "missing.yaml")

	_, err := Wire(cfg, zerolog.Nop())
	assert.Error(t, err)
}
