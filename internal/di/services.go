package di

import (
	"errors"
	"fmt"
	"time"

	"github.com/aristath/vitals/internal/clientdata"
	"github.com/aristath/vitals/internal/clients/oauth"
	"github.com/aristath/vitals/internal/clients/oura"
	"github.com/aristath/vitals/internal/clients/sheets"
	"github.com/aristath/vitals/internal/clients/strava"
	"github.com/aristath/vitals/internal/config"
	"github.com/aristath/vitals/internal/modules/analysis"
	"github.com/aristath/vitals/internal/modules/baselines"
	"github.com/aristath/vitals/internal/modules/history"
	"github.com/aristath/vitals/internal/modules/scoring"
	"github.com/aristath/vitals/internal/modules/sources"
	"github.com/rs/zerolog"
)

// InitializeServices builds the cache, repositories, source resolvers and the analyzer.
// Providers without credentials are wired as not configured and skipped at fetch time.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	codec, err := clientdata.ParseCodec(cfg.Cache.Codec)
	if err != nil {
		return err
	}
	container.Cache = clientdata.NewCache(container.DB.Conn(), log,
		clientdata.WithCodec(codec),
		clientdata.WithDefaultMaxAge(cfg.Cache.MaxAgeDays),
	)

	container.BaselineRepo = baselines.NewRepository(container.DB.Conn())
	container.HistoryRepo = history.NewRepository(container.DB.Conn())

	scoringCfg, err := cfg.Scoring()
	if err != nil {
		return err
	}
	container.ScoringEngine = scoring.NewEngine(scoringCfg)

	suspend := time.Duration(cfg.Cache.AuthSuspendHours) * time.Hour
	loc := cfg.Location()

	// wearable: API, then export, then cache
	ouraAPI, err := newOuraAPI(cfg, log)
	if err != nil {
		return err
	}
	var downloader oura.Downloader
	rod := oura.NewRodDownloader(oura.RodDownloaderConfig{
		Email:    cfg.Oura.Email,
		Password: cfg.Oura.Password,
		Headless: cfg.Oura.Headless,
		Timeout:  cfg.ExportTimeout(),
	}, log)
	if rod.Configured() {
		downloader = rod
	} else {
		log.Info().Msg("Oura account not configured, export fallback reads existing files only")
	}
	container.OuraResolver = sources.NewResolver("oura", container.Cache, log,
		[]sources.Strategy[oura.Data]{
			sources.NewOuraAPIStrategy(ouraAPI, cfg.Oura.HistoryDays),
			sources.NewOuraExportStrategy(downloader, cfg.Oura.ExportDir, log),
		},
		sources.WithAuthSuspension[oura.Data](suspend),
	)

	// activities: API, then a cache entry of the current week
	stravaAPI, err := newStravaAPI(cfg, log)
	if err != nil {
		return err
	}
	targets := strava.Targets{
		RunTarget:        cfg.Training.RunTarget,
		LiftTarget:       cfg.Training.LiftTarget,
		LiftBonusTarget:  cfg.Training.LiftBonus,
		RunMinutesTarget: cfg.Training.RunMinutesTarget,
	}
	container.TrainingResolver = sources.NewResolver("strava", container.Cache, log,
		[]sources.Strategy[strava.WeeklyProgress]{
			sources.NewStravaStrategy(stravaAPI, targets, loc, scoringCfg.Readiness.LoadWindowDays),
		},
		sources.WithAuthSuspension[strava.WeeklyProgress](suspend),
		sources.WithCacheFilter(sources.CurrentWeek(time.Now, loc)),
	)

	// body composition: published sheet, then cache
	var leanAPI sources.LeanMassAPI
	sheetsClient := sheets.NewClient(cfg.Sheets.BaseURL, cfg.Sheets.SheetID,
		sheets.NewGoals(cfg.Sheets.TargetWeight, cfg.Sheets.TargetBodyFatPct), cfg.HTTPTimeout(), log)
	if sheetsClient.Configured() {
		leanAPI = sheetsClient
	} else {
		log.Info().Msg("Google sheet not configured, lean mass is served from cache only")
	}
	container.LeanMassResolver = sources.NewResolver("sheets", container.Cache, log,
		[]sources.Strategy[sheets.LeanMass]{sources.NewSheetsStrategy(leanAPI)},
		sources.WithAuthSuspension[sheets.LeanMass](suspend),
	)

	container.BaselineStore = baselines.NewStore(container.BaselineRepo, baselines.Defaults{
		HRV:     cfg.Baselines.HRV,
		RHR:     cfg.Baselines.RHR,
		MinDays: cfg.Baselines.MinDays,
	}, log)

	container.Analyzer = analysis.NewAnalyzer(
		container.OuraResolver,
		container.TrainingResolver,
		container.LeanMassResolver,
		container.BaselineStore,
		container.HistoryRepo,
		container.ScoringEngine,
		analysis.Config{
			BaselineMaxAgeDays: cfg.Baselines.MaxAgeDays,
			Targets:            targets,
			Location:           loc,
		},
		log,
	)

	log.Info().
		Bool("oura_api", ouraAPI != nil).
		Bool("oura_download", downloader != nil).
		Bool("strava", stravaAPI != nil).
		Bool("sheets", leanAPI != nil).
		Msg("Services initialized")

	return nil
}

// newOuraAPI returns nil without error when the refresh credentials are missing.
func newOuraAPI(cfg *config.Config, log zerolog.Logger) (sources.OuraAPI, error) {
	client, err := oura.NewClient(oura.ClientConfig{
		BaseURL: cfg.Oura.APIBaseURL,
		Credentials: oauth.Credentials{
			ClientID:     cfg.Oura.ClientID,
			ClientSecret: cfg.Oura.ClientSecret,
			RefreshToken: cfg.Oura.RefreshToken,
			TokenURL:     cfg.Oura.TokenURL,
		},
		Timeout: cfg.HTTPTimeout(),
	}, log)
	if errors.Is(err, oauth.ErrNotConfigured) {
		log.Info().Msg("Oura API credentials not configured")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create oura client: %w", err)
	}
	return client, nil
}

// newStravaAPI returns nil without error when the refresh credentials are missing.
func newStravaAPI(cfg *config.Config, log zerolog.Logger) (sources.StravaAPI, error) {
	client, err := strava.NewClient(strava.ClientConfig{
		BaseURL: cfg.Strava.APIBaseURL,
		Credentials: oauth.Credentials{
			ClientID:     cfg.Strava.ClientID,
			ClientSecret: cfg.Strava.ClientSecret,
			RefreshToken: cfg.Strava.RefreshToken,
			TokenURL:     cfg.Strava.TokenURL,
		},
		Timeout: cfg.HTTPTimeout(),
	}, log)
	if errors.Is(err, oauth.ErrNotConfigured) {
		log.Info().Msg("Strava credentials not configured")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create strava client: %w", err)
	}
	return client, nil
}
