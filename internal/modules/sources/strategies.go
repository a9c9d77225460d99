package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/vitals/internal/clients/oauth"
	"github.com/aristath/vitals/internal/clients/oura"
	"github.com/aristath/vitals/internal/clients/sheets"
	"github.com/aristath/vitals/internal/clients/strava"
	"github.com/rs/zerolog"
)

// Cache keys, one per strategy.
const (
	KeyOuraAPI      = "oura_api"
	KeyOuraExport   = "oura_export"
	KeyStravaWeekly = "strava_weekly_progress"
	KeyLeanMass     = "lean_mass"
)

// classify maps provider errors onto error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}

	switch {
	case errors.Is(err, oauth.ErrNotConfigured),
		errors.Is(err, sheets.ErrNotConfigured),
		errors.Is(err, oura.ErrNoAccount):
		return NewFetchError(NotConfigured, err)
	case oauth.IsAuthFailure(err),
		errors.Is(err, oura.ErrSignInRejected):
		return NewFetchError(AuthExpired, err)
	}

	var se *sheets.StatusError
	if errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden) {
		return NewFetchError(AuthExpired, err)
	}

	return NewFetchError(Transient, err)
}

// OuraAPI is the part of the Oura API client the resolver uses.
type OuraAPI interface {
	FetchRecent(ctx context.Context, days int) (*oura.Data, error)
}

// OuraAPIStrategy fetches recent wearable data from the API.
type OuraAPIStrategy struct {
	client OuraAPI
	days   int
}

// NewOuraAPIStrategy creates the API strategy. A nil client means not configured.
func NewOuraAPIStrategy(client OuraAPI, days int) *OuraAPIStrategy {
	return &OuraAPIStrategy{client: client, days: days}
}

// Name implements Strategy.
func (s *OuraAPIStrategy) Name() string { return KeyOuraAPI }

// Fetch implements Strategy.
func (s *OuraAPIStrategy) Fetch(ctx context.Context, _ bool) (*oura.Data, error) {
	if s.client == nil {
		return nil, NewFetchError(NotConfigured, oauth.ErrNotConfigured)
	}
	data, err := s.client.FetchRecent(ctx, s.days)
	if err != nil {
		return nil, classify(err)
	}
	if data.Empty() {
		return nil, NewFetchError(Transient, errors.New("oura api returned no records"))
	}
	return data, nil
}

// OuraExportStrategy reads the newest account export, downloading a fresh one
// first when a downloader is available.
type OuraExportStrategy struct {
	downloader oura.Downloader
	dir        string
	now        func() time.Time
	log        zerolog.Logger
}

// NewOuraExportStrategy creates the export strategy. downloader may be nil, in which
// case only exports already present in dir are read.
func NewOuraExportStrategy(downloader oura.Downloader, dir string, log zerolog.Logger) *OuraExportStrategy {
	return &OuraExportStrategy{
		downloader: downloader,
		dir:        dir,
		now:        time.Now,
		log:        log.With().Str("component", "oura-export").Logger(),
	}
}

// Name implements Strategy.
func (s *OuraExportStrategy) Name() string { return KeyOuraExport }

// Fetch implements Strategy. A fresh download is stamped with the current time;
// an export already on disk keeps its modification time.
func (s *OuraExportStrategy) Fetch(ctx context.Context, _ bool) (*oura.Data, error) {
	if s.downloader != nil {
		path, err := s.downloader.Download(ctx, s.dir)
		if err == nil {
			return s.parse(path, s.now())
		}
		if kind := KindOf(classify(err)); kind == AuthExpired {
			return nil, NewFetchError(kind, err)
		}
		s.log.Warn().Err(err).Msg("Export download failed, looking for an existing export")
	}

	path, modTime, err := oura.LatestExport(s.dir)
	if errors.Is(err, oura.ErrNoExport) && s.downloader == nil {
		return nil, NewFetchError(NotConfigured, err)
	}
	if err != nil {
		return nil, NewFetchError(Transient, err)
	}

	return s.parse(path, modTime)
}

// DataTime implements Dated.
func (s *OuraExportStrategy) DataTime(data *oura.Data) time.Time {
	return data.FetchedAt
}

func (s *OuraExportStrategy) parse(path string, fetchedAt time.Time) (*oura.Data, error) {
	data, err := oura.ParseExportFile(path, fetchedAt)
	if err != nil {
		return nil, NewFetchError(Transient, err)
	}

	s.log.Info().Str("path", path).Time("fetched_at", fetchedAt).Msg("Loaded Oura export")

	return data, nil
}

// StravaAPI is the part of the Strava client the resolver uses.
type StravaAPI interface {
	ActivitiesSince(ctx context.Context, since time.Time) ([]strava.Activity, error)
}

// StravaStrategy builds this week's training progress from recent activities.
type StravaStrategy struct {
	client         StravaAPI
	targets        strava.Targets
	loc            *time.Location
	loadWindowDays int
	now            func() time.Time
}

// NewStravaStrategy creates the activity strategy. Activities are fetched from
// the start of the week or loadWindowDays back, whichever is earlier, so the
// training load window is always complete. A nil client means not configured.
func NewStravaStrategy(client StravaAPI, targets strava.Targets, loc *time.Location, loadWindowDays int) *StravaStrategy {
	if loc == nil {
		loc = time.UTC
	}
	return &StravaStrategy{
		client:         client,
		targets:        targets,
		loc:            loc,
		loadWindowDays: loadWindowDays,
		now:            time.Now,
	}
}

// Name implements Strategy.
func (s *StravaStrategy) Name() string { return KeyStravaWeekly }

// Fetch implements Strategy.
func (s *StravaStrategy) Fetch(ctx context.Context, _ bool) (*strava.WeeklyProgress, error) {
	if s.client == nil {
		return nil, NewFetchError(NotConfigured, oauth.ErrNotConfigured)
	}

	now := s.now()
	since := strava.WeekStart(now, s.loc)
	if window := now.AddDate(0, 0, -s.loadWindowDays); window.Before(since) {
		since = window
	}

	activities, err := s.client.ActivitiesSince(ctx, since)
	if err != nil {
		return nil, classify(err)
	}

	progress := strava.BuildWeeklyProgress(activities, s.targets, now, s.loc)
	return &progress, nil
}

// CurrentWeek returns a cache filter accepting only progress of the week containing now().
func CurrentWeek(now func() time.Time, loc *time.Location) func(*strava.WeeklyProgress) bool {
	return func(p *strava.WeeklyProgress) bool {
		return p.WeekStart == strava.WeekStart(now(), loc).Format("2006-01-02")
	}
}

// LeanMassAPI is the part of the Sheets client the resolver uses.
type LeanMassAPI interface {
	FetchLeanMass(ctx context.Context) (*sheets.LeanMass, error)
}

// SheetsStrategy reads body composition from the published spreadsheet.
type SheetsStrategy struct {
	client LeanMassAPI
}

// NewSheetsStrategy creates the spreadsheet strategy. A nil client means not configured.
func NewSheetsStrategy(client LeanMassAPI) *SheetsStrategy {
	return &SheetsStrategy{client: client}
}

// Name implements Strategy.
func (s *SheetsStrategy) Name() string { return KeyLeanMass }

// Fetch implements Strategy.
func (s *SheetsStrategy) Fetch(ctx context.Context, _ bool) (*sheets.LeanMass, error) {
	if s.client == nil {
		return nil, NewFetchError(NotConfigured, sheets.ErrNotConfigured)
	}
	lm, err := s.client.FetchLeanMass(ctx)
	if err != nil {
		if errors.Is(err, sheets.ErrNoRows) {
			return nil, NewFetchError(Transient, fmt.Errorf("lean mass sheet: %w", err))
		}
		return nil, classify(err)
	}
	return lm, nil
}
