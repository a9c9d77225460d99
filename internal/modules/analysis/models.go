// Package analysis runs the daily pipeline: resolve every source, derive baselines,
// score sleep, readiness and recovery, and list the action items.
package analysis

import (
	"time"

	"github.com/aristath/vitals/internal/clients/sheets"
	"github.com/aristath/vitals/internal/clients/strava"
	"github.com/aristath/vitals/internal/modules/baselines"
	"github.com/aristath/vitals/internal/modules/scoring"
	"github.com/aristath/vitals/internal/modules/sources"
)

// DefaultSleepScore is assumed when no sleep data is available.
const DefaultSleepScore = 70

// Sleep is the scored night, or an estimate when no night was available.
type Sleep struct {
	Date      string               `json:"date,omitempty"`
	Score     int                  `json:"score"`
	Rating    string               `json:"rating"`
	Estimated bool                 `json:"estimated"`
	Breakdown *scoring.SleepResult `json:"breakdown,omitempty"`
	OuraScore *int                 `json:"oura_score,omitempty"`
}

// Statuses holds the provenance of every source used in a run.
type Statuses struct {
	Training sources.FetchStatus `json:"training"`
	LeanMass sources.FetchStatus `json:"lean_mass"`
}

// Analysis is the result of one run. It is produced once and never modified.
type Analysis struct {
	RunID       string                   `json:"run_id"`
	GeneratedAt time.Time                `json:"generated_at"`
	Errors      []string                 `json:"errors"`
	Warnings    []string                 `json:"warnings"`
	OuraStatus  sources.FetchStatus      `json:"oura_status"`
	Sources     Statuses                 `json:"sources"`
	Baselines   baselines.Baseline       `json:"baselines"`
	Sleep       Sleep                    `json:"sleep"`
	Readiness   scoring.ReadinessResult  `json:"readiness"`
	Recovery    scoring.RecoveryDecision `json:"recovery"`
	Training    strava.WeeklyProgress    `json:"training"`
	LeanMass    *sheets.LeanMass         `json:"lean_mass"`
	ActionItems []string                 `json:"action_items"`
}
