// Package strava fetches athlete activities and tracks weekly training targets.
package strava

import "time"

// Activity is one recorded Strava activity.
type Activity struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	SportType      string    `json:"sport_type"`
	StartDate      time.Time `json:"start_date"`
	MovingTime     int       `json:"moving_time"`
	ElapsedTime    int       `json:"elapsed_time"`
	Distance       float64   `json:"distance"`
	AverageHR      float64   `json:"average_heartrate,omitempty"`
	SufferScore    float64   `json:"suffer_score,omitempty"`
	TotalElevation float64   `json:"total_elevation_gain,omitempty"`
}

// Category groups activities by the weekly target they count towards.
type Category string

// Activity categories.
const (
	CategoryRun   Category = "run"
	CategoryLift  Category = "lift"
	CategoryOther Category = "other"
)

// Targets are the weekly training goals.
type Targets struct {
	RunTarget        int `json:"run_target"`
	LiftTarget       int `json:"lift_target"`
	LiftBonusTarget  int `json:"lift_bonus_target"`
	RunMinutesTarget int `json:"run_minutes_target"`
}

// WeeklyProgress is progress towards Targets for the week starting WeekStart (a Sunday).
type WeeklyProgress struct {
	Runs       int `json:"runs"`
	Lifts      int `json:"lifts"`
	RunMinutes int `json:"run_minutes"`
	Targets
	// Activities holds everything fetched, including days before WeekStart
	// that only feed the recent training load.
	Activities []Activity `json:"activities"`
	WeekStart  string     `json:"week_start"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// RunsNeeded returns the runs still missing this week.
func (p WeeklyProgress) RunsNeeded() int { return max(p.RunTarget-p.Runs, 0) }

// LiftsNeeded returns the lift sessions still missing this week.
func (p WeeklyProgress) LiftsNeeded() int { return max(p.LiftTarget-p.Lifts, 0) }

// RunMinutesNeeded returns the running minutes still missing this week.
func (p WeeklyProgress) RunMinutesNeeded() int { return max(p.RunMinutesTarget-p.RunMinutes, 0) }
