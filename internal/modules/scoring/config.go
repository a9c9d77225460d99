// Package scoring provides the deterministic sleep, readiness and recovery scoring engine.
// Everything in this package is pure: no I/O, no clock, no shared state.
package scoring

import (
	"fmt"
	"math"
)

// Step is one rung of a Ladder.
type Step struct {
	Bound     float64 `yaml:"bound" json:"bound"`
	Inclusive bool    `yaml:"inclusive" json:"inclusive"`
	Points    float64 `yaml:"points" json:"points"`
}

// Ladder awards the points of the first step whose bound the value clears.
// Upward ladders compare value > bound (>= when inclusive), downward ladders value < bound (<=).
// Values clearing no step receive Fallback.
type Ladder struct {
	Upward   bool    `yaml:"upward" json:"upward"`
	Steps    []Step  `yaml:"steps" json:"steps"`
	Fallback float64 `yaml:"fallback" json:"fallback"`
}

// Award returns the points for value.
func (l Ladder) Award(value float64) float64 {
	for _, s := range l.Steps {
		if l.clears(value, s) {
			return s.Points
		}
	}
	return l.Fallback
}

func (l Ladder) clears(value float64, s Step) bool {
	if l.Upward {
		if s.Inclusive {
			return value >= s.Bound
		}
		return value > s.Bound
	}
	if s.Inclusive {
		return value <= s.Bound
	}
	return value < s.Bound
}

// Max returns the most points the ladder can award.
func (l Ladder) Max() float64 {
	m := l.Fallback
	for _, s := range l.Steps {
		m = math.Max(m, s.Points)
	}
	return m
}

// Window is an inclusive [Low, High] range worth Points.
type Window struct {
	Low    float64 `yaml:"low" json:"low"`
	High   float64 `yaml:"high" json:"high"`
	Points float64 `yaml:"points" json:"points"`
}

// Windows awards the points of the first window containing the value.
// Windows are checked in order so an optimal range listed first shadows wider ranges.
type Windows struct {
	Windows  []Window `yaml:"windows" json:"windows"`
	Fallback float64  `yaml:"fallback" json:"fallback"`
}

// Award returns the points for value.
func (w Windows) Award(value float64) float64 {
	for _, win := range w.Windows {
		if value >= win.Low && value <= win.High {
			return win.Points
		}
	}
	return w.Fallback
}

// Max returns the most points the windows can award.
func (w Windows) Max() float64 {
	m := w.Fallback
	for _, win := range w.Windows {
		m = math.Max(m, win.Points)
	}
	return m
}

// RatingBand labels scores at or above Min.
type RatingBand struct {
	Min   int    `yaml:"min" json:"min"`
	Label string `yaml:"label" json:"label"`
}

// Ratings maps a score onto a label; bands must be listed highest first.
type Ratings struct {
	Bands    []RatingBand `yaml:"bands" json:"bands"`
	Fallback string       `yaml:"fallback" json:"fallback"`
}

// Rate returns the label for score.
func (r Ratings) Rate(score int) string {
	for _, b := range r.Bands {
		if score >= b.Min {
			return b.Label
		}
	}
	return r.Fallback
}

// SleepConfig holds the four sleep sub-score tables.
type SleepConfig struct {
	DurationHours Ladder  `yaml:"duration_hours" json:"duration_hours"`
	EfficiencyPct Ladder  `yaml:"efficiency_pct" json:"efficiency_pct"`
	DeepPct       Windows `yaml:"deep_pct" json:"deep_pct"`
	RemPct        Windows `yaml:"rem_pct" json:"rem_pct"`
	Ratings       Ratings `yaml:"ratings" json:"ratings"`
}

// ReadinessConfig holds the readiness sub-score tables.
type ReadinessConfig struct {
	HRVChangePct   Ladder  `yaml:"hrv_change_pct" json:"hrv_change_pct"`
	RHRChangeBPM   Ladder  `yaml:"rhr_change_bpm" json:"rhr_change_bpm"`
	SleepWeight    float64 `yaml:"sleep_weight" json:"sleep_weight"`
	TrainingLoad   Ladder  `yaml:"training_load" json:"training_load"`
	LoadWindowDays int     `yaml:"load_window_days" json:"load_window_days"`
	Ratings        Ratings `yaml:"ratings" json:"ratings"`
}

// RecoveryConfig holds the recovery band thresholds and trend parameters.
type RecoveryConfig struct {
	Green       int     `yaml:"green" json:"green"`
	Yellow      int     `yaml:"yellow" json:"yellow"`
	Orange      int     `yaml:"orange" json:"orange"`
	TrendWindow int     `yaml:"trend_window" json:"trend_window"`
	TrendDelta  float64 `yaml:"trend_delta" json:"trend_delta"`
}

// Config is the complete scoring configuration.
type Config struct {
	Sleep     SleepConfig     `yaml:"sleep" json:"sleep"`
	Readiness ReadinessConfig `yaml:"readiness" json:"readiness"`
	Recovery  RecoveryConfig  `yaml:"recovery" json:"recovery"`
}

// DefaultConfig returns the standard scoring tables.
func DefaultConfig() Config {
	return Config{
		Sleep: SleepConfig{
			DurationHours: Ladder{
				Upward: true,
				Steps: []Step{
					{Bound: 8, Inclusive: true, Points: 40},
					{Bound: 7, Inclusive: true, Points: 35},
					{Bound: 6, Inclusive: true, Points: 25},
				},
				Fallback: 10,
			},
			EfficiencyPct: Ladder{
				Upward: true,
				Steps: []Step{
					{Bound: 90, Inclusive: true, Points: 30},
					{Bound: 85, Inclusive: true, Points: 25},
					{Bound: 80, Inclusive: true, Points: 20},
				},
				Fallback: 10,
			},
			// [10,15) and (25,30] are expressed as [10,30] behind the optimal window.
			DeepPct: Windows{
				Windows: []Window{
					{Low: 15, High: 25, Points: 15},
					{Low: 10, High: 30, Points: 10},
				},
				Fallback: 5,
			},
			RemPct: Windows{
				Windows: []Window{
					{Low: 20, High: 25, Points: 15},
					{Low: 15, High: 30, Points: 10},
				},
				Fallback: 5,
			},
			Ratings: Ratings{
				Bands: []RatingBand{
					{Min: 85, Label: "Excellent"},
					{Min: 70, Label: "Good"},
					{Min: 55, Label: "Fair"},
				},
				Fallback: "Poor",
			},
		},
		Readiness: ReadinessConfig{
			HRVChangePct: Ladder{
				Upward: true,
				Steps: []Step{
					{Bound: 10, Points: 35},
					{Bound: 0, Points: 30},
					{Bound: -5, Points: 25},
					{Bound: -10, Points: 15},
				},
				Fallback: 5,
			},
			RHRChangeBPM: Ladder{
				Upward: false,
				Steps: []Step{
					{Bound: -3, Points: 25},
					{Bound: 0, Points: 20},
					{Bound: 0, Inclusive: true, Points: 15},
					{Bound: 5, Inclusive: true, Points: 10},
				},
				Fallback: 5,
			},
			SleepWeight: 25,
			TrainingLoad: Ladder{
				Upward: false,
				Steps: []Step{
					{Bound: 0, Inclusive: true, Points: 15},
					{Bound: 2, Inclusive: true, Points: 10},
				},
				Fallback: 5,
			},
			LoadWindowDays: 3,
			Ratings: Ratings{
				Bands: []RatingBand{
					{Min: 85, Label: "Ready to crush it"},
					{Min: 70, Label: "Good to go"},
					{Min: 55, Label: "Moderate"},
				},
				Fallback: "Recovery needed",
			},
		},
		Recovery: RecoveryConfig{
			Green:       85,
			Yellow:      70,
			Orange:      55,
			TrendWindow: 3,
			TrendDelta:  5,
		},
	}
}

// Validate checks that each composite score tops out at exactly 100 points
// and that the recovery bands are ordered.
func (c Config) Validate() error {
	sleepMax := c.Sleep.DurationHours.Max() + c.Sleep.EfficiencyPct.Max() + c.Sleep.DeepPct.Max() + c.Sleep.RemPct.Max()
	if sleepMax != 100 {
		return fmt.Errorf("sleep sub-scores must total 100 points, got %.1f", sleepMax)
	}

	readinessMax := c.Readiness.HRVChangePct.Max() + c.Readiness.RHRChangeBPM.Max() + c.Readiness.SleepWeight + c.Readiness.TrainingLoad.Max()
	if readinessMax != 100 {
		return fmt.Errorf("readiness sub-scores must total 100 points, got %.1f", readinessMax)
	}

	if c.Readiness.LoadWindowDays < 1 {
		return fmt.Errorf("training load window must be at least one day, got %d", c.Readiness.LoadWindowDays)
	}

	r := c.Recovery
	if !(r.Green > r.Yellow && r.Yellow > r.Orange) {
		return fmt.Errorf("recovery thresholds must be strictly descending (green %d, yellow %d, orange %d)", r.Green, r.Yellow, r.Orange)
	}
	if r.TrendWindow < 1 {
		return fmt.Errorf("trend window must be at least 1, got %d", r.TrendWindow)
	}

	return nil
}
