// Package baselines derives personalized HRV and resting heart rate baselines
// from recent wearable history and persists them between runs.
package baselines

import "time"

// SourceDefault marks a baseline built entirely from configured defaults.
const SourceDefault = "default"

// DefaultTypicalSleepHours is used when no sleep durations are available.
const DefaultTypicalSleepHours = 7.5

// Baseline is the reference the current readings are compared against.
// A sample count below the minimum means the matching value is the configured default.
type Baseline struct {
	HRVBaseline       float64   `json:"hrv_baseline"`
	RHRBaseline       float64   `json:"rhr_baseline"`
	TypicalSleepHours float64   `json:"typical_sleep_hours"`
	HRVSamples        int       `json:"hrv_samples"`
	RHRSamples        int       `json:"rhr_samples"`
	ComputedAt        time.Time `json:"calculated_at"`
	Source            string    `json:"data_source"`
}

// Defaults are the configured fallbacks and the sample threshold.
type Defaults struct {
	HRV     float64
	RHR     float64
	MinDays int
}

// Default returns the baseline used before anything was computed.
func (d Defaults) Default(now time.Time) Baseline {
	return Baseline{
		HRVBaseline:       d.HRV,
		RHRBaseline:       d.RHR,
		TypicalSleepHours: DefaultTypicalSleepHours,
		ComputedAt:        now,
		Source:            SourceDefault,
	}
}
