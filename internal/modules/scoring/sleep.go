package scoring

import (
	"gonum.org/v1/gonum/floats/scalar"
)

// Engine computes scores from a fixed configuration.
type Engine struct {
	cfg Config
}

// NewEngine creates a scoring engine. The configuration should have passed Validate.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the configuration the engine scores with.
func (e *Engine) Config() Config {
	return e.cfg
}

// SleepScore calculates the 0-100 sleep score for one night.
//
// Components:
//   - Duration (40): hours of actual sleep
//   - Efficiency (30): time asleep / time in bed
//   - Deep sleep % (15): share of total sleep, optimal 15-25%
//   - REM % (15): share of total sleep, optimal 20-25%
func (e *Engine) SleepScore(in SleepInput) SleepResult {
	sc := e.cfg.Sleep

	timeInBed := in.TimeInBedSeconds
	if timeInBed <= 0 {
		timeInBed = in.TotalSleepSeconds
	}

	hours := in.TotalSleepSeconds / 3600

	var efficiency float64
	if timeInBed > 0 {
		efficiency = in.TotalSleepSeconds / timeInBed * 100
	}

	var deepPct, remPct float64
	if in.TotalSleepSeconds > 0 {
		deepPct = in.DeepSleepSeconds / in.TotalSleepSeconds * 100
		remPct = in.RemSleepSeconds / in.TotalSleepSeconds * 100
	}

	components := map[string]Component{
		ComponentDuration: {
			Raw:       round1(hours),
			Points:    sc.DurationHours.Award(hours),
			MaxPoints: sc.DurationHours.Max(),
		},
		ComponentEfficiency: {
			Raw:       round1(efficiency),
			Points:    sc.EfficiencyPct.Award(efficiency),
			MaxPoints: sc.EfficiencyPct.Max(),
		},
		ComponentDeepSleep: {
			Raw:       round1(deepPct),
			Points:    sc.DeepPct.Award(deepPct),
			MaxPoints: sc.DeepPct.Max(),
		},
		ComponentRemSleep: {
			Raw:       round1(remPct),
			Points:    sc.RemPct.Award(remPct),
			MaxPoints: sc.RemPct.Max(),
		},
	}

	var total float64
	for _, c := range components {
		total += c.Points
	}
	score := clampScore(int(total))

	return SleepResult{
		Breakdown: Breakdown{
			Score:      score,
			Rating:     sc.Ratings.Rate(score),
			Components: components,
		},
		DurationHours: round1(hours),
		EfficiencyPct: round1(efficiency),
		DeepPct:       round1(deepPct),
		RemPct:        round1(remPct),
	}
}

func round1(v float64) float64 {
	return scalar.Round(v, 1)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
