package scoring

import (
	"gonum.org/v1/gonum/stat"
)

// Recommendation texts per band.
const (
	RecommendTrain     = "TRAIN AS PLANNED"
	RecommendProceed   = "PROCEED"
	RecommendAwareness = "PROCEED WITH AWARENESS"
	RecommendModify    = "MODIFY WORKOUT"
	RecommendBackOff   = "BACK OFF"
)

// RecoveryStatus maps a readiness score onto a recovery band and training call.
// prior holds earlier readiness scores, oldest first; only the most recent TrendWindow
// of them are considered and fewer than TrendWindow means a stable trend.
//
// Bands (default thresholds):
//   - 85-100: GREEN, train as planned
//   - 70-84: YELLOW, proceed (with awareness when the trend is declining)
//   - 55-69: ORANGE, modify the workout
//   - <55: RED, back off
func (e *Engine) RecoveryStatus(score int, prior []int) RecoveryDecision {
	rc := e.cfg.Recovery
	trend := e.trend(score, prior)

	d := RecoveryDecision{
		Score: score,
		Trend: trend,
	}

	switch {
	case score >= rc.Green:
		d.Status = StatusGreen
		d.Recommendation = RecommendTrain
		d.Detail = "All systems go. Proceed with scheduled workout."
	case score >= rc.Yellow:
		d.Status = StatusYellow
		if trend == TrendDeclining {
			d.Recommendation = RecommendAwareness
			d.Detail = "Normal training fatigue. Train as planned but monitor how you feel. Not the day for PRs if the trend continues down."
		} else {
			d.Recommendation = RecommendProceed
			d.Detail = "Normal training fatigue. Train as planned. Listen to your body on warm-ups."
		}
	case score >= rc.Orange:
		d.Status = StatusOrange
		d.Recommendation = RecommendModify
		d.Detail = "Reduce intensity (80-85% instead of 90%+) or volume. Technical work and speed work are still fine."
	default:
		d.Status = StatusRed
		d.Recommendation = RecommendBackOff
		d.Detail = "Active recovery, easy cardio, mobility, or complete rest. Your body needs recovery."
	}

	return d
}

func (e *Engine) trend(score int, prior []int) Trend {
	window := e.cfg.Recovery.TrendWindow
	if len(prior) < window {
		return TrendStable
	}

	recent := make([]float64, 0, window)
	for _, s := range prior[len(prior)-window:] {
		recent = append(recent, float64(s))
	}
	avg := stat.Mean(recent, nil)

	current := float64(score)
	switch {
	case current > avg+e.cfg.Recovery.TrendDelta:
		return TrendImproving
	case current < avg-e.cfg.Recovery.TrendDelta:
		return TrendDeclining
	default:
		return TrendStable
	}
}
