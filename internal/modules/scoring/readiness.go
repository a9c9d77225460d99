package scoring

// ReadinessScore calculates the 0-100 readiness score.
//
// Components:
//   - HRV trend (35): percent deviation of current HRV from baseline
//   - Resting HR (25): bpm deviation of current RHR from baseline
//   - Sleep (25): the sleep score scaled linearly
//   - Training load (15): workouts in the trailing window
//
// The total is truncated to an integer after summing; only the sleep component can be fractional.
func (e *Engine) ReadinessScore(in ReadinessInput) ReadinessResult {
	rc := e.cfg.Readiness

	var hrvChange float64
	if in.HRVBaseline > 0 {
		hrvChange = (in.HRV - in.HRVBaseline) / in.HRVBaseline * 100
	}
	rhrChange := in.RHR - in.RHRBaseline

	sleepScore := float64(clampScore(in.SleepScore))
	sleepPoints := sleepScore / 100 * rc.SleepWeight

	workouts := in.RecentWorkouts
	if workouts < 0 {
		workouts = 0
	}

	components := map[string]Component{
		ComponentHRVTrend: {
			Raw:       round1(hrvChange),
			Points:    rc.HRVChangePct.Award(hrvChange),
			MaxPoints: rc.HRVChangePct.Max(),
		},
		ComponentRestingHR: {
			Raw:       round1(rhrChange),
			Points:    rc.RHRChangeBPM.Award(rhrChange),
			MaxPoints: rc.RHRChangeBPM.Max(),
		},
		ComponentSleep: {
			Raw:       sleepScore,
			Points:    sleepPoints,
			MaxPoints: rc.SleepWeight,
		},
		ComponentTrainingLoad: {
			Raw:       float64(workouts),
			Points:    rc.TrainingLoad.Award(float64(workouts)),
			MaxPoints: rc.TrainingLoad.Max(),
		},
	}

	total := components[ComponentHRVTrend].Points +
		components[ComponentRestingHR].Points +
		components[ComponentSleep].Points +
		components[ComponentTrainingLoad].Points
	score := clampScore(int(total))

	return ReadinessResult{
		Breakdown: Breakdown{
			Score:      score,
			Rating:     rc.Ratings.Rate(score),
			Components: components,
		},
		HRV:            round1(in.HRV),
		HRVBaseline:    round1(in.HRVBaseline),
		HRVChangePct:   round1(hrvChange),
		HRVTrend:       hrvArrow(hrvChange),
		RHR:            round1(in.RHR),
		RHRBaseline:    round1(in.RHRBaseline),
		RHRChange:      round1(rhrChange),
		RHRTrend:       rhrArrow(rhrChange),
		RecentWorkouts: workouts,
	}
}

// hrvArrow marks HRV more than 5% away from baseline.
func hrvArrow(changePct float64) string {
	switch {
	case changePct > 5:
		return ArrowUp
	case changePct < -5:
		return ArrowDown
	default:
		return ArrowFlat
	}
}

// rhrArrow marks resting HR more than 2 bpm away from baseline.
func rhrArrow(change float64) string {
	switch {
	case change < -2:
		return ArrowDown
	case change > 2:
		return ArrowUp
	default:
		return ArrowFlat
	}
}
