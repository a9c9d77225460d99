// Package training turns weekly progress and today's recovery into action items.
package training

import (
	"fmt"
	"math"

	"github.com/aristath/vitals/internal/clients/strava"
	"github.com/aristath/vitals/internal/modules/scoring"
)

// MinSleepHours is the duration below which a sleep reminder is added.
const MinSleepHours = 7.0

// AllTargetsMet is the item returned when nothing needs attention.
const AllTargetsMet = "All weekly targets met! Maintain current training pace"

// Input is what the action items depend on. SleepHours zero means unknown.
type Input struct {
	Progress   strava.WeeklyProgress
	Status     scoring.Status
	SleepHours float64
}

// ActionItems lists what is left to do this week and what to adjust today.
// It always returns at least one item.
func ActionItems(in Input) []string {
	var items []string
	p := in.Progress

	runsNeeded := p.RunsNeeded()
	liftsNeeded := p.LiftsNeeded()
	minutesNeeded := p.RunMinutesNeeded()

	switch {
	case runsNeeded > 0 && minutesNeeded > 0:
		perRun := int(math.Round(float64(minutesNeeded) / float64(runsNeeded)))
		items = append(items, fmt.Sprintf("Need %d more run(s) this week (%d+ min each)", runsNeeded, perRun))
	case runsNeeded > 0:
		items = append(items, fmt.Sprintf("Need %d more run(s) this week", runsNeeded))
	}
	if liftsNeeded > 0 {
		items = append(items, fmt.Sprintf("Need %d more lift session(s) this week", liftsNeeded))
	}
	if runsNeeded == 0 && minutesNeeded > 0 {
		items = append(items, fmt.Sprintf("Need %d more running minutes this week", minutesNeeded))
	}

	switch in.Status {
	case scoring.StatusRed:
		items = append(items, "Prioritize recovery today - consider rest or very light activity")
	case scoring.StatusOrange:
		items = append(items, "Reduce workout intensity or volume today")
	}

	if in.SleepHours > 0 && in.SleepHours < MinSleepHours {
		items = append(items, "Aim for 7-8 hours sleep tonight")
	}

	if len(items) == 0 {
		items = append(items, AllTargetsMet)
	}

	return items
}

// EmptyProgress is the progress reported when no activity data is available.
func EmptyProgress(targets strava.Targets) strava.WeeklyProgress {
	return strava.WeeklyProgress{
		Targets:    targets,
		Activities: []strava.Activity{},
	}
}
