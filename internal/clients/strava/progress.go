package strava

import (
	"math"
	"strings"
	"time"
)

var (
	runKeywords  = []string{"run", "jog", "trail"}
	liftKeywords = []string{"weight", "strength", "lift", "gym", "training"}
)

// Categorize sorts an activity into run, lift or other. Runs are matched on the
// sport type and type only; lifts also match on the activity name.
func Categorize(a Activity) Category {
	sport := strings.ToLower(a.SportType)
	kind := strings.ToLower(a.Type)
	name := strings.ToLower(a.Name)

	for _, k := range runKeywords {
		if strings.Contains(sport, k) || strings.Contains(kind, k) {
			return CategoryRun
		}
	}
	for _, k := range liftKeywords {
		if strings.Contains(sport, k) || strings.Contains(kind, k) || strings.Contains(name, k) {
			return CategoryLift
		}
	}
	return CategoryOther
}

// WeekStart returns midnight of the Sunday starting the week containing now, in loc.
func WeekStart(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return midnight.AddDate(0, 0, -int(local.Weekday()))
}

// BuildWeeklyProgress counts this week's runs, lifts and run minutes.
// Activities before the week start are kept but not counted.
func BuildWeeklyProgress(activities []Activity, targets Targets, now time.Time, loc *time.Location) WeeklyProgress {
	start := WeekStart(now, loc)

	var runs, lifts int
	var runSeconds float64
	for _, a := range activities {
		if a.StartDate.Before(start) {
			continue
		}
		switch Categorize(a) {
		case CategoryRun:
			runs++
			runSeconds += float64(a.MovingTime)
		case CategoryLift:
			lifts++
		}
	}

	if activities == nil {
		activities = []Activity{}
	}

	return WeeklyProgress{
		Runs:       runs,
		Lifts:      lifts,
		RunMinutes: int(math.Round(runSeconds / 60)),
		Targets:    targets,
		Activities: activities,
		WeekStart:  start.Format("2006-01-02"),
		FetchedAt:  now,
	}
}

// CountSince returns how many activities started after since.
func CountSince(activities []Activity, since time.Time) int {
	n := 0
	for _, a := range activities {
		if a.StartDate.After(since) {
			n++
		}
	}
	return n
}
