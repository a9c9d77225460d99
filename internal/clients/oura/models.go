// Package oura fetches sleep, readiness and activity records from the Oura ring,
// either through the v2 API or from a data export file.
package oura

import (
	"sort"
	"time"
)

// SleepRecord is one sleep period. Durations are in seconds.
type SleepRecord struct {
	ID                 string  `json:"id,omitempty"`
	Day                string  `json:"day"`
	Type               string  `json:"type,omitempty"`
	TotalSleepDuration float64 `json:"total_sleep_duration"`
	TimeInBed          float64 `json:"time_in_bed"`
	DeepSleepDuration  float64 `json:"deep_sleep_duration"`
	RemSleepDuration   float64 `json:"rem_sleep_duration"`
	LightSleepDuration float64 `json:"light_sleep_duration"`
	LowestHeartRate    float64 `json:"lowest_heart_rate"`
	AverageHRV         float64 `json:"average_hrv"`
	Score              *int    `json:"score,omitempty"`
}

// DailySleepRecord is Oura's own daily sleep score.
type DailySleepRecord struct {
	Day   string `json:"day"`
	Score *int   `json:"score,omitempty"`
}

// ReadinessContributors are the readiness sub-scores Oura reports.
type ReadinessContributors struct {
	HRVBalance      float64 `json:"hrv_balance"`
	RestingHR       float64 `json:"resting_heart_rate"`
	SleepBalance    float64 `json:"sleep_balance"`
	RecoveryIndex   float64 `json:"recovery_index"`
	PreviousNight   float64 `json:"previous_night"`
	ActivityBalance float64 `json:"activity_balance"`
}

// ReadinessRecord is one day of readiness.
type ReadinessRecord struct {
	Day                  string                `json:"day"`
	Score                *int                  `json:"score,omitempty"`
	HeartRateVariability float64               `json:"heart_rate_variability,omitempty"`
	HRVBalance           float64               `json:"hrv_balance,omitempty"`
	TemperatureDeviation float64               `json:"temperature_deviation,omitempty"`
	Contributors         ReadinessContributors `json:"contributors"`
}

// HRV returns the best available HRV reading: the measured value, then the
// HRV balance, then the HRV balance contributor. Zero means none.
func (r ReadinessRecord) HRV() float64 {
	switch {
	case r.HeartRateVariability > 0:
		return r.HeartRateVariability
	case r.HRVBalance > 0:
		return r.HRVBalance
	default:
		return r.Contributors.HRVBalance
	}
}

// ActivityRecord is one day of activity.
type ActivityRecord struct {
	Day            string `json:"day"`
	Score          *int   `json:"score,omitempty"`
	Steps          int    `json:"steps"`
	ActiveCalories int    `json:"active_calories"`
}

// Source values for Data.
const (
	SourceAPI    = "api"
	SourceExport = "export"
)

// Data is everything fetched for one window. It is never modified after a fetch.
type Data struct {
	Sleep      []SleepRecord      `json:"sleep"`
	DailySleep []DailySleepRecord `json:"daily_sleep"`
	Readiness  []ReadinessRecord  `json:"daily_readiness"`
	Activity   []ActivityRecord   `json:"daily_activity"`
	FetchedAt  time.Time          `json:"fetched_at"`
	Source     string             `json:"source"`
	ExportFile string             `json:"export_file,omitempty"`
}

// Empty reports whether no records at all were fetched.
func (d *Data) Empty() bool {
	return d == nil || len(d.Sleep)+len(d.DailySleep)+len(d.Readiness)+len(d.Activity) == 0
}

// LatestSleep returns the main sleep period of the most recent day.
func (d *Data) LatestSleep() (SleepRecord, bool) {
	main := d.MainSleeps()
	if len(main) == 0 {
		return SleepRecord{}, false
	}
	return main[len(main)-1], true
}

// MainSleeps returns one sleep period per day, oldest day first. A long_sleep
// period wins over naps and rest periods on the same day, then the longest.
func (d *Data) MainSleeps() []SleepRecord {
	if d == nil || len(d.Sleep) == 0 {
		return nil
	}

	byDay := make(map[string]SleepRecord, len(d.Sleep))
	for _, s := range d.Sleep {
		current, ok := byDay[s.Day]
		if !ok || preferSleep(s, current) {
			byDay[s.Day] = s
		}
	}

	records := make([]SleepRecord, 0, len(byDay))
	for _, s := range byDay {
		records = append(records, s)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Day < records[j].Day })

	return records
}

// preferSleep reports whether a is a better main period than b for the same day.
func preferSleep(a, b SleepRecord) bool {
	if (a.Type == "long_sleep") != (b.Type == "long_sleep") {
		return a.Type == "long_sleep"
	}
	return a.TotalSleepDuration > b.TotalSleepDuration
}

// LatestReadiness returns the readiness record of the most recent day.
func (d *Data) LatestReadiness() (ReadinessRecord, bool) {
	if d == nil || len(d.Readiness) == 0 {
		return ReadinessRecord{}, false
	}

	latest := d.Readiness[0]
	for _, r := range d.Readiness[1:] {
		if r.Day > latest.Day {
			latest = r
		}
	}
	return latest, true
}

// DailySleepScore returns Oura's own sleep score for day, when reported.
func (d *Data) DailySleepScore(day string) (int, bool) {
	if d == nil {
		return 0, false
	}
	for _, s := range d.DailySleep {
		if s.Day == day && s.Score != nil {
			return *s.Score, true
		}
	}
	return 0, false
}
