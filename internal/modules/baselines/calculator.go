package baselines

import (
	"fmt"
	"slices"
	"time"

	"github.com/aristath/vitals/internal/clients/oura"
	"gonum.org/v1/gonum/floats/scalar"
)

// Compute derives a baseline from data. Each metric uses the median of its
// positive observations, or the configured default when fewer than MinDays
// observations exist. Sleep metrics use one main period per day. The returned warnings describe those fallbacks.
func Compute(data *oura.Data, d Defaults, now time.Time) (Baseline, []string) {
	var hrv, rhr, sleepHours []float64
	if data != nil {
		for _, r := range data.Readiness {
			if v := r.HRV(); v > 0 {
				hrv = append(hrv, v)
			}
		}
		// naps would count as extra days and pull typical sleep down
		for _, s := range data.MainSleeps() {
			if s.LowestHeartRate > 0 {
				rhr = append(rhr, s.LowestHeartRate)
			}
			if s.TotalSleepDuration > 0 {
				sleepHours = append(sleepHours, s.TotalSleepDuration/3600)
			}
		}
	}

	var warnings []string
	b := Baseline{
		HRVBaseline:       d.HRV,
		RHRBaseline:       d.RHR,
		TypicalSleepHours: DefaultTypicalSleepHours,
		HRVSamples:        len(hrv),
		RHRSamples:        len(rhr),
		ComputedAt:        now,
		Source:            SourceDefault,
	}
	if data != nil && data.Source != "" {
		b.Source = data.Source
	}

	if len(hrv) >= d.MinDays {
		b.HRVBaseline = scalar.Round(median(hrv), 1)
	} else {
		warnings = append(warnings, fmt.Sprintf(
			"Only %d days of HRV data (need %d), using default HRV baseline %.1f", len(hrv), d.MinDays, d.HRV))
	}

	if len(rhr) >= d.MinDays {
		b.RHRBaseline = scalar.Round(median(rhr), 1)
	} else {
		warnings = append(warnings, fmt.Sprintf(
			"Only %d days of RHR data (need %d), using default RHR baseline %.1f", len(rhr), d.MinDays, d.RHR))
	}

	if len(sleepHours) > 0 {
		b.TypicalSleepHours = scalar.Round(median(sleepHours), 1)
	}

	return b, warnings
}

// median of a non-empty slice; even lengths average the middle pair.
func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Deviation returns the HRV deviation from baseline in percent and the resting
// heart rate deviation in bpm, both rounded to one decimal.
func Deviation(hrv, rhr float64, b Baseline) (hrvPct, rhrBpm float64) {
	if b.HRVBaseline > 0 {
		hrvPct = scalar.Round((hrv-b.HRVBaseline)/b.HRVBaseline*100, 1)
	}
	return hrvPct, scalar.Round(rhr-b.RHRBaseline, 1)
}
