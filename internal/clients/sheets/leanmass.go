// Package sheets reads the lean mass log from a published spreadsheet.
package sheets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

// Column headers of the lean mass sheet.
const (
	colDate       = "Date"
	colWeight     = "Weight (lbs)"
	colBodyFat    = "Body Fat %"
	colLeanMass   = "Fat-Free Mass (lbs)"
	colFFMI       = "Fat Free Mass Index (FFMI)"
	colPercentile = "Male Percentile US 1988-1994"
)

// DateLayout is the sheet's date format, e.g. "Mon 03/04/2024".
const DateLayout = "Mon 01/02/2006"

// TrendEntries is how many of the latest rows form the trend.
const TrendEntries = 8

// ErrNoRows is returned when the sheet holds no usable measurement.
var ErrNoRows = errors.New("no valid lean mass rows")

// Entry is one weigh-in.
type Entry struct {
	Date     string  `json:"date"`
	Weight   float64 `json:"weight"`
	BodyFat  float64 `json:"bf_pct"`
	LeanMass float64 `json:"lean_mass"`
	FFMI     float64 `json:"ffmi"`
}

// Current is the latest weigh-in with its population percentile.
type Current struct {
	Entry
	Percentile *int `json:"percentile"`
}

// Goals are the body composition targets.
type Goals struct {
	TargetWeight   float64 `json:"target_weight"`
	TargetBodyFat  float64 `json:"target_bf_pct"`
	TargetLeanMass float64 `json:"target_lean_mass"`
}

// NewGoals derives the lean mass target from weight and body fat targets.
func NewGoals(weight, bodyFatPct float64) Goals {
	return Goals{
		TargetWeight:   weight,
		TargetBodyFat:  bodyFatPct,
		TargetLeanMass: scalar.Round(weight*(1-bodyFatPct/100), 1),
	}
}

// LeanMass is the parsed sheet.
type LeanMass struct {
	Current     Current   `json:"current"`
	RecentTrend []Entry   `json:"recent_trend"`
	Goals       Goals     `json:"goals"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// ParseLeanMass reads the sheet CSV. Rows without a parseable date and weight,
// or with spreadsheet errors in the weight, are skipped.
func ParseLeanMass(r io.Reader, goals Goals, fetchedAt time.Time) (*LeanMass, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	if _, ok := columns[colDate]; !ok {
		return nil, fmt.Errorf("sheet has no %q column", colDate)
	}
	if _, ok := columns[colWeight]; !ok {
		return nil, fmt.Errorf("sheet has no %q column", colWeight)
	}

	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		entries    []Entry
		percentile *int
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet row: %w", err)
		}

		date := field(row, colDate)
		weightStr := field(row, colWeight)
		if date == "" || weightStr == "" || date == colDate {
			continue
		}
		if strings.Contains(weightStr, "#NUM!") || strings.Contains(weightStr, "#VALUE!") {
			continue
		}
		if _, err := time.Parse(DateLayout, date); err != nil {
			continue
		}
		weight, ok := parseNumber(weightStr)
		if !ok {
			continue
		}

		bodyFat, _ := parseNumber(field(row, colBodyFat))
		leanMass, _ := parseNumber(field(row, colLeanMass))
		ffmi, _ := parseNumber(field(row, colFFMI))

		entries = append(entries, Entry{
			Date:     date,
			Weight:   weight,
			BodyFat:  bodyFat,
			LeanMass: leanMass,
			FFMI:     ffmi,
		})

		percentile = nil
		if p, err := strconv.Atoi(field(row, colPercentile)); err == nil {
			percentile = &p
		}
	}

	if len(entries) == 0 {
		return nil, ErrNoRows
	}

	trend := entries
	if len(trend) > TrendEntries {
		trend = trend[len(trend)-TrendEntries:]
	}

	return &LeanMass{
		Current: Current{
			Entry:      entries[len(entries)-1],
			Percentile: percentile,
		},
		RecentTrend: append([]Entry(nil), trend...),
		Goals:       goals,
		FetchedAt:   fetchedAt,
	}, nil
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
