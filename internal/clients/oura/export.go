package oura

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ExportPattern matches export files in the export directory.
const ExportPattern = "oura_export*.json"

// ErrNoExport is returned when the export directory holds no export file.
var ErrNoExport = errors.New("no oura export file found")

// exportFile accepts both the account export layout (sleep, readiness, activity)
// and the API layout (daily_*), so a saved API dump also parses.
type exportFile struct {
	Sleep          []SleepRecord      `json:"sleep"`
	DailySleep     []DailySleepRecord `json:"daily_sleep"`
	Readiness      []ReadinessRecord  `json:"readiness"`
	DailyReadiness []ReadinessRecord  `json:"daily_readiness"`
	Activity       []ActivityRecord   `json:"activity"`
	DailyActivity  []ActivityRecord   `json:"daily_activity"`
}

// ParseExport decodes an export into the same records the API produces.
func ParseExport(r io.Reader, fetchedAt time.Time) (*Data, error) {
	var raw exportFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse oura export: %w", err)
	}

	data := &Data{
		Sleep:      raw.Sleep,
		DailySleep: raw.DailySleep,
		Readiness:  raw.Readiness,
		Activity:   raw.Activity,
		FetchedAt:  fetchedAt,
		Source:     SourceExport,
	}
	if len(data.Readiness) == 0 {
		data.Readiness = raw.DailyReadiness
	}
	if len(data.Activity) == 0 {
		data.Activity = raw.DailyActivity
	}
	// exports carry one sleep list; its scores double as the daily scores
	if len(data.DailySleep) == 0 {
		for _, s := range raw.Sleep {
			data.DailySleep = append(data.DailySleep, DailySleepRecord{Day: s.Day, Score: s.Score})
		}
	}

	if data.Empty() {
		return nil, fmt.Errorf("oura export contains no records")
	}

	return data, nil
}

// ParseExportFile parses the export at path.
func ParseExportFile(path string, fetchedAt time.Time) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open oura export: %w", err)
	}
	defer f.Close()

	data, err := ParseExport(f, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	data.ExportFile = path

	return data, nil
}

// LatestExport returns the most recently modified export file in dir.
func LatestExport(dir string) (string, time.Time, error) {
	matches, err := filepath.Glob(filepath.Join(dir, ExportPattern))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to list exports: %w", err)
	}

	var (
		latest  string
		modTime time.Time
	)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if latest == "" || info.ModTime().After(modTime) {
			latest = m
			modTime = info.ModTime()
		}
	}

	if latest == "" {
		return "", time.Time{}, ErrNoExport
	}

	return latest, modTime, nil
}
