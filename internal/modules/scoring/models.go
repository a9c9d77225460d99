package scoring

// Component names used in breakdowns.
const (
	ComponentDuration     = "duration"
	ComponentEfficiency   = "efficiency"
	ComponentDeepSleep    = "deep_sleep"
	ComponentRemSleep     = "rem_sleep"
	ComponentHRVTrend     = "hrv_trend"
	ComponentRestingHR    = "resting_hr"
	ComponentSleep        = "sleep"
	ComponentTrainingLoad = "training_load"
)

// Component is one scored input of a composite score.
type Component struct {
	Raw       float64 `json:"raw"`
	Points    float64 `json:"points"`
	MaxPoints float64 `json:"max_points"`
}

// Breakdown is a composite 0-100 score with its per-component detail.
type Breakdown struct {
	Score      int                  `json:"score"`
	Rating     string               `json:"rating"`
	Components map[string]Component `json:"components"`
}

// SleepInput is one night of sleep, all durations in seconds.
type SleepInput struct {
	TotalSleepSeconds float64
	TimeInBedSeconds  float64 // zero means "same as total sleep"
	DeepSleepSeconds  float64
	RemSleepSeconds   float64
	LightSleepSeconds float64
}

// SleepResult is the sleep score with the derived metrics it was computed from.
type SleepResult struct {
	Breakdown
	DurationHours float64 `json:"duration_hours"`
	EfficiencyPct float64 `json:"efficiency_pct"`
	DeepPct       float64 `json:"deep_pct"`
	RemPct        float64 `json:"rem_pct"`
}

// Trend arrows for the current reading relative to baseline.
const (
	ArrowUp   = "up"
	ArrowFlat = "flat"
	ArrowDown = "down"
)

// ReadinessInput holds everything the readiness score depends on.
type ReadinessInput struct {
	SleepScore     int
	HRV            float64
	RHR            float64
	HRVBaseline    float64
	RHRBaseline    float64
	RecentWorkouts int // activities in the trailing load window
}

// ReadinessResult is the readiness score with the deviations it was computed from.
type ReadinessResult struct {
	Breakdown
	HRV            float64 `json:"hrv"`
	HRVBaseline    float64 `json:"hrv_baseline"`
	HRVChangePct   float64 `json:"hrv_change_pct"`
	HRVTrend       string  `json:"hrv_trend"`
	RHR            float64 `json:"rhr"`
	RHRBaseline    float64 `json:"rhr_baseline"`
	RHRChange      float64 `json:"rhr_change"`
	RHRTrend       string  `json:"rhr_trend"`
	RecentWorkouts int     `json:"recent_workouts"`
}

// Status is a recovery band.
type Status string

// Recovery bands, best first.
const (
	StatusGreen  Status = "GREEN"
	StatusYellow Status = "YELLOW"
	StatusOrange Status = "ORANGE"
	StatusRed    Status = "RED"
)

// Trend describes the current readiness relative to recent scores.
type Trend string

// Trend values.
const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// RecoveryDecision is the daily training call.
type RecoveryDecision struct {
	Score          int    `json:"score"`
	Status         Status `json:"status"`
	Recommendation string `json:"recommendation"`
	Detail         string `json:"detail_text"`
	Trend          Trend  `json:"trend"`
}
