package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/vitals/internal/modules/analysis"
	"github.com/rs/zerolog"
)

// Analyzer runs one analysis.
type Analyzer interface {
	Run(ctx context.Context, forceRefresh bool) *analysis.Analysis
}

// AnalysisJob produces the daily analysis
type AnalysisJob struct {
	analyzer Analyzer
	timeout  time.Duration
	log      zerolog.Logger
}

// NewAnalysisJob creates the analysis job. timeout bounds one run.
func NewAnalysisJob(analyzer Analyzer, timeout time.Duration, log zerolog.Logger) *AnalysisJob {
	return &AnalysisJob{
		analyzer: analyzer,
		timeout:  timeout,
		log:      log.With().Str("job", "analysis").Logger(),
	}
}

// Name returns the job name
func (j *AnalysisJob) Name() string {
	return "analysis"
}

// Run executes the analysis. Source failures do not fail the job; a run that
// ends without any wearable data does.
func (j *AnalysisJob) Run() error {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	res := j.analyzer.Run(ctx, false)

	if !res.OuraStatus.Success {
		return fmt.Errorf("analysis %s ran without wearable data: %s", res.RunID, res.OuraStatus.Message)
	}

	j.log.Info().
		Str("run_id", res.RunID).
		Int("readiness", res.Readiness.Score).
		Str("status", string(res.Recovery.Status)).
		Msg("Scheduled analysis finished")

	return nil
}
