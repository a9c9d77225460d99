package clientdata

import (
	"github.com/rs/zerolog"
)

// CleanupJob removes cache entries older than a retention window.
// It should be scheduled to run daily.
type CleanupJob struct {
	cache         *Cache
	retentionDays int
	log           zerolog.Logger
}

// NewCleanupJob creates a cache cleanup job. A negative retention keeps everything.
func NewCleanupJob(cache *Cache, retentionDays int, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		cache:         cache,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Run removes every entry older than the retention window.
func (j *CleanupJob) Run() error {
	deleted, err := j.cache.DeleteOlderThan(j.retentionDays)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete old cache entries")
		return err
	}

	if deleted > 0 {
		j.log.Info().
			Int64("deleted", deleted).
			Int("retention_days", j.retentionDays).
			Msg("Cache cleanup completed")
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "cache_cleanup"
}
