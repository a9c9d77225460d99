package clientdata

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJobName(t *testing.T) {
	cache, _, _ := newTestCache(t)
	job := NewCleanupJob(cache, 7, zerolog.Nop())

	assert.Equal(t, "cache_cleanup", job.Name())
}

func TestCleanupJobRun(t *testing.T) {
	cache, db, clock := newTestCache(t)
	job := NewCleanupJob(cache, 7, zerolog.Nop())

	require.NoError(t, cache.Set("stale", payload{Name: "stale"}))
	clock.Advance(10 * 24 * time.Hour)
	require.NoError(t, cache.Set("fresh", payload{Name: "fresh"}))

	require.NoError(t, job.Run())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM cache_entries").Scan(&count))
	assert.Equal(t, 1, count)

	_, ok := cache.AgeDays("fresh")
	assert.True(t, ok)
}

func TestCleanupJobRunEmpty(t *testing.T) {
	cache, _, _ := newTestCache(t)
	job := NewCleanupJob(cache, 7, zerolog.Nop())

	require.NoError(t, job.Run())
}
