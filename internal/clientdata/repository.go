// Package clientdata provides persistent, age-aware caching for external client payloads.
// Every entry carries the time it was written; readers decide how old is too old.
package clientdata

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/vitals/internal/database"
	"github.com/rs/zerolog"
)

const day = 24 * time.Hour

// DefaultMaxAgeDays is used when a Cache is built without WithDefaultMaxAge.
const DefaultMaxAgeDays = 3

// Cache stores payloads by key in the cache_entries table.
//
// Get treats maxAgeDays == 0 as "use the default" and maxAgeDays < 0 as "no limit".
// Missing keys, undecodable payloads and unknown codecs are misses, never errors.
type Cache struct {
	db                *sql.DB
	codec             Codec
	defaultMaxAgeDays int
	now               func() time.Time
	log               zerolog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithCodec selects the codec new entries are written with.
func WithCodec(codec Codec) Option {
	return func(c *Cache) { c.codec = codec }
}

// WithDefaultMaxAge sets the max age applied when callers pass 0.
func WithDefaultMaxAge(days int) Option {
	return func(c *Cache) { c.defaultMaxAgeDays = days }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a cache over db. The cache_entries table must exist.
func NewCache(db *sql.DB, log zerolog.Logger, opts ...Option) *Cache {
	c := &Cache{
		db:                db,
		codec:             CodecJSON,
		defaultMaxAgeDays: DefaultMaxAgeDays,
		now:               time.Now,
		log:               log.With().Str("component", "cache").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores value under key with the current timestamp, replacing every
// earlier representation of the key.
func (c *Cache) Set(key string, value interface{}) error {
	return c.SetWithCodec(key, value, c.codec)
}

// SetWithCodec is Set with an explicit codec.
func (c *Cache) SetWithCodec(key string, value interface{}, codec Codec) error {
	data, err := codec.encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}

	ts := c.now().Unix()

	return database.WithTransaction(c.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM cache_entries WHERE key = ?", key); err != nil {
			return fmt.Errorf("failed to clear cache entry %s: %w", key, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO cache_entries (key, codec, timestamp, data) VALUES (?, ?, ?, ?)",
			key, string(codec), ts, data,
		); err != nil {
			return fmt.Errorf("failed to store cache entry %s: %w", key, err)
		}
		return nil
	})
}

// Get decodes the entry for key into dest and returns its age in whole days.
// ok is false when the key is absent, older than the max age or unreadable.
func (c *Cache) Get(key string, maxAgeDays int, dest interface{}) (ageDays int, ok bool) {
	codec, ts, data, found := c.load(key)
	if !found {
		return 0, false
	}

	age := c.ageDays(ts)
	limit := c.resolveMaxAge(maxAgeDays)
	if limit >= 0 && age > limit {
		c.log.Debug().
			Str("key", key).
			Int("age_days", age).
			Int("max_age_days", limit).
			Msg("Cache entry too old")
		return age, false
	}

	if err := codec.decode(data, dest); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Discarding unreadable cache entry")
		return age, false
	}

	return age, true
}

// AgeDays returns the age of the entry for key without decoding it.
func (c *Cache) AgeDays(key string) (int, bool) {
	_, ts, _, found := c.load(key)
	if !found {
		return 0, false
	}
	return c.ageDays(ts), true
}

// Delete removes every representation of key.
func (c *Cache) Delete(key string) error {
	if _, err := c.db.Exec("DELETE FROM cache_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

// DeleteOlderThan removes entries whose age in whole days exceeds days.
// Returns the number of rows deleted.
func (c *Cache) DeleteOlderThan(days int) (int64, error) {
	if days < 0 {
		return 0, nil
	}
	// age > days  <=>  now - ts >= (days+1) * 24h
	cutoff := c.now().Add(-time.Duration(days+1) * day).Unix()

	result, err := c.db.Exec("DELETE FROM cache_entries WHERE timestamp <= ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old cache entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// Clear removes all entries.
func (c *Cache) Clear() (int64, error) {
	result, err := c.db.Exec("DELETE FROM cache_entries")
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// DefaultMaxAgeDays returns the max age applied when callers pass 0.
func (c *Cache) DefaultMaxAgeDays() int {
	return c.defaultMaxAgeDays
}

func (c *Cache) load(key string) (Codec, int64, []byte, bool) {
	var (
		codec string
		ts    int64
		data  []byte
	)
	err := c.db.QueryRow(
		"SELECT codec, timestamp, data FROM cache_entries WHERE key = ? ORDER BY timestamp DESC LIMIT 1",
		key,
	).Scan(&codec, &ts, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to read cache entry")
		return "", 0, nil, false
	}
	return Codec(codec), ts, data, true
}

func (c *Cache) ageDays(ts int64) int {
	delta := c.now().Sub(time.Unix(ts, 0))
	if delta < 0 {
		return 0
	}
	return int(delta / day)
}

func (c *Cache) resolveMaxAge(maxAgeDays int) int {
	if maxAgeDays == 0 {
		return c.defaultMaxAgeDays
	}
	return maxAgeDays
}
