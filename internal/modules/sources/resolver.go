package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aristath/vitals/internal/clientdata"
	"github.com/rs/zerolog"
)

// Strategy fetches one source a single way. The name doubles as its cache key.
type Strategy[T any] interface {
	Name() string
	Fetch(ctx context.Context, forceRefresh bool) (*T, error)
}

// Dated is implemented by strategies whose payload can predate the fetch, such as
// a previously saved export file. Such payloads report their own age and are not
// written back to the cache.
type Dated[T any] interface {
	DataTime(data *T) time.Time
}

// DefaultAuthSuspension is how long a strategy is skipped after its credentials were rejected.
const DefaultAuthSuspension = 24 * time.Hour

// Resolver walks its strategies in order, falls back to the newest acceptable
// cache entry, and reports the outcome in a FetchStatus.
type Resolver[T any] struct {
	name        string
	strategies  []Strategy[T]
	cache       *clientdata.Cache
	cacheFilter func(*T) bool
	suspendFor  time.Duration
	now         func() time.Time
	log         zerolog.Logger

	mu        sync.Mutex
	suspended map[string]time.Time
}

// Option configures a Resolver.
type Option[T any] func(*Resolver[T])

// WithCacheFilter rejects cached payloads for which keep returns false.
func WithCacheFilter[T any](keep func(*T) bool) Option[T] {
	return func(r *Resolver[T]) { r.cacheFilter = keep }
}

// WithAuthSuspension sets how long an AuthExpired strategy is skipped. Zero disables suspension.
func WithAuthSuspension[T any](d time.Duration) Option[T] {
	return func(r *Resolver[T]) { r.suspendFor = d }
}

// WithClock replaces the wall clock, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(r *Resolver[T]) { r.now = now }
}

// NewResolver creates a resolver. The first strategy is the primary source;
// the rest are secondaries. cache may be nil, which disables both the write-back
// and the fallback.
func NewResolver[T any](name string, cache *clientdata.Cache, log zerolog.Logger, strategies []Strategy[T], opts ...Option[T]) *Resolver[T] {
	r := &Resolver[T]{
		name:       name,
		strategies: strategies,
		cache:      cache,
		suspendFor: DefaultAuthSuspension,
		now:        time.Now,
		log:        log.With().Str("component", "resolver").Str("source", name).Logger(),
		suspended:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the source name.
func (r *Resolver[T]) Name() string {
	return r.name
}

// Fetch resolves the source. It never returns an error: a nil payload comes
// with Source "failed" and AgeDays -1. forceRefresh retries suspended strategies
// and lifts the cache age limit.
func (r *Resolver[T]) Fetch(ctx context.Context, forceRefresh bool) (*T, FetchStatus) {
	var attempts []Attempt

	for i, s := range r.strategies {
		name := s.Name()

		if until, ok := r.suspendedUntil(name); ok && !forceRefresh {
			r.log.Debug().Str("strategy", name).Time("until", until).Msg("Strategy suspended after auth failure")
			attempts = append(attempts, Attempt{
				Strategy: name,
				Kind:     AuthExpired.String(),
				Error:    fmt.Sprintf("suspended until %s", until.Format(time.RFC3339)),
			})
			continue
		}

		data, err := s.Fetch(ctx, forceRefresh)
		if err == nil && data == nil {
			err = NewFetchError(Transient, errors.New("no data returned"))
		}
		if err != nil {
			kind := KindOf(err)
			attempts = append(attempts, Attempt{Strategy: name, Kind: kind.String(), Error: err.Error()})
			r.recordFailure(name, kind, err)
			continue
		}

		r.clearSuspension(name)
		attempts = append(attempts, Attempt{Strategy: name, Success: true})

		age := 0
		if dated, ok := s.(Dated[T]); ok {
			age = ageDays(r.now(), dated.DataTime(data))
		}

		// an old payload would get a fresh cache timestamp
		if r.cache != nil && age == 0 {
			if err := r.cache.Set(name, data); err != nil {
				r.log.Warn().Err(err).Str("strategy", name).Msg("Failed to cache fetched data")
			}
		}

		source := SourceSecondary
		if i == 0 {
			source = SourcePrimary
		}
		message := fmt.Sprintf("Fetched fresh data via %s", name)
		if age > 0 {
			message = fmt.Sprintf("Fetched %d day old data via %s", age, name)
		}
		r.log.Info().Str("strategy", name).Str("via", source).Int("age_days", age).Msg("Fetched data")

		return data, FetchStatus{
			Success:  true,
			Source:   source,
			AgeDays:  age,
			Message:  message,
			Strategy: name,
			Attempts: attempts,
		}
	}

	if data, key, age, ok := r.fromCache(forceRefresh); ok {
		r.log.Warn().Str("key", key).Int("age_days", age).Msg("Using cached data")
		return data, FetchStatus{
			Success:  true,
			Source:   SourceCache,
			AgeDays:  age,
			Message:  fmt.Sprintf("Using %d day old cached data from %s", age, key),
			Strategy: key,
			Attempts: attempts,
		}
	}

	r.log.Error().Int("attempts", len(attempts)).Msg("All fetch methods failed")

	return nil, FetchStatus{
		Success:  false,
		Source:   SourceFailed,
		AgeDays:  -1,
		Message:  failureMessage(attempts),
		Attempts: attempts,
	}
}

// fromCache returns the youngest cached payload across all strategy keys.
// Ties go to the earlier strategy.
func (r *Resolver[T]) fromCache(forceRefresh bool) (*T, string, int, bool) {
	if r.cache == nil {
		return nil, "", 0, false
	}

	maxAge := 0 // cache default
	if forceRefresh {
		maxAge = -1
	}

	var (
		best    *T
		bestKey string
		bestAge int
	)
	for _, s := range r.strategies {
		var v T
		age, ok := r.cache.Get(s.Name(), maxAge, &v)
		if !ok {
			continue
		}
		if r.cacheFilter != nil && !r.cacheFilter(&v) {
			r.log.Debug().Str("key", s.Name()).Msg("Cached data rejected by filter")
			continue
		}
		if best == nil || age < bestAge {
			best, bestKey, bestAge = &v, s.Name(), age
		}
	}

	return best, bestKey, bestAge, best != nil
}

func (r *Resolver[T]) recordFailure(name string, kind ErrorKind, err error) {
	event := r.log.Warn()
	switch kind {
	case NotConfigured:
		event = r.log.Debug()
	case AuthExpired:
		event = r.log.Error()
		if r.suspendFor > 0 {
			until := r.now().Add(r.suspendFor)
			r.mu.Lock()
			r.suspended[name] = until
			r.mu.Unlock()
			event = event.Time("suspended_until", until)
		}
	}
	event.Err(err).Str("strategy", name).Str("kind", kind.String()).Msg("Fetch strategy failed")
}

func (r *Resolver[T]) suspendedUntil(name string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	until, ok := r.suspended[name]
	if !ok {
		return time.Time{}, false
	}
	if !r.now().Before(until) {
		delete(r.suspended, name)
		return time.Time{}, false
	}
	return until, true
}

func (r *Resolver[T]) clearSuspension(name string) {
	r.mu.Lock()
	delete(r.suspended, name)
	r.mu.Unlock()
}

func failureMessage(attempts []Attempt) string {
	if len(attempts) == 0 {
		return "All fetch methods failed: no strategies configured"
	}
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		parts = append(parts, fmt.Sprintf("%s (%s)", a.Strategy, a.Kind))
	}
	return "All fetch methods failed: " + strings.Join(parts, ", ")
}

// ageDays is the floored number of days between at and now. The zero time is fresh.
func ageDays(now, at time.Time) int {
	if at.IsZero() || !now.After(at) {
		return 0
	}
	return int(now.Sub(at) / (24 * time.Hour))
}
