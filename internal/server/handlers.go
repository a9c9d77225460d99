package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/aristath/vitals/internal/modules/analysis"
)

// handleHealth reports database reachability and process memory
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	response := map[string]interface{}{
		"status":         "healthy",
		"service":        "vitals",
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	}

	if s.db != nil {
		if err := s.db.QuickCheck(ctx); err != nil {
			s.log.Error().Err(err).Msg("Database health check failed")
			status = http.StatusServiceUnavailable
			response["status"] = "unhealthy"
			response["database_error"] = err.Error()
		} else if stats, err := s.db.GetStats(); err == nil {
			response["database"] = stats
		}
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfoWithContext(ctx); err == nil {
			response["rss_bytes"] = info.RSS
		}
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		response["system_memory_used_pct"] = vm.UsedPercent
	}

	if latest, ok := s.analyzer.Latest(); ok {
		response["last_analysis"] = latest.GeneratedAt
	}

	s.writeJSON(w, status, response)
}

// handleGetAnalysis returns the latest analysis, running one if none exists
// GET /api/analysis
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if latest, ok := s.analyzer.Latest(); ok {
		s.writeJSON(w, http.StatusOK, latest)
		return
	}
	s.writeJSON(w, http.StatusOK, s.runAnalysis(r.Context(), false))
}

// handleRefreshAnalysis runs a new analysis. Concurrent requests share one run.
// POST /api/analysis/refresh?force=true
func (s *Server) handleRefreshAnalysis(w http.ResponseWriter, r *http.Request) {
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "force must be a boolean")
			return
		}
		force = parsed
	}

	s.writeJSON(w, http.StatusOK, s.runAnalysis(r.Context(), force))
}

func (s *Server) runAnalysis(ctx context.Context, force bool) *analysis.Analysis {
	key := "analysis:" + strconv.FormatBool(force)

	v, _, shared := s.runs.Do(key, func() (interface{}, error) {
		// a disconnecting client must not cancel a run other requests wait on
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.analysisTimeout)
		defer cancel()
		return s.analyzer.Run(runCtx, force), nil
	})
	if shared {
		s.log.Debug().Str("key", key).Msg("Joined in-flight analysis")
	}

	return v.(*analysis.Analysis)
}

// handleGetBaselines returns the persisted baseline
// GET /api/baselines
func (s *Server) handleGetBaselines(w http.ResponseWriter, r *http.Request) {
	b, err := s.baselines.Load(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load baselines")
		s.writeError(w, http.StatusInternalServerError, "failed to load baselines")
		return
	}
	if b == nil {
		s.writeError(w, http.StatusNotFound, "no baselines calculated yet")
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

// handleDeleteCacheEntry removes one cache key
// DELETE /api/cache/{key}
func (s *Server) handleDeleteCacheEntry(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := s.cache.Delete(key); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to delete cache entry")
		s.writeError(w, http.StatusInternalServerError, "failed to delete cache entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearCache removes every cache entry
// DELETE /api/cache
func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.cache.Clear()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to clear cache")
		s.writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
