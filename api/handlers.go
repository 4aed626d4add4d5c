package api

import (
	"fmt"
	"net/http"
	"time"

	"cloudkeeper/core/output"
	"cloudkeeper/core/query"
	"cloudkeeper/core/types"
)

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ds := s.engine.Dataset()
	if ds.Empty() {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": output.NoDataMessage,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"records":   ds.Len(),
		"regions":   len(ds.Regions()),
		"loaded_at": ds.LoadedAt().Format(time.RFC3339),
	})
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"version":     s.version,
		"engine":      "cloudkeeper",
		"api_version": "v1",
	})
}

// handleInstances handles GET /api/v1/instances
func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	c := query.ParseCriteriaWithDefaults(r.URL.Query(), s.config.DefaultLimit, types.ParseSortField(s.config.DefaultSortBy))
	res := s.engine.Execute(c)

	s.mu.Lock()
	s.queryCount++
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, output.NewResultView(res))
}

// handleRegions handles GET /api/v1/regions
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	regions := s.engine.Regions()
	if regions == nil {
		regions = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"regions": regions,
		"count":   len(regions),
	})
}

// handleMetrics handles GET /metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	requests, errs, queries, latency := s.requestCount, s.errorCount, s.queryCount, s.totalLatencyMs
	s.mu.Unlock()

	avgLatency := float64(0)
	if requests > 0 {
		avgLatency = float64(latency) / float64(requests)
	}

	metrics := fmt.Sprintf(`# HELP cloudkeeper_requests_total Total requests
# TYPE cloudkeeper_requests_total counter
cloudkeeper_requests_total %d

# HELP cloudkeeper_errors_total Total server errors
# TYPE cloudkeeper_errors_total counter
cloudkeeper_errors_total %d

# HELP cloudkeeper_queries_total Total instance queries
# TYPE cloudkeeper_queries_total counter
cloudkeeper_queries_total %d

# HELP cloudkeeper_latency_avg_ms Average latency
# TYPE cloudkeeper_latency_avg_ms gauge
cloudkeeper_latency_avg_ms %.2f

# HELP cloudkeeper_dataset_records Loaded instance records
# TYPE cloudkeeper_dataset_records gauge
cloudkeeper_dataset_records %d

# HELP cloudkeeper_sessions Live sessions
# TYPE cloudkeeper_sessions gauge
cloudkeeper_sessions %d
`, requests, errs, queries, avgLatency, s.engine.Dataset().Len(), s.sessionCount())

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(metrics))
}
