package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"fertpulse/internal/services"
)

// MetricsHandler serves the Prometheus scrape and runtime stats.
type MetricsHandler struct {
	prometheus http.Handler
	health     *services.HealthService
}

// NewMetricsHandler creates a new metrics handler. A nil prometheus handler
// disables the scrape endpoint.
func NewMetricsHandler(prometheus http.Handler, health *services.HealthService) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, health: health}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetMetrics)
	r.Get("/system", h.GetSystemStats)
	return r
}

// GetMetrics serves the Prometheus text exposition.
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		http.Error(w, "metrics exporter disabled", http.StatusNotFound)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// GetSystemStats returns runtime statistics as JSON
func (h *MetricsHandler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"metrics": h.health.SystemStats(r.Context()).FormatStats(),
	})
}
