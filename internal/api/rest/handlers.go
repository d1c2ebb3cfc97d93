package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fortuna/sabermetrics/internal/service"
	"github.com/fortuna/sabermetrics/internal/stats"
	"github.com/gorilla/mux"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	metricsService *service.MetricsService
}

// NewHandler creates a new handler
func NewHandler(svc *service.MetricsService) *Handler {
	return &Handler{metricsService: svc}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "sabermetrics",
		"version": "1.0.0",
	})
}

// GetMetric computes one metric: /api/v1/metrics/{metric}?player=...&season=...
func (h *Handler) GetMetric(w http.ResponseWriter, r *http.Request) {
	metric := mux.Vars(r)["metric"]
	q := r.URL.Query()

	res, err := h.metricsService.Compute(r.Context(), metric, q.Get("player"), q.Get("season"))
	if err != nil {
		respondError(w, statusFor(err), service.Message(err), err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GetPlayerStats returns the merged stat line for a player season
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	q := r.URL.Query()

	rec, err := h.metricsService.PlayerStats(r.Context(), name, q.Get("season"), q.Get("role"))
	if err != nil {
		respondError(w, statusFor(err), service.Message(err), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"player": name,
		"season": q.Get("season"),
		"stats":  rec,
	})
}

// GetLeagueAverages returns the league-wide averages for a season
func (h *Handler) GetLeagueAverages(w http.ResponseWriter, r *http.Request) {
	season := mux.Vars(r)["season"]

	rec, err := h.metricsService.LeagueAverages(r.Context(), season)
	if err != nil {
		respondError(w, statusFor(err), "Failed to fetch league averages", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"season":   season,
		"averages": rec,
	})
}

// GetWeightings returns the published linear weights for a season
func (h *Handler) GetWeightings(w http.ResponseWriter, r *http.Request) {
	season := mux.Vars(r)["season"]

	rec, err := h.metricsService.Weightings(r.Context(), season)
	if err != nil {
		respondError(w, statusFor(err), service.Message(err), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"season":     season,
		"weightings": rec,
	})
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrUnknownMetric):
		return http.StatusBadRequest
	case errors.Is(err, stats.ErrPlayerNotFound), errors.Is(err, stats.ErrSeasonNotFound):
		return http.StatusNotFound
	case errors.Is(err, stats.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, stats.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, stats.ErrParse), errors.Is(err, stats.ErrMissingField),
		errors.Is(err, stats.ErrDivisionByZero), errors.Is(err, stats.ErrConflict):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
		response["kind"] = service.Classify(err)
	}

	respondJSON(w, status, response)
}
