package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tharushi1019/GeoInsightDashboard/internal/auth"
	"github.com/tharushi1019/GeoInsightDashboard/internal/client"
	"github.com/tharushi1019/GeoInsightDashboard/internal/lifecycle"
	"github.com/tharushi1019/GeoInsightDashboard/internal/models"
	"github.com/tharushi1019/GeoInsightDashboard/internal/service"
	"github.com/tharushi1019/GeoInsightDashboard/internal/store"
	"github.com/tharushi1019/GeoInsightDashboard/internal/validation"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	records *service.RecordsService
	geo     *service.GeoService
	weather client.WeatherClient
	// cachePing, when set, is called to check cache reachability. Used when backend is memcached.
	cachePing        func() error
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. cachePing may be nil.
func NewHandler(
	records *service.RecordsService,
	geo *service.GeoService,
	weather client.WeatherClient,
	cachePing func() error,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		records:   records,
		geo:       geo,
		weather:   weather,
		cachePing: cachePing,
		logger:    logger,
	}
}

// GetRoot handles GET /. Service banner kept for dashboard smoke checks.
func (h *Handler) GetRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "geoinsight-api",
		"message": "GeoInsight API running",
	})
}

// CreateRecord handles POST /api/records. The owner id comes from the verified
// bearer token, never from the request body.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "MISSING_TOKEN", "missing bearer token")
		return
	}

	var snap models.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be a JSON snapshot")
		return
	}

	created, err := h.records.Create(r.Context(), owner, snap)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			writeError(w, r, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
			return
		}
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListRecords handles GET /api/records. Records pending delete are excluded.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "MISSING_TOKEN", "missing bearer token")
		return
	}

	records, err := h.records.List(r.Context(), owner)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if records == nil {
		records = []models.Snapshot{}
	}
	writeJSON(w, http.StatusOK, records)
}

// GetStats handles GET /api/records/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "MISSING_TOKEN", "missing bearer token")
		return
	}

	stats, err := h.records.Stats(r.Context(), owner)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// DeleteRecord handles DELETE /api/records/{id}. With a non-zero undo window
// the response carries the commit deadline and the undo path; the store row is
// only removed once the window elapses without an undo.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "MISSING_TOKEN", "missing bearer token")
		return
	}
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "record id is required")
		return
	}

	outcome, err := h.records.Delete(r.Context(), owner, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no record with id "+id)
		case errors.Is(err, service.ErrAlreadyPending):
			writeError(w, r, http.StatusConflict, "DELETE_PENDING", "a delete is already pending for id "+id)
		default:
			writeStoreError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// UndoDelete handles POST /api/records/{id}/undo. A late undo, an unknown id,
// or another owner's id all land in the same 404.
func (h *Handler) UndoDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "MISSING_TOKEN", "missing bearer token")
		return
	}
	id := strings.TrimSpace(mux.Vars(r)["id"])

	if !h.records.Undo(r.Context(), owner, id) {
		writeError(w, r, http.StatusNotFound, "NOTHING_PENDING", "no pending delete for id "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":       id,
		"restored": true,
	})
}

// GetCountry handles GET /api/geo/country?name=.
func (h *Handler) GetCountry(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	result, err := h.geo.GetCountry(r.Context(), name)
	if err != nil {
		writeGeoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetWeather handles GET /api/geo/weather?city=.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	result, err := h.geo.GetWeather(r.Context(), city)
	if err != nil {
		writeGeoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetAirQuality handles GET /api/geo/airquality?city=.
func (h *Handler) GetAirQuality(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	result, err := h.geo.GetAirQuality(r.Context(), city)
	if err != nil {
		writeGeoError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	if result.status == "degraded" {
		checks["weatherApi"] = "unhealthy"
	} else {
		checks["weatherApi"] = "healthy"
	}
	if h.cachePing != nil {
		if h.cachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   "geoinsight-api",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// computeHealthStatus evaluates health conditions in priority order:
// shutting-down > weather API key invalid > healthy.
func (h *Handler) computeHealthStatus(ctx context.Context) healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.weather != nil {
		if err := h.weather.ValidateAPIKey(ctx); err != nil {
			return healthResult{"degraded", http.StatusServiceUnavailable, "api_key_invalid"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error envelope with code,
// message, and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

// writeStoreError writes a 500 for store failures, logging the underlying
// error at DEBUG level if a logger is available in request context.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, http.StatusInternalServerError, "STORE_FAILURE", "Unable to access snapshot storage")
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Debug("store error", zap.Error(err))
	}
}

// writeGeoError maps geo proxy failures onto the error envelope. Invalid place
// names are the caller's fault; everything else is an upstream problem.
func writeGeoError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, validation.ErrPlaceEmpty),
		errors.Is(err, validation.ErrPlaceTooShort),
		errors.Is(err, validation.ErrPlaceTooLong),
		errors.Is(err, validation.ErrPlaceInvalidChars):
		writeError(w, r, http.StatusBadRequest, "INVALID_PLACE", err.Error())
	case errors.Is(err, client.ErrPlaceNotFound):
		writeError(w, r, http.StatusNotFound, "PLACE_NOT_FOUND", "no data for the requested place")
	default:
		writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Unable to fetch geo data")
		if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
			logger.Debug("upstream error", zap.Error(err))
		}
	}
}
