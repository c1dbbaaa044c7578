package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tharushi1019/GeoInsightDashboard/internal/auth"
	"github.com/tharushi1019/GeoInsightDashboard/internal/observability"
)

// RouterConfig carries the middleware wiring for NewRouter.
type RouterConfig struct {
	APIKey         string
	Verifier       auth.TokenVerifier
	RateLimiter    *rate.Limiter
	RequestTimeout time.Duration
	AllowedOrigin  string
	Logger         *zap.Logger
}

// NewRouter assembles the service router. Everything under /api requires the
// shared API key and a verified bearer token; /health, /metrics and the root
// banner stay open.
func NewRouter(h *Handler, cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(cfg.Logger))
	router.Use(MetricsMiddleware)
	router.Use(CORSMiddleware(cfg.AllowedOrigin))

	router.HandleFunc("/", h.GetRoot).Methods("GET")
	router.HandleFunc("/health", h.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler()).Methods("GET")
	if cfg.AllowedOrigin != "" {
		// Preflight requests are answered by CORSMiddleware; the handler is
		// only here so mux matches the route and runs the chain.
		router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	}

	api := router.PathPrefix("/api").Subrouter()
	api.Use(RateLimitMiddleware(cfg.RateLimiter))
	api.Use(auth.APIKeyMiddleware(cfg.APIKey, cfg.Logger))
	api.Use(auth.BearerMiddleware(cfg.Verifier, cfg.Logger))

	api.HandleFunc("/records", h.CreateRecord).Methods("POST")
	api.HandleFunc("/records", h.ListRecords).Methods("GET")
	api.HandleFunc("/records/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/records/{id}", h.DeleteRecord).Methods("DELETE")
	api.HandleFunc("/records/{id}/undo", h.UndoDelete).Methods("POST")

	geo := api.PathPrefix("/geo").Subrouter()
	if cfg.RequestTimeout > 0 {
		geo.Use(TimeoutMiddleware(cfg.RequestTimeout))
	}
	geo.HandleFunc("/country", h.GetCountry).Methods("GET")
	geo.HandleFunc("/weather", h.GetWeather).Methods("GET")
	geo.HandleFunc("/airquality", h.GetAirQuality).Methods("GET")

	return router
}
