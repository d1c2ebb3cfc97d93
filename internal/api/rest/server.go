package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fortuna/sabermetrics/internal/service"
	"github.com/fortuna/sabermetrics/pkg/logger"
	"github.com/fortuna/sabermetrics/pkg/metrics"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(port string, svc *service.MetricsService, log logger.Logger, m *metrics.Manager) *Server {
	return &Server{
		port: port,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           NewRouter(svc, log, m),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter builds the route table. It is separate from NewServer so tests
// can drive it with httptest.
func NewRouter(svc *service.MetricsService, log logger.Logger, m *metrics.Manager) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	handler := NewHandler(svc)

	router := mux.NewRouter()

	router.Use(RecoveryMiddleware(log))
	router.Use(LoggingMiddleware(log, m))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	router.Handle("/metrics", m.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/metrics/{metric}", handler.GetMetric).Methods("GET", "OPTIONS")
	api.HandleFunc("/players/{name}/stats", handler.GetPlayerStats).Methods("GET", "OPTIONS")
	api.HandleFunc("/league/{season}/averages", handler.GetLeagueAverages).Methods("GET", "OPTIONS")
	api.HandleFunc("/weightings/{season}", handler.GetWeightings).Methods("GET", "OPTIONS")

	return router
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
