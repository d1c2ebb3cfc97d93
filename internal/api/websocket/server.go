package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fortuna/sabermetrics/internal/service"
	"github.com/fortuna/sabermetrics/pkg/logger"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Computer evaluates one metric request.
type Computer interface {
	Compute(ctx context.Context, metric, name, season string) (*service.Result, error)
}

// Request is one client message on /ws/metrics.
type Request struct {
	ID     string `json:"id"`
	Metric string `json:"metric"`
	Player string `json:"player"`
	Season string `json:"season"`
}

// Reply answers exactly one Request; either Result or Error is set.
type Reply struct {
	ID     string          `json:"id"`
	Result *service.Result `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Kind   string          `json:"kind,omitempty"`
}

// Server represents the WebSocket server
type Server struct {
	port     string
	server   *http.Server
	hub      *Hub
	computer Computer
	log      logger.Logger
}

// NewServer creates a new WebSocket server
func NewServer(port string, computer Computer, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		port:     port,
		hub:      NewHub(),
		computer: computer,
		log:      log,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the WebSocket routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/metrics", s.handleMetrics)
	mux.HandleFunc("/ws/health", s.handleHealth)
	return mux
}

// Start starts the WebSocket server
func (s *Server) Start() error {
	s.log.Info(context.Background(), "websocket server listening", logger.String("port", s.port))
	return s.server.ListenAndServe()
}

// handleMetrics upgrades the connection and serves metric requests on it
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), "failed to upgrade connection", logger.Error(err))
		return
	}

	client := newClient(s.hub, conn, s.computer, s.log)
	s.hub.Register(client)

	go client.writePump()
	go client.readPump()
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"clients": s.hub.ClientCount(),
	})
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.CloseAll()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
