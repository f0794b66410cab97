// Package api serves the auxiliary HTTP surface next to the WebSocket
// endpoint: the bundled chat client page and a health probe.
package api

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

//go:embed index.html
var indexPage []byte

// Stats reports the live counters surfaced by the health endpoint.
type Stats interface {
	// Count returns the number of joined participants.
	Count() int
}

// Archive reports the size of the retained message history.
type Archive interface {
	Len() int
}

type Server struct {
	stats   Stats
	archive Archive
	router  *http.ServeMux
	log     *zap.Logger
}

func NewServer(stats Stats, archive Archive, log *zap.Logger) *Server {
	s := &Server{
		stats:   stats,
		archive: archive,
		router:  http.NewServeMux(),
		log:     log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleIndex)
	s.router.Handle("/health", s.jsonMiddleware(http.HandlerFunc(s.handleHealth)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexPage)
}

type healthResponse struct {
	Status   string `json:"status"`
	Clients  int    `json:"clients"`
	Messages int    `json:"messages"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.sendJSON(w, healthResponse{
		Status:   "ok",
		Clients:  s.stats.Count(),
		Messages: s.archive.Len(),
	}, http.StatusOK)
}

func (s *Server) jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, status int) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response failed", zap.Error(err))
	}
}

func (s *Server) sendError(w http.ResponseWriter, msg string, status int) {
	s.sendJSON(w, map[string]string{"error": msg}, status)
}
