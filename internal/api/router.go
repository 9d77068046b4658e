package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	// The controller issues wire commands as plain GETs with the command
	// in the path. Anything under audio/ goes through the dispatcher.
	r.Get("/audio/*", s.handleWireCommand)

	// The companion app connects a WebSocket at the root; a plain GET on
	// the same path gets a device identity answer instead.
	r.Get("/", s.handleRoot)
	r.Get("/ws", s.handleWebSocket)

	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)

	return r
}

// handleWireCommand answers one request/response wire command.
//
// The command string is the request path without its leading slash; the
// dispatcher echoes it verbatim inside the envelope.
func (s *Server) handleWireCommand(w http.ResponseWriter, r *http.Request) {
	command := strings.TrimPrefix(r.URL.Path, "/")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(s.dispatcher.Handle(command))
}

// handleRoot upgrades to a WebSocket when asked to, otherwise identifies
// the device so pairing probes get a sensible answer.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.handleWebSocket(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "Auric Core",
		"mac":     s.cfg.Mac,
		"version": s.version,
	})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleStats returns zone registry and hub statistics.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats := s.registry.GetStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"zones":       stats.TotalZones,
		"by_kind":     stats.ByKind,
		"playing":     stats.Playing,
		"connections": s.hub.ClientCount(),
	})
}
