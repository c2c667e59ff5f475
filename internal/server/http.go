package server

import (
	"encoding/json"
	"net/http"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
func (s *TrellisServer) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/nodes", s.handleCreateNode)
	mux.HandleFunc("GET /v1/nodes", s.handleListNodes)
	mux.HandleFunc("GET /v1/nodes/{id}", s.handleGetNode)
	mux.HandleFunc("PATCH /v1/nodes/{id}", s.handleUpdateNode)
	mux.HandleFunc("POST /v1/nodes/{id}/move", s.handleMoveNode)
	mux.HandleFunc("DELETE /v1/nodes/{id}", s.handleDeleteNode)
	mux.HandleFunc("GET /v1/nodes/{id}/children", s.handleGetChildren)
	mux.HandleFunc("GET /v1/nodes/{id}/tree", s.handleGetTree)
	mux.HandleFunc("GET /v1/nodes/{id}/backlinks", s.handleGetBacklinks)
	mux.HandleFunc("GET /v1/nodes/{id}/events", s.handleGetEvents)
	mux.HandleFunc("GET /v1/tree", s.handleGetForest)
	mux.HandleFunc("GET /v1/graph", s.handleGetGraph)
	mux.HandleFunc("POST /v1/edges", s.handleCreateEdge)
	mux.HandleFunc("GET /v1/edges", s.handleGetEdges)
	mux.HandleFunc("DELETE /v1/edges/{id}", s.handleDeleteEdge)
	mux.HandleFunc("POST /v1/recompute", s.handleRecompute)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return mux
}

// handleHealth handles GET /v1/health.
func (s *TrellisServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
