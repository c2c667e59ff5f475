package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alderkin/trellis/internal/events"
	"github.com/alderkin/trellis/internal/model"
	"github.com/alderkin/trellis/internal/store"
)

// handleCreateEdge handles POST /v1/edges.
func (s *TrellisServer) handleCreateEdge(w http.ResponseWriter, r *http.Request) {
	var in createEdgeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	edge, err := s.createEdge(r.Context(), in)
	if err != nil {
		writeNodeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, edge)
}

// handleGetEdges handles GET /v1/edges?node=<id>&kind=<kind>&role=<source|target>.
// Without a node filter it returns every edge in the graph.
func (s *TrellisServer) handleGetEdges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	nodeID := q.Get("node")

	var edges []*model.Edge
	var err error
	if nodeID == "" {
		edges, err = s.store.ListEdges(r.Context())
	} else {
		role := model.RoleSource
		if q.Get("role") == "target" {
			role = model.RoleTarget
		}
		edges, err = s.store.GetEdges(r.Context(), model.EdgeKind(q.Get("kind")), role, nodeID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list edges")
		return
	}
	if edges == nil {
		edges = []*model.Edge{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"edges": edges})
}

// handleDeleteEdge handles DELETE /v1/edges/{id}.
func (s *TrellisServer) handleDeleteEdge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.deleteEdge(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "edge not found")
			return
		}
		writeNodeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRecompute handles POST /v1/recompute: a full priority recompute
// across the graph, for periodic maintenance or after bulk imports.
func (s *TrellisServer) handleRecompute(w http.ResponseWriter, r *http.Request) {
	updated, err := s.engine.RecomputeAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "recompute failed")
		return
	}

	s.recordAndPublish(r.Context(), events.TopicGraphRecomputed, "", "", events.GraphRecomputed{Updated: updated})

	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}
