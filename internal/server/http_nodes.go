package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/alderkin/trellis/internal/engine"
	"github.com/alderkin/trellis/internal/links"
	"github.com/alderkin/trellis/internal/model"
	"github.com/alderkin/trellis/internal/store"
)

// handleCreateNode handles POST /v1/nodes.
func (s *TrellisServer) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var in createNodeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	node, err := s.createNode(r.Context(), in)
	if err != nil {
		writeNodeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, node)
}

// handleListNodes handles GET /v1/nodes.
func (s *TrellisServer) handleListNodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.NodeFilter{
		Search:   q.Get("search"),
		Sort:     q.Get("sort"),
		ParentID: q.Get("parent_id"),
	}

	if v := q.Get("kind"); v != "" {
		for _, k := range strings.Split(v, ",") {
			filter.Kind = append(filter.Kind, model.Kind(k))
		}
	}
	if v := q.Get("status"); v != "" {
		for _, st := range strings.Split(v, ",") {
			filter.Status = append(filter.Status, model.Status(st))
		}
	}
	if v := q.Get("tags"); v != "" {
		filter.Tags = strings.Split(v, ",")
	}
	if v := q.Get("priority"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Priority = &n
		}
	}
	if v := q.Get("has_due"); v != "" {
		b := v == "true" || v == "1"
		filter.HasDue = &b
	}
	if q.Get("roots") == "true" {
		filter.RootsOnly = true
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	nodes, total, err := s.store.ListNodes(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list nodes")
		return
	}

	// Ensure nodes is never null in JSON output.
	if nodes == nil {
		nodes = []*model.Node{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"nodes": nodes,
		"total": total,
	})
}

// handleGetNode handles GET /v1/nodes/{id}.
func (s *TrellisServer) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	node, err := s.store.GetNode(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "node not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get node")
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// handleUpdateNode handles PATCH /v1/nodes/{id}.
func (s *TrellisServer) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in updateNodeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	// For HTTP/JSON, DueAt/Tags presence is inferred from non-nil/non-empty.
	if in.DueAt != nil {
		in.dueAtSet = true
	}
	if in.Tags != nil {
		in.tagsSet = true
	}

	node, err := s.updateNode(r.Context(), id, in)
	if err != nil {
		writeNodeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// handleMoveNode handles POST /v1/nodes/{id}/move.
func (s *TrellisServer) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in struct {
		ParentID string `json:"parent_id"`
		Position int    `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	node, err := s.moveNode(r.Context(), id, in.ParentID, in.Position)
	if err != nil {
		writeNodeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// handleDeleteNode handles DELETE /v1/nodes/{id}.
func (s *TrellisServer) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.deleteNode(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "node not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete node")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetChildren handles GET /v1/nodes/{id}/children.
func (s *TrellisServer) handleGetChildren(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	children, err := s.store.GetChildren(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get children")
		return
	}
	if children == nil {
		children = []*model.Node{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": children})
}

// handleGetTree handles GET /v1/nodes/{id}/tree.
func (s *TrellisServer) handleGetTree(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	node, err := s.store.GetNode(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "node not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get node")
		return
	}

	tree, err := s.buildTree(r.Context(), node)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build tree")
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// handleGetForest handles GET /v1/tree: every root node with its subtree.
func (s *TrellisServer) handleGetForest(w http.ResponseWriter, r *http.Request) {
	roots, _, err := s.store.ListNodes(r.Context(), model.NodeFilter{RootsOnly: true})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list roots")
		return
	}

	forest := make([]*model.TreeNode, 0, len(roots))
	for _, root := range roots {
		tree, err := s.buildTree(r.Context(), root)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to build tree")
			return
		}
		forest = append(forest, tree)
	}
	writeJSON(w, http.StatusOK, map[string]any{"roots": forest})
}

// handleGetBacklinks handles GET /v1/nodes/{id}/backlinks.
func (s *TrellisServer) handleGetBacklinks(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	nodes, err := links.Backlinks(r.Context(), s.store, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get backlinks")
		return
	}
	if nodes == nil {
		nodes = []*model.Node{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

// handleGetEvents handles GET /v1/nodes/{id}/events.
func (s *TrellisServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	evts, err := s.store.GetEvents(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get events")
		return
	}
	if evts == nil {
		evts = []*model.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": evts})
}

// handleGetGraph handles GET /v1/graph.
func (s *TrellisServer) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := s.buildGraph(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build graph")
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

// writeNodeError maps service-layer errors to HTTP status codes.
func writeNodeError(w http.ResponseWriter, err error) {
	var ie inputError
	switch {
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, ie.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "node not found")
	case errors.Is(err, engine.ErrPropagationDepth):
		writeError(w, http.StatusConflict, "dependency cycle prevents due-date propagation")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
