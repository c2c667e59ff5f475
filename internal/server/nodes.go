package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alderkin/trellis/internal/events"
	"github.com/alderkin/trellis/internal/idgen"
	"github.com/alderkin/trellis/internal/links"
	"github.com/alderkin/trellis/internal/model"
	"github.com/alderkin/trellis/internal/store"
)

// createNodeInput holds transport-agnostic parameters for creating a node.
type createNodeInput struct {
	Title            string     `json:"title"`
	Content          string     `json:"content"`
	Kind             string     `json:"kind"`
	Status           string     `json:"status"`
	Priority         int        `json:"priority"`
	DueAt            *time.Time `json:"due_at,omitempty"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	Tags             []string   `json:"tags"`
	ParentID         string     `json:"parent_id"`
	Actor            string     `json:"actor"`
}

// createNode validates input, persists a new node, reconciles wiki links in
// its content, publishes a NodeCreated event, and runs propagation. Returns
// inputError for validation failures.
func (s *TrellisServer) createNode(ctx context.Context, in createNodeInput) (*model.Node, error) {
	if in.Title == "" {
		return nil, inputError("title is required")
	}

	id, err := idgen.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	now := time.Now().UTC()
	node := &model.Node{
		ID:               id,
		Title:            in.Title,
		Content:          in.Content,
		Kind:             model.KindTask,
		Status:           model.StatusTodo,
		Priority:         3,
		DueAt:            in.DueAt,
		EstimatedMinutes: in.EstimatedMinutes,
		Tags:             model.MergeTags(nil, in.Tags),
		ParentID:         in.ParentID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.Kind != "" {
		node.Kind = model.Kind(in.Kind)
	}
	if in.Status != "" {
		node.Status = model.Status(in.Status)
	}
	if in.Priority != 0 {
		node.Priority = in.Priority
	}

	if err := model.ValidateNode(node); err != nil {
		return nil, inputError("invalid node: " + err.Error())
	}

	if node.ParentID != "" {
		if _, err := s.store.GetNode(ctx, node.ParentID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, inputError("parent node " + node.ParentID + " not found")
			}
			return nil, fmt.Errorf("failed to resolve parent: %w", err)
		}
	}

	if err := s.store.CreateNode(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to create node: %w", err)
	}

	if node.Content != "" {
		if _, err := links.Reconcile(ctx, s.store, node); err != nil {
			s.logger.Warn("wiki link reconcile failed", "node_id", node.ID, "error", err)
		}
	}

	s.recordAndPublish(ctx, events.TopicNodeCreated, node.ID, in.Actor, events.NodeCreated{Node: node})

	if err := s.propagateFrom(ctx, node.ID); err != nil {
		return node, err
	}

	return node, nil
}

// updateNodeInput holds transport-agnostic parameters for updating a node.
// Pointer fields indicate optionality: nil means "don't change".
type updateNodeInput struct {
	Title            *string    `json:"title,omitempty"`
	Content          *string    `json:"content,omitempty"`
	Kind             *string    `json:"kind,omitempty"`
	Status           *string    `json:"status,omitempty"`
	Priority         *int       `json:"priority,omitempty"`
	DueAt            *time.Time `json:"due_at,omitempty"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	Actor            string     `json:"actor,omitempty"`

	// dueAtSet tracks whether the field was provided at all (a zero
	// *time.Time means "clear the field", distinct from "not provided").
	dueAtSet bool
	tagsSet  bool
}

// updateNode applies partial updates to an existing node, persists them,
// publishes a NodeUpdated event, and runs propagation. Returns inputError
// for validation failures.
func (s *TrellisServer) updateNode(ctx context.Context, id string, in updateNodeInput) (*model.Node, error) {
	node, err := s.store.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]any)

	if in.Title != nil {
		node.Title = *in.Title
		changes["title"] = node.Title
	}
	contentChanged := false
	if in.Content != nil {
		node.Content = *in.Content
		changes["content"] = node.Content
		contentChanged = true
	}
	if in.Kind != nil {
		node.Kind = model.Kind(*in.Kind)
		changes["kind"] = node.Kind
	}
	if in.Status != nil {
		node.Status = model.Status(*in.Status)
		changes["status"] = node.Status
	}
	if in.Priority != nil {
		node.Priority = *in.Priority
		changes["priority"] = node.Priority
	}
	if in.EstimatedMinutes != nil {
		node.EstimatedMinutes = *in.EstimatedMinutes
		changes["estimated_minutes"] = node.EstimatedMinutes
	}
	if in.dueAtSet {
		if in.DueAt != nil && in.DueAt.IsZero() {
			node.DueAt = nil
		} else {
			node.DueAt = in.DueAt
		}
		// An explicit due change invalidates the previously derived date;
		// propagation below recomputes it from the new raw value.
		node.ComputedDue = nil
		changes["due_at"] = node.DueAt
	}
	if in.tagsSet {
		// User tags merge in; propagated tags never shrink.
		node.Tags = model.MergeTags(node.Tags, in.Tags)
		changes["tags"] = node.Tags
	}

	node.UpdatedAt = time.Now().UTC()

	if err := model.ValidateNode(node); err != nil {
		return nil, inputError("invalid node: " + err.Error())
	}

	if err := s.store.UpdateNode(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to update node: %w", err)
	}

	if contentChanged {
		if _, err := links.Reconcile(ctx, s.store, node); err != nil {
			s.logger.Warn("wiki link reconcile failed", "node_id", node.ID, "error", err)
		}
	}

	s.recordAndPublish(ctx, events.TopicNodeUpdated, node.ID, in.Actor, events.NodeUpdated{
		Node:    node,
		Changes: changes,
	})

	if err := s.propagateFrom(ctx, node.ID); err != nil {
		return node, err
	}

	return node, nil
}

// moveNode reparents a node, guarding against hierarchy cycles, publishes a
// NodeMoved event, and runs propagation.
func (s *TrellisServer) moveNode(ctx context.Context, id, parentID string, position int) (*model.Node, error) {
	node, err := s.store.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	oldParent := node.ParentID

	if parentID != "" {
		if parentID == id {
			return nil, inputError("node cannot be its own parent")
		}
		if err := s.checkNoCycle(ctx, id, parentID); err != nil {
			return nil, err
		}
	}

	if err := s.store.MoveNode(ctx, id, parentID, position); err != nil {
		return nil, fmt.Errorf("failed to move node: %w", err)
	}

	node, err = s.store.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}

	s.recordAndPublish(ctx, events.TopicNodeMoved, id, "", events.NodeMoved{
		Node:        node,
		OldParentID: oldParent,
	})

	if err := s.propagateFrom(ctx, id); err != nil {
		return node, err
	}

	return node, nil
}

// checkNoCycle rejects a move that would place a node under its own subtree.
func (s *TrellisServer) checkNoCycle(ctx context.Context, id, parentID string) error {
	cur := parentID
	for cur != "" {
		if cur == id {
			return inputError("move would create a hierarchy cycle")
		}
		p, err := s.store.GetNode(ctx, cur)
		if errors.Is(err, store.ErrNotFound) {
			return inputError("parent node " + parentID + " not found")
		}
		if err != nil {
			return fmt.Errorf("failed to walk ancestors: %w", err)
		}
		cur = p.ParentID
	}
	return nil
}

// deleteNode removes a node and its subtree, then publishes a NodeDeleted
// event and runs a recompute since blocking counts shift globally.
func (s *TrellisServer) deleteNode(ctx context.Context, id string) error {
	if err := s.store.DeleteNode(ctx, id); err != nil {
		return err
	}

	s.recordAndPublish(ctx, events.TopicNodeDeleted, id, "", events.NodeDeleted{NodeID: id})

	if _, err := s.engine.RecomputeAll(ctx); err != nil {
		s.logger.Warn("recompute after delete failed", "node_id", id, "error", err)
	}
	return nil
}

// buildTree resolves a node's subtree into nested TreeNodes.
func (s *TrellisServer) buildTree(ctx context.Context, root *model.Node) (*model.TreeNode, error) {
	tn := &model.TreeNode{Node: root, Children: []*model.TreeNode{}}
	children, err := s.store.GetChildren(ctx, root.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load children of %s: %w", root.ID, err)
	}
	for _, c := range children {
		ct, err := s.buildTree(ctx, c)
		if err != nil {
			return nil, err
		}
		tn.Children = append(tn.Children, ct)
	}
	return tn, nil
}

// buildGraph assembles the whole graph for visualization: nodes, cross-link
// edges, and status counts.
func (s *TrellisServer) buildGraph(ctx context.Context) (*model.GraphResponse, error) {
	nodes, _, err := s.store.ListNodes(ctx, model.NodeFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	edges, err := s.store.ListEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}

	stats := &model.GraphStats{}
	for _, n := range nodes {
		if n.Kind == model.KindNote {
			stats.TotalNotes++
			continue
		}
		switch n.Status {
		case model.StatusTodo:
			stats.TotalTodo++
		case model.StatusInProgress:
			stats.TotalInProgress++
		case model.StatusDone:
			stats.TotalDone++
		case model.StatusCancelled:
			stats.TotalCancelled++
		}
	}

	graphEdges := make([]*model.GraphEdge, 0, len(edges))
	for _, e := range edges {
		graphEdges = append(graphEdges, &model.GraphEdge{
			Source: e.SourceID,
			Target: e.TargetID,
			Kind:   string(e.Kind),
		})
	}

	if nodes == nil {
		nodes = []*model.Node{}
	}
	return &model.GraphResponse{Nodes: nodes, Edges: graphEdges, Stats: stats}, nil
}
