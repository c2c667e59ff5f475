package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alderkin/trellis/internal/events"
	"github.com/alderkin/trellis/internal/idgen"
	"github.com/alderkin/trellis/internal/model"
	"github.com/alderkin/trellis/internal/store"
)

// createEdgeInput holds transport-agnostic parameters for creating an edge.
type createEdgeInput struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Kind     string `json:"kind"`
}

// createEdge validates the link, persists it, publishes an EdgeCreated event,
// and runs propagation from the source (dependent) node.
func (s *TrellisServer) createEdge(ctx context.Context, in createEdgeInput) (*model.Edge, error) {
	id, err := idgen.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	kind := model.EdgeKind(in.Kind)
	if kind == "" {
		kind = model.EdgeReference
	}

	edge := &model.Edge{
		ID:        id,
		SourceID:  in.SourceID,
		TargetID:  in.TargetID,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}

	if err := model.ValidateEdge(edge); err != nil {
		return nil, inputError("invalid edge: " + err.Error())
	}

	for _, nodeID := range []string{edge.SourceID, edge.TargetID} {
		if _, err := s.store.GetNode(ctx, nodeID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, inputError("node " + nodeID + " not found")
			}
			return nil, fmt.Errorf("failed to resolve endpoint: %w", err)
		}
	}

	if err := s.store.CreateEdge(ctx, edge); err != nil {
		return nil, fmt.Errorf("failed to create edge: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicEdgeCreated, edge.SourceID, "", events.EdgeCreated{Edge: edge})

	if kind == model.EdgeDependency {
		if err := s.propagateFrom(ctx, edge.SourceID); err != nil {
			return edge, err
		}
	}

	return edge, nil
}

// deleteEdge removes an edge, publishes an EdgeDeleted event, and re-runs
// propagation for dependency links since blocking counts shift.
func (s *TrellisServer) deleteEdge(ctx context.Context, id string) error {
	edge, err := s.store.GetEdge(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteEdge(ctx, id); err != nil {
		return err
	}

	s.recordAndPublish(ctx, events.TopicEdgeDeleted, edge.SourceID, "", events.EdgeDeleted{
		EdgeID:   edge.ID,
		SourceID: edge.SourceID,
		TargetID: edge.TargetID,
		Kind:     string(edge.Kind),
	})

	if edge.Kind == model.EdgeDependency {
		if err := s.propagateFrom(ctx, edge.SourceID); err != nil {
			return err
		}
	}
	return nil
}
