package events

import (
	"context"

	"github.com/alderkin/trellis/internal/model"
)

// Event topic constants
const (
	TopicNodeCreated = "trellis.node.created"
	TopicNodeUpdated = "trellis.node.updated"
	TopicNodeMoved   = "trellis.node.moved"
	TopicNodeDeleted = "trellis.node.deleted"

	TopicEdgeCreated = "trellis.edge.created"
	TopicEdgeDeleted = "trellis.edge.deleted"

	TopicGraphRecomputed = "trellis.graph.recomputed"
)

// Event types

type NodeCreated struct {
	Node *model.Node `json:"node"`
}

type NodeUpdated struct {
	Node    *model.Node    `json:"node"`
	Changes map[string]any `json:"changes"` // field name -> new value
}

type NodeMoved struct {
	Node        *model.Node `json:"node"`
	OldParentID string      `json:"old_parent_id,omitempty"`
}

type NodeDeleted struct {
	NodeID string `json:"node_id"`
}

type EdgeCreated struct {
	Edge *model.Edge `json:"edge"`
}

type EdgeDeleted struct {
	EdgeID   string `json:"edge_id"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Kind     string `json:"kind"`
}

type GraphRecomputed struct {
	Updated int `json:"updated"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
