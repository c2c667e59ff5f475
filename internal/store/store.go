package store

import (
	"context"
	"errors"

	"github.com/alderkin/trellis/internal/model"
)

// ErrNotFound is returned when a node or edge does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for the node graph.
type Store interface {
	// Node CRUD
	CreateNode(ctx context.Context, node *model.Node) error
	GetNode(ctx context.Context, id string) (*model.Node, error)
	FindNodeByTitle(ctx context.Context, title string) (*model.Node, error)
	ListNodes(ctx context.Context, filter model.NodeFilter) ([]*model.Node, int, error) // returns nodes, total count, error
	GetChildren(ctx context.Context, parentID string) ([]*model.Node, error)            // direct children, sibling order
	UpdateNode(ctx context.Context, node *model.Node) error
	MoveNode(ctx context.Context, id, parentID string, position int) error
	DeleteNode(ctx context.Context, id string) error // deletes the subtree and all touching edges

	// Derived fields, written only by the propagation engine.
	UpdateDerived(ctx context.Context, nodes []*model.Node) error

	// Edges
	CreateEdge(ctx context.Context, edge *model.Edge) error
	GetEdge(ctx context.Context, id string) (*model.Edge, error)
	GetEdges(ctx context.Context, kind model.EdgeKind, role model.EdgeRole, nodeID string) ([]*model.Edge, error)
	ListEdges(ctx context.Context) ([]*model.Edge, error)
	DeleteEdge(ctx context.Context, id string) error

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	GetEvents(ctx context.Context, nodeID string) ([]*model.Event, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
