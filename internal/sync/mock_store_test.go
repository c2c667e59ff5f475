package sync

import (
	"context"
	"sort"
	"strings"

	"github.com/alderkin/trellis/internal/model"
	"github.com/alderkin/trellis/internal/store"
)

// mockStore is an in-memory store.Store for sync tests.
type mockStore struct {
	nodes map[string]*model.Node
	edges map[string]*model.Edge
}

func newMockStore() *mockStore {
	return &mockStore{
		nodes: make(map[string]*model.Node),
		edges: make(map[string]*model.Edge),
	}
}

func (m *mockStore) CreateNode(_ context.Context, n *model.Node) error {
	m.nodes[n.ID] = n
	return nil
}

func (m *mockStore) GetNode(_ context.Context, id string) (*model.Node, error) {
	n, ok := m.nodes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return n, nil
}

func (m *mockStore) FindNodeByTitle(_ context.Context, title string) (*model.Node, error) {
	for _, n := range m.nodes {
		if strings.EqualFold(n.Title, title) {
			return n, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) ListNodes(_ context.Context, _ model.NodeFilter) ([]*model.Node, int, error) {
	var result []*model.Node
	for _, n := range m.nodes {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, len(result), nil
}

func (m *mockStore) GetChildren(_ context.Context, parentID string) ([]*model.Node, error) {
	var result []*model.Node
	for _, n := range m.nodes {
		if n.ParentID == parentID {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (m *mockStore) UpdateNode(_ context.Context, n *model.Node) error {
	if _, ok := m.nodes[n.ID]; !ok {
		return store.ErrNotFound
	}
	m.nodes[n.ID] = n
	return nil
}

func (m *mockStore) MoveNode(_ context.Context, id, parentID string, position int) error {
	n, ok := m.nodes[id]
	if !ok {
		return store.ErrNotFound
	}
	n.ParentID = parentID
	n.Position = position
	return nil
}

func (m *mockStore) DeleteNode(_ context.Context, id string) error {
	if _, ok := m.nodes[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.nodes, id)
	return nil
}

func (m *mockStore) UpdateDerived(_ context.Context, nodes []*model.Node) error {
	for _, n := range nodes {
		m.nodes[n.ID] = n
	}
	return nil
}

func (m *mockStore) CreateEdge(_ context.Context, e *model.Edge) error {
	m.edges[e.ID] = e
	return nil
}

func (m *mockStore) GetEdge(_ context.Context, id string) (*model.Edge, error) {
	e, ok := m.edges[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return e, nil
}

func (m *mockStore) GetEdges(_ context.Context, kind model.EdgeKind, role model.EdgeRole, nodeID string) ([]*model.Edge, error) {
	var result []*model.Edge
	for _, e := range m.edges {
		if kind != "" && e.Kind != kind {
			continue
		}
		if role == model.RoleSource && e.SourceID != nodeID {
			continue
		}
		if role == model.RoleTarget && e.TargetID != nodeID {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func (m *mockStore) ListEdges(_ context.Context) ([]*model.Edge, error) {
	var result []*model.Edge
	for _, e := range m.edges {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockStore) DeleteEdge(_ context.Context, id string) error {
	if _, ok := m.edges[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.edges, id)
	return nil
}

func (m *mockStore) RecordEvent(_ context.Context, _ *model.Event) error { return nil }

func (m *mockStore) GetEvents(_ context.Context, _ string) ([]*model.Event, error) {
	return nil, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }
