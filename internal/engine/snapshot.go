package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alderkin/trellis/internal/model"
	"github.com/alderkin/trellis/internal/store"
)

// Snapshot is an in-memory view of the whole node graph. Propagators read and
// write derived fields on it; the orchestrator commits the dirty set at the
// end of a run. Dangling references (a parent id or edge endpoint whose node
// is missing from the store) are skipped by every accessor.
type Snapshot struct {
	nodes        map[string]*model.Node
	children     map[string][]*model.Node // ordered by sibling position
	depsBySource map[string][]*model.Edge
	depsByTarget map[string][]*model.Edge

	dirty map[string]bool
}

// LoadSnapshot reads all nodes and dependency edges from the store and builds
// the indexes the propagators walk.
func LoadSnapshot(ctx context.Context, s store.Store) (*Snapshot, error) {
	nodes, _, err := s.ListNodes(ctx, model.NodeFilter{})
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	edges, err := s.ListEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}

	snap := &Snapshot{
		nodes:        make(map[string]*model.Node, len(nodes)),
		children:     make(map[string][]*model.Node),
		depsBySource: make(map[string][]*model.Edge),
		depsByTarget: make(map[string][]*model.Edge),
		dirty:        make(map[string]bool),
	}

	for _, n := range nodes {
		snap.nodes[n.ID] = n
	}
	for _, n := range nodes {
		if n.ParentID == "" {
			continue
		}
		if _, ok := snap.nodes[n.ParentID]; !ok {
			continue // dangling parent reference
		}
		snap.children[n.ParentID] = append(snap.children[n.ParentID], n)
	}
	for _, siblings := range snap.children {
		sort.Slice(siblings, func(i, j int) bool {
			return siblings[i].Position < siblings[j].Position
		})
	}

	for _, e := range edges {
		if e.Kind != model.EdgeDependency {
			continue
		}
		// Edges touching a missing node are excluded up front.
		if _, ok := snap.nodes[e.SourceID]; !ok {
			continue
		}
		if _, ok := snap.nodes[e.TargetID]; !ok {
			continue
		}
		snap.depsBySource[e.SourceID] = append(snap.depsBySource[e.SourceID], e)
		snap.depsByTarget[e.TargetID] = append(snap.depsByTarget[e.TargetID], e)
	}

	return snap, nil
}

// Node returns the node with the given id, or nil.
func (s *Snapshot) Node(id string) *model.Node {
	return s.nodes[id]
}

// Len returns the number of nodes in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.nodes)
}

// Parent returns the node's parent, or nil when the node is a root or the
// parent reference dangles.
func (s *Snapshot) Parent(n *model.Node) *model.Node {
	if n.ParentID == "" {
		return nil
	}
	return s.nodes[n.ParentID]
}

// Children returns the node's direct children in sibling order.
func (s *Snapshot) Children(id string) []*model.Node {
	return s.children[id]
}

// Blockers returns the nodes the given node depends on (dependency edge
// targets): work that must precede it.
func (s *Snapshot) Blockers(id string) []*model.Node {
	edges := s.depsBySource[id]
	out := make([]*model.Node, 0, len(edges))
	for _, e := range edges {
		if b := s.nodes[e.TargetID]; b != nil {
			out = append(out, b)
		}
	}
	return out
}

// Dependents returns the nodes that depend on the given node (dependency edge
// sources): work blocked by it.
func (s *Snapshot) Dependents(id string) []*model.Node {
	edges := s.depsByTarget[id]
	out := make([]*model.Node, 0, len(edges))
	for _, e := range edges {
		if d := s.nodes[e.SourceID]; d != nil {
			out = append(out, d)
		}
	}
	return out
}

// DependentCount returns how many tasks the given node blocks.
func (s *Snapshot) DependentCount(id string) int {
	return len(s.depsByTarget[id])
}

// Depth returns the node's distance from its hierarchy root. A parent cycle
// is an invariant violation; the walk stops at maxPropagationDepth rather
// than looping forever.
func (s *Snapshot) Depth(n *model.Node) int {
	depth := 0
	for p := s.Parent(n); p != nil && depth < maxPropagationDepth; p = s.Parent(p) {
		depth++
	}
	return depth
}

// SortedIDs returns all node ids in lexical order, for deterministic walks.
func (s *Snapshot) SortedIDs() []string {
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// setComputedPriority updates the node's computed priority and marks it dirty
// when the value changed.
func (s *Snapshot) setComputedPriority(n *model.Node, score float64) {
	if n.ComputedPriority == score {
		return
	}
	n.ComputedPriority = score
	s.dirty[n.ID] = true
}

// setComputedDue updates the node's computed due date and marks it dirty when
// the value changed.
func (s *Snapshot) setComputedDue(n *model.Node, t time.Time) {
	if n.ComputedDue != nil && n.ComputedDue.Equal(t) {
		return
	}
	due := t
	n.ComputedDue = &due
	s.dirty[n.ID] = true
}

// addTags unions the given tags into the node's tag set and marks it dirty
// when the set grew. Tags are never removed by propagation.
func (s *Snapshot) addTags(n *model.Node, tags []string) {
	merged := model.MergeTags(n.Tags, tags)
	if len(merged) == len(n.Tags) {
		return
	}
	n.Tags = merged
	s.dirty[n.ID] = true
}

// Dirty returns the nodes whose derived fields changed during this run,
// sorted by id for deterministic commits.
func (s *Snapshot) Dirty() []*model.Node {
	ids := make([]string, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*model.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.nodes[id])
	}
	return out
}
