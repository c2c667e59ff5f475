package engine

import "github.com/alderkin/trellis/internal/model"

// propagateTags runs the union-merge tag rules from the changed node: parent
// tags flow into children, ancestors accumulate the tags of their subtrees,
// and tags travel forward along dependency chains. Union is idempotent and
// monotone, so repeated application converges; the visited set on the
// dependency walk only avoids redundant work on cyclic graphs.
func (e *Engine) propagateTags(snap *Snapshot, n *model.Node) {
	// The changed node first absorbs its parent's tags, so the upward and
	// downward walks below both start from the full set.
	if p := snap.Parent(n); p != nil {
		snap.addTags(n, p.Tags)
	}

	e.tagsUp(snap, n, 0)
	e.tagsDown(snap, n, 0)
	e.tagsDependencies(snap, n, make(map[string]bool))
}

// tagsUp pushes n's tag set into every ancestor.
func (e *Engine) tagsUp(snap *Snapshot, n *model.Node, depth int) {
	if depth > maxPropagationDepth {
		return
	}
	p := snap.Parent(n)
	if p == nil {
		return
	}
	snap.addTags(p, n.Tags)
	e.tagsUp(snap, p, depth+1)
}

// tagsDown pushes n's tag set into its whole subtree.
func (e *Engine) tagsDown(snap *Snapshot, n *model.Node, depth int) {
	if depth > maxPropagationDepth {
		return
	}
	for _, c := range snap.Children(n.ID) {
		snap.addTags(c, n.Tags)
		e.tagsDown(snap, c, depth+1)
	}
}

// tagsDependencies merges blocker tags into n, then pushes n's set forward
// into every task that depends on it, recursing along the chain.
func (e *Engine) tagsDependencies(snap *Snapshot, n *model.Node, visited map[string]bool) {
	if visited[n.ID] {
		return
	}
	visited[n.ID] = true

	for _, b := range snap.Blockers(n.ID) {
		snap.addTags(n, b.Tags)
	}
	for _, d := range snap.Dependents(n.ID) {
		snap.addTags(d, n.Tags)
		e.tagsDependencies(snap, d, visited)
	}
}
