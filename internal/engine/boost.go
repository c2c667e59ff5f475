package engine

import (
	"time"

	"github.com/alderkin/trellis/internal/model"
)

// recomputePriorities runs the two-pass priority computation over the whole
// snapshot: base scores for every node first, then the boost walk, then the
// final score (base + accumulated boost) written back. Computing all bases
// before any boost keeps the result invariant to node visitation order.
func (e *Engine) recomputePriorities(snap *Snapshot, now time.Time) {
	bases := make(map[string]float64, snap.Len())
	for id, n := range snap.nodes {
		bases[id] = BasePriority(n, snap.Depth(n), snap.DependentCount(id), len(snap.Children(id)), 0, now)
	}

	boosts := e.propagateBoosts(snap, bases)

	for id, n := range snap.nodes {
		snap.setComputedPriority(n, bases[id]+boosts[id])
	}
}

// propagateBoosts distributes half of each active node's base score to its
// hierarchy children and to the nodes it depends on, halving again at every
// hop. The per-walk visited set is the cycle guard: halving alone bounds the
// contribution on a cycle but a naive walk would still revisit forever.
func (e *Engine) propagateBoosts(snap *Snapshot, bases map[string]float64) map[string]float64 {
	boosts := make(map[string]float64)

	for _, id := range snap.SortedIDs() {
		n := snap.nodes[id]
		own := bases[id]
		if own <= 0 || n.Status.Terminal() {
			continue
		}

		visited := map[string]bool{id: true}
		var walk func(target *model.Node, weight float64)
		walk = func(target *model.Node, weight float64) {
			if visited[target.ID] {
				return
			}
			visited[target.ID] = true
			boosts[target.ID] += weight

			for _, c := range snap.Children(target.ID) {
				walk(c, weight/2)
			}
			for _, b := range snap.Blockers(target.ID) {
				walk(b, weight/2)
			}
		}

		for _, c := range snap.Children(id) {
			walk(c, own/2)
		}
		for _, b := range snap.Blockers(id) {
			walk(b, own/2)
		}
	}

	return boosts
}
