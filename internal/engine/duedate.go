package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/alderkin/trellis/internal/model"
)

// MinDependencyGap is the minimum scheduling distance between a blocking task
// and the task that depends on it.
const MinDependencyGap = 2 * time.Hour

// maxPropagationDepth bounds every recursive walk. A dependency cycle keeps
// shifting dates by the gap on each lap and would otherwise recurse without
// limit; hitting the ceiling aborts the run instead.
const maxPropagationDepth = 100

// ErrPropagationDepth is returned when a due-date walk exceeds
// maxPropagationDepth, which in practice means a dependency cycle.
var ErrPropagationDepth = errors.New("propagation depth limit exceeded")

// End-of-day used by the chore rule, in the engine's configured timezone.
const (
	endOfDayHour   = 23
	endOfDayMinute = 59
)

// propagateDueDates runs the due-date rules from the changed node: the chore
// rule, then hierarchy inheritance to fixed point, then the dependency gap
// constraints. Returns an error (and leaves the run uncommitted) when a walk
// exceeds the depth ceiling.
func (e *Engine) propagateDueDates(snap *Snapshot, n *model.Node, now time.Time) error {
	e.ensureChoreDue(snap, n, now)
	if err := e.dueHierarchy(snap, n, 0); err != nil {
		return err
	}
	return e.dueDependencies(snap, n, 0)
}

// ensureChoreDue force-sets a due date of end-of-today (local) on lowest
// priority tasks that are not done, when they have no due date or their due
// date's calendar day has already passed. Idempotent per calendar day.
func (e *Engine) ensureChoreDue(snap *Snapshot, n *model.Node, now time.Time) bool {
	if n.Kind != model.KindTask || n.Priority != model.PriorityLowest || n.Status == model.StatusDone {
		return false
	}

	local := now.In(e.loc)
	target := time.Date(local.Year(), local.Month(), local.Day(), endOfDayHour, endOfDayMinute, 0, 0, e.loc)

	if due := n.EffectiveDue(); due != nil {
		y1, m1, d1 := due.In(e.loc).Date()
		y2, m2, d2 := target.Date()
		if !time.Date(y1, m1, d1, 0, 0, 0, 0, e.loc).Before(time.Date(y2, m2, d2, 0, 0, 0, 0, e.loc)) {
			return false
		}
	}

	snap.setComputedDue(n, target)
	return true
}

// dueHierarchy applies the parent/child due-date rules from n until the local
// subtree is stable: a node without a due date inherits its parent's, and a
// parent is never due earlier than its latest child. Recursion only follows
// an actual change, and every change either fills an empty date or strictly
// raises one, so the walk reaches a fixed point.
func (e *Engine) dueHierarchy(snap *Snapshot, n *model.Node, depth int) error {
	if depth > maxPropagationDepth {
		return fmt.Errorf("%w: hierarchy walk at %s", ErrPropagationDepth, n.ID)
	}

	// Due dates travel between tasks only; notes in the tree neither inherit
	// nor raise them. Status is not filtered: a done child still holds its
	// parent's date up.
	if n.Kind != model.KindTask {
		return nil
	}

	// Reconcile n against its parent.
	if p := snap.Parent(n); p != nil && p.Kind == model.KindTask {
		nd, pd := n.EffectiveDue(), p.EffectiveDue()
		switch {
		case nd == nil && pd != nil:
			snap.setComputedDue(n, *pd)
		case nd != nil && (pd == nil || nd.After(*pd)):
			snap.setComputedDue(p, *nd)
			if err := e.dueHierarchy(snap, p, depth+1); err != nil {
				return err
			}
		}
	}

	// Reconcile each child against n.
	for _, c := range snap.Children(n.ID) {
		if c.Kind != model.KindTask {
			continue
		}
		cd, nd := c.EffectiveDue(), n.EffectiveDue()
		switch {
		case cd == nil && nd != nil:
			snap.setComputedDue(c, *nd)
			if err := e.dueHierarchy(snap, c, depth+1); err != nil {
				return err
			}
		case cd != nil && (nd == nil || cd.After(*nd)):
			snap.setComputedDue(n, *cd)
			if err := e.dueHierarchy(snap, n, depth+1); err != nil {
				return err
			}
		}
	}

	return nil
}

// dueDependencies enforces the minimum gap along dependency edges touching n.
// A dependent with no due date is scheduled after its blocker; otherwise a
// violated constraint pulls the blocker earlier (and re-checks the blocker's
// own incoming constraints) or pushes the dependent later, recursing down the
// chain. The depth ceiling turns a dependency cycle into a deterministic
// error instead of unbounded recursion.
func (e *Engine) dueDependencies(snap *Snapshot, n *model.Node, depth int) error {
	if depth > maxPropagationDepth {
		return fmt.Errorf("%w: dependency walk at %s", ErrPropagationDepth, n.ID)
	}

	// n as the dependent: n must be due at least gap after each blocker.
	for _, b := range snap.Blockers(n.ID) {
		if b.Kind != model.KindTask {
			continue
		}
		nd, bd := n.EffectiveDue(), b.EffectiveDue()
		switch {
		case nd == nil && bd != nil:
			snap.setComputedDue(n, bd.Add(MinDependencyGap))
		case nd != nil && bd != nil && nd.Before(bd.Add(MinDependencyGap)):
			snap.setComputedDue(b, nd.Add(-MinDependencyGap))
			if err := e.dueDependencies(snap, b, depth+1); err != nil {
				return err
			}
		case nd != nil && bd == nil:
			snap.setComputedDue(b, nd.Add(-MinDependencyGap))
		}
	}

	// n as the blocker: every dependent must be due at least gap after n.
	nd := n.EffectiveDue()
	if nd == nil {
		return nil
	}
	for _, d := range snap.Dependents(n.ID) {
		if d.Kind != model.KindTask {
			continue
		}
		dd := d.EffectiveDue()
		if dd == nil || dd.Before(nd.Add(MinDependencyGap)) {
			snap.setComputedDue(d, nd.Add(MinDependencyGap))
			if err := e.dueDependencies(snap, d, depth+1); err != nil {
				return err
			}
		}
	}

	return nil
}
