package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alderkin/trellis/internal/store"
)

// Engine orchestrates propagation runs against the store. Runs are serialized
// by a single mutex and executed inside one store transaction each, so a run
// either commits all derived-field updates or none of them.
type Engine struct {
	store  store.Store
	loc    *time.Location
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time

	mu sync.Mutex
}

// New returns an Engine using the given location for local-day rules.
func New(s store.Store, loc *time.Location, logger *slog.Logger) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  s,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

// NodeChanged runs a full propagation pass after a mutation to one node:
// base priorities and boosts across the whole graph (counts like
// dependentCount are global, so a partial recompute would go stale), then the
// due-date and tag walks from the changed node only.
func (e *Engine) NodeChanged(ctx context.Context, nodeID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	return e.store.RunInTransaction(ctx, func(tx store.Store) error {
		snap, err := LoadSnapshot(ctx, tx)
		if err != nil {
			return err
		}

		e.recomputePriorities(snap, now)

		// The changed node may have been deleted since the mutation was
		// accepted; the global pass above is still worth committing.
		if n := snap.Node(nodeID); n != nil {
			if err := e.propagateDueDates(snap, n, now); err != nil {
				return fmt.Errorf("due-date propagation from %s: %w", nodeID, err)
			}
			e.propagateTags(snap, n)

			// Due dates moved above feed back into urgency.
			e.recomputePriorities(snap, now)
		}

		return e.commit(ctx, tx, snap)
	})
}

// EdgeChanged runs propagation after an edge was created or removed. The
// source (dependent) node is the natural origin for the local walks.
func (e *Engine) EdgeChanged(ctx context.Context, sourceID string) error {
	return e.NodeChanged(ctx, sourceID)
}

// RecomputeAll runs the global priority passes over the whole graph, for
// periodic maintenance. Due-date and tag propagation are mutation-triggered
// and deliberately not re-run here. Returns the number of updated nodes.
func (e *Engine) RecomputeAll(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var updated int
	err := e.store.RunInTransaction(ctx, func(tx store.Store) error {
		snap, err := LoadSnapshot(ctx, tx)
		if err != nil {
			return err
		}
		e.recomputePriorities(snap, now)
		updated = len(snap.dirty)
		return e.commit(ctx, tx, snap)
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func (e *Engine) commit(ctx context.Context, tx store.Store, snap *Snapshot) error {
	dirty := snap.Dirty()
	if len(dirty) == 0 {
		return nil
	}
	if err := tx.UpdateDerived(ctx, dirty); err != nil {
		return fmt.Errorf("commit derived fields: %w", err)
	}
	e.logger.Debug("propagation committed", "nodes", len(dirty))
	return nil
}
