// Package server exposes the graph over HTTP and triggers propagation
// after every mutation.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/alderkin/trellis/internal/engine"
	"github.com/alderkin/trellis/internal/events"
	"github.com/alderkin/trellis/internal/model"
	"github.com/alderkin/trellis/internal/store"
)

// TrellisServer serves the node graph API.
type TrellisServer struct {
	store     store.Store
	publisher events.Publisher
	engine    *engine.Engine
	logger    *slog.Logger
}

// NewTrellisServer returns a server backed by the given store, publisher,
// and propagation engine.
func NewTrellisServer(s store.Store, p events.Publisher, eng *engine.Engine, logger *slog.Logger) *TrellisServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrellisServer{
		store:     s,
		publisher: p,
		engine:    eng,
		logger:    logger,
	}
}

// recordAndPublish persists an event to the store and publishes it to NATS.
// Both operations are best-effort; failures are logged but do not block the caller.
func (s *TrellisServer) recordAndPublish(ctx context.Context, topic, nodeID, actor string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event", "topic", topic, "node_id", nodeID, "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, &model.Event{
		Topic:   topic,
		NodeID:  nodeID,
		Actor:   actor,
		Payload: payload,
	}); err != nil {
		s.logger.Warn("failed to record event", "topic", topic, "node_id", nodeID, "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "node_id", nodeID, "error", err)
	}
}

// propagateFrom runs the engine after a node mutation. A depth-guard trip
// means the graph holds an unresolvable dependency cycle; that is surfaced
// to the caller, everything else is logged and swallowed so a transient
// engine failure does not fail an already-committed mutation.
func (s *TrellisServer) propagateFrom(ctx context.Context, nodeID string) error {
	err := s.engine.NodeChanged(ctx, nodeID)
	if err == nil {
		return nil
	}
	if errors.Is(err, engine.ErrPropagationDepth) {
		return err
	}
	s.logger.Warn("propagation failed", "node_id", nodeID, "error", err)
	return nil
}

// inputError indicates invalid user input.
// Transport layers map this to 400.
type inputError string

func (e inputError) Error() string { return string(e) }
