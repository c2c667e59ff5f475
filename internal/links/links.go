// Package links extracts wiki-style [[Title]] references from node content
// and keeps the corresponding wiki edges in sync with the graph store.
package links

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/alderkin/trellis/internal/idgen"
	"github.com/alderkin/trellis/internal/model"
	"github.com/alderkin/trellis/internal/store"
)

// wikiLinkPattern matches [[Title]] and [[Title|alias]] forms.
var wikiLinkPattern = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|[^\[\]]*)?\]\]`)

// Extract returns the distinct link titles referenced in content, in order
// of first appearance. Aliases after a pipe are ignored; titles are trimmed.
func Extract(content string) []string {
	var titles []string
	seen := make(map[string]bool)
	for _, m := range wikiLinkPattern.FindAllStringSubmatch(content, -1) {
		title := strings.TrimSpace(m[1])
		if title == "" {
			continue
		}
		key := strings.ToLower(title)
		if seen[key] {
			continue
		}
		seen[key] = true
		titles = append(titles, title)
	}
	return titles
}

// Reconcile aligns the wiki edges originating at node with the [[links]]
// currently present in its content. Titles that do not match an existing
// node create a new note to link against. Edges for links that no longer
// appear in the content are removed. Returns the IDs of any notes created.
func Reconcile(ctx context.Context, s store.Store, node *model.Node) ([]string, error) {
	titles := Extract(node.Content)

	existing, err := s.GetEdges(ctx, model.EdgeWiki, model.RoleSource, node.ID)
	if err != nil {
		return nil, fmt.Errorf("load wiki edges for %s: %w", node.ID, err)
	}

	// Map current wiki edges by target so stale ones can be dropped.
	byTarget := make(map[string]*model.Edge, len(existing))
	for _, e := range existing {
		byTarget[e.TargetID] = e
	}

	var created []string
	wanted := make(map[string]bool)
	for _, title := range titles {
		target, err := s.FindNodeByTitle(ctx, title)
		if errors.Is(err, store.ErrNotFound) {
			target, err = createStub(ctx, s, title)
			if err != nil {
				return created, err
			}
			created = append(created, target.ID)
		} else if err != nil {
			return created, fmt.Errorf("resolve link %q: %w", title, err)
		}

		if target.ID == node.ID {
			continue
		}
		wanted[target.ID] = true
		if _, ok := byTarget[target.ID]; ok {
			continue
		}

		edgeID, err := idgen.Generate()
		if err != nil {
			return created, err
		}
		edge := &model.Edge{
			ID:        edgeID,
			SourceID:  node.ID,
			TargetID:  target.ID,
			Kind:      model.EdgeWiki,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.CreateEdge(ctx, edge); err != nil {
			return created, fmt.Errorf("create wiki edge %s -> %s: %w", node.ID, target.ID, err)
		}
	}

	for targetID, e := range byTarget {
		if wanted[targetID] {
			continue
		}
		if err := s.DeleteEdge(ctx, e.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return created, fmt.Errorf("delete stale wiki edge %s: %w", e.ID, err)
		}
	}

	return created, nil
}

// Backlinks returns the nodes whose content links to the given node.
func Backlinks(ctx context.Context, s store.Store, nodeID string) ([]*model.Node, error) {
	edges, err := s.GetEdges(ctx, model.EdgeWiki, model.RoleTarget, nodeID)
	if err != nil {
		return nil, fmt.Errorf("load backlinks for %s: %w", nodeID, err)
	}

	var nodes []*model.Node
	for _, e := range edges {
		n, err := s.GetNode(ctx, e.SourceID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func createStub(ctx context.Context, s store.Store, title string) (*model.Node, error) {
	id, err := idgen.Generate()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	n := &model.Node{
		ID:        id,
		Title:     title,
		Kind:      model.KindNote,
		Status:    model.StatusTodo,
		Priority:  model.PriorityLowest,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateNode(ctx, n); err != nil {
		return nil, fmt.Errorf("create linked note %q: %w", title, err)
	}
	return n, nil
}
