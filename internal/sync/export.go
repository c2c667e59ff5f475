// Package sync exports the node graph to external destinations: JSONL
// backups shipped to S3 or a git repo on a schedule, and a markdown mirror
// of the graph on disk.
package sync

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alderkin/trellis/internal/model"
	"github.com/alderkin/trellis/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version   string    `json:"version"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ExportJSONL writes all nodes and edges from the store as JSONL to w.
// Nodes are sorted by ID, edges by ID, so repeated exports of the same
// graph are byte-identical apart from the header timestamp.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	nodes, _, err := s.ListNodes(ctx, model.NodeFilter{Sort: "created_at"})
	if err != nil {
		return fmt.Errorf("list nodes: %w", err)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})

	edges, err := s.ListEdges(ctx)
	if err != nil {
		return fmt.Errorf("list edges: %w", err)
	}
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].ID < edges[j].ID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:   "1",
		Type:      "header",
		Timestamp: time.Now().UTC(),
		NodeCount: len(nodes),
		EdgeCount: len(edges),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, n := range nodes {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshal node %s: %w", n.ID, err)
		}
		if err := enc.Encode(record{Type: "node", Data: data}); err != nil {
			return fmt.Errorf("encode node %s: %w", n.ID, err)
		}
	}

	for _, e := range edges {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal edge %s: %w", e.ID, err)
		}
		if err := enc.Encode(record{Type: "edge", Data: data}); err != nil {
			return fmt.Errorf("encode edge %s: %w", e.ID, err)
		}
	}

	return nil
}

// ImportJSONL reads a JSONL export from r and writes its nodes and edges
// into the store. Nodes land before edges regardless of line order, so
// foreign keys resolve. Existing rows with the same ID are overwritten.
// Returns the number of nodes and edges imported.
func ImportJSONL(ctx context.Context, s store.Store, r io.Reader) (int, int, error) {
	var nodes []*model.Node
	var edges []*model.Edge

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return 0, 0, fmt.Errorf("line %d: %w", line, err)
		}
		switch rec.Type {
		case "header":
			// Informational only.
		case "node":
			var n model.Node
			if err := json.Unmarshal(rec.Data, &n); err != nil {
				return 0, 0, fmt.Errorf("line %d: decode node: %w", line, err)
			}
			nodes = append(nodes, &n)
		case "edge":
			var e model.Edge
			if err := json.Unmarshal(rec.Data, &e); err != nil {
				return 0, 0, fmt.Errorf("line %d: decode edge: %w", line, err)
			}
			edges = append(edges, &e)
		default:
			return 0, 0, fmt.Errorf("line %d: unknown record type %q", line, rec.Type)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, fmt.Errorf("read export: %w", err)
	}

	// Parents must exist before children; sorting by ID is not enough, so
	// insert parentless nodes first and retry the rest until stable.
	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		pending := nodes
		for len(pending) > 0 {
			var next []*model.Node
			inserted := false
			for _, n := range pending {
				if n.ParentID != "" {
					if _, err := tx.GetNode(ctx, n.ParentID); err != nil {
						next = append(next, n)
						continue
					}
				}
				if err := upsertNode(ctx, tx, n); err != nil {
					return err
				}
				inserted = true
			}
			if !inserted {
				return fmt.Errorf("unresolvable parent references for %d nodes", len(next))
			}
			pending = next
		}

		for _, e := range edges {
			if err := tx.CreateEdge(ctx, e); err != nil {
				return fmt.Errorf("import edge %s: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return len(nodes), len(edges), nil
}

func upsertNode(ctx context.Context, tx store.Store, n *model.Node) error {
	if _, err := tx.GetNode(ctx, n.ID); err == nil {
		if err := tx.UpdateNode(ctx, n); err != nil {
			return fmt.Errorf("import node %s: %w", n.ID, err)
		}
		return nil
	}
	if err := tx.CreateNode(ctx, n); err != nil {
		return fmt.Errorf("import node %s: %w", n.ID, err)
	}
	return nil
}
