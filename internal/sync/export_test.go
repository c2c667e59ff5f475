package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alderkin/trellis/internal/model"
)

func TestExportJSONL_Empty(t *testing.T) {
	ms := newMockStore()
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.NodeCount != 0 || h.EdgeCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_WithNodesAndEdges(t *testing.T) {
	ms := newMockStore()
	now := time.Now().UTC()

	// Add nodes out of ID order to verify sorting.
	ms.nodes["nd-zzz"] = &model.Node{ID: "nd-zzz", Title: "Second", Kind: model.KindTask, Status: model.StatusTodo, Priority: 3, CreatedAt: now, UpdatedAt: now}
	ms.nodes["nd-aaa"] = &model.Node{ID: "nd-aaa", Title: "First", Kind: model.KindTask, Status: model.StatusTodo, Priority: 2, Tags: []string{"work"}, CreatedAt: now, UpdatedAt: now}
	ms.edges["nd-e1"] = &model.Edge{ID: "nd-e1", SourceID: "nd-aaa", TargetID: "nd-zzz", Kind: model.EdgeDependency, CreatedAt: now}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 nodes + 1 edge = 4 lines
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.NodeCount != 2 || h.EdgeCount != 1 {
		t.Fatalf("header counts: node=%d edge=%d", h.NodeCount, h.EdgeCount)
	}

	// Nodes sorted by ID: nd-aaa before nd-zzz.
	var rec1, rec2 record
	if err := json.Unmarshal([]byte(lines[1]), &rec1); err != nil {
		t.Fatalf("unmarshal line 1: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[2]), &rec2); err != nil {
		t.Fatalf("unmarshal line 2: %v", err)
	}
	if rec1.Type != "node" || rec2.Type != "node" {
		t.Fatalf("expected node types, got %q and %q", rec1.Type, rec2.Type)
	}
	var n1, n2 model.Node
	if err := json.Unmarshal(rec1.Data, &n1); err != nil {
		t.Fatalf("unmarshal n1: %v", err)
	}
	if err := json.Unmarshal(rec2.Data, &n2); err != nil {
		t.Fatalf("unmarshal n2: %v", err)
	}
	if n1.ID != "nd-aaa" || n2.ID != "nd-zzz" {
		t.Fatalf("nodes not sorted: got %q, %q", n1.ID, n2.ID)
	}

	var rec3 record
	if err := json.Unmarshal([]byte(lines[3]), &rec3); err != nil {
		t.Fatalf("unmarshal line 3: %v", err)
	}
	if rec3.Type != "edge" {
		t.Fatalf("expected edge type, got %q", rec3.Type)
	}
}

func TestImportJSONL_RoundTrip(t *testing.T) {
	src := newMockStore()
	now := time.Now().UTC()
	src.nodes["nd-p"] = &model.Node{ID: "nd-p", Title: "Parent", Kind: model.KindTask, Status: model.StatusTodo, Priority: 3, CreatedAt: now, UpdatedAt: now}
	// Child sorts before parent by ID; import must still resolve the order.
	src.nodes["nd-c"] = &model.Node{ID: "nd-c", Title: "Child", Kind: model.KindTask, Status: model.StatusTodo, Priority: 3, ParentID: "nd-p", CreatedAt: now, UpdatedAt: now}
	src.edges["nd-e1"] = &model.Edge{ID: "nd-e1", SourceID: "nd-c", TargetID: "nd-p", Kind: model.EdgeDependency, CreatedAt: now}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), src, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := newMockStore()
	nodes, edges, err := ImportJSONL(context.Background(), dst, &buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if nodes != 2 || edges != 1 {
		t.Fatalf("imported %d nodes, %d edges", nodes, edges)
	}

	c, err := dst.GetNode(context.Background(), "nd-c")
	if err != nil {
		t.Fatalf("nd-c missing after import: %v", err)
	}
	if c.ParentID != "nd-p" {
		t.Fatalf("got parent=%q", c.ParentID)
	}
	if _, err := dst.GetEdge(context.Background(), "nd-e1"); err != nil {
		t.Fatalf("edge missing after import: %v", err)
	}
}

func TestImportJSONL_UnknownRecordType(t *testing.T) {
	dst := newMockStore()
	input := strings.NewReader(`{"type":"mystery","data":{}}` + "\n")
	if _, _, err := ImportJSONL(context.Background(), dst, input); err == nil {
		t.Fatal("expected error for unknown record type")
	}
}

func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
