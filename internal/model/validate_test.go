package model

import (
	"reflect"
	"strings"
	"testing"
)

func validTask() *Node {
	return &Node{
		ID:       "nd-test1",
		Title:    "Write report",
		Kind:     KindTask,
		Status:   StatusTodo,
		Priority: 3,
	}
}

func TestValidateNode(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Node)
		wantField string
	}{
		{"valid", func(n *Node) {}, ""},
		{"missing title", func(n *Node) { n.Title = "" }, "title"},
		{"whitespace title", func(n *Node) { n.Title = "   " }, "title"},
		{"title too long", func(n *Node) { n.Title = strings.Repeat("x", 501) }, "title"},
		{"invalid kind", func(n *Node) { n.Kind = "epic" }, "kind"},
		{"invalid status", func(n *Node) { n.Status = "paused" }, "status"},
		{"priority too low", func(n *Node) { n.Priority = 0 }, "priority"},
		{"priority too high", func(n *Node) { n.Priority = 6 }, "priority"},
		{"negative estimate", func(n *Node) { n.EstimatedMinutes = -5 }, "estimated_minutes"},
		{"self parent", func(n *Node) { n.ParentID = n.ID }, "parent_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := validTask()
			tt.mutate(n)
			err := ValidateNode(n)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			found := false
			for _, fe := range ve.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %q, got %v", tt.wantField, ve.Errors)
			}
		})
	}
}

func TestValidateNode_UnicodeTitleLength(t *testing.T) {
	// 500 multi-byte runes are fine; the limit counts runes, not bytes.
	n := validTask()
	n.Title = strings.Repeat("ü", 500)
	if err := ValidateNode(n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateNode_MultipleErrors(t *testing.T) {
	n := &Node{Kind: "bad", Status: "worse", Priority: 0}
	err := ValidateNode(n)
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.Errors) < 4 {
		t.Errorf("expected at least 4 field errors, got %d: %v", len(ve.Errors), ve.Errors)
	}
	if !strings.Contains(ve.Error(), "title") {
		t.Errorf("error string missing field name: %q", ve.Error())
	}
}

func TestValidateEdge(t *testing.T) {
	tests := []struct {
		name      string
		edge      Edge
		wantField string
	}{
		{"valid", Edge{SourceID: "nd-a", TargetID: "nd-b", Kind: EdgeDependency}, ""},
		{"missing source", Edge{TargetID: "nd-b", Kind: EdgeReference}, "source_id"},
		{"missing target", Edge{SourceID: "nd-a", Kind: EdgeReference}, "target_id"},
		{"self link", Edge{SourceID: "nd-a", TargetID: "nd-a", Kind: EdgeWiki}, "target_id"},
		{"bad kind", Edge{SourceID: "nd-a", TargetID: "nd-b", Kind: "fancy"}, "kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEdge(&tt.edge)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			found := false
			for _, fe := range ve.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %q, got %v", tt.wantField, ve.Errors)
			}
		})
	}
}

func TestMergeTags(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want []string
	}{
		{"both empty", nil, nil, nil},
		{"b empty returns a", []string{"x"}, nil, []string{"x"}},
		{"a empty", nil, []string{"b", "a"}, []string{"a", "b"}},
		{"disjoint sorted", []string{"work"}, []string{"deep"}, []string{"deep", "work"}},
		{"overlap deduped", []string{"a", "b"}, []string{"b", "c"}, []string{"a", "b", "c"}},
		{"empty strings dropped", []string{"a", ""}, []string{""}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeTags(tt.a, tt.b)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MergeTags(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMergeTags_DoesNotMutateInputs(t *testing.T) {
	a := []string{"z", "a"}
	b := []string{"m"}
	MergeTags(a, b)
	if !reflect.DeepEqual(a, []string{"z", "a"}) {
		t.Errorf("input a mutated: %v", a)
	}
}
