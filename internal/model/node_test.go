package model

import (
	"testing"
	"time"
)

func TestEffectiveDue(t *testing.T) {
	raw := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	computed := time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		node Node
		want *time.Time
	}{
		{"neither set", Node{}, nil},
		{"raw only", Node{DueAt: &raw}, &raw},
		{"computed only", Node{ComputedDue: &computed}, &computed},
		{"computed wins over raw", Node{DueAt: &raw, ComputedDue: &computed}, &computed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.node.EffectiveDue()
			switch {
			case got == nil && tt.want != nil:
				t.Errorf("EffectiveDue() = nil, want %v", tt.want)
			case got != nil && tt.want == nil:
				t.Errorf("EffectiveDue() = %v, want nil", got)
			case got != nil && !got.Equal(*tt.want):
				t.Errorf("EffectiveDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	for status, want := range map[Status]bool{
		StatusTodo:       false,
		StatusInProgress: false,
		StatusDone:       true,
		StatusCancelled:  true,
	} {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestHasTag(t *testing.T) {
	n := Node{Tags: []string{"work", "deep"}}
	if !n.HasTag("deep") {
		t.Error("expected HasTag(deep) = true")
	}
	if n.HasTag("missing") {
		t.Error("expected HasTag(missing) = false")
	}
}
