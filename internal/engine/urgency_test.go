package engine

import (
	"testing"
	"time"
)

func TestUrgencyScore(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  *time.Time
		want float64
	}{
		{"no due date", nil, 0},
		{"due right now", timePtr(now), 95},
		{"one second overdue", timePtr(now.Add(-time.Second)), 101},
		{"one day overdue", timePtr(now.Add(-25 * time.Hour)), 102},
		{"overdue bonus capped", timePtr(now.Add(-40 * 24 * time.Hour)), 130},
		{"due later today", timePtr(now.Add(23 * time.Hour)), 95},
		{"due tomorrow", timePtr(now.Add(25 * time.Hour)), 85},
		{"due in 3 days", timePtr(now.Add(3 * 24 * time.Hour)), 70},
		{"due in a week", timePtr(now.Add(7 * 24 * time.Hour)), 50},
		{"due in two weeks", timePtr(now.Add(14 * 24 * time.Hour)), 30},
		{"due in a month", timePtr(now.Add(30 * 24 * time.Hour)), 15},
		{"due far out", timePtr(now.Add(60 * 24 * time.Hour)), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UrgencyScore(tt.due, now); got != tt.want {
				t.Errorf("UrgencyScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
