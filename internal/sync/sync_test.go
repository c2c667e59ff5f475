package sync

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alderkin/trellis/internal/model"
)

// mockDestination records writes for scheduler tests.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
	fail   bool
}

func (d *mockDestination) Name() string { return "mock" }

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	d.last.Store(data)
	if d.fail {
		return context.DeadlineExceeded
	}
	return nil
}

func TestDestinationNames(t *testing.T) {
	s3 := &S3Destination{bucket: "graphs", key: "trellis/backup.jsonl"}
	if got := s3.Name(); got != "s3://graphs/trellis/backup.jsonl" {
		t.Errorf("S3 Name() = %q", got)
	}
	git := NewGitDestination("/srv/backup", "trellis.jsonl", "main")
	if got := git.Name(); got != "git:/srv/backup@main" {
		t.Errorf("git Name() = %q", got)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	ms := newMockStore()
	ms.nodes["nd-a"] = &model.Node{ID: "nd-a", Title: "A", Kind: model.KindTask, Status: model.StatusTodo, Priority: 3}

	dest := &mockDestination{}
	s := NewScheduler(ms, []Destination{dest}, 50*time.Millisecond, slog.Default())

	s.Start()
	time.Sleep(130 * time.Millisecond)
	s.Stop()

	// Initial sync plus at least one tick.
	if n := dest.writes.Load(); n < 2 {
		t.Fatalf("expected at least 2 writes, got %d", n)
	}

	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty payload")
	}
	lines := nonEmptyLines(string(data))
	if len(lines) != 2 { // header + 1 node
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestSchedulerStop_WithoutStart(t *testing.T) {
	s := NewScheduler(newMockStore(), nil, time.Second, slog.Default())
	s.Stop() // must not panic or block
}

func TestSchedulerMultipleDestinations(t *testing.T) {
	ms := newMockStore()
	d1 := &mockDestination{}
	d2 := &mockDestination{fail: true}
	d3 := &mockDestination{}
	s := NewScheduler(ms, []Destination{d1, d2, d3}, time.Hour, slog.Default())

	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	// One destination failing must not stop the others.
	for i, d := range []*mockDestination{d1, d2, d3} {
		if d.writes.Load() != 1 {
			t.Errorf("destination %d: got %d writes, want 1", i, d.writes.Load())
		}
	}
}
