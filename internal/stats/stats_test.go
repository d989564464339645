package stats

import (
	"testing"
	"time"
)

func TestRecorder_Percentiles(t *testing.T) {
	r := NewRecorder(time.Hour)
	for _, ms := range []int{100, 200, 300, 400, 500} {
		r.Record("redactAll", time.Duration(ms)*time.Microsecond, false)
	}

	got := r.Snapshot()["redactAll"]
	if got.Count != 5 || got.Errors != 0 {
		t.Fatalf("expected 5 samples without errors, got %+v", got)
	}
	if got.MinUs != 100 || got.MaxUs != 500 || got.MeanUs != 300 {
		t.Errorf("unexpected min/max/mean %+v", got)
	}
	if got.P50Us != 300 || got.P95Us != 480 || got.P99Us != 496 {
		t.Errorf("unexpected percentiles %+v", got)
	}
}

func TestRecorder_SeparatesActionsAndCountsErrors(t *testing.T) {
	r := NewRecorder(time.Hour)
	r.Record("undo", time.Millisecond, false)
	r.Record("redactSelection", time.Millisecond, true)
	r.Record("redactSelection", -time.Millisecond, false)

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 actions, got %v", snap)
	}
	sel := snap["redactSelection"]
	if sel.Count != 2 || sel.Errors != 1 || sel.MinUs != 0 {
		t.Errorf("unexpected selection summary %+v", sel)
	}
}

func TestRecorder_PrunesOutsideWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	r := NewRecorder(time.Minute)
	r.now = func() time.Time { return now }

	r.Record("reset", time.Millisecond, true)
	now = now.Add(2 * time.Minute)
	if snap := r.Snapshot(); len(snap) != 0 {
		t.Fatalf("expected empty snapshot after window, got %v", snap)
	}

	r.Record("reset", 2*time.Millisecond, false)
	got := r.Snapshot()["reset"]
	if got.Count != 1 || got.Errors != 0 || got.MinUs != 2000 {
		t.Errorf("expected only the fresh sample, got %+v", got)
	}
}
