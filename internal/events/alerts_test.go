package events

import "testing"

func TestManager_EmitRecordsHistory(t *testing.T) {
	var broadcasted []Event
	mgr := NewManager(func(e Event) { broadcasted = append(broadcasted, e) })

	mgr.RunStarted("run1", "greedy", "bitset")
	mgr.IterationComplete("run1", 0, 3)
	mgr.Halted("run1", "uniqueness_threshold_reached")

	recent := mgr.RecentEvents(0)
	if len(recent) != 3 {
		t.Fatalf("want 3 recorded events, got %d", len(recent))
	}
	if recent[0].Type != "halted" {
		t.Errorf("RecentEvents should return most-recent first, got %q first", recent[0].Type)
	}
	if len(broadcasted) != 3 {
		t.Errorf("want 3 broadcasted events, got %d", len(broadcasted))
	}
}

func TestManager_RecentEventsRespectsLimit(t *testing.T) {
	mgr := NewManager(nil)
	for i := 0; i < 5; i++ {
		mgr.RunStarted("run1", "greedy", "bitset")
	}

	recent := mgr.RecentEvents(2)
	if len(recent) != 2 {
		t.Fatalf("want 2 events, got %d", len(recent))
	}
}

func TestManager_WorkerFailedCarriesUserAndError(t *testing.T) {
	mgr := NewManager(nil)
	mgr.WorkerFailed("run1", "alice", errBoom{})

	recent := mgr.RecentEvents(1)
	if recent[0].Type != "worker_failed" {
		t.Fatalf("want worker_failed event, got %q", recent[0].Type)
	}
	if recent[0].Payload["user_id"] != "alice" {
		t.Errorf("want payload user_id alice, got %v", recent[0].Payload["user_id"])
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
