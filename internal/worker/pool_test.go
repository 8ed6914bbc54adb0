package worker

import (
	"context"
	"sync"
	"testing"
)

func TestPool_RunDispatchesEveryUser(t *testing.T) {
	pool := &Pool{Concurrency: 2}
	userIDs := []string{"a", "b", "c", "d", "e"}

	var mu sync.Mutex
	seen := make(map[string]bool)

	progress := pool.Run(context.Background(), userIDs, func(ctx context.Context, userID string) error {
		mu.Lock()
		seen[userID] = true
		mu.Unlock()
		return nil
	})

	if progress.Completed != int64(len(userIDs)) {
		t.Fatalf("want %d completed, got %d", len(userIDs), progress.Completed)
	}
	for _, id := range userIDs {
		if !seen[id] {
			t.Errorf("user %s was never dispatched", id)
		}
	}
}

func TestPool_RunIsolatesTaskFailures(t *testing.T) {
	pool := &Pool{Concurrency: 1}
	userIDs := []string{"a", "b", "c"}

	progress := pool.Run(context.Background(), userIDs, func(ctx context.Context, userID string) error {
		if userID == "b" {
			panic("boom")
		}
		return nil
	})

	if progress.Failed != 1 {
		t.Errorf("want 1 failed task, got %d", progress.Failed)
	}
	if progress.Completed != 2 {
		t.Errorf("want 2 completed tasks despite the panic, got %d", progress.Completed)
	}
}
