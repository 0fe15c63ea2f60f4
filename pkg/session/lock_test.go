package session

import (
	"context"
	"fmt"
	"testing"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager[int]()
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("journey-%d", i)
		_, _ = mgr.LoadOrStart(ctx, id, func(context.Context) (int, error) { return i, nil })
		_ = mgr.Delete(ctx, id)
	}

	lockCount := len(mgr.locks)
	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
	if n := len(mgr.journeys); n != 0 {
		t.Errorf("expected no journeys, got %d", n)
	}
}
