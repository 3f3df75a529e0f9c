package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/editor"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		rec, err := mgr.Create(ctx, editor.Mode{})
		if err != nil {
			t.Fatal(err)
		}
		_, _ = mgr.Update(ctx, rec.ID, func(context.Context, *editor.Editor) error { return nil })
		_ = mgr.Delete(ctx, rec.ID)
		_, _ = mgr.Load(ctx, fmt.Sprintf("missing-%d", i))
	}

	if n := len(mgr.locks); n != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", n)
	}
}
