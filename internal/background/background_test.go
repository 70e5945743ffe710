package background

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestGoRunsAndWaitBlocksUntilDone(t *testing.T) {
	r := New()
	var n int32

	for i := 0; i < 5; i++ {
		r.Go(func(ctx context.Context) {
			atomic.AddInt32(&n, 1)
		})
	}
	r.Wait()

	if got := atomic.LoadInt32(&n); got != 5 {
		t.Fatalf("expected 5 completed tasks, got %d", got)
	}
}

func TestGoRecoversPanic(t *testing.T) {
	r := New()
	var ran int32

	r.Go(func(ctx context.Context) {
		defer atomic.AddInt32(&ran, 1)
		panic("boom")
	})
	r.Wait()

	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("expected deferred marker to run despite panic")
	}
}

func TestGoUsesBackgroundContext(t *testing.T) {
	r := New()

	done := make(chan struct{})
	r.Go(func(ctx context.Context) {
		defer close(done)
		if err := ctx.Err(); err != nil {
			t.Errorf("expected background task's context to be uncancelled, got %v", err)
		}
	})
	<-done
}
