// internal/maintenance/scheduler_test.go
package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/user/souentd/internal/httpapi"
	"github.com/user/souentd/internal/state"
	"github.com/user/souentd/internal/types"
)

func TestSchedulerSweepsExpiredSessions(t *testing.T) {
	sessions := state.NewMemorySessionStore(10 * time.Millisecond)
	ctx := context.Background()

	id, err := sessions.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)

	sched := New(Options{
		Sessions:      sessions,
		SweepSchedule: "* * * * * *",
	})
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	deadline := time.After(2500 * time.Millisecond)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			t.Fatal("expired session was not swept within 2.5s")
		case <-ticker.C:
			if _, err := sessions.History(ctx, id); errors.Is(err, types.ErrNotFound) {
				return
			}
		}
	}
}

func TestSweepPrunesLimiter(t *testing.T) {
	limiter := httpapi.NewRateLimiter(5, 10*time.Millisecond)
	limiter.Allow("10.1.2.3")
	time.Sleep(30 * time.Millisecond)

	sched := New(Options{
		Sessions: state.NewMemorySessionStore(time.Hour),
		Limiter:  limiter,
	})
	sched.sweep()

	// The idle client was dropped during the sweep, so there is nothing
	// left for a direct cleanup to remove.
	if removed := limiter.Cleanup(); removed != 0 {
		t.Errorf("expected limiter already pruned, cleanup removed %d", removed)
	}
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	sched := New(Options{
		Sessions:      state.NewMemorySessionStore(time.Hour),
		SweepSchedule: "not a cron expression",
	})
	if err := sched.Start(); err == nil {
		sched.Stop()
		t.Fatal("expected error for invalid schedule")
	}
}
