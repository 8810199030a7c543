package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/janj3143/careertrojan-bridge/internal/config"
	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
)

func insertPendingEvent(t *testing.T, tb *testBridge, userID string, createdAt time.Time, retries int) entity.SyncEvent {
	t.Helper()
	ev := entity.SyncEvent{
		UserID:       userID,
		EventType:    entity.EventAIInsight,
		Payload:      []byte(`{}`),
		Priority:     entity.PriorityMedium,
		SourcePortal: entity.PortalAdmin,
		TargetPortal: entity.PortalUser,
		CreatedAt:    createdAt,
		RetryCount:   retries,
	}
	if err := tb.events.Insert(context.Background(), &ev); err != nil {
		t.Fatal(err)
	}
	return ev
}

func TestSweepRequeuesStaleEvents(t *testing.T) {
	tb := newTestBridge(t, config.Bridge{StaleAfter: 10 * time.Minute})
	ctx := context.Background()

	stale := insertPendingEvent(t, tb, "user-1", tb.clock.Add(-time.Hour), 0)
	fresh := insertPendingEvent(t, tb, "user-2", tb.clock.Add(-time.Minute), 0)

	requeued, failed, err := tb.SweepOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if requeued != 1 || failed != 0 {
		t.Fatalf("sweep: requeued=%d failed=%d", requeued, failed)
	}

	id, ok := tb.queue.Dequeue(ctx, 10*time.Millisecond)
	if !ok || id != stale.EventID {
		t.Fatalf("queue head: got %v ok=%v, want %s", id, ok, stale.EventID)
	}
	if _, ok := tb.queue.Dequeue(ctx, 10*time.Millisecond); ok {
		t.Fatal("fresh event must not be swept")
	}
	_ = fresh
}

func TestSweepMarksExhaustedEventsFailed(t *testing.T) {
	tb := newTestBridge(t, config.Bridge{StaleAfter: 10 * time.Minute, MaxAttempts: 3})
	ctx := context.Background()

	exhausted := insertPendingEvent(t, tb, "user-1", tb.clock.Add(-time.Hour), 3)

	requeued, failed, err := tb.SweepOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if requeued != 0 || failed != 1 {
		t.Fatalf("sweep: requeued=%d failed=%d", requeued, failed)
	}

	stored, err := tb.events.GetByID(ctx, exhausted.EventID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.FailedAt == nil {
		t.Fatal("exhausted event must be terminally failed")
	}
	if stored.Processed {
		t.Fatal("failed event must not be processed")
	}

	status, err := tb.statuses.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if status.FailedEvents != 1 {
		t.Fatalf("failed events counter: got %d, want 1", status.FailedEvents)
	}

	// A failed event is invisible to later sweeps.
	requeued, failed, err = tb.SweepOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if requeued != 0 || failed != 0 {
		t.Fatalf("second sweep: requeued=%d failed=%d", requeued, failed)
	}
}

func TestSweepHonorsBatchLimit(t *testing.T) {
	tb := newTestBridge(t, config.Bridge{StaleAfter: 10 * time.Minute, SweepBatch: 2})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		insertPendingEvent(t, tb, "user-1", tb.clock.Add(-time.Hour+time.Duration(i)*time.Second), 0)
	}

	requeued, _, err := tb.SweepOnce(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if requeued != 2 {
		t.Fatalf("requeued: got %d, want 2", requeued)
	}
}
