package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DispatchQueue is the in-process FIFO of pending event ids between facade
// producers and the single processor consumer. Enqueue is non-blocking and
// bounded; dequeue waits at most the given duration so the processor can
// yield to the sweeper and reaper.
type DispatchQueue struct {
	ch chan uuid.UUID
}

func NewDispatchQueue(capacity int) *DispatchQueue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &DispatchQueue{ch: make(chan uuid.UUID, capacity)}
}

// TryEnqueue reports whether the id was accepted. A full queue is not an
// error: the event is already durable and the sweeper will re-surface it.
func (q *DispatchQueue) TryEnqueue(id uuid.UUID) bool {
	select {
	case q.ch <- id:
		return true
	default:
		return false
	}
}

func (q *DispatchQueue) Dequeue(ctx context.Context, wait time.Duration) (uuid.UUID, bool) {
	if wait <= 0 {
		wait = time.Second
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case id := <-q.ch:
		return id, true
	case <-timer.C:
		return uuid.Nil, false
	case <-ctx.Done():
		return uuid.Nil, false
	}
}

func (q *DispatchQueue) Len() int {
	return len(q.ch)
}
