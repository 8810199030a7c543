package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

func (b *Bridge) runSweeper(ctx context.Context) {
	defer b.wg.Done()
	b.log.Infof("bridge: sweeper started (interval %s, stale after %s)", b.cfg.SweepInterval, b.cfg.StaleAfter)

	ticker := time.NewTicker(b.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("bridge: sweeper stopping")
			return
		case <-ticker.C:
			if _, _, err := b.SweepOnce(ctx); err != nil {
				b.log.WithError(err).Warn("bridge: integrity sweep failed")
			}
		}
	}
}

// SweepOnce re-queues pending events older than the staleness threshold,
// bridging the durability gap between store and memory. Events that have
// exhausted their retry budget move to the terminal failed state instead
// of being retried forever.
func (b *Bridge) SweepOnce(ctx context.Context) (requeued, failed int, err error) {
	cutoff := b.now().Add(-b.cfg.StaleAfter)
	stale, err := b.events.Stale(ctx, cutoff, b.cfg.SweepBatch)
	if err != nil {
		return 0, 0, err
	}

	for _, ev := range stale {
		if ev.RetryCount >= b.cfg.MaxAttempts {
			if err := b.events.MarkFailed(ctx, ev.EventID, "retry budget exhausted", b.now()); err != nil {
				b.log.WithError(err).WithField("event_id", ev.EventID).Error("bridge: mark failed")
				continue
			}
			if err := b.statuses.BumpFailedEvents(ctx, ev.UserID, b.now()); err != nil {
				b.log.WithError(err).WithField("user_id", ev.UserID).Warn("bridge: bump failed events")
			}
			failed++
			b.log.WithFields(logrus.Fields{
				"event_id":    ev.EventID,
				"event_type":  ev.EventType,
				"retry_count": ev.RetryCount,
			}).Warn("bridge: event exceeded retry budget, marked failed")
			continue
		}

		if b.queue.TryEnqueue(ev.EventID) {
			requeued++
			b.log.WithFields(logrus.Fields{
				"event_id":   ev.EventID,
				"event_type": ev.EventType,
				"age":        b.now().Sub(ev.CreatedAt).String(),
			}).Warn("bridge: re-queued stale event")
		}
	}
	return requeued, failed, nil
}
