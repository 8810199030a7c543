package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
)

func (b *Bridge) runProcessor(ctx context.Context) {
	defer b.wg.Done()
	b.log.Infof("bridge: processor started (dequeue wait %s)", b.cfg.DequeueWait)

	for {
		id, ok := b.queue.Dequeue(ctx, b.cfg.DequeueWait)
		if ctx.Err() != nil {
			b.log.Info("bridge: processor stopping")
			return
		}
		if !ok {
			continue
		}
		if err := b.ProcessEvent(ctx, id); err != nil {
			b.log.WithError(err).WithField("event_id", id).Warn("bridge: event processing failed")
		}
	}
}

// ProcessEvent runs the handler for one event and marks it processed, both
// inside a single transaction so side effects land atomically with the
// processed flip. On failure the event stays pending with its retry count
// incremented; the sweeper owns re-surfacing it, there is no in-memory
// requeue.
func (b *Bridge) ProcessEvent(ctx context.Context, id uuid.UUID) error {
	ev, err := b.events.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ev.Processed || ev.FailedAt != nil {
		return nil
	}

	var created []entity.PortalNotification
	err = b.store.WithTx(ctx, func(txCtx context.Context) error {
		notifications, err := b.handle(txCtx, ev)
		if err != nil {
			return err
		}
		created = notifications
		if err := b.events.MarkProcessed(txCtx, ev.EventID, b.now()); err != nil {
			return err
		}
		return b.statuses.TouchSync(txCtx, ev.UserID, ev.TargetPortal, b.now())
	})
	if err != nil {
		if rerr := b.events.RecordFailure(ctx, ev.EventID, err.Error()); rerr != nil {
			b.log.WithError(rerr).WithField("event_id", ev.EventID).Error("bridge: record failure")
		}
		if berr := b.statuses.BumpSyncErrors(ctx, ev.UserID, b.now()); berr != nil {
			b.log.WithError(berr).WithField("user_id", ev.UserID).Warn("bridge: bump sync errors")
		}
		return err
	}

	b.mirrorNotifications(ctx, created)
	return nil
}

func (b *Bridge) handle(ctx context.Context, ev entity.SyncEvent) ([]entity.PortalNotification, error) {
	switch ev.EventType {
	case entity.EventProfileUpdate:
		return b.handleProfileUpdate(ctx, ev)
	case entity.EventProcessingStatus:
		return b.handleProcessingStatus(ctx, ev)
	case entity.EventAIInsight:
		return b.handleInsight(ctx, ev)
	case entity.EventMarketIntelligence:
		return b.handleMarketUpdate(ctx, ev)
	case entity.EventNotification:
		return b.handleGenericNotification(ctx, ev)
	default:
		return b.handleUnknown(ctx, ev)
	}
}
