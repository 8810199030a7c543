package usecase

import (
	"context"
	"time"
)

func (b *Bridge) runReaper(ctx context.Context) {
	defer b.wg.Done()
	b.log.Infof("bridge: reaper started (interval %s, retention %s)", b.cfg.ReapInterval, b.cfg.RetentionWindow)

	ticker := time.NewTicker(b.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("bridge: reaper stopping")
			return
		case <-ticker.C:
			if _, _, err := b.ReapOnce(ctx); err != nil {
				b.log.WithError(err).Warn("bridge: retention pass failed")
			}
		}
	}
}

// ReapOnce deletes processed events and read notifications older than the
// retention window. Pending and failed events and unread notifications are
// kept regardless of age.
func (b *Bridge) ReapOnce(ctx context.Context) (events, notifications int64, err error) {
	cutoff := b.now().Add(-b.cfg.RetentionWindow)

	events, err = b.events.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, 0, err
	}
	notifications, err = b.notifications.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return events, 0, err
	}

	if events > 0 || notifications > 0 {
		b.log.Infof("bridge: retention pass deleted %d events, %d notifications", events, notifications)
	}
	return events, notifications, nil
}
