package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
)

// dispatch writes one notification for the event's target portal. The
// portal target always equals the event's target portal at creation time.
func (b *Bridge) dispatch(ctx context.Context, ev entity.SyncEvent, notificationType, title, message string, payload datatypes.JSON) (entity.PortalNotification, error) {
	n := entity.PortalNotification{
		NotificationID:   uuid.New(),
		UserID:           ev.UserID,
		NotificationType: notificationType,
		Title:            title,
		Message:          message,
		Payload:          payload,
		Priority:         ev.Priority,
		PortalTarget:     ev.TargetPortal,
		SentAt:           b.now(),
	}
	if err := b.notifications.Insert(ctx, &n); err != nil {
		return entity.PortalNotification{}, fmt.Errorf("dispatch notification: %w", err)
	}
	return n, nil
}

func (b *Bridge) mirrorNotifications(ctx context.Context, notifications []entity.PortalNotification) {
	if b.mirror == nil {
		return
	}
	for _, n := range notifications {
		// Mirror failures never fail the handler; the notification row is
		// already durable and the portal can still poll it.
		if err := b.mirror.PublishNotification(ctx, n); err != nil {
			b.log.WithError(err).WithField("notification_id", n.NotificationID).Warn("bridge: notification mirror publish failed")
		}
	}
}

type profileUpdatePayload struct {
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	Preferences      json.RawMessage `json:"preferences"`
	ProcessingStatus string          `json:"processing_status"`
	ActiveSessions   json.RawMessage `json:"active_sessions"`
}

func (b *Bridge) handleProfileUpdate(ctx context.Context, ev entity.SyncEvent) ([]entity.PortalNotification, error) {
	var p profileUpdatePayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return nil, fmt.Errorf("profile update payload: %w", err)
	}

	profile := entity.UserPortalProfile{
		UserID:           ev.UserID,
		Email:            p.Email,
		Phone:            p.Phone,
		Preferences:      datatypes.JSON(p.Preferences),
		ProcessingStatus: p.ProcessingStatus,
		ActiveSessions:   datatypes.JSON(p.ActiveSessions),
		LastSync:         b.now(),
	}
	if err := b.profiles.Upsert(ctx, &profile); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	n, err := b.dispatch(ctx, ev, entity.NotificationProfileUpdated,
		"Profile updated",
		fmt.Sprintf("Profile changes are now visible on the %s portal.", ev.TargetPortal),
		ev.Payload)
	if err != nil {
		return nil, err
	}
	return []entity.PortalNotification{n}, nil
}

type processingStatusPayload struct {
	Status string `json:"status"`
}

func (b *Bridge) handleProcessingStatus(ctx context.Context, ev entity.SyncEvent) ([]entity.PortalNotification, error) {
	var p processingStatusPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return nil, fmt.Errorf("processing status payload: %w", err)
	}
	if p.Status == "" {
		p.Status = "received"
	}

	if err := b.profiles.SetProcessingStatus(ctx, ev.UserID, p.Status, b.now()); err != nil {
		return nil, fmt.Errorf("set processing status: %w", err)
	}

	notificationType := entity.NotificationProcessingUpdate
	title := "Document processing update"
	if p.Status == "completed" {
		notificationType = entity.NotificationProcessingComplete
		title = "Document processing complete"
	}
	n, err := b.dispatch(ctx, ev, notificationType, title,
		fmt.Sprintf("Document processing status is now %q.", p.Status),
		ev.Payload)
	if err != nil {
		return nil, err
	}
	return []entity.PortalNotification{n}, nil
}

func (b *Bridge) handleInsight(ctx context.Context, ev entity.SyncEvent) ([]entity.PortalNotification, error) {
	n, err := b.dispatch(ctx, ev, entity.NotificationNewInsights,
		"New insights available",
		"Fresh AI insights for your profile are ready to view.",
		ev.Payload)
	if err != nil {
		return nil, err
	}
	return []entity.PortalNotification{n}, nil
}

func (b *Bridge) handleMarketUpdate(ctx context.Context, ev entity.SyncEvent) ([]entity.PortalNotification, error) {
	n, err := b.dispatch(ctx, ev, entity.NotificationMarketUpdate,
		"Market update",
		"A new market intelligence report is available.",
		ev.Payload)
	if err != nil {
		return nil, err
	}
	return []entity.PortalNotification{n}, nil
}

type genericNotificationPayload struct {
	NotificationType string          `json:"notification_type"`
	Title            string          `json:"title"`
	Message          string          `json:"message"`
	Payload          json.RawMessage `json:"payload"`
}

func (b *Bridge) handleGenericNotification(ctx context.Context, ev entity.SyncEvent) ([]entity.PortalNotification, error) {
	var p genericNotificationPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		return nil, fmt.Errorf("notification payload: %w", err)
	}
	if p.NotificationType == "" {
		p.NotificationType = entity.NotificationSyncEvent
	}
	if p.Title == "" {
		p.Title = "Notification"
	}
	n, err := b.dispatch(ctx, ev, p.NotificationType, p.Title, p.Message, datatypes.JSON(p.Payload))
	if err != nil {
		return nil, err
	}
	return []entity.PortalNotification{n}, nil
}

// handleUnknown is the default handler: an unrecognized event type still
// records a raw notification so nothing is dropped silently.
func (b *Bridge) handleUnknown(ctx context.Context, ev entity.SyncEvent) ([]entity.PortalNotification, error) {
	b.log.WithFields(logrus.Fields{
		"event_id":   ev.EventID,
		"event_type": ev.EventType,
	}).Warn("bridge: no handler for event type, recording raw notification")

	n, err := b.dispatch(ctx, ev, entity.NotificationSyncEvent,
		fmt.Sprintf("Sync event: %s", ev.EventType),
		"An event with no dedicated handler was synchronized.",
		ev.Payload)
	if err != nil {
		return nil, err
	}
	return []entity.PortalNotification{n}, nil
}
