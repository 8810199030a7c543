package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
)

// EventParams is the generic escape hatch for queueing a sync event of any
// type, including ones the bridge has no dedicated handler for.
type EventParams struct {
	UserID         string
	EventType      string
	Payload        json.RawMessage
	Priority       entity.Priority
	SourcePortal   entity.Portal
	TargetPortal   entity.Portal
	IdempotencyKey string
	RequestHash    string
}

// BroadcastResult reports the outcome of a fan-out: events that were
// durably queued plus per-recipient failures, keyed by user id.
type BroadcastResult struct {
	Queued []entity.SyncEvent
	Failed map[string]error
}

// BridgeService is the facade external collaborators talk to. Producers
// queue events; consuming portals read notifications and health records.
type BridgeService interface {
	QueueSyncEvent(ctx context.Context, p EventParams) (entity.SyncEvent, bool, error)
	UserUploadedDocument(ctx context.Context, userID string, metadata json.RawMessage) (entity.SyncEvent, error)
	AdminFinishedProcessing(ctx context.Context, userID string, result json.RawMessage) (entity.SyncEvent, error)
	ShareInsights(ctx context.Context, userID string, insights json.RawMessage) (entity.SyncEvent, error)
	BroadcastMarketUpdate(ctx context.Context, payload json.RawMessage, recipientIDs []string) (BroadcastResult, error)

	Notifications(ctx context.Context, userID string, portal entity.Portal, unreadOnly bool, limit int, cursor string) ([]entity.PortalNotification, string, error)
	MarkRead(ctx context.Context, notificationID uuid.UUID) error
	IntegrationStatus(ctx context.Context, userID string) (entity.IntegrationStatus, error)
}
