package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/janj3143/careertrojan-bridge/internal/config"
	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
	"github.com/janj3143/careertrojan-bridge/internal/domain/repository"
	"github.com/janj3143/careertrojan-bridge/internal/domain/service"
	"github.com/janj3143/careertrojan-bridge/internal/infra/pagination"
)

var ErrInvalidEvent = errors.New("invalid sync event")

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// NotificationMirror publishes notifications to a message stream for split
// deployments. A nil mirror disables publishing.
type NotificationMirror interface {
	PublishNotification(ctx context.Context, n entity.PortalNotification) error
}

type Deps struct {
	Store         repository.Store
	Events        repository.EventRepository
	Notifications repository.NotificationRepository
	Profiles      repository.ProfileRepository
	Statuses      repository.StatusRepository
	Mirror        NotificationMirror
	Log           *logrus.Logger
}

// Bridge is the cross-portal synchronization facade plus its three
// background loops (processor, sweeper, reaper). It is constructed
// explicitly and injected into the transport layer; lifecycle is owned by
// the host via Start/Stop.
type Bridge struct {
	store         repository.Store
	events        repository.EventRepository
	notifications repository.NotificationRepository
	profiles      repository.ProfileRepository
	statuses      repository.StatusRepository
	mirror        NotificationMirror
	queue         *DispatchQueue
	cfg           config.Bridge
	log           *logrus.Logger
	now           func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

var _ service.BridgeService = (*Bridge)(nil)

func New(deps Deps, cfg config.Bridge) *Bridge {
	log := deps.Log
	if log == nil {
		log = logrus.New()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 10 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.RetentionWindow <= 0 {
		cfg.RetentionWindow = 7 * 24 * time.Hour
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = time.Hour
	}
	return &Bridge{
		store:         deps.Store,
		events:        deps.Events,
		notifications: deps.Notifications,
		profiles:      deps.Profiles,
		statuses:      deps.Statuses,
		mirror:        deps.Mirror,
		queue:         NewDispatchQueue(cfg.QueueCapacity),
		cfg:           cfg,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Start seeds the dispatch queue from every pending event in the store,
// then launches the processor, sweeper and reaper. Seeding first closes
// the crash window between a durable insert and its in-memory enqueue:
// events stranded by a previous run are scheduled before new traffic.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return errors.New("bridge: already started")
	}

	pending, err := b.events.PendingIDs(ctx, 0)
	if err != nil {
		return fmt.Errorf("bridge: seed dispatch queue: %w", err)
	}
	seeded := 0
	for _, id := range pending {
		if !b.queue.TryEnqueue(id) {
			b.log.Warnf("bridge: dispatch queue full while seeding, %d of %d pending events deferred to sweeper", len(pending)-seeded, len(pending))
			break
		}
		seeded++
	}
	if seeded > 0 {
		b.log.Infof("bridge: seeded %d pending events into dispatch queue", seeded)
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.started = true

	b.wg.Add(3)
	go b.runProcessor(runCtx)
	go b.runSweeper(runCtx)
	go b.runReaper(runCtx)
	return nil
}

// Stop cancels the background loops and waits for them. In-flight handler
// execution completes or fails naturally; it is not interrupted mid-event.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	b.started = false
	cancel := b.cancel
	b.mu.Unlock()

	cancel()
	b.wg.Wait()
}

// QueueSyncEvent durably persists the event, then enqueues it for
// dispatch. A store failure is returned to the caller and nothing is
// queued; a full queue only delays processing until the next sweep.
func (b *Bridge) QueueSyncEvent(ctx context.Context, p service.EventParams) (entity.SyncEvent, bool, error) {
	if p.Priority == "" {
		p.Priority = entity.PriorityMedium
	}
	if len(p.Payload) == 0 {
		p.Payload = json.RawMessage("{}")
	}
	if err := validateEventParams(p); err != nil {
		return entity.SyncEvent{}, false, err
	}

	ev := entity.SyncEvent{
		EventID:      uuid.New(),
		UserID:       p.UserID,
		EventType:    p.EventType,
		Payload:      datatypes.JSON(p.Payload),
		Priority:     p.Priority,
		SourcePortal: p.SourcePortal,
		TargetPortal: p.TargetPortal,
		CreatedAt:    b.now(),
	}

	var alreadyExist bool
	if p.IdempotencyKey != "" {
		stored, exist, err := b.events.InsertIdempotent(ctx, &ev, p.IdempotencyKey, p.RequestHash)
		if err != nil {
			return entity.SyncEvent{}, false, err
		}
		ev = stored
		alreadyExist = exist
	} else {
		if err := b.events.Insert(ctx, &ev); err != nil {
			return entity.SyncEvent{}, false, err
		}
	}

	if !alreadyExist && !ev.Processed {
		if !b.queue.TryEnqueue(ev.EventID) {
			b.log.WithField("event_id", ev.EventID).Warn("bridge: dispatch queue full, event deferred to sweeper")
		}
	}
	return ev, alreadyExist, nil
}

func validateEventParams(p service.EventParams) error {
	if p.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidEvent)
	}
	if p.EventType == "" {
		return fmt.Errorf("%w: event type is required", ErrInvalidEvent)
	}
	if !p.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidEvent, p.Priority)
	}
	if !p.SourcePortal.Valid() {
		return fmt.Errorf("%w: unknown source portal %q", ErrInvalidEvent, p.SourcePortal)
	}
	if !p.TargetPortal.Valid() {
		return fmt.Errorf("%w: unknown target portal %q", ErrInvalidEvent, p.TargetPortal)
	}
	if !json.Valid(p.Payload) {
		return fmt.Errorf("%w: payload is not valid JSON", ErrInvalidEvent)
	}
	return nil
}

func (b *Bridge) UserUploadedDocument(ctx context.Context, userID string, metadata json.RawMessage) (entity.SyncEvent, error) {
	ev, _, err := b.QueueSyncEvent(ctx, service.EventParams{
		UserID:       userID,
		EventType:    entity.EventProcessingStatus,
		Payload:      metadata,
		Priority:     entity.PriorityHigh,
		SourcePortal: entity.PortalUser,
		TargetPortal: entity.PortalAdmin,
	})
	return ev, err
}

func (b *Bridge) AdminFinishedProcessing(ctx context.Context, userID string, result json.RawMessage) (entity.SyncEvent, error) {
	ev, _, err := b.QueueSyncEvent(ctx, service.EventParams{
		UserID:       userID,
		EventType:    entity.EventProcessingStatus,
		Payload:      result,
		Priority:     entity.PriorityHigh,
		SourcePortal: entity.PortalAdmin,
		TargetPortal: entity.PortalUser,
	})
	return ev, err
}

func (b *Bridge) ShareInsights(ctx context.Context, userID string, insights json.RawMessage) (entity.SyncEvent, error) {
	ev, _, err := b.QueueSyncEvent(ctx, service.EventParams{
		UserID:       userID,
		EventType:    entity.EventAIInsight,
		Payload:      insights,
		Priority:     entity.PriorityHigh,
		SourcePortal: entity.PortalAdmin,
		TargetPortal: entity.PortalUser,
	})
	return ev, err
}

// BroadcastMarketUpdate queues one independent event per recipient. A
// failure for one recipient never blocks or rolls back the others; the
// result carries both the queued events and the per-recipient failures.
func (b *Bridge) BroadcastMarketUpdate(ctx context.Context, payload json.RawMessage, recipientIDs []string) (service.BroadcastResult, error) {
	res := service.BroadcastResult{Failed: make(map[string]error)}
	for _, userID := range recipientIDs {
		ev, _, err := b.QueueSyncEvent(ctx, service.EventParams{
			UserID:       userID,
			EventType:    entity.EventMarketIntelligence,
			Payload:      payload,
			Priority:     entity.PriorityMedium,
			SourcePortal: entity.PortalAdmin,
			TargetPortal: entity.PortalUser,
		})
		if err != nil {
			b.log.WithError(err).WithField("user_id", userID).Error("bridge: broadcast recipient failed")
			res.Failed[userID] = err
			continue
		}
		res.Queued = append(res.Queued, ev)
	}
	return res, nil
}

func (b *Bridge) Notifications(ctx context.Context, userID string, portal entity.Portal, unreadOnly bool, limit int, cursor string) ([]entity.PortalNotification, string, error) {
	if userID == "" || !portal.Valid() {
		return nil, "", fmt.Errorf("%w: user id and portal are required", ErrInvalidEvent)
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	filter := repository.NotificationFilter{
		UserID:     userID,
		Portal:     portal,
		UnreadOnly: unreadOnly,
		Limit:      limit,
	}
	if cursor != "" {
		before, beforeID, err := pagination.Decode(cursor)
		if err != nil {
			return nil, "", repository.ErrInvalidCursor
		}
		filter.Before = before
		filter.BeforeID = beforeID
	}

	notifications, err := b.notifications.List(ctx, filter)
	if err != nil {
		b.log.WithError(err).Error("bridge: list notifications failed")
		return nil, "", err
	}
	nextCursor := ""
	if len(notifications) == limit {
		last := notifications[len(notifications)-1]
		nextCursor = pagination.Encode(last.SentAt, last.NotificationID)
	}
	return notifications, nextCursor, nil
}

func (b *Bridge) MarkRead(ctx context.Context, notificationID uuid.UUID) error {
	return b.notifications.MarkRead(ctx, notificationID, b.now())
}

func (b *Bridge) IntegrationStatus(ctx context.Context, userID string) (entity.IntegrationStatus, error) {
	if userID == "" {
		return entity.IntegrationStatus{}, fmt.Errorf("%w: user id is required", ErrInvalidEvent)
	}
	return b.statuses.GetByUserID(ctx, userID)
}

// QueueDepth reports the current dispatch queue length, for diagnostics.
func (b *Bridge) QueueDepth() int {
	return b.queue.Len()
}
