package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
	"github.com/janj3143/careertrojan-bridge/internal/domain/repository"
	"github.com/janj3143/careertrojan-bridge/internal/domain/service"
	"github.com/janj3143/careertrojan-bridge/internal/transport/http/handlers"
	"github.com/janj3143/careertrojan-bridge/internal/transport/http/middleware"
	"github.com/janj3143/careertrojan-bridge/internal/usecase"
)

type fakeBridge struct {
	service.BridgeService

	queueFn         func(ctx context.Context, p service.EventParams) (entity.SyncEvent, bool, error)
	notificationsFn func(ctx context.Context, userID string, portal entity.Portal, unreadOnly bool, limit int, cursor string) ([]entity.PortalNotification, string, error)
	markReadFn      func(ctx context.Context, id uuid.UUID) error
	broadcastFn     func(ctx context.Context, payload json.RawMessage, recipientIDs []string) (service.BroadcastResult, error)
}

func (f *fakeBridge) QueueSyncEvent(ctx context.Context, p service.EventParams) (entity.SyncEvent, bool, error) {
	return f.queueFn(ctx, p)
}

func (f *fakeBridge) Notifications(ctx context.Context, userID string, portal entity.Portal, unreadOnly bool, limit int, cursor string) ([]entity.PortalNotification, string, error) {
	return f.notificationsFn(ctx, userID, portal, unreadOnly, limit, cursor)
}

func (f *fakeBridge) MarkRead(ctx context.Context, id uuid.UUID) error {
	return f.markReadFn(ctx, id)
}

func (f *fakeBridge) BroadcastMarketUpdate(ctx context.Context, payload json.RawMessage, recipientIDs []string) (service.BroadcastResult, error) {
	return f.broadcastFn(ctx, payload, recipientIDs)
}

type fakeStore struct {
	pingErr error
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }
func (s *fakeStore) Close()                     {}
func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestRouter(bridge service.BridgeService, store repository.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handlers.NewRouter(handlers.NewHandler(bridge, store)).RegisterRoutes(engine, middleware.Idempotency())
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestQueueEventCreated(t *testing.T) {
	var gotParams service.EventParams
	bridge := &fakeBridge{
		queueFn: func(_ context.Context, p service.EventParams) (entity.SyncEvent, bool, error) {
			gotParams = p
			return entity.SyncEvent{EventID: uuid.New(), UserID: p.UserID}, false, nil
		},
	}
	engine := newTestRouter(bridge, &fakeStore{})

	rec := doJSON(t, engine, nethttp.MethodPost, "/api/events",
		`{"user_id":"user-1","event_type":"ai_insight","payload":{"a":1},"source_portal":"admin","target_portal":"user"}`,
		map[string]string{"Idempotency-Key": "req-1"})

	if rec.Code != nethttp.StatusCreated {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}
	if gotParams.IdempotencyKey != "req-1" {
		t.Fatalf("idempotency key not propagated: %q", gotParams.IdempotencyKey)
	}
	if gotParams.RequestHash == "" {
		t.Fatal("request hash not computed")
	}
	if gotParams.SourcePortal != entity.PortalAdmin || gotParams.TargetPortal != entity.PortalUser {
		t.Fatalf("portals: %+v", gotParams)
	}
}

func TestQueueEventReplayReturnsOK(t *testing.T) {
	bridge := &fakeBridge{
		queueFn: func(_ context.Context, p service.EventParams) (entity.SyncEvent, bool, error) {
			return entity.SyncEvent{EventID: uuid.New()}, true, nil
		},
	}
	engine := newTestRouter(bridge, &fakeStore{})

	rec := doJSON(t, engine, nethttp.MethodPost, "/api/events",
		`{"user_id":"user-1","event_type":"ai_insight","source_portal":"admin","target_portal":"user"}`,
		map[string]string{"Idempotency-Key": "req-1"})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("replay status: got %d, want 200", rec.Code)
	}
}

func TestQueueEventErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{usecase.ErrInvalidEvent, nethttp.StatusBadRequest},
		{repository.ErrIdempotencyKeyConflict, nethttp.StatusConflict},
		{errors.New("database on fire"), nethttp.StatusInternalServerError},
	}
	for _, tc := range cases {
		bridge := &fakeBridge{
			queueFn: func(context.Context, service.EventParams) (entity.SyncEvent, bool, error) {
				return entity.SyncEvent{}, false, tc.err
			},
		}
		engine := newTestRouter(bridge, &fakeStore{})
		rec := doJSON(t, engine, nethttp.MethodPost, "/api/events",
			`{"user_id":"user-1","event_type":"ai_insight","source_portal":"admin","target_portal":"user"}`, nil)
		if rec.Code != tc.want {
			t.Fatalf("%v: got %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestQueueEventRejectsMissingFields(t *testing.T) {
	engine := newTestRouter(&fakeBridge{}, &fakeStore{})
	rec := doJSON(t, engine, nethttp.MethodPost, "/api/events", `{"user_id":"user-1"}`, nil)
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestMarketUpdatePartialFailure(t *testing.T) {
	bridge := &fakeBridge{
		broadcastFn: func(_ context.Context, _ json.RawMessage, recipientIDs []string) (service.BroadcastResult, error) {
			return service.BroadcastResult{
				Queued: []entity.SyncEvent{{EventID: uuid.New()}},
				Failed: map[string]error{"user-2": usecase.ErrInvalidEvent},
			}, nil
		},
	}
	engine := newTestRouter(bridge, &fakeStore{})

	rec := doJSON(t, engine, nethttp.MethodPost, "/api/market-updates",
		`{"payload":{"sector":"tech"},"recipient_ids":["user-1","user-2"]}`, nil)
	if rec.Code != nethttp.StatusMultiStatus {
		t.Fatalf("status: got %d, want 207", rec.Code)
	}

	var body struct {
		Data struct {
			Queued int               `json:"queued"`
			Failed map[string]string `json:"failed"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Data.Queued != 1 || len(body.Data.Failed) != 1 {
		t.Fatalf("unexpected body: %s", rec.Body)
	}
}

func TestListNotificationsPassesFilters(t *testing.T) {
	var gotLimit int
	var gotUnread bool
	bridge := &fakeBridge{
		notificationsFn: func(_ context.Context, userID string, portal entity.Portal, unreadOnly bool, limit int, cursor string) ([]entity.PortalNotification, string, error) {
			gotLimit, gotUnread = limit, unreadOnly
			return []entity.PortalNotification{{NotificationID: uuid.New(), UserID: userID, PortalTarget: portal}}, "next-page", nil
		},
	}
	engine := newTestRouter(bridge, &fakeStore{})

	rec := doJSON(t, engine, nethttp.MethodGet, "/api/notifications?user_id=user-1&portal=user&unread_only=true&limit=7", "", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if gotLimit != 7 || !gotUnread {
		t.Fatalf("filters: limit=%d unread=%v", gotLimit, gotUnread)
	}

	var body struct {
		Meta struct {
			NextCursor string `json:"next_cursor"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Meta.NextCursor != "next-page" {
		t.Fatalf("meta cursor: got %q", body.Meta.NextCursor)
	}
}

func TestListNotificationsInvalidCursor(t *testing.T) {
	bridge := &fakeBridge{
		notificationsFn: func(context.Context, string, entity.Portal, bool, int, string) ([]entity.PortalNotification, string, error) {
			return nil, "", repository.ErrInvalidCursor
		},
	}
	engine := newTestRouter(bridge, &fakeStore{})
	rec := doJSON(t, engine, nethttp.MethodGet, "/api/notifications?user_id=user-1&portal=user&cursor=zzz", "", nil)
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestMarkReadNotFound(t *testing.T) {
	bridge := &fakeBridge{
		markReadFn: func(context.Context, uuid.UUID) error {
			return repository.ErrNotificationNotFound
		},
	}
	engine := newTestRouter(bridge, &fakeStore{})

	rec := doJSON(t, engine, nethttp.MethodPost, "/api/notifications/"+uuid.NewString()+"/read", "", nil)
	if rec.Code != nethttp.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}

	rec = doJSON(t, engine, nethttp.MethodPost, "/api/notifications/not-a-uuid/read", "", nil)
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	engine := newTestRouter(&fakeBridge{}, &fakeStore{})
	rec := doJSON(t, engine, nethttp.MethodGet, "/healthz", "", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}

	engine = newTestRouter(&fakeBridge{}, &fakeStore{pingErr: errors.New("down")})
	rec = doJSON(t, engine, nethttp.MethodGet, "/healthz", "", nil)
	if rec.Code != nethttp.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rec.Code)
	}
}
