package handlers

import (
	"encoding/json"
	"errors"
	nethttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/janj3143/careertrojan-bridge/internal/domain/entity"
	"github.com/janj3143/careertrojan-bridge/internal/domain/repository"
	"github.com/janj3143/careertrojan-bridge/internal/domain/service"
	"github.com/janj3143/careertrojan-bridge/internal/transport/http/middleware"
	"github.com/janj3143/careertrojan-bridge/internal/transport/http/response"
	"github.com/janj3143/careertrojan-bridge/internal/usecase"
)

type Handler struct {
	bridge service.BridgeService
	store  repository.Store
}

func NewHandler(bridge service.BridgeService, store repository.Store) *Handler {
	return &Handler{
		bridge: bridge,
		store:  store,
	}
}

type queueEventRequest struct {
	UserID       string          `json:"user_id" binding:"required"`
	EventType    string          `json:"event_type" binding:"required"`
	Payload      json.RawMessage `json:"payload"`
	Priority     string          `json:"priority"`
	SourcePortal string          `json:"source_portal" binding:"required"`
	TargetPortal string          `json:"target_portal" binding:"required"`
}

// queueEvent is the generic escape hatch for event types the bridge has no
// dedicated endpoint for.
func (h *Handler) queueEvent(c *gin.Context) {
	var req queueEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, nethttp.StatusBadRequest, err.Error())
		return
	}

	ev, alreadyExist, err := h.bridge.QueueSyncEvent(c.Request.Context(), service.EventParams{
		UserID:         req.UserID,
		EventType:      req.EventType,
		Payload:        req.Payload,
		Priority:       entity.Priority(req.Priority),
		SourcePortal:   entity.Portal(req.SourcePortal),
		TargetPortal:   entity.Portal(req.TargetPortal),
		IdempotencyKey: c.GetString(middleware.IdempotencyKeyCtx),
		RequestHash:    c.GetString(middleware.IdempotencyHashCtx),
	})
	if err != nil {
		h.respondQueueError(c, err)
		return
	}
	if alreadyExist {
		response.RespondOK(c, nethttp.StatusOK, ev, nil)
		return
	}
	response.RespondOK(c, nethttp.StatusCreated, ev, nil)
}

type documentUploadedRequest struct {
	UserID   string          `json:"user_id" binding:"required"`
	Metadata json.RawMessage `json:"metadata"`
}

func (h *Handler) documentUploaded(c *gin.Context) {
	var req documentUploadedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, nethttp.StatusBadRequest, err.Error())
		return
	}
	ev, err := h.bridge.UserUploadedDocument(c.Request.Context(), req.UserID, req.Metadata)
	if err != nil {
		h.respondQueueError(c, err)
		return
	}
	response.RespondOK(c, nethttp.StatusCreated, ev, nil)
}

type processingCompleteRequest struct {
	UserID string          `json:"user_id" binding:"required"`
	Result json.RawMessage `json:"result"`
}

func (h *Handler) processingComplete(c *gin.Context) {
	var req processingCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, nethttp.StatusBadRequest, err.Error())
		return
	}
	ev, err := h.bridge.AdminFinishedProcessing(c.Request.Context(), req.UserID, req.Result)
	if err != nil {
		h.respondQueueError(c, err)
		return
	}
	response.RespondOK(c, nethttp.StatusCreated, ev, nil)
}

type shareInsightsRequest struct {
	UserID   string          `json:"user_id" binding:"required"`
	Insights json.RawMessage `json:"insights" binding:"required"`
}

func (h *Handler) shareInsights(c *gin.Context) {
	var req shareInsightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, nethttp.StatusBadRequest, err.Error())
		return
	}
	ev, err := h.bridge.ShareInsights(c.Request.Context(), req.UserID, req.Insights)
	if err != nil {
		h.respondQueueError(c, err)
		return
	}
	response.RespondOK(c, nethttp.StatusCreated, ev, nil)
}

type marketUpdateRequest struct {
	Payload      json.RawMessage `json:"payload" binding:"required"`
	RecipientIDs []string        `json:"recipient_ids" binding:"required"`
}

type marketUpdateResponse struct {
	Queued int               `json:"queued"`
	Failed map[string]string `json:"failed,omitempty"`
}

func (h *Handler) marketUpdate(c *gin.Context) {
	var req marketUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, nethttp.StatusBadRequest, err.Error())
		return
	}
	res, err := h.bridge.BroadcastMarketUpdate(c.Request.Context(), req.Payload, req.RecipientIDs)
	if err != nil {
		h.respondQueueError(c, err)
		return
	}
	out := marketUpdateResponse{Queued: len(res.Queued)}
	if len(res.Failed) > 0 {
		out.Failed = make(map[string]string, len(res.Failed))
		for userID, ferr := range res.Failed {
			out.Failed[userID] = ferr.Error()
		}
	}
	status := nethttp.StatusCreated
	if len(res.Failed) > 0 {
		status = nethttp.StatusMultiStatus
	}
	response.RespondOK(c, status, out, nil)
}

func (h *Handler) listNotifications(c *gin.Context) {
	userID := c.Query("user_id")
	portal := entity.Portal(c.Query("portal"))
	unreadOnly, _ := strconv.ParseBool(c.Query("unread_only"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	cursor := c.Query("cursor")

	notifications, nextCursor, err := h.bridge.Notifications(c.Request.Context(), userID, portal, unreadOnly, limit, cursor)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidCursor):
			response.RespondError(c, nethttp.StatusBadRequest, "invalid cursor")
		case errors.Is(err, usecase.ErrInvalidEvent):
			response.RespondError(c, nethttp.StatusBadRequest, err.Error())
		default:
			response.RespondError(c, nethttp.StatusInternalServerError, "list failed")
		}
		return
	}

	var meta *response.Meta
	if nextCursor != "" {
		meta = &response.Meta{NextCursor: nextCursor}
	}
	if notifications == nil {
		notifications = []entity.PortalNotification{}
	}
	response.RespondOK(c, nethttp.StatusOK, notifications, meta)
}

func (h *Handler) markRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, nethttp.StatusBadRequest, "invalid notification id")
		return
	}
	if err := h.bridge.MarkRead(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			response.RespondError(c, nethttp.StatusNotFound, "not found")
			return
		}
		response.RespondError(c, nethttp.StatusInternalServerError, "mark read failed")
		return
	}
	response.RespondOK(c, nethttp.StatusOK, gin.H{"status": "read"}, nil)
}

func (h *Handler) integrationStatus(c *gin.Context) {
	userID := c.Param("user_id")
	st, err := h.bridge.IntegrationStatus(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidEvent) {
			response.RespondError(c, nethttp.StatusBadRequest, err.Error())
			return
		}
		response.RespondError(c, nethttp.StatusInternalServerError, "status lookup failed")
		return
	}
	response.RespondOK(c, nethttp.StatusOK, st, nil)
}

func (h *Handler) health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		response.RespondError(c, nethttp.StatusServiceUnavailable, "store unavailable")
		return
	}
	response.RespondOK(c, nethttp.StatusOK, gin.H{"status": "ok"}, nil)
}

func (h *Handler) respondQueueError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidEvent):
		response.RespondError(c, nethttp.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrIdempotencyKeyConflict):
		response.RespondError(c, nethttp.StatusConflict, "idempotency key conflicts with request")
	default:
		response.RespondError(c, nethttp.StatusInternalServerError, "queue failed")
	}
}
