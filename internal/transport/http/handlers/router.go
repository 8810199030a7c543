package handlers

import "github.com/gin-gonic/gin"

type Router struct {
	handler *Handler
}

func NewRouter(handler *Handler) *Router {
	return &Router{handler: handler}
}

func (r *Router) RegisterRoutes(engine *gin.Engine, idempotency gin.HandlerFunc) {
	engine.GET("/healthz", r.handler.health)

	api := engine.Group("/api")

	api.POST("/events", idempotency, r.handler.queueEvent)
	api.POST("/documents/uploaded", r.handler.documentUploaded)
	api.POST("/processing/complete", r.handler.processingComplete)
	api.POST("/insights", r.handler.shareInsights)
	api.POST("/market-updates", r.handler.marketUpdate)

	notifications := api.Group("/notifications")
	notifications.GET("", r.handler.listNotifications)
	notifications.POST("/:id/read", r.handler.markRead)

	api.GET("/integration-status/:user_id", r.handler.integrationStatus)
}
