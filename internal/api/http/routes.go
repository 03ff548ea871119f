package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Register mounts the handlers on router. metrics and stream may be nil.
func Register(router gin.IRouter, h *Handlers, metrics http.Handler, stream gin.HandlerFunc) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	ev := router.Group("/events")
	ev.POST("/push", h.Push)
	ev.POST("/attribution", h.Attribution)
	ev.POST("/link", h.Link)
	ev.POST("/initial-url", h.InitialURL)
	ev.POST("/app-state", h.AppState)
	ev.POST("/transaction-confirmed", h.TransactionConfirmed)

	router.POST("/requests", h.TriggerRequest)

	sessions := router.Group("/sessions")
	sessions.GET("", h.ListSessions)
	sessions.GET("/:id", h.GetSession)
	sessions.POST("/:id/accept", h.AcceptSession)
	sessions.POST("/:id/reject", h.RejectSession)
	sessions.POST("/:id/dismiss", h.DismissSession)
	sessions.POST("/:id/network", h.SelectNetwork)
	sessions.POST("/:id/risk", h.ResolveRisk)

	router.GET("/networks", h.ListNetworks)

	wc := router.Group("/walletconnect")
	wc.GET("/requests", h.ListOutstandingRequests)
	wc.POST("/requests", h.AddOutstandingRequest)
	wc.DELETE("/requests/:topic", h.RemoveOutstandingRequests)

	router.PUT("/wallet/address", h.SetWalletAddress)
	router.POST("/logs", h.StreamLogs)

	if stream != nil {
		router.GET("/stream", stream)
	}
}
