package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/deeplink"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/orchestrator"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

type pushRequest struct {
	MessageID string            `json:"message_id"`
	Data      map[string]string `json:"data" binding:"required"`
}

// Push ingests a push message
func (h *Handlers) Push(c *gin.Context) {
	var req pushRequest
	if !bind(c, &req) {
		return
	}
	h.ingest.OnRemoteNotification(orchestrator.RemoteMessage{MessageID: req.MessageID, Data: req.Data})
	accepted(c)
}

// Attribution ingests an attribution SDK callback
func (h *Handlers) Attribution(c *gin.Context) {
	var ev deeplink.AttributionEvent
	if !bind(c, &ev) {
		return
	}
	h.ingest.OnAttribution(ev)
	accepted(c)
}

type linkRequest struct {
	URL string `json:"url"`
}

// Link ingests a link from the platform link listener
func (h *Handlers) Link(c *gin.Context) {
	var req linkRequest
	if !bind(c, &req) {
		return
	}
	if req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	h.ingest.OnLink(req.URL)
	accepted(c)
}

// InitialURL ingests the cold start URL. An empty url still counts as the check.
func (h *Handlers) InitialURL(c *gin.Context) {
	var req linkRequest
	if !bind(c, &req) {
		return
	}
	h.ingest.CheckInitialURL(req.URL)
	accepted(c)
}

type appStateRequest struct {
	AppState types.AppState `json:"app_state" binding:"required"`
}

// AppState ingests an app state change
func (h *Handlers) AppState(c *gin.Context) {
	var req appStateRequest
	if !bind(c, &req) {
		return
	}
	if err := h.ingest.OnAppStateChange(req.AppState); err != nil {
		respondError(c, err)
		return
	}
	accepted(c)
}

type transactionRequest struct {
	Hash string `json:"hash"`
}

// TransactionConfirmed ingests a confirmed transaction
func (h *Handlers) TransactionConfirmed(c *gin.Context) {
	var req transactionRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}
	h.ingest.OnTransactionConfirmed(req.Hash)
	accepted(c)
}

func accepted(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}
