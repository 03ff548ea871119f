package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/approval"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

type triggerRequest struct {
	Kind     types.RequestKind `json:"kind" binding:"required"`
	DappName string            `json:"dapp_name"`
	DappURL  string            `json:"dapp_url"`
	ImageURL string            `json:"image_url"`
	ChainID  int64             `json:"chain_id"`
	Topic    string            `json:"topic"`
	URI      string            `json:"uri"`
}

// TriggerRequest admits a request raised inside the app. The outcome is
// broadcast as session_resolved.
func (h *Handlers) TriggerRequest(c *gin.Context) {
	var req triggerRequest
	if !bind(c, &req) {
		return
	}

	sessionID, err := h.ingest.Trigger(types.IncomingRequest{
		Kind:   req.Kind,
		Source: types.SourceInternal,
		Payload: types.Payload{
			DappName: req.DappName,
			DappURL:  req.DappURL,
			ImageURL: req.ImageURL,
			ChainID:  req.ChainID,
			Topic:    req.Topic,
			URI:      req.URI,
		},
	}, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"session_id": sessionID})
}

// ListSessions lists held sessions, the presented one first
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.sessions.Sessions()
	if sessions == nil {
		sessions = []types.SessionView{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetSession returns one session
func (h *Handlers) GetSession(c *gin.Context) {
	view, err := h.sessions.Session(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AcceptSession approves a session
func (h *Handlers) AcceptSession(c *gin.Context) {
	h.answer(c, h.sessions.Accept)
}

// RejectSession declines a session
func (h *Handlers) RejectSession(c *gin.Context) {
	h.answer(c, h.sessions.Reject)
}

// DismissSession reports that the approval screen went away
func (h *Handlers) DismissSession(c *gin.Context) {
	h.answer(c, h.sessions.Dismiss)
}

type networkRequest struct {
	Value string `json:"value" binding:"required"`
}

// SelectNetwork changes a session's network
func (h *Handlers) SelectNetwork(c *gin.Context) {
	var req networkRequest
	if !bind(c, &req) {
		return
	}
	h.answer(c, func(sessionID string) error {
		return h.sessions.SelectNetwork(sessionID, req.Value)
	})
}

type riskRequest struct {
	Choice approval.RiskChoice `json:"choice" binding:"required"`
}

// ResolveRisk answers a risk alert
func (h *Handlers) ResolveRisk(c *gin.Context) {
	var req riskRequest
	if !bind(c, &req) {
		return
	}
	h.answer(c, func(sessionID string) error {
		return h.sessions.ResolveRisk(sessionID, req.Choice)
	})
}

func (h *Handlers) answer(c *gin.Context, fn func(sessionID string) error) {
	sessionID := c.Param("id")
	if err := fn(sessionID); err != nil {
		respondError(c, err)
		return
	}
	view, err := h.sessions.Session(sessionID)
	if err != nil {
		// Settled between the answer and the read
		c.JSON(http.StatusOK, gin.H{"session_id": sessionID})
		return
	}
	c.JSON(http.StatusOK, view)
}
