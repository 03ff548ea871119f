package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/approval"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/deeplink"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/network"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/orchestrator"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/walletconnect"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Ingestor receives events from the outside world
type Ingestor interface {
	OnRemoteNotification(msg orchestrator.RemoteMessage)
	OnAttribution(ev deeplink.AttributionEvent)
	OnLink(url string)
	CheckInitialURL(url string)
	OnAppStateChange(state types.AppState) error
	OnTransactionConfirmed(hash string)
	Trigger(req types.IncomingRequest, reply func(bool)) (string, error)
	SetWalletAddress(ctx context.Context, address string) error
	InitialRoute() string
}

// Sessions reads and answers held approval sessions
type Sessions interface {
	Sessions() []types.SessionView
	Session(sessionID string) (types.SessionView, error)
	Accept(sessionID string) error
	Reject(sessionID string) error
	Dismiss(sessionID string) error
	SelectNetwork(sessionID, value string) error
	ResolveRisk(sessionID string, choice approval.RiskChoice) error
	Depth() int
	Lifecycle() types.LifecycleSnapshot
}

// ClientCounter reports connected UI clients
type ClientCounter interface {
	Clients() int
}

// Deps are the collaborators of the handlers
type Deps struct {
	Ingestor Ingestor
	Sessions Sessions
	Catalog  *network.Catalog
	Requests *walletconnect.RequestRegistry
	Clients  ClientCounter
	Logger   *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	ingest   Ingestor
	sessions Sessions
	catalog  *network.Catalog
	requests *walletconnect.RequestRegistry
	clients  ClientCounter
	logger   *zap.Logger
	started  time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = network.Default()
	}
	requests := deps.Requests
	if requests == nil {
		requests = walletconnect.NewRequestRegistry()
	}
	return &Handlers{
		ingest:   deps.Ingestor,
		sessions: deps.Sessions,
		catalog:  catalog,
		requests: requests,
		clients:  deps.Clients,
		logger:   logger.Named("api"),
		started:  time.Now(),
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "WalletShell",
		"version": Version,
	})
}

// Health reports pipeline state
func (h *Handlers) Health(c *gin.Context) {
	clients := 0
	if h.clients != nil {
		clients = h.clients.Clients()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"initial_route":  h.ingest.InitialRoute(),
		"lifecycle":      h.sessions.Lifecycle(),
		"queue_depth":    h.sessions.Depth(),
		"ws_clients":     clients,
	})
}

// ListNetworks lists the network catalog
func (h *Handlers) ListNetworks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"networks": h.catalog.All(),
		"default":  h.catalog.DefaultNetwork().Value,
	})
}

type topicRequest struct {
	Topic string `json:"topic" binding:"required"`
}

// AddOutstandingRequest records an outstanding WalletConnect request for a topic
func (h *Handlers) AddOutstandingRequest(c *gin.Context) {
	var req topicRequest
	if !bind(c, &req) {
		return
	}
	count, err := h.requests.Add(req.Topic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"topic": req.Topic, "count": count})
}

// RemoveOutstandingRequests clears the outstanding requests of a topic
func (h *Handlers) RemoveOutstandingRequests(c *gin.Context) {
	if !h.requests.Remove(c.Param("topic")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no outstanding requests for topic"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListOutstandingRequests lists topics with outstanding requests
func (h *Handlers) ListOutstandingRequests(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"topics": h.requests.Topics()})
}

type addressRequest struct {
	Address string `json:"address" binding:"required"`
}

// SetWalletAddress stores the wallet address
func (h *Handlers) SetWalletAddress(c *gin.Context) {
	var req addressRequest
	if !bind(c, &req) {
		return
	}
	if err := h.ingest.SetWalletAddress(c.Request.Context(), req.Address); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bind decodes the JSON body and answers 400 on failure
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}
