package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/approval"
	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/id"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

var (
	// ErrNoClients is returned by Command when no UI is connected
	ErrNoClients = errors.New("no connected clients")
	// ErrHubClosed is returned after Close
	ErrHubClosed = errors.New("hub closed")
	// ErrNotBound is returned for user actions before Bind
	ErrNotBound = errors.New("hub has no actions bound")
)

// Actions applies user answers to sessions
type Actions interface {
	Accept(sessionID string) error
	Reject(sessionID string) error
	Dismiss(sessionID string) error
	SelectNetwork(sessionID, value string) error
	ResolveRisk(sessionID string, choice approval.RiskChoice) error
}

// Hub tracks connected clients and implements approval.Navigator
type Hub struct {
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	clients  map[*client]struct{}
	actions  Actions
	route    string
	current  *types.SessionView
	alert    *types.SessionView
	commands map[string]chan error
	closed   bool
}

// NewHub creates a hub with no clients
func NewHub(logger *zap.Logger, metrics *monitoring.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger.Named("ws"),
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(*http.Request) bool {
				return true // The shell UI is served from a local origin
			},
		},
		clients:  make(map[*client]struct{}),
		commands: make(map[string]chan error),
	}
}

// Bind sets the target of inbound user actions
func (h *Hub) Bind(actions Actions) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actions = actions
}

// Handle upgrades a gin request to a WebSocket client
func (h *Hub) Handle(c *gin.Context) {
	h.ServeHTTP(c.Writer, c.Request)
}

// ServeHTTP upgrades the request and serves the client until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(h, conn)
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	c.run(r.Context())
}

// register adds c and replays the state a fresh UI needs
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	var replay []Envelope
	if h.route != "" {
		replay = append(replay, Envelope{Type: TypeInitialRoute, Payload: map[string]string{"route": h.route}})
	}
	if h.current != nil {
		replay = append(replay, Envelope{Type: TypePresentApproval, Session: h.current})
	}
	if h.alert != nil {
		replay = append(replay, Envelope{Type: TypePresentRiskAlert, Session: h.alert})
	}
	h.mu.Unlock()

	h.metrics.IncWSConnections()
	h.logger.Info("Client connected", zap.String("client_id", c.id))
	for _, env := range replay {
		c.enqueue(env)
	}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		h.metrics.DecWSConnections()
		h.logger.Info("Client disconnected", zap.String("client_id", c.id))
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(env Envelope) int {
	data, err := encode(env)
	if err != nil {
		h.logger.Error("Failed to encode envelope", zap.String("type", env.Type), zap.Error(err))
		return 0
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if c.send(data) {
			sent++
		}
	}
	h.metrics.RecordWSMessage("out", env.Type)
	return sent
}

// PresentApproval shows the approval screen for a session
func (h *Hub) PresentApproval(view types.SessionView) {
	h.mu.Lock()
	h.current = &view
	h.alert = nil
	h.mu.Unlock()
	h.broadcast(Envelope{Type: TypePresentApproval, Session: &view})
}

// PresentRiskAlert shows the risk alert over the approval screen
func (h *Hub) PresentRiskAlert(view types.SessionView) {
	h.mu.Lock()
	h.alert = &view
	h.mu.Unlock()
	h.broadcast(Envelope{Type: TypePresentRiskAlert, Session: &view})
}

// Dismiss closes the approval screen for a session
func (h *Hub) Dismiss(sessionID string) {
	h.clearSession(sessionID)
	h.broadcast(Envelope{Type: TypeDismiss, Payload: map[string]string{"session_id": sessionID}})
}

// SessionResolved broadcasts a session outcome
func (h *Hub) SessionResolved(res types.Resolution) {
	h.clearSession(res.SessionID)
	h.broadcast(Envelope{Type: TypeSessionResolved, Payload: res})
}

func (h *Hub) clearSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current != nil && h.current.ID == sessionID {
		h.current = nil
	}
	if h.alert != nil && h.alert.ID == sessionID {
		h.alert = nil
	}
}

// AnnounceInitialRoute tells the UI which screen to start on
func (h *Hub) AnnounceInitialRoute(route string) {
	h.mu.Lock()
	h.route = route
	h.mu.Unlock()
	h.broadcast(Envelope{Type: TypeInitialRoute, Payload: map[string]string{"route": route}})
}

// Command asks the UI to run a shell command and waits for the first ack
func (h *Hub) Command(ctx context.Context, name string, args any) error {
	cmdID := id.NewCommandID().String()
	done := make(chan error, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	if len(h.clients) == 0 {
		h.mu.Unlock()
		return fmt.Errorf("%s: %w", name, ErrNoClients)
	}
	h.commands[cmdID] = done
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.commands, cmdID)
		h.mu.Unlock()
	}()

	if h.broadcast(Envelope{Type: TypeCommand, ID: cmdID, Payload: CommandPayload{Name: name, Args: args}}) == 0 {
		return fmt.Errorf("%s: %w", name, ErrNoClients)
	}

	h.logger.Debug("Command sent", zap.String("command", name), zap.String("command_id", cmdID))
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", name, ctx.Err())
	}
}

// ack completes a pending command; later acks for the same id are ignored
func (h *Hub) ack(cmdID, errMsg string) {
	h.mu.Lock()
	done, ok := h.commands[cmdID]
	delete(h.commands, cmdID)
	h.mu.Unlock()
	if !ok {
		return
	}

	var err error
	if errMsg != "" {
		err = errors.New(errMsg)
	}
	done <- err
}

// apply runs an inbound user action
func (h *Hub) apply(msg Inbound) error {
	h.mu.RLock()
	actions := h.actions
	h.mu.RUnlock()
	if actions == nil {
		return ErrNotBound
	}

	switch msg.Type {
	case TypeAccept:
		return actions.Accept(msg.SessionID)
	case TypeReject:
		return actions.Reject(msg.SessionID)
	case TypeDismissed:
		return actions.Dismiss(msg.SessionID)
	case TypeSelectNetwork:
		return actions.SelectNetwork(msg.SessionID, msg.Value)
	case TypeRiskChoice:
		return actions.ResolveRisk(msg.SessionID, approval.RiskChoice(msg.Choice))
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}

// Close disconnects every client and fails pending commands
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	commands := h.commands
	h.commands = make(map[string]chan error)
	h.mu.Unlock()

	for _, done := range commands {
		done <- ErrHubClosed
	}
	for c := range clients {
		c.close()
		h.metrics.DecWSConnections()
	}
}
