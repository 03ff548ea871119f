package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/admission"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/deeplink"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/events"
	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/eventloop"
	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/keychain"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/id"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

// EventStateChange is tracked on every app state change
const EventStateChange = "State change"

var (
	// ErrInvalidAppState is returned for an unknown app state
	ErrInvalidAppState = errors.New("invalid app state")
	// ErrEmptyAddress is returned when saving an empty wallet address
	ErrEmptyAddress = errors.New("empty wallet address")
	// ErrRawDeeplink is returned when a raw deeplink is triggered as a request
	ErrRawDeeplink = errors.New("raw deeplinks are not admitted")
	// ErrStarted is returned by a second Start
	ErrStarted = errors.New("orchestrator already started")
)

// RemoteMessage is a push message as delivered by the messaging SDK
type RemoteMessage struct {
	MessageID string            `json:"message_id,omitempty"`
	Data      map[string]string `json:"data"`
}

// Config controls startup and background work
type Config struct {
	// DevMode skips analytics identification
	DevMode bool
	// TokenListRefresh is a cron spec; empty disables the schedule
	TokenListRefresh    string
	ExplorerReloadDelay time.Duration
	TaskTimeout         time.Duration
	DrainTimeout        time.Duration
}

// Deps are the orchestrator's collaborators. Loop, Router, Queue and Bus
// are required; any other nil dependency disables the work it serves.
type Deps struct {
	Loop      *eventloop.Loop
	Router    *deeplink.Router
	Queue     *admission.Queue
	Bus       *events.Bus
	Keychain  keychain.Store
	Addresses AddressLoader
	Devices   DeviceTokenSource
	Analytics Analytics
	Tokens    TokenList
	Pairs     PairsInitializer
	Explorer  Explorer
	Backup    BackupChecker
	Raw       RawHandler
	Routes    RouteAnnouncer
	Logger    *zap.Logger
}

// Orchestrator is the shell's entry point for ingestion and lifecycle
type Orchestrator struct {
	cfg    Config
	deps   Deps
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	scope  events.Scope
	cron   *cron.Cron
	wg     sync.WaitGroup

	mu           sync.Mutex
	started      bool
	closed       bool
	appState     types.AppState
	initialRoute string
	backupOnce   sync.Once
}

// New validates deps and creates an orchestrator
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	if deps.Loop == nil || deps.Router == nil || deps.Queue == nil || deps.Bus == nil {
		return nil, errors.New("orchestrator: loop, router, queue and bus are required")
	}
	if cfg.ExplorerReloadDelay <= 0 {
		cfg.ExplorerReloadDelay = 10 * time.Second
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 30 * time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 2 * time.Second
	}
	if cfg.TokenListRefresh != "" {
		if _, err := cron.ParseStandard(cfg.TokenListRefresh); err != nil {
			return nil, fmt.Errorf("invalid token list schedule %q: %w", cfg.TokenListRefresh, err)
		}
	}
	if deps.Addresses == nil && deps.Keychain != nil {
		deps.Addresses = KeychainAddresses{Store: deps.Keychain}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cfg:      cfg,
		deps:     deps,
		logger:   logger.Named("orchestrator"),
		ctx:      ctx,
		cancel:   cancel,
		cron:     cron.New(),
		appState: types.AppStateActive,
	}, nil
}

// Start subscribes to the bus and runs the startup flows
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return ErrStarted
	}
	o.started = true
	o.mu.Unlock()

	bus := o.deps.Bus
	o.scope.Add(bus.AppStateChanged.Subscribe(o.handleAppState))
	o.scope.Add(bus.TokenListUpdated.Subscribe(o.handleTokenListUpdate))
	o.scope.Add(bus.TransactionConfirmed.Subscribe(o.handleTransactionConfirmed))
	o.scope.Add(bus.WalletReady.Subscribe(o.handleWalletReady))

	o.spawn("identify_flow", o.identifyFlow)
	if o.cfg.DevMode {
		o.logger.Debug("Development mode, skipping analytics identification")
	} else {
		o.spawn("initialize_analytics", o.initializeAnalytics)
	}

	if o.cfg.TokenListRefresh != "" && o.deps.Tokens != nil {
		if _, err := o.cron.AddFunc(o.cfg.TokenListRefresh, func() {
			o.spawn("scheduled_token_refresh", o.refreshTokenList)
		}); err != nil {
			return fmt.Errorf("failed to schedule token list refresh: %w", err)
		}
		o.cron.Start()
	}

	o.logger.Info("Orchestrator started",
		zap.Bool("dev_mode", o.cfg.DevMode),
		zap.String("token_list_refresh", o.cfg.TokenListRefresh))
	return nil
}

// Close releases subscriptions, supersedes held sessions and waits for
// background work
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()

	o.scope.Close()
	<-o.cron.Stop().Done()

	o.deps.Queue.Shutdown()
	select {
	case <-o.deps.Queue.Drained():
	case <-time.After(o.cfg.DrainTimeout):
		o.logger.Warn("Sessions still settling at shutdown")
	}

	o.cancel()
	o.wg.Wait()
	o.logger.Info("Orchestrator stopped")
}

// InitialRoute returns the route picked at startup, "" until known
func (o *Orchestrator) InitialRoute() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.initialRoute
}

// AppState returns the last reported app state
func (o *Orchestrator) AppState() types.AppState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.appState
}

// spawn runs fn in the background with a task timeout
func (o *Orchestrator) spawn(name string, fn func(ctx context.Context) error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.wg.Add(1)
	o.mu.Unlock()

	go func() {
		defer o.wg.Done()
		ctx, cancel := context.WithTimeout(o.ctx, o.cfg.TaskTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			o.logger.Warn("Background task failed", zap.String("task", name), zap.Error(err))
			return
		}
		o.logger.Debug("Background task finished", zap.String("task", name))
	}()
}

func (o *Orchestrator) track(event string, props map[string]any) {
	if o.deps.Analytics != nil {
		o.deps.Analytics.Track(event, props)
	}
}

func (o *Orchestrator) now() time.Time {
	return o.deps.Loop.Clock().Now()
}

// identifyFlow picks the initial route from the stored wallet address
func (o *Orchestrator) identifyFlow(ctx context.Context) error {
	address := ""
	if o.deps.Addresses != nil {
		loaded, err := o.deps.Addresses.LoadAddress(ctx)
		if err != nil {
			o.logger.Warn("Failed to load wallet address", zap.Error(err))
		} else {
			address = loaded
		}
	}

	route := types.RouteWelcomeScreen
	if address != "" {
		route = types.RouteSwipeLayout
	}

	o.mu.Lock()
	o.initialRoute = route
	o.mu.Unlock()

	if o.deps.Routes != nil {
		o.deps.Routes.AnnounceInitialRoute(route)
	}
	o.deps.Queue.UpdateLifecycle(func(s types.LifecycleSnapshot) types.LifecycleSnapshot {
		s.InitialRouteResolved = true
		return s
	})
	o.logger.Info("Initial route resolved", zap.String("route", route))

	if address != "" {
		o.deps.Bus.WalletReady.Publish(address)
	}
	return nil
}

// initializeAnalytics identifies a device once and remembers the identifier
func (o *Orchestrator) initializeAnalytics(ctx context.Context) error {
	store := o.deps.Keychain
	if store == nil || o.deps.Analytics == nil {
		return nil
	}

	stored, err := store.LoadString(ctx, KeyAnalyticsIdentifier)
	switch {
	case err == nil && stored != "":
		return nil
	case err != nil && !errors.Is(err, keychain.ErrNotFound):
		return fmt.Errorf("failed to load analytics identifier: %w", err)
	}

	identifier := ""
	if o.deps.Devices != nil {
		token, err := o.deps.Devices.DeviceToken(ctx)
		if err != nil {
			o.logger.Debug("Device token unavailable, using random identifier", zap.Error(err))
		} else {
			identifier = token
		}
	}
	if identifier == "" {
		identifier = uuid.NewString()
	}

	if err := store.SaveString(ctx, KeyAnalyticsIdentifier, identifier); err != nil {
		return fmt.Errorf("failed to save analytics identifier: %w", err)
	}
	o.deps.Analytics.Identify(identifier)
	return nil
}

func (o *Orchestrator) refreshTokenList(ctx context.Context) error {
	if o.deps.Tokens == nil {
		return nil
	}
	if err := o.deps.Tokens.Refresh(ctx); err != nil {
		return fmt.Errorf("token list refresh: %w", err)
	}
	o.deps.Bus.TokenListUpdated.Publish(events.TokenListUpdate{UpdatedAt: o.now()})
	return nil
}

// OnRemoteNotification ingests a push message from the foreground or background handler
func (o *Orchestrator) OnRemoteNotification(msg RemoteMessage) {
	topic := strings.TrimSpace(msg.Data["topic"])
	uri := strings.TrimSpace(msg.Data["uri"])
	if topic == "" && uri == "" {
		o.logger.Debug("Push message without topic ignored", zap.String("message_id", msg.MessageID))
		return
	}

	payload := types.Payload{
		Topic:    topic,
		DappName: msg.Data["dapp_name"],
		DappURL:  msg.Data["dapp_url"],
		ImageURL: msg.Data["image_url"],
	}
	if uri != "" {
		kind, parsed := deeplink.Classify(uri)
		if kind != types.KindConnect {
			o.forwardRaw(uri)
			return
		}
		payload.URI = parsed.URI
		if payload.Topic == "" {
			payload.Topic = parsed.Topic
		}
	}

	o.deps.Queue.AdmitPush(types.IncomingRequest{
		ID:         string(id.NewRequestID()),
		ChannelID:  strings.TrimSpace(msg.MessageID),
		Kind:       types.KindConnect,
		Source:     types.SourcePush,
		Payload:    payload,
		ReceivedAt: o.now(),
	})
}

// OnAttribution ingests an attribution SDK callback
func (o *Orchestrator) OnAttribution(ev deeplink.AttributionEvent) {
	if req, ok := o.deps.Router.HandleAttribution(ev); ok {
		o.ingest(req)
	}
}

// OnLink ingests a link delivered by the platform link listener
func (o *Orchestrator) OnLink(url string) {
	if req, ok := o.deps.Router.Route(url, deeplink.OriginSystemLink); ok {
		o.ingest(req)
	}
}

// CheckInitialURL ingests the cold start URL. Only the first call counts.
func (o *Orchestrator) CheckInitialURL(url string) {
	if req, ok := o.deps.Router.Route(url, deeplink.OriginInitialURL); ok {
		o.ingest(req)
	}
}

func (o *Orchestrator) ingest(req types.IncomingRequest) {
	if req.Kind == types.KindRawDeeplink {
		o.forwardRaw(req.Payload.URI)
		o.deps.Router.Release(req.Payload.URI)
		return
	}
	o.deps.Queue.Admit(req, nil)
}

func (o *Orchestrator) forwardRaw(uri string) {
	if o.deps.Raw == nil {
		o.logger.Debug("No handler for raw deeplink", zap.String("uri", uri))
		return
	}
	o.spawn("raw_deeplink", func(ctx context.Context) error {
		return o.deps.Raw.HandleRaw(ctx, uri)
	})
}

// Trigger admits a request raised inside the app and returns its session id
func (o *Orchestrator) Trigger(req types.IncomingRequest, reply func(bool)) (string, error) {
	if req.Kind == types.KindRawDeeplink {
		if reply != nil {
			reply(false)
		}
		return "", ErrRawDeeplink
	}
	if req.ID == "" {
		req.ID = string(id.NewRequestID())
	}
	if req.Source == "" {
		req.Source = types.SourceInternal
	}
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = o.now()
	}
	return o.deps.Queue.Submit(req, reply)
}

// OnAppStateChange reports a new app state
func (o *Orchestrator) OnAppStateChange(state types.AppState) error {
	if !state.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAppState, state)
	}
	o.deps.Bus.AppStateChanged.Publish(state)
	return nil
}

// OnTransactionConfirmed reports a confirmed transaction
func (o *Orchestrator) OnTransactionConfirmed(hash string) {
	o.deps.Bus.TransactionConfirmed.Publish(events.TransactionConfirmation{
		Hash:        hash,
		ConfirmedAt: o.now(),
	})
}

// SetWalletAddress stores the wallet address and announces the wallet as ready
func (o *Orchestrator) SetWalletAddress(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return ErrEmptyAddress
	}
	if o.deps.Keychain != nil {
		if err := o.deps.Keychain.SaveString(ctx, KeyWalletAddress, address); err != nil {
			return fmt.Errorf("failed to save wallet address: %w", err)
		}
	}
	o.deps.Bus.WalletReady.Publish(address)
	return nil
}

func (o *Orchestrator) handleAppState(next types.AppState) {
	o.mu.Lock()
	prev := o.appState
	o.appState = next
	o.mu.Unlock()

	o.deps.Queue.UpdateLifecycle(func(s types.LifecycleSnapshot) types.LifecycleSnapshot {
		s.AppState = next
		return s
	})

	// The queue restores WalletConnect state itself on this transition
	if prev == types.AppStateBackground && next == types.AppStateActive {
		o.spawn("refresh_token_list", o.refreshTokenList)
	}

	o.track(EventStateChange, map[string]any{
		"category": "app state",
		"label":    string(next),
	})
}

func (o *Orchestrator) handleTokenListUpdate(events.TokenListUpdate) {
	if o.deps.Pairs == nil {
		return
	}
	o.spawn("init_uniswap_pairs", o.deps.Pairs.InitPairs)
}

func (o *Orchestrator) handleTransactionConfirmed(tx events.TransactionConfirmation) {
	if o.deps.Explorer == nil {
		return
	}
	o.logger.Info("Reloading L2 explorer data after delay",
		zap.String("hash", tx.Hash),
		zap.Duration("delay", o.cfg.ExplorerReloadDelay))
	o.deps.Loop.After(o.cfg.ExplorerReloadDelay, func() {
		o.spawn("explorer_init_l2", o.deps.Explorer.InitL2)
	})
}

func (o *Orchestrator) handleWalletReady(address string) {
	if o.deps.Backup == nil {
		return
	}
	o.backupOnce.Do(func() {
		o.spawn("wallet_backup_check", func(ctx context.Context) error {
			return o.deps.Backup.CheckBackup(ctx, address)
		})
	})
}
