package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/WalletShell/backend/internal/api/http"
	"github.com/GriffinCanCode/WalletShell/backend/internal/api/middleware"
	"github.com/GriffinCanCode/WalletShell/backend/internal/api/ws"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/admission"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/approval"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/deeplink"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/events"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/network"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/orchestrator"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/reputation"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/walletconnect"
	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/eventloop"
	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/keychain"
	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and the admission pipeline
type Server struct {
	router       *gin.Engine
	http         *http.Server
	loop         *eventloop.Loop
	hub          *ws.Hub
	orchestrator *orchestrator.Orchestrator
	keychain     keychain.Store
	logger       *logging.Logger
	config       *config.Config
	metrics      *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)

	logger.Info("Initializing WalletShell server",
		zap.String("port", cfg.Server.Port),
		zap.Bool("reputation", cfg.Reputation.Enabled),
		zap.String("networks_file", cfg.Networks.File),
	)

	metrics := monitoring.NewMetrics()

	catalog, err := network.Load(cfg.Networks.File, cfg.Networks.DefaultNetwork)
	if err != nil {
		return nil, fmt.Errorf("failed to load network catalog: %w", err)
	}
	logger.Info("Network catalog loaded", zap.Int("networks", len(catalog.All())))

	var checker reputation.Checker
	if cfg.Reputation.Enabled {
		checker = reputation.NewScamListChecker(reputation.ScamListConfig{
			URL:      cfg.Reputation.ListURL,
			Timeout:  cfg.Reputation.Timeout,
			CacheTTL: cfg.Reputation.CacheTTL,
			RPS:      cfg.Reputation.RPS,
		}, logger.Component("scamlist"))
	}
	gate := reputation.NewGate(checker, cfg.Reputation.Timeout, logger.Logger, metrics)

	ctx := context.Background()
	store, err := openKeychain(ctx, cfg.Keychain, logger)
	if err != nil {
		return nil, err
	}

	loop := eventloop.New(logger.Logger, eventloop.RealClock())
	bus := events.NewBus()
	hub := ws.NewHub(logger.Logger, metrics)
	requests := walletconnect.NewRequestRegistry()
	analytics := orchestrator.NewLogAnalytics(logger.Logger)
	shell := orchestrator.ShellCommands{Commander: hub}

	router := deeplink.NewRouter(deeplink.Config{
		TestMode:  cfg.Deeplink.TestMode,
		DedupTTL:  cfg.Deeplink.DedupTTL,
		DedupSize: cfg.Deeplink.DedupSize,
	}, logger.Logger, metrics)

	queue := admission.New(admission.Config{
		PushSyncDelay:    cfg.Admission.PushSyncDelay,
		ResolvedTopicTTL: cfg.Admission.ResolvedTopicTTL,
		RestoreTimeout:   cfg.Admission.RestoreTimeout,
	}, admission.Deps{
		Env: &approval.Env{
			Loop:      loop,
			Navigator: hub,
			Gate:      gate,
			Catalog:   catalog,
			Tracker:   analytics,
			Resolved:  bus.SessionResolved,
			Logger:    logger.Logger,
			Metrics:   metrics,
			Config: approval.Config{
				CallbackDelay:     cfg.Admission.CallbackDelay,
				AutoRejectFlagged: cfg.Reputation.AutoReject,
			},
		},
		Lookup:   requests,
		Restorer: shell.Restore,
		Consumed: func(req types.IncomingRequest) {
			if req.Payload.URI != "" {
				router.Release(req.Payload.URI)
			}
		},
		Logger:  logger.Logger,
		Metrics: metrics,
	})
	hub.Bind(queue)
	bus.SessionResolved.Subscribe(hub.SessionResolved)

	orch, err := orchestrator.New(orchestrator.Config{
		DevMode:             cfg.Logging.Development,
		TokenListRefresh:    cfg.Schedule.TokenListRefresh,
		ExplorerReloadDelay: cfg.Schedule.ExplorerReloadDelay,
	}, orchestrator.Deps{
		Loop:      loop,
		Router:    router,
		Queue:     queue,
		Bus:       bus,
		Keychain:  store,
		Addresses: orchestrator.KeychainAddresses{Store: store},
		Analytics: analytics,
		Tokens:    shell,
		Pairs:     shell,
		Explorer:  shell,
		Backup:    shell,
		Raw:       shell,
		Routes:    hub,
		Logger:    logger.Logger,
	})
	if err != nil {
		loop.Close()
		closeStore(store, logger)
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(logger.Component("http")))
	engine.Use(middleware.BodyLimit(middleware.MaxBodySize))
	engine.Use(monitoring.Middleware(metrics))
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.Origins = cfg.Server.CORSOrigins
	engine.Use(middleware.CORS(corsCfg))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		engine.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(apihttp.Deps{
		Ingestor: orch,
		Sessions: queue,
		Catalog:  catalog,
		Requests: requests,
		Clients:  hub,
		Logger:   logger.Logger,
	})
	apihttp.Register(engine, handlers, metrics.Handler(), hub.Handle)

	logger.Info("Server initialized successfully")

	return &Server{
		router:       engine,
		loop:         loop,
		hub:          hub,
		orchestrator: orch,
		keychain:     store,
		logger:       logger,
		config:       cfg,
		metrics:      metrics,
	}, nil
}

// Router returns the gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the pipeline and serves HTTP until Close
func (s *Server) Run() error {
	if err := s.orchestrator.Start(); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}

	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server. Held sessions are superseded
// and their replies delivered before the loop stops.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
			errs = append(errs, fmt.Errorf("failed to shut down http server: %w", err))
		}
	}

	s.orchestrator.Close()
	s.hub.Close()
	s.loop.Close()
	if err := closeStore(s.keychain, s.logger); err != nil {
		errs = append(errs, err)
	}

	_ = s.logger.Sync()
	return errors.Join(errs...)
}

func openKeychain(ctx context.Context, cfg config.KeychainConfig, logger *logging.Logger) (keychain.Store, error) {
	if cfg.Secret == "" {
		logger.Warn("KEYCHAIN_SECRET not set, keychain is in memory only")
		return keychain.NewMemoryStore(), nil
	}
	store, err := keychain.OpenSQLite(ctx, cfg.Path, cfg.Secret, logger.Component("keychain"))
	if err != nil {
		return nil, fmt.Errorf("failed to open keychain: %w", err)
	}
	logger.Info("Keychain opened", zap.String("path", cfg.Path))
	return store, nil
}

func closeStore(store keychain.Store, logger *logging.Logger) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	if err := closer.Close(); err != nil {
		logger.Error("Failed to close keychain", zap.Error(err))
		return fmt.Errorf("failed to close keychain: %w", err)
	}
	return nil
}
