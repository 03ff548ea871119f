package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/keychain"
)

// Keychain keys
const (
	KeyAnalyticsIdentifier = "analyticsUserIdentifier"
	KeyWalletAddress       = "walletAddress"
)

// Shell command names
const (
	CommandRestoreSessions   = "restore_sessions"
	CommandRefreshTokenList  = "refresh_token_list"
	CommandInitUniswapPairs  = "init_uniswap_pairs"
	CommandExplorerInitL2    = "explorer_init_l2"
	CommandWalletBackupCheck = "wallet_backup_check"
	CommandOpenDeeplink      = "open_deeplink"
)

// AddressLoader returns the wallet address, or "" when there is none
type AddressLoader interface {
	LoadAddress(ctx context.Context) (string, error)
}

// DeviceTokenSource returns a device bound token used as analytics identity
type DeviceTokenSource interface {
	DeviceToken(ctx context.Context) (string, error)
}

// Analytics receives identification and events
type Analytics interface {
	Identify(userID string)
	Track(event string, props map[string]any)
}

// TokenList refreshes the token list
type TokenList interface {
	Refresh(ctx context.Context) error
}

// PairsInitializer rebuilds the uniswap pairs after a token list update
type PairsInitializer interface {
	InitPairs(ctx context.Context) error
}

// Explorer reloads L2 explorer data
type Explorer interface {
	InitL2(ctx context.Context) error
}

// BackupChecker runs the wallet backup status checks
type BackupChecker interface {
	CheckBackup(ctx context.Context, address string) error
}

// RawHandler receives links the pipeline does not understand
type RawHandler interface {
	HandleRaw(ctx context.Context, uri string) error
}

// RouteAnnouncer publishes the initial route to the UI
type RouteAnnouncer interface {
	AnnounceInitialRoute(route string)
}

// Commander runs a named command in the shell UI
type Commander interface {
	Command(ctx context.Context, name string, args any) error
}

// ShellCommands implements the shell facing interfaces on top of a Commander
type ShellCommands struct {
	Commander Commander
}

// Restore reloads WalletConnect state
func (s ShellCommands) Restore(ctx context.Context) error {
	return s.Commander.Command(ctx, CommandRestoreSessions, nil)
}

// Refresh refreshes the token list
func (s ShellCommands) Refresh(ctx context.Context) error {
	return s.Commander.Command(ctx, CommandRefreshTokenList, nil)
}

// InitPairs rebuilds the uniswap pairs
func (s ShellCommands) InitPairs(ctx context.Context) error {
	return s.Commander.Command(ctx, CommandInitUniswapPairs, nil)
}

// InitL2 reloads L2 explorer data
func (s ShellCommands) InitL2(ctx context.Context) error {
	return s.Commander.Command(ctx, CommandExplorerInitL2, nil)
}

// CheckBackup runs the backup status checks for address
func (s ShellCommands) CheckBackup(ctx context.Context, address string) error {
	return s.Commander.Command(ctx, CommandWalletBackupCheck, map[string]string{"address": address})
}

// HandleRaw hands an unrecognized link to the UI
func (s ShellCommands) HandleRaw(ctx context.Context, uri string) error {
	return s.Commander.Command(ctx, CommandOpenDeeplink, map[string]string{"uri": uri})
}

// KeychainAddresses loads the wallet address from the keychain
type KeychainAddresses struct {
	Store keychain.Store
}

// LoadAddress returns the stored address, "" when none was saved
func (k KeychainAddresses) LoadAddress(ctx context.Context) (string, error) {
	address, err := k.Store.LoadString(ctx, KeyWalletAddress)
	if errors.Is(err, keychain.ErrNotFound) {
		return "", nil
	}
	return address, err
}

// LogAnalytics records analytics to the log
type LogAnalytics struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewLogAnalytics creates a log backed analytics sink
func NewLogAnalytics(logger *zap.Logger) *LogAnalytics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogAnalytics{logger: logger.Named("analytics"), now: time.Now}
}

// Identify logs the user identity
func (a *LogAnalytics) Identify(userID string) {
	a.logger.Info("Identify", zap.String("user_id", userID))
}

// Track logs an event
func (a *LogAnalytics) Track(event string, props map[string]any) {
	a.logger.Info("Track",
		zap.String("event", event),
		zap.Any("properties", props),
		zap.Time("at", a.now()))
}
