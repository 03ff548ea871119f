package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
	Admission  AdmissionConfig
	Deeplink   DeeplinkConfig
	Reputation ReputationConfig
	Networks   NetworksConfig
	Keychain   KeychainConfig
	Schedule   ScheduleConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	// CORSOrigins is a comma separated origin allow-list; "*" allows any
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// AdmissionConfig holds the admission queue timers.
type AdmissionConfig struct {
	PushSyncDelay    time.Duration `envconfig:"PUSH_SYNC_DELAY" default:"500ms"`
	CallbackDelay    time.Duration `envconfig:"CALLBACK_DELAY" default:"300ms"`
	ResolvedTopicTTL time.Duration `envconfig:"RESOLVED_TOPIC_TTL" default:"30s"`
	RestoreTimeout   time.Duration `envconfig:"RESTORE_TIMEOUT" default:"5s"`
}

// DeeplinkConfig holds deeplink router configuration.
type DeeplinkConfig struct {
	TestMode  bool          `envconfig:"DEEPLINK_TEST_MODE" default:"false"`
	DedupTTL  time.Duration `envconfig:"DEEPLINK_DEDUP_TTL" default:"10s"`
	DedupSize int           `envconfig:"DEEPLINK_DEDUP_SIZE" default:"256"`
}

// ReputationConfig holds scam list checker configuration.
type ReputationConfig struct {
	Enabled    bool          `envconfig:"REPUTATION_ENABLED" default:"true"`
	ListURL    string        `envconfig:"REPUTATION_LIST_URL" default:"https://api.cryptoscamdb.org/v1/scams"`
	Timeout    time.Duration `envconfig:"REPUTATION_TIMEOUT" default:"5s"`
	CacheTTL   time.Duration `envconfig:"REPUTATION_CACHE_TTL" default:"10m"`
	RPS        float64       `envconfig:"REPUTATION_RPS" default:"2"`
	AutoReject bool          `envconfig:"REPUTATION_AUTO_REJECT" default:"false"`
}

// NetworksConfig holds network catalog configuration.
type NetworksConfig struct {
	File           string `envconfig:"NETWORKS_FILE"`
	DefaultNetwork string `envconfig:"DEFAULT_NETWORK" default:"mainnet"`
}

// KeychainConfig holds local secure store configuration.
type KeychainConfig struct {
	Path   string `envconfig:"KEYCHAIN_PATH" default:"/tmp/walletshell/keychain.db"`
	Secret string `envconfig:"KEYCHAIN_SECRET"`
}

// ScheduleConfig holds background refresh configuration.
type ScheduleConfig struct {
	TokenListRefresh    string        `envconfig:"TOKEN_LIST_REFRESH" default:"@every 1h"`
	ExplorerReloadDelay time.Duration `envconfig:"EXPLORER_RELOAD_DELAY" default:"10s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Host:        "0.0.0.0",
			CORSOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Admission: AdmissionConfig{
			PushSyncDelay:    500 * time.Millisecond,
			CallbackDelay:    300 * time.Millisecond,
			ResolvedTopicTTL: 30 * time.Second,
			RestoreTimeout:   5 * time.Second,
		},
		Deeplink: DeeplinkConfig{
			TestMode:  false,
			DedupTTL:  10 * time.Second,
			DedupSize: 256,
		},
		Reputation: ReputationConfig{
			Enabled:  true,
			ListURL:  "https://api.cryptoscamdb.org/v1/scams",
			Timeout:  5 * time.Second,
			CacheTTL: 10 * time.Minute,
			RPS:      2,
		},
		Networks: NetworksConfig{
			DefaultNetwork: "mainnet",
		},
		Keychain: KeychainConfig{
			Path: "/tmp/walletshell/keychain.db",
		},
		Schedule: ScheduleConfig{
			TokenListRefresh:    "@every 1h",
			ExplorerReloadDelay: 10 * time.Second,
		},
	}
}
