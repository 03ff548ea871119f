package reputation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/resilience"
)

var (
	// ErrNoHost is returned for a dapp URL without a hostname
	ErrNoHost = errors.New("dapp url has no host")
	// ErrBadList is returned when the scam list document cannot be used
	ErrBadList = errors.New("malformed scam list")
)

// ScamListConfig configures the scam list download
type ScamListConfig struct {
	URL        string
	Timeout    time.Duration
	CacheTTL   time.Duration
	RPS        float64
	MaxRetries int
	RetryWait  time.Duration
}

// ScamListChecker flags dapps whose host appears on a downloaded scam list
type ScamListChecker struct {
	cfg     ScamListConfig
	client  *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *zap.Logger
	now     func() time.Time

	fetchMu sync.Mutex

	mu        sync.RWMutex
	hosts     map[string]struct{}
	fetchedAt time.Time
}

// NewScamListChecker creates a checker with a retrying, rate limited client
func NewScamListChecker(cfg ScamListConfig, logger *zap.Logger) *ScamListChecker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("scamlist")

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWait
	retryClient.RetryWaitMax = 4 * cfg.RetryWait
	retryClient.Logger = leveledLogger{logger.Sugar()}

	client := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "WalletShell-Reputation/1.0")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		burst := int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	return &ScamListChecker{
		cfg:     cfg,
		client:  client,
		limiter: limiter,
		breaker: resilience.New("scamlist", resilience.Settings{
			FailureThreshold: 3,
			Cooldown:         time.Minute,
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}),
		logger: logger,
		now:    time.Now,
	}
}

// Check reports whether dappURL's host or registrable domain is listed
func (c *ScamListChecker) Check(ctx context.Context, dappURL string) (bool, error) {
	host := Hostname(dappURL)
	if host == "" {
		return false, ErrNoHost
	}

	hosts, err := c.list(ctx)
	if err != nil {
		return false, err
	}

	if _, ok := hosts[host]; ok {
		return true, nil
	}
	_, ok := hosts[RegistrableDomain(host)]
	return ok, nil
}

// BreakerState exposes the download breaker state
func (c *ScamListChecker) BreakerState() resilience.State {
	return c.breaker.State()
}

func (c *ScamListChecker) cached() (map[string]struct{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.hosts == nil || c.now().Sub(c.fetchedAt) >= c.cfg.CacheTTL {
		return nil, false
	}
	return c.hosts, true
}

func (c *ScamListChecker) list(ctx context.Context) (map[string]struct{}, error) {
	if hosts, ok := c.cached(); ok {
		return hosts, nil
	}

	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	// Another caller may have refreshed while we waited
	if hosts, ok := c.cached(); ok {
		return hosts, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	hosts, err := resilience.Call(c.breaker, func() (map[string]struct{}, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.hosts = hosts
	c.fetchedAt = c.now()
	c.mu.Unlock()

	c.logger.Info("Scam list refreshed", zap.Int("hosts", len(hosts)))
	return hosts, nil
}

func (c *ScamListChecker) fetch(ctx context.Context) (map[string]struct{}, error) {
	resp, err := c.client.R().SetContext(ctx).Get(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scam list: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch scam list: status %d", resp.StatusCode())
	}
	return ParseScamList(resp.Body())
}

// ParseScamList extracts hostnames from a scam list document. Accepted
// shapes are {"result": [...]} and a bare array; entries are either strings
// or objects carrying hostname, url or name fields.
func ParseScamList(body []byte) (map[string]struct{}, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrBadList)
	}

	entries := gjson.ParseBytes(body)
	if entries.IsObject() {
		entries = entries.Get("result")
	}
	if !entries.IsArray() {
		return nil, fmt.Errorf("%w: no entry array", ErrBadList)
	}

	hosts := make(map[string]struct{})
	add := func(raw string) {
		if h := Hostname(raw); h != "" {
			hosts[h] = struct{}{}
		}
	}

	entries.ForEach(func(_, entry gjson.Result) bool {
		if entry.Type == gjson.String {
			add(entry.String())
			return true
		}
		for _, field := range []string{"hostname", "url", "name"} {
			if v := entry.Get(field); v.Exists() && v.Type == gjson.String {
				add(v.String())
			}
		}
		return true
	})

	return hosts, nil
}

// leveledLogger routes retryablehttp logs through zap
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }

// StaticChecker flags a fixed set of hosts
type StaticChecker struct {
	hosts map[string]struct{}
}

// NewStaticChecker creates a checker over the given hosts or URLs
func NewStaticChecker(entries ...string) *StaticChecker {
	hosts := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if h := Hostname(e); h != "" {
			hosts[h] = struct{}{}
		}
	}
	return &StaticChecker{hosts: hosts}
}

// Check reports whether the dapp host or its registrable domain is listed
func (s *StaticChecker) Check(_ context.Context, dappURL string) (bool, error) {
	host := Hostname(dappURL)
	if host == "" {
		return false, ErrNoHost
	}
	if _, ok := s.hosts[host]; ok {
		return true, nil
	}
	_, ok := s.hosts[RegistrableDomain(host)]
	return ok, nil
}
