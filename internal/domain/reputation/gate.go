package reputation

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/monitoring"
)

// Checker reports whether a dapp URL is known to be malicious
type Checker interface {
	Check(ctx context.Context, dappURL string) (bool, error)
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context, dappURL string) (bool, error)

// Check calls f
func (f CheckerFunc) Check(ctx context.Context, dappURL string) (bool, error) {
	return f(ctx, dappURL)
}

// Verdict is the gate's answer
type Verdict struct {
	Flagged bool `json:"flagged"`
}

// Gate wraps a Checker with a deadline and fail-open semantics
type Gate struct {
	checker Checker
	timeout time.Duration
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewGate creates a gate. A nil checker disables reputation checks.
func NewGate(checker Checker, timeout time.Duration, logger *zap.Logger, metrics *monitoring.Metrics) *Gate {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		checker: checker,
		timeout: timeout,
		logger:  logger.Named("reputation"),
		metrics: metrics,
	}
}

// Check asks the checker about dappURL. It never returns an error, and a
// panicking checker counts as a failed check.
func (g *Gate) Check(ctx context.Context, dappURL string) (verdict Verdict) {
	if g == nil || g.checker == nil {
		return Verdict{}
	}
	if strings.TrimSpace(dappURL) == "" {
		g.metrics.RecordReputation("skipped")
		return Verdict{}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			g.metrics.RecordReputation("error")
			g.logger.Error("Reputation checker panicked, treating dapp as clear",
				zap.String("dapp_url", dappURL),
				zap.Any("panic", r))
			verdict = Verdict{}
		}
	}()

	flagged, err := g.checker.Check(ctx, dappURL)
	if err != nil {
		g.metrics.RecordReputation("error")
		g.logger.Warn("Reputation check failed, treating dapp as clear",
			zap.String("dapp_url", dappURL),
			zap.Error(err))
		return Verdict{}
	}

	if flagged {
		g.metrics.RecordReputation("flagged")
		g.logger.Info("Dapp found on scam list", zap.String("dapp_url", dappURL))
	} else {
		g.metrics.RecordReputation("clear")
	}
	return Verdict{Flagged: flagged}
}
