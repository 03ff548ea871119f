package approval

import (
	"context"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/events"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/network"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/reputation"
	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/eventloop"
	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

// Config holds session timing and policy
type Config struct {
	// CallbackDelay separates the terminal transition from the reply call
	CallbackDelay time.Duration
	// AutoRejectFlagged rejects flagged dapps without asking the user
	AutoRejectFlagged bool
}

// Env carries the collaborators shared by all sessions
type Env struct {
	Context   context.Context
	Loop      *eventloop.Loop
	Navigator Navigator
	Gate      *reputation.Gate
	Catalog   *network.Catalog
	Tracker   Tracker
	Resolved  *events.Topic[types.Resolution]
	Logger    *zap.Logger
	Metrics   *monitoring.Metrics
	Config    Config

	policy *bluemonday.Policy
}

// Init fills unset collaborators with defaults
func (e *Env) Init() {
	if e.Context == nil {
		e.Context = context.Background()
	}
	if e.Navigator == nil {
		e.Navigator = NopNavigator{}
	}
	if e.Catalog == nil {
		e.Catalog = network.Default()
	}
	if e.Logger == nil {
		e.Logger = zap.NewNop()
	}
	if e.policy == nil {
		e.policy = bluemonday.StrictPolicy()
	}
}

func (e *Env) track(event string, props map[string]any) {
	if e.Tracker != nil {
		e.Tracker.Track(event, props)
	}
}

// sanitize strips markup from dapp supplied text
func (e *Env) sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(e.policy.Sanitize(s)))
}

// sanitizeURL keeps http(s) URLs only. A bare host ("evil.example",
// "evil.example:8080/path") is read as https.
func (e *Env) sanitizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || strings.Contains(u.Scheme, ".") {
			raw = "https://" + raw
		}
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}
