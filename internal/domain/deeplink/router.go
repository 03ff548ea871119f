package deeplink

import (
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/id"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

// Origin identifies who handed a link to the router
type Origin string

const (
	OriginSystemLink  Origin = "system_link"
	OriginAttribution Origin = "attribution"
	OriginInitialURL  Origin = "initial_url"
)

// Source maps the origin to the request's source channel
func (o Origin) Source() types.SourceChannel {
	if o == OriginAttribution {
		return types.SourceBranch
	}
	return types.SourceSystemLink
}

// Attribution parameters the decision table looks at
const (
	ParamNonBranchLink     = "+non_branch_link"
	ParamClickedBranchLink = "+clicked_branch_link"
)

// AttributionEvent is one callback from the attribution SDK
type AttributionEvent struct {
	Error  string         `json:"error"`
	Params map[string]any `json:"params"`
	URI    string         `json:"uri"`
}

// Config controls router behaviour
type Config struct {
	// TestMode routes the attribution SDK's init echo, for test fixtures
	TestMode  bool
	DedupTTL  time.Duration
	DedupSize int
}

// Router classifies links and suppresses repeats
type Router struct {
	cfg     Config
	logger  *zap.Logger
	metrics *monitoring.Metrics
	now     func() time.Time

	mu             sync.Mutex
	queued         *expirable.LRU[string, struct{}]
	initialChecked bool
}

// NewRouter creates a router. metrics may be nil.
func NewRouter(cfg Config, logger *zap.Logger, metrics *monitoring.Metrics) *Router {
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = 10 * time.Second
	}
	if cfg.DedupSize <= 0 {
		cfg.DedupSize = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Router{
		cfg:     cfg,
		logger:  logger.Named("deeplink"),
		metrics: metrics,
		now:     time.Now,
		queued:  expirable.NewLRU[string, struct{}](cfg.DedupSize, nil, cfg.DedupTTL),
	}
}

// Route classifies uri. The second result is false for a no-op: an empty
// link, a repeat of a link still held, or a second initial-URL check.
func (r *Router) Route(uri string, origin Origin) (types.IncomingRequest, bool) {
	uri = strings.TrimSpace(uri)

	r.mu.Lock()
	if origin == OriginInitialURL {
		if r.initialChecked {
			r.mu.Unlock()
			r.drop("initial_url_repeat", uri, origin)
			return types.IncomingRequest{}, false
		}
		r.initialChecked = true
	}
	if uri == "" {
		r.mu.Unlock()
		r.drop("empty_uri", uri, origin)
		return types.IncomingRequest{}, false
	}

	kind, payload := Classify(uri)
	key := types.NormalizeURI(payload.URI)
	if r.queued.Contains(key) {
		r.mu.Unlock()
		r.drop("duplicate_uri", uri, origin)
		return types.IncomingRequest{}, false
	}
	r.queued.Add(key, struct{}{})
	r.mu.Unlock()

	req := types.IncomingRequest{
		ID:         string(id.NewRequestID()),
		Kind:       kind,
		Source:     origin.Source(),
		Payload:    payload,
		ReceivedAt: r.now(),
	}

	r.metrics.RecordRouted(string(origin), string(kind))
	r.logger.Debug("Routed link",
		zap.String("request_id", req.ID),
		zap.String("kind", string(kind)),
		zap.String("origin", string(origin)),
		zap.String("topic", payload.Topic))

	return req, true
}

// HandleAttribution applies the attribution decision table, first match wins
func (r *Router) HandleAttribution(ev AttributionEvent) (types.IncomingRequest, bool) {
	if ev.Error != "" {
		r.logger.Error("Attribution callback failed", zap.String("error", ev.Error))
		r.drop("attribution_error", ev.URI, OriginAttribution)
		return types.IncomingRequest{}, false
	}

	if link, ok := ev.Params[ParamNonBranchLink]; ok {
		s, _ := link.(string)
		return r.Route(s, OriginAttribution)
	}

	if !truthy(ev.Params[ParamClickedBranchLink]) {
		// SDK init echo, nothing was opened
		if r.cfg.TestMode {
			return r.Route(ev.URI, OriginAttribution)
		}
		r.drop("init_echo", ev.URI, OriginAttribution)
		return types.IncomingRequest{}, false
	}

	return r.Route(ev.URI, OriginAttribution)
}

// Release forgets uri so that a later delivery routes again
func (r *Router) Release(uri string) {
	_, payload := Classify(strings.TrimSpace(uri))
	key := types.NormalizeURI(payload.URI)

	r.mu.Lock()
	r.queued.Remove(key)
	r.mu.Unlock()
}

// Held reports whether uri is in the already-queued set
func (r *Router) Held(uri string) bool {
	_, payload := Classify(strings.TrimSpace(uri))
	key := types.NormalizeURI(payload.URI)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queued.Contains(key)
}

func (r *Router) drop(reason, uri string, origin Origin) {
	r.metrics.RecordDropped(reason)
	r.logger.Debug("Link not routed",
		zap.String("reason", reason),
		zap.String("origin", string(origin)),
		zap.String("uri", uri))
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "1"
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	return false
}
