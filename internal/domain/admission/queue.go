package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/approval"
	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/eventloop"
	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/id"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

var (
	// ErrUnknownSession is returned for a session id the queue does not hold
	ErrUnknownSession = errors.New("unknown session")
	// ErrDuplicate is returned when a request collapses into a held session
	ErrDuplicate = errors.New("duplicate request")
	// ErrClosed is returned after Shutdown
	ErrClosed = errors.New("admission queue closed")
)

// RequestLookup reports whether the connection layer already holds
// outstanding requests for a topic
type RequestLookup interface {
	HasRequests(ctx context.Context, topic string) bool
}

// RequestLookupFunc adapts a function to RequestLookup
type RequestLookupFunc func(ctx context.Context, topic string) bool

// HasRequests calls f
func (f RequestLookupFunc) HasRequests(ctx context.Context, topic string) bool {
	return f(ctx, topic)
}

// Restorer reloads prior connection state when the app comes back to the foreground
type Restorer func(ctx context.Context) error

// Config holds queue timing
type Config struct {
	PushSyncDelay    time.Duration
	ResolvedTopicTTL time.Duration
	RestoreTimeout   time.Duration
}

// Deps are the queue's collaborators
type Deps struct {
	Env      *approval.Env
	Lookup   RequestLookup
	Restorer Restorer
	// Consumed is called once a routed request has been folded into a session
	Consumed func(types.IncomingRequest)
	Logger   *zap.Logger
	Metrics  *monitoring.Metrics
}

// Queue is the single-slot admission pipeline
type Queue struct {
	cfg      Config
	env      *approval.Env
	loop     *eventloop.Loop
	lookup   RequestLookup
	restorer Restorer
	consumed func(types.IncomingRequest)
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	// Owned by the loop
	lifecycle types.LifecycleSnapshot
	active    *approval.Session
	pending   []*approval.Session
	byKey     map[string]*approval.Session
	byTopic   map[string]*approval.Session
	sessions  map[id.SessionID]*approval.Session
	restoring int
	closed    bool
	drained   chan struct{}

	resolved *expirable.LRU[string, time.Time]
}

// New creates a queue. The lifecycle starts active with the initial route
// unresolved, so nothing is presented until SetLifecycle says otherwise.
func New(cfg Config, deps Deps) *Queue {
	if cfg.PushSyncDelay < 0 {
		cfg.PushSyncDelay = 0
	}
	if cfg.ResolvedTopicTTL <= 0 {
		cfg.ResolvedTopicTTL = 30 * time.Second
	}
	if cfg.RestoreTimeout <= 0 {
		cfg.RestoreTimeout = 5 * time.Second
	}
	deps.Env.Init()
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	lookup := deps.Lookup
	if lookup == nil {
		lookup = RequestLookupFunc(func(context.Context, string) bool { return false })
	}
	consumed := deps.Consumed
	if consumed == nil {
		consumed = func(types.IncomingRequest) {}
	}

	return &Queue{
		cfg:       cfg,
		env:       deps.Env,
		loop:      deps.Env.Loop,
		lookup:    lookup,
		restorer:  deps.Restorer,
		consumed:  consumed,
		logger:    logger.Named("admission"),
		metrics:   deps.Metrics,
		lifecycle: types.LifecycleSnapshot{AppState: types.AppStateActive},
		byKey:     make(map[string]*approval.Session),
		byTopic:   make(map[string]*approval.Session),
		sessions:  make(map[id.SessionID]*approval.Session),
		drained:   make(chan struct{}),
		resolved:  expirable.NewLRU[string, time.Time](1024, nil, cfg.ResolvedTopicTTL),
	}
}

// Admit queues req for presentation. reply may be nil.
func (q *Queue) Admit(req types.IncomingRequest, reply func(bool)) {
	r := approval.NewReply(reply)
	if !q.loop.Post(func() { _, _ = q.admit(req, r) }) {
		q.logger.Warn("Queue closed, rejecting request", zap.String("request_id", req.ID))
		if fn := reply; fn != nil {
			fn(false)
		}
	}
}

// Submit admits req and waits for the id of the session created for it.
// A refused request still gets its reply.
func (q *Queue) Submit(req types.IncomingRequest, reply func(bool)) (string, error) {
	r := approval.NewReply(reply)
	var (
		sessionID string
		err       error
	)
	if doErr := q.loop.Do(func() {
		var s *approval.Session
		if s, err = q.admit(req, r); err == nil {
			sessionID = string(s.ID())
		}
	}); doErr != nil {
		if fn := reply; fn != nil {
			fn(false)
		}
		return "", fmt.Errorf("%w: %v", ErrClosed, doErr)
	}
	return sessionID, err
}

// AdmitPush admits a push-delivered request after the push sync delay
func (q *Queue) AdmitPush(req types.IncomingRequest) {
	q.loop.After(q.cfg.PushSyncDelay, func() {
		q.admitPushed(req)
	})
}

// SetLifecycle records the app's presentation state
func (q *Queue) SetLifecycle(snapshot types.LifecycleSnapshot) {
	q.loop.Post(func() {
		q.setLifecycle(snapshot)
	})
}

// UpdateLifecycle applies fn to the current snapshot
func (q *Queue) UpdateLifecycle(fn func(types.LifecycleSnapshot) types.LifecycleSnapshot) {
	q.loop.Post(func() {
		q.setLifecycle(fn(q.lifecycle))
	})
}

// Lifecycle returns the current snapshot
func (q *Queue) Lifecycle() types.LifecycleSnapshot {
	var snap types.LifecycleSnapshot
	_ = q.loop.Do(func() { snap = q.lifecycle })
	return snap
}

func (q *Queue) admit(req types.IncomingRequest, reply *approval.Reply) (*approval.Session, error) {
	if err := req.Validate(); err != nil {
		q.drop("malformed", req, zap.Error(err))
		q.refuse(req, reply)
		return nil, err
	}
	if q.closed {
		q.drop("closed", req)
		q.refuse(req, reply)
		return nil, ErrClosed
	}

	if existing := q.duplicateOf(req); existing != nil {
		q.drop("duplicate", req, zap.String("session_id", string(existing.ID())))
		q.refuse(req, reply)
		q.consumed(req)
		return nil, fmt.Errorf("%w: held by %s", ErrDuplicate, existing.ID())
	}

	s := approval.NewSession(q.env, req, reply)
	s.OnSettled(q.settled)
	q.byKey[req.Key()] = s
	if topic := req.Payload.Topic; topic != "" {
		q.byTopic[topic] = s
	}
	q.sessions[s.ID()] = s
	q.pending = append(q.pending, s)

	q.metrics.RecordAdmitted(string(req.Kind), string(req.Source))
	q.logger.Debug("Request admitted",
		zap.String("request_id", req.ID),
		zap.String("session_id", string(s.ID())),
		zap.String("key", req.Key()))

	q.consumed(req)
	q.pump()
	return s, nil
}

// refuse answers a request that never gets its own presented session
func (q *Queue) refuse(req types.IncomingRequest, reply *approval.Reply) {
	if !reply.Pending() {
		return
	}
	s := approval.NewSession(q.env, req, reply)
	s.Supersede()
}

func (q *Queue) admitPushed(req types.IncomingRequest) {
	if existing := q.duplicateOf(req); existing != nil {
		q.drop("duplicate_push", req, zap.String("session_id", string(existing.ID())))
		return
	}

	topic := req.Payload.Topic
	if topic != "" {
		if at, ok := q.resolved.Get(topic); ok {
			q.drop("resolved_topic", req, zap.Time("resolved_at", at))
			return
		}
	}

	if req.Payload.URI == "" {
		// A bare topic carries nothing to approve. Outstanding requests for
		// it are surfaced by the connection itself.
		if topic != "" && q.lookup.HasRequests(q.env.Context, topic) {
			q.drop("outstanding_request", req)
		} else {
			q.drop("no_payload", req)
		}
		return
	}

	_, _ = q.admit(req, approval.NewReply(nil))
}

func (q *Queue) duplicateOf(req types.IncomingRequest) *approval.Session {
	if s, ok := q.byKey[req.Key()]; ok {
		return s
	}
	if topic := req.Payload.Topic; topic != "" {
		if s, ok := q.byTopic[topic]; ok {
			return s
		}
	}
	return nil
}

func (q *Queue) setLifecycle(snapshot types.LifecycleSnapshot) {
	prev := q.lifecycle
	q.lifecycle = snapshot

	q.logger.Debug("Lifecycle changed",
		zap.String("from", string(prev.AppState)),
		zap.String("to", string(snapshot.AppState)),
		zap.Bool("initial_route_resolved", snapshot.InitialRouteResolved))

	if prev.AppState == types.AppStateBackground && snapshot.AppState == types.AppStateActive && q.restorer != nil {
		q.startRestore()
		return
	}
	q.pump()
}

// startRestore runs the restorer off the loop; presentation waits for it
func (q *Queue) startRestore() {
	q.restoring++
	restorer := q.restorer
	ctx, cancel := context.WithTimeout(q.env.Context, q.cfg.RestoreTimeout)

	go func() {
		defer cancel()
		err := restorer(ctx)
		q.loop.Post(func() {
			q.restoring--
			if err != nil {
				q.logger.Warn("Restore failed, flushing queue anyway", zap.Error(err))
			} else {
				q.logger.Debug("Restore finished")
			}
			q.pump()
		})
	}()
}

// pump opens the next session when the slot is free and presentation is allowed
func (q *Queue) pump() {
	defer q.metrics.SetQueueDepth(len(q.pending))

	if q.active != nil || q.restoring > 0 || q.closed || !q.lifecycle.CanPresent() {
		return
	}

	for len(q.pending) > 0 {
		s := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]

		if s.Handled() {
			continue
		}

		req := s.Request()
		if req.Kind == types.KindConnect && req.Source.External() && req.Payload.Topic != "" &&
			q.lookup.HasRequests(q.env.Context, req.Payload.Topic) {
			q.drop("outstanding_request", req, zap.String("session_id", string(s.ID())))
			s.Supersede()
			continue
		}

		q.active = s
		if err := s.Open(); err != nil {
			q.logger.Error("Failed to open session", zap.String("session_id", string(s.ID())), zap.Error(err))
			q.active = nil
			continue
		}
		return
	}
}

// settled runs after a session's reply was delivered
func (q *Queue) settled(s *approval.Session) {
	req := s.Request()
	if q.byKey[req.Key()] == s {
		delete(q.byKey, req.Key())
	}
	if topic := req.Payload.Topic; topic != "" {
		if q.byTopic[topic] == s {
			delete(q.byTopic, topic)
		}
		q.resolved.Add(topic, s.Resolution().ResolvedAt)
	}
	delete(q.sessions, s.ID())

	if q.active == s {
		q.active = nil
		// Next session opens on a later tick than the one that cleared the slot
		q.loop.Post(q.pump)
	} else {
		q.unqueue(s)
	}
	q.checkDrained()
}

// unqueue removes a session that settled before it was presented
func (q *Queue) unqueue(s *approval.Session) {
	for i, p := range q.pending {
		if p == s {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			q.metrics.SetQueueDepth(len(q.pending))
			return
		}
	}
}

// checkDrained closes the drained channel once a closed queue holds nothing
func (q *Queue) checkDrained() {
	if !q.closed || len(q.sessions) > 0 {
		return
	}
	select {
	case <-q.drained:
	default:
		close(q.drained)
	}
}

func (q *Queue) drop(reason string, req types.IncomingRequest, fields ...zap.Field) {
	q.metrics.RecordDropped(reason)
	q.logger.Debug("Request dropped", append([]zap.Field{
		zap.String("reason", reason),
		zap.String("request_id", req.ID),
		zap.String("kind", string(req.Kind)),
		zap.String("source", string(req.Source)),
		zap.String("topic", req.Payload.Topic),
	}, fields...)...)
}
