package admission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/approval"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/network"
	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/reputation"
	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/eventloop"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

const (
	pushDelay     = 500 * time.Millisecond
	callbackDelay = 300 * time.Millisecond
)

type fakeNavigator struct {
	mu        sync.Mutex
	presented []types.SessionView
	dismissed []string
}

func (n *fakeNavigator) PresentApproval(v types.SessionView) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.presented = append(n.presented, v)
}

func (n *fakeNavigator) PresentRiskAlert(types.SessionView) {}

func (n *fakeNavigator) Dismiss(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dismissed = append(n.dismissed, id)
}

func (n *fakeNavigator) presentedNames() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	names := make([]string, len(n.presented))
	for i, v := range n.presented {
		names[i] = v.DappName
	}
	return names
}

type fakeLookup struct {
	mu     sync.Mutex
	topics map[string]bool
}

func (l *fakeLookup) set(topic string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.topics[topic] = true
}

func (l *fakeLookup) HasRequests(_ context.Context, topic string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.topics[topic]
}

type replies struct {
	mu    sync.Mutex
	calls map[string][]bool
}

func (r *replies) fn(name string) func(bool) {
	return func(v bool) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls[name] = append(r.calls[name], v)
	}
}

func (r *replies) get(name string) []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.calls[name]...)
}

type queueHarness struct {
	t        *testing.T
	loop     *eventloop.Loop
	clock    *eventloop.ManualClock
	nav      *fakeNavigator
	lookup   *fakeLookup
	replies  *replies
	consumed []string
	restore  chan error
	queue    *Queue
}

func newQueueHarness(t *testing.T, withRestorer bool) *queueHarness {
	t.Helper()
	clock := eventloop.NewManualClock(time.Unix(1700000000, 0))
	loop := eventloop.New(zap.NewNop(), clock)
	t.Cleanup(loop.Close)

	h := &queueHarness{
		t:       t,
		loop:    loop,
		clock:   clock,
		nav:     &fakeNavigator{},
		lookup:  &fakeLookup{topics: map[string]bool{}},
		replies: &replies{calls: map[string][]bool{}},
		restore: make(chan error),
	}

	env := &approval.Env{
		Loop:      loop,
		Navigator: h.nav,
		Gate:      reputation.NewGate(nil, time.Second, nil, nil),
		Catalog:   network.Default(),
		Config:    approval.Config{CallbackDelay: callbackDelay},
	}
	deps := Deps{
		Env:    env,
		Lookup: h.lookup,
		Consumed: func(req types.IncomingRequest) {
			h.consumed = append(h.consumed, req.ID)
		},
	}
	if withRestorer {
		deps.Restorer = func(ctx context.Context) error {
			select {
			case err := <-h.restore:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	h.queue = New(Config{PushSyncDelay: pushDelay, ResolvedTopicTTL: time.Minute, RestoreTimeout: time.Minute}, deps)
	return h
}

func (h *queueHarness) lifecycle(state types.AppState, routeResolved bool) {
	h.queue.SetLifecycle(types.LifecycleSnapshot{AppState: state, InitialRouteResolved: routeResolved})
	h.loop.Sync()
}

func (h *queueHarness) ready() {
	h.lifecycle(types.AppStateActive, true)
}

func (h *queueHarness) admit(name string, req types.IncomingRequest) {
	h.queue.Admit(req, h.replies.fn(name))
	h.loop.Sync()
}

func (h *queueHarness) advance(d time.Duration) {
	h.clock.Advance(d)
	h.loop.Sync()
}

func (h *queueHarness) active() types.SessionView {
	h.t.Helper()
	view, ok := h.queue.Active()
	require.True(h.t, ok, "expected a presented session")
	return view
}

func switchReq(name string) types.IncomingRequest {
	return types.IncomingRequest{
		ID:      "req_" + name,
		Kind:    types.KindSwitchChain,
		Source:  types.SourceInternal,
		Payload: types.Payload{DappName: name, ChainID: 1},
	}
}

func connectReq(name, topic string, source types.SourceChannel) types.IncomingRequest {
	return types.IncomingRequest{
		ID:     "req_" + name,
		Kind:   types.KindConnect,
		Source: source,
		Payload: types.Payload{
			DappName: name,
			DappURL:  "https://" + name + ".example",
			Topic:    topic,
			URI:      fmt.Sprintf("wc:%s@1?key=k", topic),
		},
	}
}

func TestSingleSlotFIFO(t *testing.T) {
	h := newQueueHarness(t, false)
	h.ready()

	h.admit("a", switchReq("a"))
	h.admit("b", switchReq("b"))
	h.admit("c", switchReq("c"))

	assert.Equal(t, []string{"a"}, h.nav.presentedNames())
	assert.Equal(t, 2, h.queue.Depth())

	require.NoError(t, h.queue.Accept(h.active().ID))
	h.loop.Sync()
	assert.Equal(t, []string{"a"}, h.nav.presentedNames(), "next waits for the callback")

	h.advance(callbackDelay)
	assert.Equal(t, []bool{true}, h.replies.get("a"))
	assert.Equal(t, []string{"a", "b"}, h.nav.presentedNames())

	require.NoError(t, h.queue.Reject(h.active().ID))
	h.advance(callbackDelay)
	assert.Equal(t, []bool{false}, h.replies.get("b"))
	assert.Equal(t, []string{"a", "b", "c"}, h.nav.presentedNames())
	assert.Zero(t, h.queue.Depth())
}

func TestBufferedUntilInitialRouteResolved(t *testing.T) {
	h := newQueueHarness(t, false)

	h.admit("a", switchReq("a"))
	assert.Empty(t, h.nav.presentedNames())

	h.lifecycle(types.AppStateActive, true)
	assert.Equal(t, []string{"a"}, h.nav.presentedNames())
}

func TestBackgroundBufferFlushesAfterRestore(t *testing.T) {
	h := newQueueHarness(t, true)
	h.ready()
	h.lifecycle(types.AppStateBackground, true)

	h.admit("a", switchReq("a"))
	h.admit("b", switchReq("b"))
	assert.Empty(t, h.nav.presentedNames())

	h.lifecycle(types.AppStateActive, true)
	assert.Empty(t, h.nav.presentedNames(), "restore runs first")

	h.restore <- nil
	require.Eventually(t, func() bool {
		return len(h.nav.presentedNames()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a"}, h.nav.presentedNames())

	require.NoError(t, h.queue.Accept(h.active().ID))
	h.advance(callbackDelay)
	assert.Equal(t, []string{"a", "b"}, h.nav.presentedNames())
}

func TestFailedRestoreStillFlushes(t *testing.T) {
	h := newQueueHarness(t, true)
	h.ready()
	h.lifecycle(types.AppStateBackground, true)
	h.admit("a", switchReq("a"))

	h.lifecycle(types.AppStateActive, true)
	h.restore <- errors.New("bridge unreachable")
	require.Eventually(t, func() bool {
		return len(h.nav.presentedNames()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestPushIsDelayed(t *testing.T) {
	h := newQueueHarness(t, false)
	h.ready()

	h.queue.AdmitPush(connectReq("push", "t1", types.SourcePush))
	h.advance(pushDelay - time.Millisecond)
	assert.Empty(t, h.nav.presentedNames())

	h.advance(time.Millisecond)
	assert.Equal(t, []string{"push"}, h.nav.presentedNames())
}

func TestPushDuplicateOfAwaitingTopic(t *testing.T) {
	h := newQueueHarness(t, false)
	h.ready()

	h.admit("first", connectReq("first", "abc", types.SourceInternal))
	require.Equal(t, []string{"first"}, h.nav.presentedNames())

	dup := connectReq("dup", "abc", types.SourcePush)
	dup.ChannelID = "msg-1"
	h.queue.AdmitPush(dup)
	h.advance(pushDelay)

	assert.Equal(t, []string{"first"}, h.nav.presentedNames(), "no second presentation")
	assert.Equal(t, 0, h.queue.Depth())

	require.NoError(t, h.queue.Accept(h.active().ID))
	h.advance(callbackDelay)
	assert.Equal(t, []bool{true}, h.replies.get("first"), "exactly one callback")
}

func TestPushSkippedWhenTopicResolvedMeanwhile(t *testing.T) {
	h := newQueueHarness(t, false)
	h.ready()

	h.queue.AdmitPush(connectReq("push", "abc", types.SourcePush))
	h.admit("own", connectReq("own", "abc", types.SourceInternal))
	require.NoError(t, h.queue.Reject(h.active().ID))
	h.advance(callbackDelay)

	h.advance(pushDelay)
	assert.Equal(t, []string{"own"}, h.nav.presentedNames())
	_, ok := h.queue.Active()
	assert.False(t, ok)
}

func TestPushTopicOnlyIsNoop(t *testing.T) {
	h := newQueueHarness(t, false)
	h.ready()
	h.lookup.set("outstanding")

	for _, topic := range []string{"outstanding", "unknown"} {
		req := types.IncomingRequest{
			ID:      "req_" + topic,
			Kind:    types.KindConnect,
			Source:  types.SourcePush,
			Payload: types.Payload{Topic: topic},
		}
		h.queue.AdmitPush(req)
	}
	h.advance(pushDelay)

	assert.Empty(t, h.nav.presentedNames())
	assert.Zero(t, h.queue.Held())
}

func TestOutstandingRequestsSuppressExternalConnect(t *testing.T) {
	h := newQueueHarness(t, false)
	h.ready()
	h.lookup.set("abc")

	h.admit("link", connectReq("link", "abc", types.SourceSystemLink))
	assert.Empty(t, h.nav.presentedNames())

	h.advance(callbackDelay)
	assert.Equal(t, []bool{false}, h.replies.get("link"))

	// Requests raised by the connection itself are not suppressed
	h.admit("internal", connectReq("internal", "abc", types.SourceInternal))
	assert.Equal(t, []string{"internal"}, h.nav.presentedNames())
}

func TestSuppressedSessionDoesNotBlockQueue(t *testing.T) {
	h := newQueueHarness(t, false)
	h.lifecycle(types.AppStateActive, false)
	h.lookup.set("abc")

	h.admit("link", connectReq("link", "abc", types.SourceBranch))
	h.admit("next", switchReq("next"))
	h.ready()

	assert.Equal(t, []string{"next"}, h.nav.presentedNames())
}

func TestDuplicateAdmissionSupersedes(t *testing.T) {
	h := newQueueHarness(t, false)
	h.ready()

	h.admit("a", connectReq("a", "abc", types.SourceInternal))
	h.admit("a2", connectReq("a2", "abc", types.SourceInternal))
	h.advance(callbackDelay)

	assert.Equal(t, []bool{false}, h.replies.get("a2"))
	assert.Empty(t, h.replies.get("a"))
	assert.Equal(t, []string{"a"}, h.nav.presentedNames())
	assert.Equal(t, []string{"req_a", "req_a2"}, h.consumed)
}

func TestMalformedRequestDropped(t *testing.T) {
	h := newQueueHarness(t, false)
	h.ready()

	h.admit("bad", types.IncomingRequest{ID: "req_bad", Kind: types.KindSwitchChain, Source: types.SourceInternal})
	h.advance(callbackDelay)

	assert.Empty(t, h.nav.presentedNames())
	assert.Equal(t, []bool{false}, h.replies.get("bad"))
	assert.Empty(t, h.consumed)
}

func TestDismissIsImplicitReject(t *testing.T) {
	h := newQueueHarness(t, false)
	h.ready()

	h.admit("a", switchReq("a"))
	id := h.active().ID
	require.NoError(t, h.queue.Dismiss(id))
	assert.ErrorIs(t, h.queue.Dismiss(id), approval.ErrResolved)
	h.advance(callbackDelay)

	assert.Equal(t, []bool{false}, h.replies.get("a"))
	assert.ErrorIs(t, h.queue.Dismiss(id), ErrUnknownSession)
}

func TestDismissedWhileQueuedLeavesQueue(t *testing.T) {
	h := newQueueHarness(t, false)
	h.ready()

	h.admit("a", switchReq("a"))
	h.admit("b", switchReq("b"))
	views := h.queue.Sessions()
	require.Len(t, views, 2)
	a, b := views[0].ID, views[1].ID

	require.NoError(t, h.queue.Dismiss(b))
	h.advance(time.Second)

	assert.Equal(t, []bool{false}, h.replies.get("b"))
	views = h.queue.Sessions()
	require.Len(t, views, 1)
	assert.Equal(t, a, views[0].ID)
	assert.Equal(t, 0, h.queue.Depth())
	assert.Equal(t, 1, h.queue.Held())
	_, err := h.queue.Session(b)
	assert.ErrorIs(t, err, ErrUnknownSession)

	require.NoError(t, h.queue.Accept(a))
	h.advance(time.Second)
	assert.Equal(t, []bool{true}, h.replies.get("a"))
	assert.Equal(t, []string{"a"}, h.nav.presentedNames())
	assert.Empty(t, h.queue.Sessions())
}

func TestControlAPI(t *testing.T) {
	h := newQueueHarness(t, false)
	h.ready()

	h.admit("a", switchReq("a"))
	h.admit("b", switchReq("b"))

	views := h.queue.Sessions()
	require.Len(t, views, 2)
	assert.Equal(t, "a", views[0].DappName)
	assert.Equal(t, types.StatusAwaitingUser, views[0].Status)
	assert.Equal(t, types.StatusPending, views[1].Status)

	require.NoError(t, h.queue.SelectNetwork(views[0].ID, "optimism"))
	view, err := h.queue.Session(views[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "optimism", view.Network.Value)

	assert.ErrorIs(t, h.queue.Accept(views[1].ID), approval.ErrNotAwaiting)
	assert.ErrorIs(t, h.queue.SelectNetwork(views[0].ID, "kovan"), network.ErrNetworkDisabled)
	assert.ErrorIs(t, h.queue.ResolveRisk(views[0].ID, approval.RiskProceed), approval.ErrNoRiskAlert)

	_, err = h.queue.Session("sess_missing")
	assert.ErrorIs(t, err, ErrUnknownSession)
	assert.Equal(t, 2, h.queue.Held())
}

func TestShutdownSupersedesEverything(t *testing.T) {
	h := newQueueHarness(t, false)
	h.ready()

	h.admit("a", switchReq("a"))
	h.admit("b", switchReq("b"))
	h.queue.Shutdown()
	select {
	case <-h.queue.Drained():
		t.Fatal("drained before replies were delivered")
	default:
	}
	h.advance(callbackDelay)
	<-h.queue.Drained()

	assert.Equal(t, []bool{false}, h.replies.get("a"))
	assert.Equal(t, []bool{false}, h.replies.get("b"))
	assert.Zero(t, h.queue.Held())

	h.admit("late", switchReq("late"))
	h.advance(callbackDelay)
	assert.Equal(t, []bool{false}, h.replies.get("late"))
	assert.Equal(t, []string{"a"}, h.nav.presentedNames())
}

func TestAdmitAfterLoopClosed(t *testing.T) {
	h := newQueueHarness(t, false)
	h.loop.Close()

	var got []bool
	h.queue.Admit(switchReq("a"), func(v bool) { got = append(got, v) })
	assert.Equal(t, []bool{false}, got)
}

func TestSubmitReturnsSessionID(t *testing.T) {
	h := newQueueHarness(t, false)
	h.ready()

	sessionID, err := h.queue.Submit(switchReq("a"), h.replies.fn("a"))
	require.NoError(t, err)
	assert.Equal(t, sessionID, h.active().ID)

	_, err = h.queue.Submit(switchReq("a"), h.replies.fn("dup"))
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = h.queue.Submit(types.IncomingRequest{ID: "x", Kind: types.KindConnect}, nil)
	assert.ErrorIs(t, err, types.ErrMalformedRequest)

	h.advance(callbackDelay)
	assert.Equal(t, []bool{false}, h.replies.get("dup"))

	h.queue.Shutdown()
	_, err = h.queue.Submit(switchReq("b"), nil)
	assert.ErrorIs(t, err, ErrClosed)
}
