package approval

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/reputation"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/id"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

var (
	// ErrResolved is returned for actions on a finished session
	ErrResolved = errors.New("session already resolved")
	// ErrNotAwaiting is returned for user actions before the session is presented
	ErrNotAwaiting = errors.New("session is not awaiting the user")
	// ErrAlreadyOpen is returned when opening a session twice
	ErrAlreadyOpen = errors.New("session already opened")
	// ErrRiskPending is returned for accept while the risk alert is on screen
	ErrRiskPending = errors.New("risk alert awaiting a choice")
	// ErrNoRiskAlert is returned for a risk choice without an alert
	ErrNoRiskAlert = errors.New("no risk alert pending")
	// ErrUnknownChoice is returned for a risk choice that is neither proceed nor ignore
	ErrUnknownChoice = errors.New("unknown risk choice")
)

// RiskChoice is the user's answer to the risk alert
type RiskChoice string

const (
	RiskProceed RiskChoice = "proceed"
	RiskIgnore  RiskChoice = "ignore"
)

// Session is one approval, from admission to resolution
type Session struct {
	id    id.SessionID
	req   types.IncomingRequest
	env   *Env
	reply *Reply

	status     types.SessionStatus
	risk       types.RiskState
	network    types.NetworkDescriptor
	reason     types.ResolutionReason
	handled    bool
	presented  bool
	alertOpen  bool
	createdAt  time.Time
	resolvedAt time.Time

	settled []func(*Session)
}

// NewSession creates a Pending session for req
func NewSession(env *Env, req types.IncomingRequest, reply *Reply) *Session {
	env.Init()

	s := &Session{
		id:        id.NewSessionID(),
		req:       req,
		env:       env,
		reply:     reply,
		status:    types.StatusPending,
		risk:      types.RiskUnchecked,
		createdAt: env.Loop.Clock().Now(),
	}
	if reply == nil {
		s.reply = NewReply(nil)
	}

	if req.Kind == types.KindSwitchChain {
		s.network = env.Catalog.Preselect(req.Payload.ChainID)
	} else {
		s.network = env.Catalog.DefaultNetwork()
	}
	return s
}

// ID returns the session id
func (s *Session) ID() id.SessionID { return s.id }

// Request returns the admitted request
func (s *Session) Request() types.IncomingRequest { return s.req }

// Key returns the dedup key of the request
func (s *Session) Key() string { return s.req.Key() }

// Status returns the current state
func (s *Session) Status() types.SessionStatus { return s.status }

// Risk returns the reputation check state
func (s *Session) Risk() types.RiskState { return s.risk }

// Network returns the selected network
func (s *Session) Network() types.NetworkDescriptor { return s.network }

// Handled reports whether a terminal resolution was committed
func (s *Session) Handled() bool { return s.handled }

// Presented reports whether the approval UI was shown
func (s *Session) Presented() bool { return s.presented }

// OnSettled registers fn to run after the reply has been delivered
func (s *Session) OnSettled(fn func(*Session)) {
	s.settled = append(s.settled, fn)
}

// Open presents the session. Connect sessions start the reputation check
// first; the UI does not wait for it.
func (s *Session) Open() error {
	if s.handled {
		return ErrResolved
	}
	if s.status != types.StatusPending {
		return ErrAlreadyOpen
	}

	if s.req.Kind == types.KindConnect {
		s.status = types.StatusRiskChecking
		s.startRiskCheck()
	}

	s.status = types.StatusAwaitingUser
	s.presented = true
	s.env.Navigator.PresentApproval(s.View())
	s.env.track(EventSessionShown, map[string]any{
		"dappName": s.req.Payload.DappName,
		"dappUrl":  s.req.Payload.DappURL,
		"type":     string(s.req.Kind),
	})

	s.env.Logger.Info("Session presented",
		zap.String("session_id", string(s.id)),
		zap.String("kind", string(s.req.Kind)),
		zap.String("source", string(s.req.Source)),
		zap.String("topic", s.req.Payload.Topic))
	return nil
}

// Accept resolves the session as approved
func (s *Session) Accept() error {
	if err := s.guardUserAction(); err != nil {
		return err
	}
	if s.alertOpen {
		return ErrRiskPending
	}
	s.resolve(types.StatusAccepted, types.ReasonUser)
	return nil
}

// Reject resolves the session as declined
func (s *Session) Reject() error {
	if err := s.guardUserAction(); err != nil {
		return err
	}
	s.resolve(types.StatusRejected, types.ReasonUser)
	return nil
}

// SelectNetwork changes the target network without leaving AwaitingUser
func (s *Session) SelectNetwork(value string) error {
	if err := s.guardUserAction(); err != nil {
		return err
	}
	n, err := s.env.Catalog.Select(value)
	if err != nil {
		return err
	}
	s.network = n
	return nil
}

// ResolveRisk applies the user's answer to the risk alert
func (s *Session) ResolveRisk(choice RiskChoice) error {
	if s.handled {
		return ErrResolved
	}
	if !s.alertOpen {
		return ErrNoRiskAlert
	}

	switch choice {
	case RiskProceed:
		s.alertOpen = false
		s.risk = types.RiskOverruled
		s.env.Logger.Info("User proceeded past risk alert", zap.String("session_id", string(s.id)))
	case RiskIgnore:
		s.resolve(types.StatusRejected, types.ReasonForced)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChoice, choice)
	}
	return nil
}

// Teardown handles the UI going away without an answer. An unresolved
// session becomes Rejected. Returns false when it was already resolved.
func (s *Session) Teardown() bool {
	if s.handled {
		return false
	}
	s.resolve(types.StatusRejected, types.ReasonTeardown)
	return true
}

// Supersede closes an unresolved session without user involvement
func (s *Session) Supersede() bool {
	if s.handled {
		return false
	}
	s.resolve(types.StatusSuperseded, types.ReasonSuperseded)
	return true
}

// Resolution returns the outcome record. Zero until the session is handled.
func (s *Session) Resolution() types.Resolution {
	if !s.handled {
		return types.Resolution{}
	}
	return types.Resolution{
		SessionID:  string(s.id),
		RequestKey: s.req.Key(),
		Kind:       s.req.Kind,
		Topic:      s.req.Payload.Topic,
		Status:     s.status,
		Reason:     s.reason,
		Approved:   s.status == types.StatusAccepted,
		Network:    s.network,
		ResolvedAt: s.resolvedAt,
	}
}

// View projects the session for the UI
func (s *Session) View() types.SessionView {
	p := s.req.Payload
	chainID := p.ChainID
	if chainID <= 0 {
		chainID = 1
	}

	return types.SessionView{
		ID:            string(s.id),
		RequestID:     s.req.ID,
		Kind:          s.req.Kind,
		Source:        s.req.Source,
		Status:        s.status,
		DappName:      s.env.sanitize(p.DappName),
		DappURL:       s.env.sanitizeURL(p.DappURL),
		DappHost:      reputation.Hostname(s.env.sanitizeURL(p.DappURL)),
		Authenticated: reputation.Authenticated(p.DappURL),
		ImageURL:      s.env.sanitizeURL(p.ImageURL),
		ChainID:       chainID,
		ChainName:     s.env.Catalog.NameForChainID(chainID),
		Network:       s.network,
		Networks:      s.env.Catalog.Available(),
		Risk:          s.risk,
		CreatedAt:     s.createdAt,
	}
}

func (s *Session) guardUserAction() error {
	if s.handled {
		return ErrResolved
	}
	if s.status != types.StatusAwaitingUser {
		return ErrNotAwaiting
	}
	return nil
}

// startRiskCheck runs the gate once off the loop and posts the verdict back
func (s *Session) startRiskCheck() {
	s.risk = types.RiskChecking
	gate := s.env.Gate
	ctx := s.env.Context
	dappURL := s.req.Payload.DappURL

	go func() {
		verdict := gate.Check(ctx, dappURL)
		s.env.Loop.Post(func() {
			s.applyVerdict(verdict)
		})
	}()
}

func (s *Session) applyVerdict(v reputation.Verdict) {
	if s.handled {
		return
	}
	if !v.Flagged {
		s.risk = types.RiskClear
		return
	}

	s.risk = types.RiskFlagged
	s.env.Logger.Warn("Dapp flagged by reputation gate",
		zap.String("session_id", string(s.id)),
		zap.String("dapp_url", s.req.Payload.DappURL))

	if s.env.Config.AutoRejectFlagged {
		s.resolve(types.StatusRejected, types.ReasonForced)
		return
	}
	s.alertOpen = true
	s.env.Navigator.PresentRiskAlert(s.View())
}

// resolve commits the terminal transition. The reply is taken here and
// delivered after the callback delay, followed by the settle hooks.
func (s *Session) resolve(status types.SessionStatus, reason types.ResolutionReason) {
	s.handled = true
	s.status = status
	s.reason = reason
	s.alertOpen = false
	s.resolvedAt = s.env.Loop.Clock().Now()

	if s.presented && reason != types.ReasonTeardown {
		s.env.Navigator.Dismiss(string(s.id))
	}

	reply := s.reply.take()
	approved := status == types.StatusAccepted
	resolution := s.Resolution()

	s.env.Metrics.RecordResolved(string(status), string(reason))
	s.env.Logger.Info("Session resolved",
		zap.String("session_id", string(s.id)),
		zap.String("status", string(status)),
		zap.String("reason", string(reason)),
		zap.String("network", s.network.Value))

	s.env.Loop.After(s.env.Config.CallbackDelay, func() {
		s.deliver(reply, approved)
		if s.env.Resolved != nil {
			s.env.Resolved.Publish(resolution)
		}
		for _, fn := range s.settled {
			fn(s)
		}
	})
}

func (s *Session) deliver(reply func(bool), approved bool) {
	if reply == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.env.Logger.Error("Session reply panicked",
				zap.String("session_id", string(s.id)),
				zap.Any("panic", r))
		}
	}()
	reply(approved)
}
