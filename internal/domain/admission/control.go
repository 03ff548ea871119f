package admission

import (
	"fmt"

	"github.com/GriffinCanCode/WalletShell/backend/internal/domain/approval"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/id"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

// Sessions returns views of every unsettled session, the presented one first
func (q *Queue) Sessions() []types.SessionView {
	var views []types.SessionView
	_ = q.loop.Do(func() {
		if q.active != nil {
			views = append(views, q.active.View())
		}
		for _, s := range q.pending {
			views = append(views, s.View())
		}
	})
	return views
}

// Session returns the view of one session
func (q *Queue) Session(sessionID string) (types.SessionView, error) {
	var view types.SessionView
	err := q.With(sessionID, func(s *approval.Session) error {
		view = s.View()
		return nil
	})
	return view, err
}

// Active returns the presented session, if any
func (q *Queue) Active() (types.SessionView, bool) {
	var (
		view types.SessionView
		ok   bool
	)
	_ = q.loop.Do(func() {
		if q.active != nil {
			view, ok = q.active.View(), true
		}
	})
	return view, ok
}

// Depth returns the number of sessions waiting behind the presented one
func (q *Queue) Depth() int {
	n := 0
	_ = q.loop.Do(func() { n = len(q.pending) })
	return n
}

// Held returns the number of sessions that have not settled yet
func (q *Queue) Held() int {
	n := 0
	_ = q.loop.Do(func() { n = len(q.sessions) })
	return n
}

// With runs fn on the loop against a held session
func (q *Queue) With(sessionID string, fn func(*approval.Session) error) error {
	var err error
	if doErr := q.loop.Do(func() {
		s, ok := q.sessions[id.SessionID(sessionID)]
		if !ok {
			err = fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
			return
		}
		err = fn(s)
	}); doErr != nil {
		return doErr
	}
	return err
}

// Accept approves a session
func (q *Queue) Accept(sessionID string) error {
	return q.With(sessionID, (*approval.Session).Accept)
}

// Reject declines a session
func (q *Queue) Reject(sessionID string) error {
	return q.With(sessionID, (*approval.Session).Reject)
}

// Dismiss reports that the approval UI went away without an answer
func (q *Queue) Dismiss(sessionID string) error {
	return q.With(sessionID, func(s *approval.Session) error {
		if !s.Teardown() {
			return approval.ErrResolved
		}
		return nil
	})
}

// SelectNetwork changes a session's network
func (q *Queue) SelectNetwork(sessionID, value string) error {
	return q.With(sessionID, func(s *approval.Session) error {
		return s.SelectNetwork(value)
	})
}

// ResolveRisk applies the user's answer to a risk alert
func (q *Queue) ResolveRisk(sessionID string, choice approval.RiskChoice) error {
	return q.With(sessionID, func(s *approval.Session) error {
		return s.ResolveRisk(choice)
	})
}

// Shutdown supersedes every held session and refuses further admissions
func (q *Queue) Shutdown() {
	_ = q.loop.Do(func() {
		q.closed = true
		if q.active != nil {
			q.active.Supersede()
		}
		for _, s := range q.pending {
			s.Supersede()
		}
		q.pending = nil
		q.metrics.SetQueueDepth(0)
		q.checkDrained()
	})
}

// Drained is closed once the queue is shut down and every session settled
func (q *Queue) Drained() <-chan struct{} {
	return q.drained
}
