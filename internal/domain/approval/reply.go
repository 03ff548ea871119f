package approval

import "sync/atomic"

// Reply is the one-shot answer channel of a session
type Reply struct {
	fn atomic.Pointer[func(bool)]
}

// NewReply wraps fn. A nil fn gives a reply that nobody listens to.
func NewReply(fn func(bool)) *Reply {
	r := &Reply{}
	if fn != nil {
		r.fn.Store(&fn)
	}
	return r
}

// Pending reports whether the reply has not been taken yet
func (r *Reply) Pending() bool {
	return r != nil && r.fn.Load() != nil
}

// take removes the reply function. Only the first caller gets it.
func (r *Reply) take() func(bool) {
	if r == nil {
		return nil
	}
	if fn := r.fn.Swap(nil); fn != nil {
		return *fn
	}
	return nil
}
