package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker rejects calls
var ErrOpen = errors.New("circuit breaker is open")

// State represents the breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures when the breaker trips and recovers
type Settings struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker
	FailureThreshold int
	// Cooldown is how long the breaker stays open before allowing a probe
	Cooldown time.Duration
	// OnStateChange is called with the lock released
	OnStateChange func(name string, from, to State)
	// Now overrides the clock, for tests
	Now func() time.Time
}

// Breaker guards an unreliable upstream. While open every call fails fast
// with ErrOpen; after the cooldown exactly one probe call is let through.
type Breaker struct {
	name     string
	settings Settings

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// New creates a breaker, filling unset settings with defaults
func New(name string, settings Settings) *Breaker {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &Breaker{name: name, settings: settings}
}

// Name returns the breaker name
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, promoting open to half-open once the
// cooldown has elapsed
func (b *Breaker) State() State {
	b.mu.Lock()
	from, to := b.advance()
	state := b.state
	b.mu.Unlock()

	b.notify(from, to)
	return state
}

// Failures returns the current consecutive failure count
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Call runs fn through the breaker and returns its result
func Call[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if err := b.acquire(); err != nil {
		return zero, err
	}

	ok := false
	defer func() {
		b.release(ok)
	}()

	result, err := fn()
	ok = err == nil
	return result, err
}

// Do runs fn through the breaker
func (b *Breaker) Do(fn func() error) error {
	_, err := Call(b, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func (b *Breaker) acquire() error {
	b.mu.Lock()
	from, to := b.advance()
	var err error
	switch b.state {
	case StateOpen:
		err = ErrOpen
	case StateHalfOpen:
		if b.probing {
			err = ErrOpen
		} else {
			b.probing = true
		}
	}
	b.mu.Unlock()

	b.notify(from, to)
	return err
}

func (b *Breaker) release(success bool) {
	b.mu.Lock()
	from := b.state
	switch {
	case success:
		b.failures = 0
		b.state = StateClosed
	case b.state == StateHalfOpen:
		b.trip()
	default:
		b.failures++
		if b.failures >= b.settings.FailureThreshold {
			b.trip()
		}
	}
	b.probing = false
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

// trip opens the breaker; caller holds the lock
func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = b.settings.Now()
}

// advance applies the cooldown transition; caller holds the lock
func (b *Breaker) advance() (State, State) {
	from := b.state
	if b.state == StateOpen && b.settings.Now().Sub(b.openedAt) >= b.settings.Cooldown {
		b.state = StateHalfOpen
		b.probing = false
	}
	return from, b.state
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
