package events

import (
	"sync"

	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/id"
)

// Handler receives published values
type Handler[T any] func(T)

// Topic delivers values of one type to its subscribers
type Topic[T any] struct {
	name string

	mu       sync.RWMutex
	handlers []handlerEntry[T]
}

type handlerEntry[T any] struct {
	id      id.SubscriptionID
	handler Handler[T]
}

// NewTopic creates a topic
func NewTopic[T any](name string) *Topic[T] {
	return &Topic[T]{name: name}
}

// Name returns the topic name
func (t *Topic[T]) Name() string {
	return t.name
}

// Subscribe registers h and returns the handle that removes it
func (t *Topic[T]) Subscribe(h Handler[T]) *Subscription {
	subID := id.NewSubscriptionID()

	t.mu.Lock()
	t.handlers = append(t.handlers, handlerEntry[T]{id: subID, handler: h})
	t.mu.Unlock()

	return &Subscription{
		id:    subID,
		topic: t.name,
		cancel: func() {
			t.remove(subID)
		},
	}
}

// Publish calls every handler in subscription order on the caller's goroutine
func (t *Topic[T]) Publish(v T) {
	t.mu.RLock()
	handlers := make([]handlerEntry[T], len(t.handlers))
	copy(handlers, t.handlers)
	t.mu.RUnlock()

	for _, h := range handlers {
		h.handler(v)
	}
}

// Subscribers returns the number of live subscriptions
func (t *Topic[T]) Subscribers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handlers)
}

func (t *Topic[T]) remove(subID id.SubscriptionID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, h := range t.handlers {
		if h.id == subID {
			t.handlers = append(t.handlers[:i:i], t.handlers[i+1:]...)
			return
		}
	}
}

// Subscription is the handle returned by Subscribe
type Subscription struct {
	id     id.SubscriptionID
	topic  string
	once   sync.Once
	cancel func()
}

// ID returns the subscription identifier
func (s *Subscription) ID() id.SubscriptionID {
	return s.id
}

// Topic returns the name of the subscribed topic
func (s *Subscription) Topic() string {
	return s.topic
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Scope owns a set of subscriptions
type Scope struct {
	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

// Add takes ownership of sub. Adding to a closed scope unsubscribes at once.
func (s *Scope) Add(sub *Subscription) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
}

// Len returns the number of owned subscriptions
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close releases every owned subscription
func (s *Scope) Close() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.closed = true
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}
