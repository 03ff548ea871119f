package walletconnect

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrEmptyTopic is returned when a request is registered without a topic
var ErrEmptyTopic = errors.New("empty topic")

// RequestRegistry counts outstanding requests per topic
type RequestRegistry struct {
	mu     sync.RWMutex
	topics map[string]int
}

// NewRequestRegistry creates an empty registry
func NewRequestRegistry() *RequestRegistry {
	return &RequestRegistry{topics: make(map[string]int)}
}

// Add records one outstanding request for topic and returns the new count
func (r *RequestRegistry) Add(topic string) (int, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return 0, ErrEmptyTopic
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics[topic]++
	return r.topics[topic], nil
}

// Remove clears every outstanding request for topic. Returns whether any existed.
func (r *RequestRegistry) Remove(topic string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.topics[topic]
	delete(r.topics, topic)
	return ok
}

// Count returns the number of outstanding requests for topic
func (r *RequestRegistry) Count(topic string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.topics[topic]
}

// HasRequests reports whether topic has outstanding requests
func (r *RequestRegistry) HasRequests(_ context.Context, topic string) bool {
	return r.Count(topic) > 0
}

// Topics lists topics with outstanding requests in sorted order
func (r *RequestRegistry) Topics() []string {
	r.mu.RLock()
	topics := make([]string, 0, len(r.topics))
	for topic := range r.topics {
		topics = append(topics, topic)
	}
	r.mu.RUnlock()

	sort.Strings(topics)
	return topics
}

// Reset drops everything
func (r *RequestRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.topics)
}
