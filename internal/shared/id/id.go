// Package id provides ULID-based identifiers for the pipeline.
//
// Every identifier carries a short type prefix so log lines stay readable:
// req_* for physical request deliveries, sess_* for approval sessions,
// sub_* for event subscriptions and cmd_* for commands sent to the shell.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestID identifies one physical delivery of a request
type RequestID string

// SessionID identifies an approval session
type SessionID string

// SubscriptionID identifies an event subscription
type SubscriptionID string

// CommandID identifies a command awaiting acknowledgement from the shell
type CommandID string

const (
	RequestPrefix      = "req"
	SessionPrefix      = "sess"
	SubscriptionPrefix = "sub"
	CommandPrefix      = "cmd"
)

// Generator generates monotonic ULIDs
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader)
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// IDs generated within the same millisecond stay strictly increasing.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0),
		now:     time.Now,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewSubscriptionID generates a new subscription ID
func NewSubscriptionID() SubscriptionID {
	return SubscriptionID(Default().GenerateWithPrefix(SubscriptionPrefix))
}

// NewCommandID generates a new command ID
func NewCommandID() CommandID {
	return CommandID(Default().GenerateWithPrefix(CommandPrefix))
}

func (id RequestID) String() string      { return string(id) }
func (id SessionID) String() string      { return string(id) }
func (id SubscriptionID) String() string { return string(id) }
func (id CommandID) String() string      { return string(id) }

// Split separates a prefixed ID into prefix and ULID
func Split(prefixed string) (string, ulid.ULID, error) {
	prefix, raw, ok := strings.Cut(prefixed, "_")
	if !ok {
		return "", ulid.ULID{}, fmt.Errorf("id %q has no prefix", prefixed)
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return "", ulid.ULID{}, fmt.Errorf("id %q: %w", prefixed, err)
	}
	return prefix, parsed, nil
}

// HasPrefix reports whether id is a valid ULID carrying the given prefix
func HasPrefix(prefixed, prefix string) bool {
	p, _, err := Split(prefixed)
	return err == nil && p == prefix
}

// Timestamp extracts the creation time of a prefixed ID
func Timestamp(prefixed string) (time.Time, error) {
	_, parsed, err := Split(prefixed)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
