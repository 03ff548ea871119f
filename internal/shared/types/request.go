package types

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrMalformedRequest is returned when a request lacks a field its kind needs
var ErrMalformedRequest = errors.New("malformed request")

// RequestKind classifies what the remote party asks for
type RequestKind string

const (
	KindConnect     RequestKind = "connect"
	KindSwitchChain RequestKind = "switch_chain"
	KindRawDeeplink RequestKind = "raw_deeplink"
)

// SourceChannel identifies the channel a request arrived on
type SourceChannel string

const (
	SourcePush       SourceChannel = "push"
	SourceBranch     SourceChannel = "branch"
	SourceSystemLink SourceChannel = "system_link"
	SourceInternal   SourceChannel = "internal"
)

// External reports whether the request came from outside the app process
func (s SourceChannel) External() bool {
	return s != SourceInternal
}

// Payload carries the optional request fields
type Payload struct {
	DappName string `json:"dapp_name,omitempty"`
	DappURL  string `json:"dapp_url,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	ChainID  int64  `json:"chain_id,omitempty"`
	Topic    string `json:"topic,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// IncomingRequest is one physical delivery of a session request
type IncomingRequest struct {
	ID         string        `json:"id"`
	ChannelID  string        `json:"channel_id,omitempty"` // Delivery ID supplied by the channel, if any
	Kind       RequestKind   `json:"kind"`
	Source     SourceChannel `json:"source"`
	Payload    Payload       `json:"payload"`
	ReceivedAt time.Time     `json:"received_at"`
}

// Key returns the logical identity used to collapse duplicate deliveries
func (r IncomingRequest) Key() string {
	switch {
	case r.ChannelID != "":
		return "channel:" + r.ChannelID
	case r.Payload.Topic != "":
		return "topic:" + r.Payload.Topic
	case r.Payload.URI != "":
		return "uri:" + NormalizeURI(r.Payload.URI)
	default:
		return "id:" + r.ID
	}
}

// Validate checks that the payload has the fields required for its kind
func (r IncomingRequest) Validate() error {
	switch r.Kind {
	case KindConnect:
		if r.Payload.Topic == "" && r.Payload.URI == "" {
			return fmt.Errorf("%w: connect request needs a topic or uri", ErrMalformedRequest)
		}
	case KindSwitchChain:
		if r.Payload.ChainID <= 0 {
			return fmt.Errorf("%w: switch_chain request needs a chain id", ErrMalformedRequest)
		}
	case KindRawDeeplink:
		if r.Payload.URI == "" {
			return fmt.Errorf("%w: raw deeplink needs a uri", ErrMalformedRequest)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedRequest, r.Kind)
	}
	return nil
}

// NormalizeURI canonicalizes a URI for deduplication.
// Scheme and host are lowercased, the fragment is dropped and hierarchical
// URIs lose a trailing slash. Opaque URIs (wc:topic@1?...) keep their body.
func NormalizeURI(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Opaque == "" && len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = ""
	}
	return u.String()
}
