package deeplink

import (
	"net/url"
	"strings"

	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

// Classify decides what kind of request a link is. WalletConnect links
// wrapped in a uri query parameter are unwrapped, and the returned payload
// carries the effective link.
func Classify(raw string) (types.RequestKind, types.Payload) {
	if inner, ok := unwrap(raw); ok {
		raw = inner
	}

	if topic, ok := parseWalletConnect(raw); ok {
		return types.KindConnect, types.Payload{Topic: topic, URI: raw}
	}
	return types.KindRawDeeplink, types.Payload{URI: raw}
}

// IsWalletConnect reports whether raw uses a WalletConnect scheme
func IsWalletConnect(raw string) bool {
	scheme, _, ok := strings.Cut(raw, ":")
	if !ok {
		return false
	}
	scheme = strings.ToLower(scheme)
	return scheme == "wc" || scheme == "walletconnect"
}

// parseWalletConnect extracts the topic from wc:<topic>@<version>?<params>
func parseWalletConnect(raw string) (string, bool) {
	if !IsWalletConnect(raw) {
		return "", false
	}
	_, body, _ := strings.Cut(raw, ":")
	body = strings.TrimPrefix(body, "//")
	body, _, _ = strings.Cut(body, "?")
	topic, _, _ := strings.Cut(body, "@")
	return topic, true
}

// unwrap returns the WalletConnect link inside a uri query parameter, as in
// https://<host>/wc?uri=wc:... or <scheme>://wc?uri=wc:...
func unwrap(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return "", false
	}
	if IsWalletConnect(raw) && strings.Contains(u.Opaque, "@") {
		return "", false
	}

	inner := u.Query().Get("uri")
	if inner == "" || !IsWalletConnect(inner) {
		return "", false
	}
	if _, ok := parseWalletConnect(inner); !ok {
		return "", false
	}
	return inner, true
}
