package reputation

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// authenticatedHosts are dapps the wallet vouches for in the approval sheet
var authenticatedHosts = map[string]struct{}{
	"app.uniswap.org":      {},
	"app.compound.finance": {},
	"app.aave.com":         {},
	"curve.fi":             {},
	"opensea.io":           {},
	"zapper.fi":            {},
	"zerion.io":            {},
	"rainbow.me":           {},
	"matcha.xyz":           {},
	"app.1inch.io":         {},
}

// Hostname returns the lowercase host of a dapp URL without a leading www.
// Scheme-less input such as "evil.example/path" is accepted.
func Hostname(dappURL string) string {
	raw := strings.TrimSpace(dappURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// RegistrableDomain returns the eTLD+1 of host, or host itself when it has none
func RegistrableDomain(host string) string {
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// Authenticated reports whether the dapp is on the vouched-for list
func Authenticated(dappURL string) bool {
	_, ok := authenticatedHosts[Hostname(dappURL)]
	return ok
}
