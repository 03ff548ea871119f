/*
Package deeplink turns links delivered by the platform and by the
attribution SDK into typed requests.

WalletConnect links (wc: and walletconnect: schemes, or universal links that
carry one in a uri query parameter) become connect requests. Everything else
is a raw deeplink that the orchestrator hands to an opaque handler.

The router remembers the normalized URIs it has produced until the caller
releases them, so the same link delivered twice (by the system listener and
by the attribution SDK, say) yields one request.
*/
package deeplink
