// Package config provides 12-factor configuration for the WalletShell backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags in cmd/server override the HTTP listener and logging settings.
//
// Configuration Sections:
//   - Server: HTTP listener (PORT, HOST)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting of the shell-facing API
//   - Admission: Push sync delay, callback delay, restore timeout
//   - Deeplink: Test-mode routing and the dedup window
//   - Reputation: Scam list endpoint, cache and fail-open timeouts
//   - Networks: Catalog file and the account's default network
//   - Keychain: Encrypted local store location and secret
//   - Schedule: Token list refresh and explorer reload timing
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("push sync delay: %s\n", cfg.Admission.PushSyncDelay)
package config
