// Package main is the entry point for the WalletShell backend server.
//
// The server admits dapp session requests (WalletConnect connects and chain
// switches) arriving from push notifications, attribution callbacks and
// system links, and presents them to the wallet UI one at a time.
//
// Architecture:
//
//	Push / Links / Attribution → Deeplink Router → Admission Queue → Approval Session
//	                                                                → Wallet UI (WebSocket)
//
// The server provides:
//   - REST API for event ingestion and session control
//   - WebSocket stream for approval screens and shell commands
//   - Scam list reputation checks
//   - Encrypted keychain persistence
//   - Rate limiting and Prometheus metrics
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	KEYCHAIN_SECRET=... ./server -port 8000 -networks networks.yaml
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
