// Package server wires the admission pipeline, its HTTP API and the UI
// stream into a runnable service.
package server
