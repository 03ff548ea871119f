/*
Package monitoring provides Prometheus metrics for the session-request pipeline.

# Overview

Metrics are registered on a registry owned by the Metrics value, so several
pipelines (one per test, for instance) can coexist in one process.

# Features

- HTTP request metrics for the shell-facing API
- Router metrics (routed and dropped requests per origin)
- Admission metrics (admitted sessions, queue depth)
- Resolution metrics (status and reason of every finished session)
- Reputation gate metrics (clear, flagged, failed-open)
- WebSocket connection metrics
- Uptime

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

A nil *Metrics is valid and records nothing.
*/
package monitoring
