/*
Package middleware provides the gin middleware of the HTTP API.

  - CORS wraps gin-contrib/cors.
  - RateLimit keeps one token bucket per client IP in an expiring LRU.
    GlobalRateLimit shares one bucket across all clients.
  - RequestID propagates or assigns X-Request-ID.
  - Logger logs each finished request with zap.
*/
package middleware
