package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig lists the origins the shell UI may call the API from.
type CORSConfig struct {
	// Origins is an allow-list; empty or "*" allows any origin
	Origins []string
	MaxAge  time.Duration
}

// DefaultCORSConfig allows any origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		Origins: []string{"*"},
		MaxAge:  12 * time.Hour,
	}
}

var (
	corsMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	}
	corsHeaders = []string{
		"Origin",
		"Accept",
		"Content-Type",
		"Content-Length",
		RequestIDHeader,
	}
)

// CORS lets the shell UI call the API and open the event stream.
// Credentials are never allowed.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:    corsMethods,
		AllowHeaders:    corsHeaders,
		ExposeHeaders:   []string{RequestIDHeader},
		AllowWebSockets: true,
		MaxAge:          cfg.MaxAge,
	}
	if origins := normalizeOrigins(cfg.Origins); origins != nil {
		c.AllowOrigins = origins
	} else {
		c.AllowAllOrigins = true
	}
	return cors.New(c)
}

// normalizeOrigins trims and lowercases origins. nil means any origin.
func normalizeOrigins(in []string) []string {
	var out []string
	for _, origin := range in {
		origin = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(origin), "/"))
		switch origin {
		case "":
			continue
		case "*":
			return nil
		}
		out = append(out, origin)
	}
	return out
}
