// SPDX-License-Identifier: MIT

// Package middleware provides the canonical HTTP ingress middleware stack.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// StackConfig configures the canonical ingress middleware stack.
type StackConfig struct {
	// CORS
	AllowedOrigins []string

	// Observability
	EnableMetrics bool
	EnableLogging bool

	// Rate limiting; zero disables it
	RateLimitRPS   int
	RateLimitBurst int
}

// NewRouter constructs a chi router with the canonical middleware stack
// applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the canonical middleware stack to r. Order matters:
// the recoverer is the outermost safety net and correlation ids are minted
// before anything that logs.
func ApplyStack(r chi.Router, cfg StackConfig) {
	r.Use(Recoverer)
	r.Use(RequestID)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(CORS(cfg.AllowedOrigins))
	}
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	if cfg.EnableLogging {
		r.Use(Logging())
	}
	if cfg.RateLimitRPS > 0 {
		r.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
}

// RateLimit throttles per client IP. Burst raises the effective per-second
// allowance when it exceeds rps; zero or negative values disable limiting.
func RateLimit(rps, burst int) func(http.Handler) http.Handler {
	if rps < 1 {
		return func(next http.Handler) http.Handler { return next }
	}
	limit := rps
	if burst > limit {
		limit = burst
	}
	return httprate.LimitByIP(limit, time.Second)
}
