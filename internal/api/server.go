// SPDX-License-Identifier: MIT

// Package api exposes the public HTTP surface of the control plane.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/lepetpal/lepetpal/internal/command"
	"github.com/lepetpal/lepetpal/internal/config"
	"github.com/lepetpal/lepetpal/internal/dispenser"
	"github.com/lepetpal/lepetpal/internal/log"
	"github.com/lepetpal/lepetpal/internal/middleware"
	"github.com/lepetpal/lepetpal/internal/speaker"
	"github.com/lepetpal/lepetpal/internal/store"
	"github.com/lepetpal/lepetpal/internal/video"
)

// Services bundles the collaborators the handlers delegate to.
type Services struct {
	Store     *store.Store
	Manager   *command.Manager
	Dispenser dispenser.Dispenser
	Speaker   *speaker.Speaker
	Frames    video.FrameSource
}

// Server holds handler state. Construct with New and mount via Router.
type Server struct {
	cfg    *config.Config
	svc    Services
	logger zerolog.Logger
}

// New builds a server over its collaborators.
func New(cfg *config.Config, svc Services) *Server {
	return &Server{
		cfg:    cfg,
		svc:    svc,
		logger: log.WithComponent("api"),
	}
}

// Router mounts every public route behind the canonical middleware stack.
// The video feed is registered on a separate subtree so the IP rate limiter
// never throttles a long-lived stream.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	middleware.ApplyStack(r, middleware.StackConfig{
		AllowedOrigins: s.cfg.CORSOrigins,
		EnableMetrics:  true,
		EnableLogging:  true,
	})

	r.Group(func(g chi.Router) {
		g.Use(middleware.RateLimit(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst))

		g.Get("/health", s.handleHealth)
		g.Get("/metrics", s.handleMetrics())
		g.Post("/command", s.handleCommand)
		g.Get("/status/{requestID}", s.handleStatus)
		g.Post("/dispense_treat", s.handleDispenseTreat)
		g.Post("/speak", s.handleSpeak)
	})

	r.Get("/video_feed", s.handleVideoFeed)

	return r
}
