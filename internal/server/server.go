// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jeranaias/fredchat/internal/config"
	"github.com/jeranaias/fredchat/internal/keyclient"
	"github.com/jeranaias/fredchat/internal/logging"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// KeyPath serves the completion credential.
	KeyPath = "/api/getApiKey"

	// HealthPath reports liveness.
	HealthPath = "/health"

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 5 * time.Second
)

// ============================================================================
// OPTIONS
// ============================================================================

// Options configures the key server.
type Options struct {
	// Addr is the listen address, e.g. "127.0.0.1:8787".
	Addr string

	// APIKey is the credential handed to clients.
	APIKey string

	// AuthToken is the expected bearer token. AuthTokenBcrypt, if set, is a
	// bcrypt hash checked instead. With neither set the key route is open.
	AuthToken       string
	AuthTokenBcrypt string

	// TOTPSecret, if set, requires a valid one-time code in the X-Key-OTP
	// header.
	TOTPSecret string

	// AllowedOrigins lists browser origins allowed by CORS.
	AllowedOrigins []string

	// RateLimit is requests per minute per client IP. Zero disables it.
	RateLimit int

	// TrustedProxies lists peers (CIDR or IP) whose forwarded headers are
	// believed. Nil means DefaultTrustedProxies; empty trusts nobody.
	TrustedProxies []string
}

// OptionsFromConfig extracts key server options from the app config.
func OptionsFromConfig(cfg *config.Config) Options {
	ks := cfg.KeyServer
	return Options{
		Addr:            ks.Addr,
		APIKey:          ks.APIKey,
		AuthToken:       ks.AuthToken,
		AuthTokenBcrypt: ks.AuthTokenBcrypt,
		TOTPSecret:      ks.TOTPSecret,
		AllowedOrigins:  ks.AllowedOrigins,
		RateLimit:       ks.RateLimit,
		TrustedProxies:  ks.TrustedProxies,
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Server hands out the completion credential over HTTP.
type Server struct {
	opts    Options
	router  chi.Router
	limiter *RateLimiter
	proxies []*net.IPNet
}

// New creates a key server and wires its routes.
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = config.DefaultKeyServerAddr
	}
	if opts.TrustedProxies == nil {
		opts.TrustedProxies = DefaultTrustedProxies
	}

	s := &Server{
		opts:    opts,
		router:  chi.NewRouter(),
		proxies: ParseTrustedProxies(opts.TrustedProxies),
	}
	if opts.RateLimit > 0 {
		s.limiter = NewRateLimiter(opts.RateLimit, time.Minute)
	}

	s.setupRoutes()
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(TrustedRealIP(s.proxies))
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeadersMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", keyclient.OTPHeader},
		MaxAge:         300,
	}))
	if s.limiter != nil {
		r.Use(RateLimitMiddleware(s.limiter))
	}

	r.Get(HealthPath, s.handleHealth)

	auth := &AuthConfig{
		BearerToken:       s.opts.AuthToken,
		BearerTokenBcrypt: s.opts.AuthTokenBcrypt,
		TOTPSecret:        s.opts.TOTPSecret,
	}
	r.With(AuthMiddleware(auth)).Get(KeyPath, s.handleGetAPIKey)
}

// ============================================================================
// HANDLERS
// ============================================================================

type healthResponse struct {
	Status string `json:"status"`
}

type keyResponse struct {
	APIKey string `json:"apiKey"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleGetAPIKey(w http.ResponseWriter, r *http.Request) {
	if s.opts.APIKey == "" {
		writeError(w, http.StatusServiceUnavailable, "no API key configured")
		return
	}
	writeJSON(w, http.StatusOK, keyResponse{APIKey: s.opts.APIKey})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if s.opts.AuthToken == "" && s.opts.AuthTokenBcrypt == "" {
		logging.L().Warn("key server has no auth token; any local client can read the API key")
	}
	logging.InfoWithFields("SERVER_START", logging.Fields{"addr": ln.Addr().String()})

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logging.L().Info("SERVER_SHUTDOWN | starting graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}
