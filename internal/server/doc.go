// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the fredchat key server: a small HTTP service
// that hands the completion credential to authenticated local clients so
// the credential never has to live in the chat client's config.
//
// # Routes
//
//	GET /health         {"status":"ok"}, no auth
//	GET /api/getApiKey  {"apiKey":"..."}, bearer token (+ optional TOTP)
//
// # Middleware
//
// Requests pass through chi's RequestID and Recoverer, TrustedRealIP, a JSON
// request logger, security headers, CORS (go-chi/cors) and an optional
// per-IP token bucket (golang.org/x/time/rate). Failed authentication is
// logged as AUTH_DENIED with the client IP and reason. Forwarded headers are
// honored only from trusted proxies (loopback unless configured), so clients
// cannot choose the address they are rate-limited under.
//
// # Usage
//
//	srv := server.New(server.OptionsFromConfig(cfg))
//	err := srv.Run(ctx) // returns after ctx is cancelled and shutdown completes
package server
