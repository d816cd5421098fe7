// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"crypto/subtle"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/jeranaias/fredchat/internal/keyclient"
	"github.com/jeranaias/fredchat/internal/logging"
)

// =============================================================================
// AUTHENTICATION
// =============================================================================

// AuthConfig holds authentication configuration for the key route.
type AuthConfig struct {
	// BearerToken is compared in constant time against the request token.
	BearerToken string

	// BearerTokenBcrypt is a bcrypt hash of the token. Wins over BearerToken.
	BearerTokenBcrypt string

	// TOTPSecret requires a valid one-time code when non-empty.
	TOTPSecret string
}

// Enabled reports whether any bearer check is configured.
func (c *AuthConfig) Enabled() bool {
	return c.BearerToken != "" || c.BearerTokenBcrypt != ""
}

// AuthMiddleware rejects requests without valid credentials.
func AuthMiddleware(config *AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := GetClientIP(r)

			if config.Enabled() {
				authHeader := r.Header.Get("Authorization")
				if authHeader == "" {
					denyAuth(w, clientIP, "missing_auth_header", "missing authorization header")
					return
				}

				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
					denyAuth(w, clientIP, "invalid_auth_format", "invalid authorization format")
					return
				}

				if !config.validToken(strings.TrimSpace(parts[1])) {
					denyAuth(w, clientIP, "invalid_token", "invalid token")
					return
				}
			}

			if config.TOTPSecret != "" {
				code := strings.TrimSpace(r.Header.Get(keyclient.OTPHeader))
				if code == "" {
					denyAuth(w, clientIP, "missing_otp", "missing one-time code")
					return
				}
				if !totp.Validate(code, config.TOTPSecret) {
					denyAuth(w, clientIP, "invalid_otp", "invalid one-time code")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (c *AuthConfig) validToken(token string) bool {
	if c.BearerTokenBcrypt != "" {
		return bcrypt.CompareHashAndPassword([]byte(c.BearerTokenBcrypt), []byte(token)) == nil
	}
	return ValidateBearerToken(token, c.BearerToken)
}

func denyAuth(w http.ResponseWriter, clientIP, reason, message string) {
	logging.L().Warnf("AUTH_DENIED | ip=%s reason=%s", clientIP, reason)
	writeError(w, http.StatusUnauthorized, message)
}

// ValidateBearerToken compares tokens in constant time.
func ValidateBearerToken(provided, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// =============================================================================
// RATE LIMITING
// =============================================================================

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	limit    int
	window   time.Duration
	maxIdle  time.Duration
	lastScan time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows limit requests per window for each IP.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients:  make(map[string]*clientLimiter),
		limit:    limit,
		window:   window,
		maxIdle:  2 * window,
		lastScan: time.Now(),
	}
}

// Allow reports whether the request is allowed, and if not how long the
// client should wait.
func (rl *RateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.prune(now)

	c, ok := rl.clients[ip]
	if !ok {
		c = &clientLimiter{
			limiter: rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.limit)), rl.limit),
		}
		rl.clients[ip] = c
	}
	c.lastSeen = now

	res := c.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, rl.window
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Remaining returns the whole tokens left for ip.
func (rl *RateLimiter) Remaining(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[ip]
	if !ok {
		return rl.limit
	}
	n := int(math.Floor(c.limiter.TokensAt(time.Now())))
	if n < 0 {
		return 0
	}
	return n
}

// prune drops idle clients at most once per window. Callers hold mu.
func (rl *RateLimiter) prune(now time.Time) {
	if now.Sub(rl.lastScan) < rl.window {
		return
	}
	rl.lastScan = now
	for ip, c := range rl.clients {
		if now.Sub(c.lastSeen) > rl.maxIdle {
			delete(rl.clients, ip)
		}
	}
}

// RateLimitMiddleware rejects clients over their budget with 429.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := GetClientIP(r)

			allowed, wait := limiter.Allow(clientIP)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(clientIP)))

			if !allowed {
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				logging.L().Warnf("RATE_LIMIT_EXCEEDED | ip=%s path=%s", clientIP, r.URL.Path)
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// LOGGING
// =============================================================================

// LoggingMiddleware logs one line per request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logging.InfoWithFields("request", logging.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      status,
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          GetClientIP(r),
			"request_id":  middleware.GetReqID(r.Context()),
		})
	})
}

// =============================================================================
// SECURITY HEADERS
// =============================================================================

// SecurityHeadersMiddleware adds security headers to all responses.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		// Responses carry a secret.
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// GetClientIP extracts the client IP from RemoteAddr. TrustedRealIP has
// already replaced it with the forwarded client address when the peer is a
// trusted proxy.
func GetClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// =============================================================================
// TRUSTED PROXIES
// =============================================================================

// DefaultTrustedProxies covers a reverse proxy on the same host.
var DefaultTrustedProxies = []string{
	"127.0.0.1/32",
	"::1/128",
}

// ParseTrustedProxies parses CIDR ranges or bare IPs. Invalid entries are
// logged and skipped.
func ParseTrustedProxies(entries []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			if ip := net.ParseIP(entry); ip != nil {
				bits := 128
				if ip.To4() != nil {
					ip, bits = ip.To4(), 32
				}
				nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
				continue
			}
		}
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			logging.L().Warnf("TRUSTED_PROXIES | invalid entry %q", entry)
			continue
		}
		nets = append(nets, ipNet)
	}
	return nets
}

func isTrusted(proxies []*net.IPNet, ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, n := range proxies {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// TrustedRealIP rewrites RemoteAddr from X-Forwarded-For or X-Real-IP, but
// only when the direct peer is one of proxies. Otherwise the headers are
// ignored, so a client cannot pick the address it is rate-limited under.
//
// X-Forwarded-For is walked right to left, skipping trusted hops; the first
// untrusted address is the client.
func TrustedRealIP(proxies []*net.IPNet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isTrusted(proxies, GetClientIP(r)) {
				if ip := forwardedClientIP(proxies, r.Header); ip != "" {
					r.RemoteAddr = ip
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forwardedClientIP(proxies []*net.IPNet, h http.Header) string {
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				// A malformed hop ends the trusted chain.
				break
			}
			if !isTrusted(proxies, hop) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(h.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return ""
}
