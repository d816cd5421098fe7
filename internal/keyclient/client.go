// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package keyclient fetches a completion credential from a trusted backend.
//
// Every call performs a fresh GET; nothing is cached. Failures never surface
// as errors: they are logged and reported as an empty credential, which the
// caller treats as "no key".
package keyclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/jeranaias/fredchat/internal/config"
	"github.com/jeranaias/fredchat/internal/logging"
)

const (
	// OTPHeader carries the one-time code when a TOTP secret is configured.
	OTPHeader = "X-Key-OTP"

	// maxKeyResponseSize bounds the credential response body.
	maxKeyResponseSize = 64 * 1024
)

// Errors reported to the log when a fetch fails.
var (
	ErrStatus       = errors.New("unexpected status from key service")
	ErrMalformed    = errors.New("malformed key service response")
	ErrMissingField = errors.New("key service response has no apiKey")
)

// keyResponse is the body returned by the key service.
type keyResponse struct {
	APIKey string `json:"apiKey"`
}

// Client fetches credentials from the key service.
type Client struct {
	url        string
	authToken  string
	totpSecret string
	httpClient *http.Client
	now        func() time.Time
}

// New creates a client for the credential endpoint at url, authenticating
// with the static bearer authToken.
func New(url, authToken string) *Client {
	return &Client{
		url:        url,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: config.DefaultTimeoutSecs * time.Second},
		now:        time.Now,
	}
}

// NewFromConfig creates a client from the key_service section.
func NewFromConfig(cfg *config.Config) *Client {
	return New(cfg.KeyService.URL, cfg.KeyService.AuthToken).
		WithTOTPSecret(cfg.KeyService.TOTPSecret).
		WithTimeout(cfg.KeyServiceTimeout())
}

// WithTOTPSecret enables the one-time code header.
func (c *Client) WithTOTPSecret(secret string) *Client {
	c.totpSecret = secret
	return c
}

// WithTimeout sets the whole-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// GetAPIKey returns a fresh credential, or "" on any failure.
func (c *Client) GetAPIKey(ctx context.Context) string {
	key, err := c.fetch(ctx)
	if err != nil {
		logging.WarnWithFields("failed to retrieve API key", logging.Fields{
			"url":   c.url,
			"error": err.Error(),
		})
		return ""
	}
	return key
}

// fetch performs one credential request and reports why it failed.
func (c *Client) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	req.Header.Set("Accept", "application/json")

	if c.totpSecret != "" {
		code, err := totp.GenerateCode(c.totpSecret, c.now())
		if err != nil {
			return "", fmt.Errorf("failed to generate one-time code: %w", err)
		}
		req.Header.Set(OTPHeader, code)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxKeyResponseSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	var kr keyResponse
	if err := json.Unmarshal(body, &kr); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if kr.APIKey == "" {
		return "", ErrMissingField
	}
	return kr.APIKey, nil
}
