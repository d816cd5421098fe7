// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/fredchat/internal/config"
	"github.com/jeranaias/fredchat/internal/model"
)

// Completer turns a list of request turns into a single reply text.
// apiKey is the credential fetched for this one request.
type Completer interface {
	Complete(ctx context.Context, apiKey string, turns []model.Turn) (string, error)
}

// Error variables shared by every backend.
var (
	// ErrRequestFailed covers transport errors, non-2xx statuses and
	// unreadable bodies.
	ErrRequestFailed = errors.New("completion request failed")

	// ErrEmptyResponse indicates a well-formed reply with no choices.
	ErrEmptyResponse = errors.New("invalid or empty completion response")

	// ErrMissingKey indicates Complete was called without a credential.
	ErrMissingKey = errors.New("completion credential missing")

	// ErrUnknownProvider indicates a provider name with no backend.
	ErrUnknownProvider = errors.New("unknown completion provider")
)

// APIError is a non-2xx response from a completion endpoint.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("completion API error [%s] (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("completion API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// Unwrap lets callers match every APIError with errors.Is(err, ErrRequestFailed).
func (e *APIError) Unwrap() error {
	return ErrRequestFailed
}

// NewFromConfig builds the backend selected by cfg.Completion.Provider.
func NewFromConfig(cfg *config.Config) (Completer, error) {
	switch strings.ToLower(cfg.Completion.Provider) {
	case "", "openai":
		return NewOpenAIClient(cfg.Completion.URL, cfg.Completion.Model).
			WithTimeout(cfg.CompletionTimeout()), nil
	case "gemini":
		return NewGeminiClient(cfg.Completion.Model).
			WithTimeout(cfg.CompletionTimeout()), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Completion.Provider)
	}
}
