// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/jeranaias/fredchat/internal/logging"
	"github.com/jeranaias/fredchat/internal/model"
)

// GeminiClient sends single-exchange requests to the Gemini API using the
// credential fetched for each send. The system turn becomes the system
// instruction; user turns become the content.
type GeminiClient struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient creates a Gemini backend for model.
func NewGeminiClient(model string) *GeminiClient {
	return &GeminiClient{
		model:      model,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// WithTimeout sets the whole-request timeout.
func (c *GeminiClient) WithTimeout(timeout time.Duration) *GeminiClient {
	c.httpClient.Timeout = timeout
	return c
}

// WithBaseURL points the client at a different API host.
func (c *GeminiClient) WithBaseURL(url string) *GeminiClient {
	c.baseURL = url
	return c
}

// Complete sends turns and returns the generated text.
func (c *GeminiClient) Complete(ctx context.Context, apiKey string, turns []model.Turn) (string, error) {
	if apiKey == "" {
		return "", ErrMissingKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  c.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: c.baseURL},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var system, user []string
	for _, t := range turns {
		if t.Role == model.RoleSystem {
			system = append(system, t.Content)
		} else {
			user = append(user, t.Content)
		}
	}

	genCfg := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		genCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n")}}}
	}

	logging.L().Debugf("completion request: gemini model=%s", c.model)

	result, err := client.Models.GenerateContent(ctx, c.model, genai.Text(strings.Join(user, "\n")), genCfg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrEmptyResponse)
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text in candidates (finish reason %s)", ErrEmptyResponse, result.Candidates[0].FinishReason)
	}
	return text, nil
}
