// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jeranaias/fredchat/internal/logging"
	"github.com/jeranaias/fredchat/internal/model"
)

// Configuration constants for the OpenAI-compatible backend.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// DefaultUserAgent identifies this client to the endpoint.
	DefaultUserAgent = "fredchat/1.0"
)

// chatRequest is the body of a chat completions call.
type chatRequest struct {
	Model    string       `json:"model"`
	Messages []model.Turn `json:"messages"`
}

// chatResponse is the subset of the chat completions reply we read.
// Choices is a pointer so a missing field can be told apart from an empty one
// in logs; both are treated as empty.
type chatResponse struct {
	Choices *[]struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// apiErrorResponse is the error envelope used by OpenAI-compatible APIs.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// OpenAIClient posts single-exchange requests to an OpenAI-compatible
// chat completions endpoint. It never retries.
type OpenAIClient struct {
	url        string
	model      string
	userAgent  string
	httpClient *http.Client
}

// NewOpenAIClient creates a client for the endpoint at url requesting model.
func NewOpenAIClient(url, model string) *OpenAIClient {
	return &OpenAIClient{
		url:        url,
		model:      model,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// WithTimeout sets the whole-request timeout.
func (c *OpenAIClient) WithTimeout(timeout time.Duration) *OpenAIClient {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *OpenAIClient) WithHTTPClient(hc *http.Client) *OpenAIClient {
	c.httpClient = hc
	return c
}

// WithUserAgent overrides the User-Agent header.
func (c *OpenAIClient) WithUserAgent(ua string) *OpenAIClient {
	c.userAgent = ua
	return c
}

// Model returns the model name sent with each request.
func (c *OpenAIClient) Model() string {
	return c.model
}

// setHeaders sets the required headers for a completion request.
func (c *OpenAIClient) setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
}

// Complete sends turns and returns the content of the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, apiKey string, turns []model.Turn) (string, error) {
	if apiKey == "" {
		return "", ErrMissingKey
	}

	bodyBytes, err := json.Marshal(chatRequest{Model: c.model, Messages: turns})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrRequestFailed, err)
	}
	c.setHeaders(req, apiKey)

	logging.L().Debugf("completion request: %s %s model=%s", req.Method, req.URL.Path, c.model)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	logging.L().Debugf("completion response: %d (%v)", resp.StatusCode, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", handleErrorResponse(resp.StatusCode, body)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %v", ErrRequestFailed, err)
	}

	if chatResp.Choices == nil {
		return "", fmt.Errorf("%w: response has no choices field", ErrEmptyResponse)
	}
	if len(*chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: choices is empty", ErrEmptyResponse)
	}
	return (*chatResp.Choices)[0].Message.Content, nil
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts a non-2xx response into an *APIError.
func handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &APIError{
			StatusCode: statusCode,
			Code:       apiErr.Error.Code,
			Message:    apiErr.Error.Message,
		}
	}
	msg := string(body)
	if len(msg) > 512 {
		msg = msg[:512] + "..."
	}
	return &APIError{StatusCode: statusCode, Message: msg}
}
