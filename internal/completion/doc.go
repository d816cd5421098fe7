// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package completion sends a single-exchange request to a language-model API
// and returns the reply text.
//
// Two backends are provided. OpenAIClient speaks the OpenAI chat completions
// wire format (POST {model, messages}, reply in choices[0].message.content).
// GeminiClient uses the Gemini API through google.golang.org/genai. Neither
// retries; the caller decides what a failure means to the user.
//
// # Key Types
//
//   - Completer: Interface implemented by every backend
//   - OpenAIClient: OpenAI-compatible HTTP client
//   - GeminiClient: Gemini backend
//   - APIError: Non-2xx response, matches ErrRequestFailed
//
// # Usage
//
//	c := completion.NewOpenAIClient(config.DefaultCompletionURL, "gpt-4")
//	reply, err := c.Complete(ctx, apiKey, model.SingleExchange(prompt, text))
//	switch {
//	case errors.Is(err, completion.ErrEmptyResponse):
//	    // no choices
//	case errors.Is(err, completion.ErrRequestFailed):
//	    // network error or non-2xx
//	}
package completion
