// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for fredchat.
//
// Supports TOML and YAML configuration formats, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - CompletionConfig: Remote model endpoint, model name and system prompt
//   - KeyServiceConfig: Where and how the client fetches its credential
//   - UIConfig: Trust mode, render mode, welcome message
//   - KeyServerConfig: Settings for the built-in credential server
//   - Watcher: Reloads a config file when it changes
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (FREDCHAT_*)
//   - .env in the working directory, then ~/.fredchat/.env
//   - ~/.fredchat/config.toml
//   - ~/.fredchat/config.yaml
//   - Built-in defaults
//
// FREDCHAT_HOME relocates the configuration directory.
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	model := cfg.Completion.Model
//	timeout := cfg.CompletionTimeout()
package config
