// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for fredchat.
//
// Supports TOML and YAML configuration formats, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.fredchat/config.toml
//   - ~/.fredchat/config.yaml
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/fredchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete fredchat configuration.
type Config struct {
	// Completion endpoint settings
	Completion CompletionConfig `toml:"completion" json:"completion" yaml:"completion"`

	// Trusted backend that hands out completion credentials
	KeyService KeyServiceConfig `toml:"key_service" json:"key_service" yaml:"key_service"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui" yaml:"ui"`

	// Key server (the trusted backend, when run by this binary)
	KeyServer KeyServerConfig `toml:"key_server" json:"key_server" yaml:"key_server"`

	// Logging configuration
	Log LogConfig `toml:"log" json:"log" yaml:"log"`
}

// CompletionConfig describes the remote language-model endpoint.
type CompletionConfig struct {
	// Provider selects the wire protocol: "openai" (default) or "gemini"
	Provider string `toml:"provider" json:"provider" yaml:"provider"`
	// URL is the chat completions endpoint (openai provider only)
	URL string `toml:"url" json:"url" yaml:"url"`
	// Model is sent verbatim in every request
	Model string `toml:"model" json:"model" yaml:"model"`
	// SystemPrompt is the fixed system instruction prepended to every request
	SystemPrompt string `toml:"system_prompt" json:"system_prompt" yaml:"system_prompt"`
	// TimeoutSecs bounds a single completion request (0 = default)
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs"`
}

// KeyServiceConfig describes how the client authenticates to the key backend.
type KeyServiceConfig struct {
	// URL is the full credential endpoint, e.g. http://localhost:8787/api/getApiKey
	URL string `toml:"url" json:"url" yaml:"url"`
	// AuthToken is the static bearer secret presented to the backend
	AuthToken string `toml:"auth_token" json:"auth_token" yaml:"auth_token"`
	// TOTPSecret, when set, adds a one-time code header to every fetch
	TOTPSecret string `toml:"totp_secret" json:"totp_secret" yaml:"totp_secret"`
	// TimeoutSecs bounds a single credential fetch (0 = default)
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs"`
}

// UIConfig contains user interface preferences.
type UIConfig struct {
	// Trust controls how bot replies become HTML: "trusted", "escape", "sanitize"
	Trust string `toml:"trust" json:"trust" yaml:"trust"`
	// RenderMode controls terminal rendering of replies: "plain", "code", "markdown"
	RenderMode string `toml:"render_mode" json:"render_mode" yaml:"render_mode"`
	// Welcome is the bot message shown when the view opens (empty disables it)
	Welcome string `toml:"welcome" json:"welcome" yaml:"welcome"`
	// BotName is shown as the sender label for bot messages
	BotName string `toml:"bot_name" json:"bot_name" yaml:"bot_name"`
	// MaxInputLines caps how tall the input box may grow
	MaxInputLines int `toml:"max_input_lines" json:"max_input_lines" yaml:"max_input_lines"`
	// ExportDir is where transcripts are written
	ExportDir string `toml:"export_dir" json:"export_dir" yaml:"export_dir"`
	// UserAvatar and BotAvatar are image paths used by the HTML export
	UserAvatar string `toml:"user_avatar" json:"user_avatar" yaml:"user_avatar"`
	BotAvatar  string `toml:"bot_avatar" json:"bot_avatar" yaml:"bot_avatar"`
}

// KeyServerConfig configures the built-in credential server.
type KeyServerConfig struct {
	// Addr is the listen address
	Addr string `toml:"addr" json:"addr" yaml:"addr"`
	// APIKey is the completion credential handed to authenticated callers
	APIKey string `toml:"api_key" json:"api_key" yaml:"api_key"`
	// AuthToken is the expected bearer secret (plaintext)
	AuthToken string `toml:"auth_token" json:"auth_token" yaml:"auth_token"`
	// AuthTokenBcrypt is a bcrypt hash of the bearer secret; wins over AuthToken
	AuthTokenBcrypt string `toml:"auth_token_bcrypt" json:"auth_token_bcrypt" yaml:"auth_token_bcrypt"`
	// TOTPSecret, when set, requires a valid X-Key-OTP header
	TOTPSecret string `toml:"totp_secret" json:"totp_secret" yaml:"totp_secret"`
	// AllowedOrigins feeds the CORS policy
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins"`
	// RateLimit is requests per minute per client IP (0 disables)
	RateLimit int `toml:"rate_limit" json:"rate_limit" yaml:"rate_limit"`
	// TrustedProxies may set X-Forwarded-For/X-Real-IP (unset means loopback only)
	TrustedProxies []string `toml:"trusted_proxies,omitempty" json:"trusted_proxies,omitempty" yaml:"trusted_proxies,omitempty"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	// Level is one of: trace, debug, info, notice, warn, error
	Level string `toml:"level" json:"level" yaml:"level"`
	// File is the log file used while the full-screen UI owns the terminal
	File string `toml:"file" json:"file" yaml:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultCompletionURL is the OpenAI chat completions endpoint.
	DefaultCompletionURL = "https://api.openai.com/v1/chat/completions"
	// DefaultModel is the model requested when none is configured.
	DefaultModel = "gpt-4"
	// DefaultSystemPrompt is the fixed system instruction.
	DefaultSystemPrompt = "You are personable chatbot."
	// DefaultWelcome is the first bot message of every session.
	DefaultWelcome = "Hi, I'm Fred! How can I help you today?"
	// DefaultKeyServiceURL points at a locally running key server.
	DefaultKeyServiceURL = "http://localhost:8787/api/getApiKey"
	// DefaultKeyServerAddr is the key server listen address.
	DefaultKeyServerAddr = "127.0.0.1:8787"
	// DefaultTimeoutSecs matches the transport default for both requests.
	DefaultTimeoutSecs = 60
)

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Completion: CompletionConfig{
			Provider:     "openai",
			URL:          DefaultCompletionURL,
			Model:        DefaultModel,
			SystemPrompt: DefaultSystemPrompt,
			TimeoutSecs:  DefaultTimeoutSecs,
		},
		KeyService: KeyServiceConfig{
			URL:         DefaultKeyServiceURL,
			TimeoutSecs: DefaultTimeoutSecs,
		},
		UI: UIConfig{
			Trust:         "trusted",
			RenderMode:    "code",
			Welcome:       DefaultWelcome,
			BotName:       "Fred",
			MaxInputLines: 6,
			ExportDir:     ".",
			UserAvatar:    "assets/img/Jim.png",
			BotAvatar:     "assets/img/botImage.png",
		},
		KeyServer: KeyServerConfig{
			Addr:           DefaultKeyServerAddr,
			AllowedOrigins: []string{"http://localhost:4200"},
			RateLimit:      60,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// CompletionTimeout returns the completion request timeout as a duration.
func (c *Config) CompletionTimeout() time.Duration {
	if c.Completion.TimeoutSecs <= 0 {
		return DefaultTimeoutSecs * time.Second
	}
	return time.Duration(c.Completion.TimeoutSecs) * time.Second
}

// KeyServiceTimeout returns the credential fetch timeout as a duration.
func (c *Config) KeyServiceTimeout() time.Duration {
	if c.KeyService.TimeoutSecs <= 0 {
		return DefaultTimeoutSecs * time.Second
	}
	return time.Duration(c.KeyService.TimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// HomeEnv overrides the configuration directory when set.
const HomeEnv = "FREDCHAT_HOME"

// ConfigDir returns the fredchat configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".fredchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathYAML returns the path to the YAML config file.
func ConfigPathYAML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions tightens config files to 0600; they hold secrets.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config directory.
// Tries TOML first, then YAML, and falls back to defaults. A .env file in the
// working directory or the config directory is applied before FREDCHAT_*
// environment overrides.
func Load() (*Config, error) {
	path := ""
	if p, err := ConfigPathTOML(); err == nil && fileExists(p) {
		path = p
	} else if p, err := ConfigPathYAML(); err == nil && fileExists(p) {
		path = p
	}

	if path == "" {
		cfg := Default()
		if err := cfg.finish(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from an explicit file. The format is
// chosen by extension (.toml, .yaml/.yml, .json).
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = LoadTOML(cfg, path)
	case ".yaml", ".yml":
		err = LoadYAML(cfg, path)
	case ".json":
		err = LoadJSON(cfg, path)
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish applies the steps shared by every load path.
func (c *Config) finish() error {
	loadDotEnv()
	c.ApplyEnvOverrides()
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadYAML decodes a YAML file into cfg.
func LoadYAML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default TOML location.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# fredchat configuration file\n")
	buf.WriteString("# Secrets live here; keep this file private.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Valid option sets.
var (
	validProviders   = map[string]bool{"openai": true, "gemini": true}
	validTrustModes  = map[string]bool{"trusted": true, "escape": true, "sanitize": true}
	validRenderModes = map[string]bool{"plain": true, "code": true, "markdown": true}
	validLogLevels   = map[string]bool{"trace": true, "debug": true, "info": true, "notice": true, "warn": true, "warning": true, "error": true}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if !validProviders[strings.ToLower(c.Completion.Provider)] {
		errs = append(errs, ValidationError{
			Field:   "completion.provider",
			Message: fmt.Sprintf("invalid provider '%s', must be one of: openai, gemini", c.Completion.Provider),
		})
	}
	if strings.EqualFold(c.Completion.Provider, "openai") {
		if err := validateHTTPURL(c.Completion.URL); err != nil {
			errs = append(errs, ValidationError{Field: "completion.url", Message: err.Error()})
		}
	}
	if strings.TrimSpace(c.Completion.Model) == "" {
		errs = append(errs, ValidationError{Field: "completion.model", Message: "must not be empty"})
	}
	if c.Completion.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "completion.timeout_secs", Message: "must not be negative"})
	}

	if err := validateHTTPURL(c.KeyService.URL); err != nil {
		errs = append(errs, ValidationError{Field: "key_service.url", Message: err.Error()})
	}
	if c.KeyService.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "key_service.timeout_secs", Message: "must not be negative"})
	}

	if !validTrustModes[strings.ToLower(c.UI.Trust)] {
		errs = append(errs, ValidationError{
			Field:   "ui.trust",
			Message: fmt.Sprintf("invalid trust mode '%s', must be one of: trusted, escape, sanitize", c.UI.Trust),
		})
	}
	if !validRenderModes[strings.ToLower(c.UI.RenderMode)] {
		errs = append(errs, ValidationError{
			Field:   "ui.render_mode",
			Message: fmt.Sprintf("invalid render mode '%s', must be one of: plain, code, markdown", c.UI.RenderMode),
		})
	}
	if c.UI.MaxInputLines < 1 || c.UI.MaxInputLines > 40 {
		errs = append(errs, ValidationError{Field: "ui.max_input_lines", Message: "must be between 1 and 40"})
	}

	if c.KeyServer.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "key_server.rate_limit", Message: "must not be negative"})
	}
	for _, p := range c.KeyServer.TrustedProxies {
		if !validProxyEntry(p) {
			errs = append(errs, ValidationError{
				Field:   "key_server.trusted_proxies",
				Message: fmt.Sprintf("invalid entry '%s', must be an IP or CIDR", p),
			})
		}
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s'", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validProxyEntry(entry string) bool {
	entry = strings.TrimSpace(entry)
	if net.ParseIP(entry) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(entry)
	return err == nil
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return errors.New("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// SetDefaults fills zero values left behind by partial config files.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Completion.Provider == "" {
		c.Completion.Provider = d.Completion.Provider
	}
	c.Completion.Provider = strings.ToLower(c.Completion.Provider)
	if c.Completion.URL == "" {
		c.Completion.URL = d.Completion.URL
	}
	if c.Completion.Model == "" {
		c.Completion.Model = d.Completion.Model
	}
	if c.Completion.SystemPrompt == "" {
		c.Completion.SystemPrompt = d.Completion.SystemPrompt
	}
	if c.KeyService.URL == "" {
		c.KeyService.URL = d.KeyService.URL
	}
	if c.UI.Trust == "" {
		c.UI.Trust = d.UI.Trust
	}
	c.UI.Trust = strings.ToLower(c.UI.Trust)
	if c.UI.RenderMode == "" {
		c.UI.RenderMode = d.UI.RenderMode
	}
	c.UI.RenderMode = strings.ToLower(c.UI.RenderMode)
	if c.UI.BotName == "" {
		c.UI.BotName = d.UI.BotName
	}
	if c.UI.MaxInputLines == 0 {
		c.UI.MaxInputLines = d.UI.MaxInputLines
	}
	if c.UI.ExportDir == "" {
		c.UI.ExportDir = d.UI.ExportDir
	}
	if c.KeyServer.Addr == "" {
		c.KeyServer.Addr = d.KeyServer.Addr
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies FREDCHAT_* environment variables on top of the
// loaded configuration.
//
// Supported variables:
//   - FREDCHAT_PROVIDER: overrides completion.provider
//   - FREDCHAT_COMPLETION_URL: overrides completion.url
//   - FREDCHAT_MODEL: overrides completion.model
//   - FREDCHAT_SYSTEM_PROMPT: overrides completion.system_prompt
//   - FREDCHAT_TIMEOUT: overrides both request timeouts (seconds)
//   - FREDCHAT_KEY_URL: overrides key_service.url
//   - FREDCHAT_AUTH_TOKEN: overrides key_service.auth_token and key_server.auth_token
//   - FREDCHAT_TOTP_SECRET: overrides both TOTP secrets
//   - FREDCHAT_API_KEY: overrides key_server.api_key
//   - FREDCHAT_TRUST: overrides ui.trust
//   - FREDCHAT_RENDER: overrides ui.render_mode
//   - FREDCHAT_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FREDCHAT_PROVIDER"); v != "" {
		c.Completion.Provider = v
	}
	if v := os.Getenv("FREDCHAT_COMPLETION_URL"); v != "" {
		c.Completion.URL = v
	}
	if v := os.Getenv("FREDCHAT_MODEL"); v != "" {
		c.Completion.Model = v
	}
	if v := os.Getenv("FREDCHAT_SYSTEM_PROMPT"); v != "" {
		c.Completion.SystemPrompt = v
	}
	if v := os.Getenv("FREDCHAT_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Completion.TimeoutSecs = secs
			c.KeyService.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("FREDCHAT_KEY_URL"); v != "" {
		c.KeyService.URL = v
	}
	if v := os.Getenv("FREDCHAT_AUTH_TOKEN"); v != "" {
		c.KeyService.AuthToken = v
		c.KeyServer.AuthToken = v
	}
	if v := os.Getenv("FREDCHAT_TOTP_SECRET"); v != "" {
		c.KeyService.TOTPSecret = v
		c.KeyServer.TOTPSecret = v
	}
	if v := os.Getenv("FREDCHAT_API_KEY"); v != "" {
		c.KeyServer.APIKey = v
	}
	if v := os.Getenv("FREDCHAT_TRUST"); v != "" {
		c.UI.Trust = v
	}
	if v := os.Getenv("FREDCHAT_RENDER"); v != "" {
		c.UI.RenderMode = v
	}
	if v := os.Getenv("FREDCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "completion.model").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.trust").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var result strings.Builder
	for _, part := range parts {
		result.WriteString(part)
	}
	return result.String()
}

func setFieldValue(field reflect.Value, value interface{}) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(fmt.Sprint(value))
	case reflect.Int, reflect.Int64:
		switch v := value.(type) {
		case int:
			field.SetInt(int64(v))
		case string:
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("expected integer, got '%s'", v)
			}
			field.SetInt(int64(n))
		default:
			return fmt.Errorf("expected integer, got %T", value)
		}
	case reflect.Bool:
		switch v := value.(type) {
		case bool:
			field.SetBool(v)
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("expected boolean, got '%s'", v)
			}
			field.SetBool(b)
		default:
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		var items []string
		switch v := value.(type) {
		case []string:
			items = v
		case string:
			for _, s := range strings.Split(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					items = append(items, s)
				}
			}
		default:
			return fmt.Errorf("expected list, got %T", value)
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.KeyServer.AllowedOrigins != nil {
		clone.KeyServer.AllowedOrigins = append([]string(nil), c.KeyServer.AllowedOrigins...)
	}
	if c.KeyServer.TrustedProxies != nil {
		clone.KeyServer.TrustedProxies = append([]string(nil), c.KeyServer.TrustedProxies...)
	}
	return &clone
}

// String returns a JSON rendering with every secret redacted.
func (c *Config) String() string {
	safe := c.Clone()
	for _, s := range []*string{
		&safe.KeyService.AuthToken,
		&safe.KeyService.TOTPSecret,
		&safe.KeyServer.APIKey,
		&safe.KeyServer.AuthToken,
		&safe.KeyServer.AuthTokenBcrypt,
		&safe.KeyServer.TOTPSecret,
	} {
		if *s != "" {
			*s = "[REDACTED]"
		}
	}

	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal replaces the global configuration.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the global configuration so the next Global()
// call loads it again.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
