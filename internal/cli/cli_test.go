// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/fredchat/internal/chatbot"
	"github.com/jeranaias/fredchat/internal/config"
	"github.com/jeranaias/fredchat/internal/logging"
	"github.com/jeranaias/fredchat/internal/model"
	"github.com/jeranaias/fredchat/internal/render"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"show"},
			wantSub: "show",
		},
		{
			name:    "flag with value",
			args:    []string{"export", "--format", "md"},
			wantSub: "export",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "md", p.Flag("format"))
				assert.Equal(t, "md", p.Flag("--format"))
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"export", "--format=json"},
			wantSub: "export",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "json", p.Flag("format"))
			},
		},
		{
			name:    "boolean flag",
			args:    []string{"init", "--force"},
			wantSub: "init",
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("force"))
				assert.True(t, p.HasFlag("force"))
				assert.False(t, p.HasFlag("json"))
			},
		},
		{
			name:    "explicit boolean",
			args:    []string{"init", "--force=false"},
			wantSub: "init",
			validate: func(t *testing.T, p *ArgParser) {
				assert.False(t, p.BoolFlag("force"))
				assert.True(t, p.HasFlag("force"))
			},
		},
		{
			name:    "positional tail",
			args:    []string{"set", "ui.welcome", "Hello", "there"},
			wantSub: "set",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, 4, p.PositionalCount())
				assert.Equal(t, "ui.welcome", p.Positional(1))
				assert.Equal(t, "Hello there", strings.Join(p.PositionalFrom(2), " "))
				assert.Equal(t, "", p.Positional(9))
				assert.Empty(t, p.PositionalFrom(9))
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"hash", "--", "-secret-"},
			wantSub: "hash",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "-secret-", p.Positional(1))
				assert.False(t, p.HasFlag("secret-"))
			},
		},
		{
			name:    "lone dash is positional",
			args:    []string{"hash", "-"},
			wantSub: "hash",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "-", p.Positional(1))
			},
		},
		{
			name:    "empty",
			args:    nil,
			wantSub: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args)
			assert.Equal(t, tt.wantSub, p.Subcommand())
			assert.Equal(t, tt.args, p.Raw())
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_FlagOrDefault(t *testing.T) {
	p := NewArgParser([]string{"--format", "md"})
	assert.Equal(t, "md", p.FlagOrDefault("format", "html"))
	assert.Equal(t, "html", p.FlagOrDefault("theme", "html"))
}

// =============================================================================
// COMMAND PARSING TESTS (cli.go)
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		argv  []string
		want  Command
		check func(*testing.T, Args)
	}{
		{"no args", nil, CmdTUI, nil},
		{"tui", []string{"tui"}, CmdTUI, nil},
		{"chat", []string{"chat"}, CmdChat, nil},
		{
			"ask joins words",
			[]string{"ask", "what", "is", "go?"},
			CmdAsk,
			func(t *testing.T, a Args) { assert.Equal(t, "what is go?", a.Query) },
		},
		{
			"ask after double dash",
			[]string{"ask", "--", "-1", "squared?"},
			CmdAsk,
			func(t *testing.T, a Args) { assert.Equal(t, "-1 squared?", a.Query) },
		},
		{
			"global flags anywhere",
			[]string{"--config", "/tmp/f.toml", "ask", "--render=markdown", "hi", "-q"},
			CmdAsk,
			func(t *testing.T, a Args) {
				assert.Equal(t, "/tmp/f.toml", a.ConfigPath)
				assert.Equal(t, "markdown", a.Render)
				assert.True(t, a.Quiet)
				assert.Equal(t, "hi", a.Query)
			},
		},
		{
			"log level",
			[]string{"--log-level", "debug", "chat"},
			CmdChat,
			func(t *testing.T, a Args) { assert.Equal(t, "debug", a.LogLevel) },
		},
		{
			"config set",
			[]string{"config", "set", "ui.trust", "escape"},
			CmdConfig,
			func(t *testing.T, a Args) {
				assert.Equal(t, "set", a.Subcommand)
				assert.Equal(t, "ui.trust", a.ConfigKey)
				assert.Equal(t, "escape", a.ConfigVal)
			},
		},
		{
			"keyserver hash",
			[]string{"keyserver", "hash", "tok"},
			CmdKeyServer,
			func(t *testing.T, a Args) {
				assert.Equal(t, "hash", a.Subcommand)
				assert.Equal(t, "tok", a.ConfigKey)
			},
		},
		{"keyserver", []string{"keyserver"}, CmdKeyServer, nil},
		{"version", []string{"version"}, CmdVersion, nil},
		{"version flag", []string{"--version"}, CmdVersion, nil},
		{"help", []string{"-h"}, CmdHelp, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := Parse(tt.argv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd, "got %s", cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, _, err := Parse([]string{"bogus"})
	assert.ErrorIs(t, err, ErrUsage)

	_, _, err = Parse([]string{"chat", "--config"})
	assert.ErrorIs(t, err, ErrUsage)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "keyserver", CmdKeyServer.String())
	assert.Equal(t, "help", Command(99).String())
}

func TestPrintUsageAndVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	assert.Contains(t, buf.String(), "fredchat ask")
	assert.Contains(t, buf.String(), "/export")

	buf.Reset()
	PrintVersion(&buf)
	assert.Contains(t, buf.String(), "fredchat "+Version)
}

// =============================================================================
// CONFIG LOADING TESTS
// =============================================================================

func withHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.HomeEnv, dir)
	t.Cleanup(config.ResetGlobalForTesting)
	return dir
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	withHome(t)

	cfg, err := LoadConfig(Args{LogLevel: "debug", Render: "markdown"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "markdown", cfg.UI.RenderMode)
	assert.Same(t, cfg, config.Global())

	_, err = LoadConfig(Args{Render: "html"})
	assert.ErrorIs(t, err, ErrUsage)
}

func TestConfigFilePath(t *testing.T) {
	dir := withHome(t)

	assert.Equal(t, "", ConfigFilePath(Args{}))
	assert.Equal(t, "/x/y.toml", ConfigFilePath(Args{ConfigPath: "/x/y.toml"}))

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, config.SaveTOML(config.Default(), path))
	assert.Equal(t, path, ConfigFilePath(Args{}))
}

// =============================================================================
// CONFIG COMMAND TESTS (config.go)
// =============================================================================

func TestHandleConfig_InitSetGet(t *testing.T) {
	dir := withHome(t)
	path := filepath.Join(dir, "config.toml")
	var out bytes.Buffer

	require.NoError(t, HandleConfig(config.Default(), Args{Subcommand: "path"}, &out))
	assert.Equal(t, path, strings.TrimSpace(out.String()))

	require.NoError(t, HandleConfig(config.Default(), Args{Subcommand: "init", Raw: []string{"init"}}, &out))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	err = HandleConfig(config.Default(), Args{Subcommand: "init", Raw: []string{"init"}}, &out)
	assert.ErrorIs(t, err, ErrConfigExists)
	require.NoError(t, HandleConfig(config.Default(), Args{Subcommand: "init", Raw: []string{"init", "--force"}}, &out))

	require.NoError(t, HandleConfig(config.Default(), Args{Subcommand: "set", ConfigKey: "ui.trust", ConfigVal: "escape"}, &out))
	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "escape", cfg.UI.Trust)

	out.Reset()
	require.NoError(t, HandleConfig(cfg, Args{Subcommand: "get", ConfigKey: "ui.trust"}, &out))
	assert.Equal(t, "escape", strings.TrimSpace(out.String()))

	out.Reset()
	require.NoError(t, HandleConfig(cfg, Args{Subcommand: "get", ConfigKey: "key_server.allowed_origins"}, &out))
	assert.Equal(t, "http://localhost:4200", strings.TrimSpace(out.String()))
}

func TestHandleConfig_Errors(t *testing.T) {
	withHome(t)
	var out bytes.Buffer

	assert.ErrorIs(t, HandleConfig(config.Default(), Args{Subcommand: "nope"}, &out), ErrUsage)
	assert.ErrorIs(t, HandleConfig(config.Default(), Args{Subcommand: "get"}, &out), ErrUsage)
	assert.Error(t, HandleConfig(config.Default(), Args{Subcommand: "get", ConfigKey: "ui.nothing"}, &out))
	assert.ErrorIs(t, HandleConfig(config.Default(), Args{Subcommand: "set", ConfigKey: "ui.trust", ConfigVal: "x", ConfigPath: "/tmp/c.yaml"}, &out), ErrUsage)
}

func TestHandleConfig_ShowRedacts(t *testing.T) {
	cfg := config.Default()
	cfg.KeyServer.APIKey = "sk-very-secret"

	var out bytes.Buffer
	require.NoError(t, HandleConfig(cfg, Args{Subcommand: "show"}, &out))
	assert.NotContains(t, out.String(), "sk-very-secret")
	assert.Contains(t, out.String(), "[REDACTED]")
}

// =============================================================================
// KEYSERVER COMMAND TESTS (keyserver.go)
// =============================================================================

func TestHandleKeyServer_Hash(t *testing.T) {
	var out bytes.Buffer
	err := HandleKeyServer(context.Background(), config.Default(), Args{Subcommand: "hash", ConfigKey: "tok"}, nil, &out)
	require.NoError(t, err)

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("tok")))

	out.Reset()
	err = HandleKeyServer(context.Background(), config.Default(), Args{Subcommand: "hash", ConfigKey: "-"}, strings.NewReader("piped\n"), &out)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out.String())), []byte("piped")))

	err = HandleKeyServer(context.Background(), config.Default(), Args{Subcommand: "hash"}, strings.NewReader(""), &out)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestHandleKeyServer_TOTP(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, HandleKeyServer(context.Background(), config.Default(), Args{Subcommand: "totp"}, nil, &out))
	assert.Contains(t, out.String(), "otpauth://totp/")
	assert.Contains(t, out.String(), "issuer=fredchat")
}

func TestHandleKeyServer_Run(t *testing.T) {
	prev := logging.L()
	logging.Init("error", io.Discard)
	t.Cleanup(func() { logging.Set(prev) })

	cfg := config.Default()
	cfg.KeyServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	require.NoError(t, HandleKeyServer(ctx, cfg, Args{}, nil, &out))
	assert.Contains(t, out.String(), "api_key is empty")
}

func TestHandleKeyServer_Unknown(t *testing.T) {
	err := HandleKeyServer(context.Background(), config.Default(), Args{Subcommand: "dance"}, nil, io.Discard)
	assert.ErrorIs(t, err, ErrUsage)
}

// =============================================================================
// ASK AND CHAT TESTS (ask.go, chat.go)
// =============================================================================

type stubKeys struct{ key string }

func (s stubKeys) GetAPIKey(context.Context) string { return s.key }

type stubCompleter struct {
	reply string
	err   error
	got   []model.Turn
}

func (s *stubCompleter) Complete(_ context.Context, _ string, turns []model.Turn) (string, error) {
	s.got = turns
	return s.reply, s.err
}

func newTestVM(key string, c *stubCompleter) *chatbot.ViewModel {
	opts := chatbot.Options{SystemPrompt: "be nice", Welcome: "Hi, I'm Fred!", MinInputLines: 1, MaxInputLines: 4}
	return chatbot.New(opts, stubKeys{key: key}, c, render.NewHTMLFormatter(render.TrustEscape))
}

func quiet(t *testing.T) {
	t.Helper()
	prev := logging.L()
	logging.Init("error", io.Discard)
	t.Cleanup(func() { logging.Set(prev) })
}

func TestAsk_PrintsReply(t *testing.T) {
	quiet(t)
	c := &stubCompleter{reply: "  Go is a language.\n"}
	vm := newTestVM("k", c)

	var out bytes.Buffer
	err := Ask(context.Background(), vm, render.NewTerminal(render.ModePlain, 80), "what is go?", &out)
	require.NoError(t, err)
	assert.Equal(t, "Go is a language.\n", out.String())

	require.Len(t, c.got, 2)
	assert.Equal(t, "what is go?", c.got[1].Content)
}

func TestAsk_Failures(t *testing.T) {
	quiet(t)
	var out bytes.Buffer
	r := render.NewTerminal(render.ModePlain, 80)

	err := Ask(context.Background(), newTestVM("", &stubCompleter{}), r, "hi", &out)
	assert.ErrorIs(t, err, ErrAskFailed)
	assert.Contains(t, err.Error(), chatbot.MsgKeyFailure)

	err = Ask(context.Background(), newTestVM("k", &stubCompleter{err: errors.New("boom")}), r, "hi", &out)
	assert.ErrorIs(t, err, ErrAskFailed)
	assert.Contains(t, err.Error(), chatbot.MsgTechnicalDifficulties)

	err = Ask(context.Background(), newTestVM("k", &stubCompleter{}), r, "   ", &out)
	assert.ErrorIs(t, err, ErrNoQuestion)
	assert.Empty(t, out.String())
}

func TestReadQuestion(t *testing.T) {
	q, err := readQuestion("hello", strings.NewReader("ignored"), true)
	require.NoError(t, err)
	assert.Equal(t, "hello", q)

	q, err = readQuestion("-", strings.NewReader("from stdin"), false)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", q)

	q, err = readQuestion("", strings.NewReader("piped"), true)
	require.NoError(t, err)
	assert.Equal(t, "piped", q)

	_, err = readQuestion("", strings.NewReader("not read"), false)
	assert.ErrorIs(t, err, ErrNoQuestion)
}

func newTestSession(t *testing.T, vm *chatbot.ViewModel) (*ChatSession, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.UI.ExportDir = t.TempDir()

	var out bytes.Buffer
	s := NewChatSession(cfg, vm, render.NewTerminal(render.ModePlain, 80), &out)
	s.quiet = true
	return s, &out
}

func TestChatSession_SendAndWelcome(t *testing.T) {
	quiet(t)
	s, out := newTestSession(t, newTestVM("k", &stubCompleter{reply: "Hello!"}))

	s.PrintWelcome()
	assert.Contains(t, out.String(), "Hi, I'm Fred!")

	out.Reset()
	require.NoError(t, s.Send(context.Background(), "hi"))
	assert.Contains(t, out.String(), "Fred:")
	assert.Contains(t, out.String(), "Hello!")
}

func TestChatSession_SendShowsError(t *testing.T) {
	quiet(t)
	s, out := newTestSession(t, newTestVM("", &stubCompleter{}))

	require.NoError(t, s.Send(context.Background(), "hi"))
	assert.Contains(t, out.String(), "[X] "+chatbot.MsgKeyFailure)
}

func TestChatSession_SlashCommands(t *testing.T) {
	quiet(t)
	s, out := newTestSession(t, newTestVM("k", &stubCompleter{reply: "Sure."}))
	require.NoError(t, s.Send(context.Background(), "export me"))

	keep, err := s.HandleSlashCommand("/help")
	require.NoError(t, err)
	assert.True(t, keep)
	assert.Contains(t, out.String(), "/export")

	keep, err = s.HandleSlashCommand("/export md")
	require.NoError(t, err)
	assert.True(t, keep)

	files, err := filepath.Glob(filepath.Join(s.cfg.UI.ExportDir, "fredchat_*.md"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "export me")
	assert.Contains(t, string(data), "Sure.")

	_, err = s.HandleSlashCommand("/export pdf")
	assert.Error(t, err)

	keep, err = s.HandleSlashCommand("/dance")
	assert.ErrorIs(t, err, ErrUnknownChatCommand)
	assert.True(t, keep)

	keep, err = s.HandleSlashCommand("/QUIT")
	require.NoError(t, err)
	assert.False(t, keep)
}

func TestLastReply(t *testing.T) {
	assert.Equal(t, "", lastReply(nil))
	assert.Equal(t, "", lastReply([]model.ChatMessage{model.NewUserMessage("x")}))
	assert.Equal(t, "y", lastReply([]model.ChatMessage{model.NewUserMessage("x"), model.NewBotMessage("y")}))
}
