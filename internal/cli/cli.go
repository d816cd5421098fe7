// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/jeranaias/fredchat/internal/config"
	"github.com/jeranaias/fredchat/internal/render"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdKeyServer
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdAsk:
		return "ask"
	case CmdKeyServer:
		return "keyserver"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// ErrUsage marks errors caused by bad command-line input.
var ErrUsage = errors.New("usage error")

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	LogLevel   string
	Render     string
	Quiet      bool

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw holds the arguments after the command name.
	Raw []string
}

const usageText = `fredchat - chat with Fred from the terminal

Usage:
  fredchat                        Start the full-screen chat (default on a TTY)
  fredchat tui                    Start the full-screen chat
  fredchat chat                   Line-based chat with history
  fredchat ask "question"         Ask one question and print the reply
  fredchat ask -                  Read the question from stdin
  fredchat keyserver              Run the API key server
  fredchat keyserver hash <token> Print a bcrypt hash for auth_token_bcrypt
  fredchat keyserver totp         Generate a TOTP secret for the key server
  fredchat config show            Show the effective config (secrets redacted)
  fredchat config path            Print the config file path
  fredchat config init [--force]  Write a default config file
  fredchat config get <key>       Print one value (e.g. ui.trust)
  fredchat config set <key> <val> Change one value in the config file
  fredchat version                Show version information
  fredchat help                   Show this help

Global flags:
  -c, --config <path>       Config file (.toml, .yaml or .json)
      --log-level <level>   trace, debug, info, notice, warn, error
      --render <mode>       plain, code or markdown
  -q, --quiet               Less output

Chat commands (inside "fredchat chat"):
  /export [html|md|json]    Save the transcript
  /help                     Show chat commands
  /quit                     Leave (Ctrl+D also works)

Full-screen keys:
  Enter send, Alt+Enter newline, Ctrl+E export, PgUp/PgDn scroll, Esc quit

Environment:
  FREDCHAT_HOME             Config directory (default ~/.fredchat)
  FREDCHAT_*                Overrides, e.g. FREDCHAT_KEY_URL, FREDCHAT_TRUST
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "fredchat %s\n", Version)
	fmt.Fprintf(w, "  commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  built:  %s\n", BuildDate)
	fmt.Fprintf(w, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args, error) {
	remaining, args, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, args, err
	}

	if len(remaining) == 0 {
		return CmdTUI, args, nil
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, args, nil
	case "chat", "repl":
		return CmdChat, args, nil
	case "ask":
		parseAskArgs(&args, remaining)
		return CmdAsk, args, nil
	case "keyserver", "key-server", "serve":
		parseSubcommandArgs(&args, remaining)
		return CmdKeyServer, args, nil
	case "config":
		parseSubcommandArgs(&args, remaining)
		return CmdConfig, args, nil
	case "version", "-v", "--version":
		return CmdVersion, args, nil
	case "help", "-h", "--help":
		return CmdHelp, args, nil
	default:
		return CmdHelp, args, fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

// parseGlobalFlags extracts global flags and returns the rest in order.
// Global flags are recognized anywhere before a "--".
func parseGlobalFlags(argv []string) ([]string, Args, error) {
	var (
		remaining []string
		args      Args
	)

	value := func(i int, name string) (string, error) {
		if i+1 >= len(argv) {
			return "", fmt.Errorf("%w: %s needs a value", ErrUsage, name)
		}
		return argv[i+1], nil
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		if arg == "--" {
			remaining = append(remaining, argv[i:]...)
			break
		}

		switch arg {
		case "-q", "--quiet":
			args.Quiet = true
			continue
		case "-c", "--config", "--log-level", "--render":
			v, err := value(i, arg)
			if err != nil {
				return nil, args, err
			}
			setGlobal(&args, arg, v)
			i++
			continue
		}

		if name, v, ok := strings.Cut(arg, "="); ok {
			switch name {
			case "--config", "--log-level", "--render":
				setGlobal(&args, name, v)
				continue
			}
		}

		remaining = append(remaining, arg)
	}

	return remaining, args, nil
}

func setGlobal(args *Args, name, value string) {
	switch name {
	case "-c", "--config":
		args.ConfigPath = value
	case "--log-level":
		args.LogLevel = value
	case "--render":
		args.Render = value
	}
}

// parseAskArgs joins the remaining words into the question. A leading "--"
// is dropped so questions may start with a dash.
func parseAskArgs(args *Args, remaining []string) {
	if len(remaining) > 0 && remaining[0] == "--" {
		remaining = remaining[1:]
	}
	args.Query = strings.Join(remaining, " ")
}

// parseSubcommandArgs fills Subcommand, ConfigKey and ConfigVal from the
// first three positionals.
func parseSubcommandArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Subcommand = strings.ToLower(p.Subcommand())
	args.ConfigKey = p.Positional(1)
	args.ConfigVal = strings.Join(p.PositionalFrom(2), " ")
}

// =============================================================================
// CONFIG LOADING
// =============================================================================

// LoadConfig loads the configuration named by --config (or the default
// location), applies flag overrides and installs it as the global config.
func LoadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if args.LogLevel != "" {
		cfg.Log.Level = args.LogLevel
	}
	if args.Render != "" {
		if _, err := render.ParseMode(args.Render); err != nil {
			return nil, fmt.Errorf("%w: --render: %v", ErrUsage, err)
		}
		cfg.UI.RenderMode = args.Render
	}

	config.SetGlobal(cfg)
	return cfg, nil
}

// ConfigFilePath returns the config file in use: the --config path, else the
// first default file that exists, else "".
func ConfigFilePath(args Args) string {
	if args.ConfigPath != "" {
		return args.ConfigPath
	}
	for _, find := range []func() (string, error){config.ConfigPathTOML, config.ConfigPathYAML} {
		if p, err := find(); err == nil {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// PrintError writes err to w in the CLI error style.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", ErrorStyle.Render("Error:"), err)
}
