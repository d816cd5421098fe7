// fredchat - chat with Fred from the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fredchat/internal/chatbot"
	"github.com/jeranaias/fredchat/internal/cli"
	"github.com/jeranaias/fredchat/internal/config"
	"github.com/jeranaias/fredchat/internal/logging"
	"github.com/jeranaias/fredchat/internal/ui/chat"
	"github.com/jeranaias/fredchat/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run dispatches one command and returns the process exit code.
func run(argv []string) int {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		cli.PrintError(os.Stderr, err)
		cli.PrintUsage(os.Stderr)
		return 2
	}

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return 0
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return 0
	}

	cfg, err := cli.LoadConfig(args)
	if err != nil {
		cli.PrintError(os.Stderr, err)
		return 1
	}
	logging.Init(cfg.Log.Level, os.Stderr)
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	// Without a terminal the full-screen UI cannot run; fall back to the REPL.
	if cmd == cli.CmdTUI && !cli.IsStdoutTTY() {
		cmd = cli.CmdChat
	}

	switch cmd {
	case cli.CmdTUI:
		err = runTUI(ctx, cfg, args)
	case cli.CmdChat:
		err = cli.HandleChat(ctx, cfg, args)
	case cli.CmdAsk:
		err = cli.HandleAsk(ctx, cfg, args, os.Stdin, os.Stdout)
	case cli.CmdKeyServer:
		ksCtx, ksStop := signal.NotifyContext(ctx, os.Interrupt)
		err = cli.HandleKeyServer(ksCtx, cfg, args, os.Stdin, os.Stdout)
		ksStop()
	case cli.CmdConfig:
		err = cli.HandleConfig(cfg, args, os.Stdout)
	}

	if err != nil {
		cli.PrintError(os.Stderr, err)
		if errors.Is(err, cli.ErrUsage) {
			return 2
		}
		return 1
	}
	return 0
}

// runTUI starts the full-screen chat. Logs go to a file while the UI owns
// the terminal, and display settings follow edits to the config file.
func runTUI(ctx context.Context, cfg *config.Config, args cli.Args) error {
	if err := logging.UseFile(cfg.Log.Level, tuiLogPath(cfg)); err != nil {
		return err
	}

	vm, err := chatbot.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	m := chat.New(ctx, cfg, vm, styles.NewTheme())
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if path := cli.ConfigFilePath(args); path != "" {
		w, err := config.NewWatcher(path, 250*time.Millisecond, chat.WatchConfigCmd(p))
		if err != nil {
			logging.L().Warnf("config hot reload disabled: %v", err)
		} else {
			watchCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			go w.Run(watchCtx)
		}
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running fredchat: %w", err)
	}
	return nil
}

// tuiLogPath is log.file, else fredchat.log in the config directory.
func tuiLogPath(cfg *config.Config) string {
	if cfg.Log.File != "" {
		return cfg.Log.File
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "fredchat.log")
	}
	return filepath.Join(dir, "fredchat.log")
}
