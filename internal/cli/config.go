// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/fredchat/internal/config"
)

// ErrConfigExists is returned by "config init" when the file is present.
var ErrConfigExists = errors.New("config file already exists (use --force to overwrite)")

// HandleConfig handles "fredchat config show|path|init|get|set".
func HandleConfig(cfg *config.Config, args Args, stdout io.Writer) error {
	switch args.Subcommand {
	case "", "show":
		fmt.Fprintln(stdout, cfg.String())
		return nil

	case "path":
		path, err := editablePath(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, path)
		return nil

	case "init":
		return initConfig(args, stdout)

	case "get":
		if args.ConfigKey == "" {
			return fmt.Errorf("%w: config get <key>", ErrUsage)
		}
		v, err := cfg.Get(args.ConfigKey)
		if err != nil {
			return err
		}
		if s, ok := v.([]string); ok {
			v = strings.Join(s, ",")
		}
		fmt.Fprintln(stdout, v)
		return nil

	case "set":
		if args.ConfigKey == "" {
			return fmt.Errorf("%w: config set <key> <value>", ErrUsage)
		}
		return setConfigValue(args, stdout)

	default:
		return fmt.Errorf("%w: unknown config subcommand %q", ErrUsage, args.Subcommand)
	}
}

// editablePath is the file "init" and "set" write: --config, else the
// default TOML path.
func editablePath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

func initConfig(args Args, stdout io.Writer) error {
	path, err := editablePath(args)
	if err != nil {
		return err
	}
	force := NewArgParser(args.Raw).BoolFlag("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintln(stdout, SuccessStyle.Render("[OK] Wrote "+path))
	return nil
}

// setConfigValue edits the file on disk. Env and .env overrides are not
// applied first so they never get written back.
func setConfigValue(args Args, stdout io.Writer) error {
	path, err := editablePath(args)
	if err != nil {
		return err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".toml" {
		return fmt.Errorf("%w: config set only edits TOML files, not %s", ErrUsage, ext)
	}

	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return err
		}
	}

	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}
	fmt.Fprintln(stdout, SuccessStyle.Render(fmt.Sprintf("[OK] %s updated in %s", args.ConfigKey, path)))
	return nil
}
