// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/fredchat/internal/config"
	"github.com/jeranaias/fredchat/internal/server"
)

// totpIssuer names the key server in authenticator apps.
const totpIssuer = "fredchat"

// HandleKeyServer handles "fredchat keyserver [run|hash|totp]".
func HandleKeyServer(ctx context.Context, cfg *config.Config, args Args, stdin io.Reader, stdout io.Writer) error {
	switch args.Subcommand {
	case "", "run", "start":
		return runKeyServer(ctx, cfg, stdout)
	case "hash":
		return hashToken(args.ConfigKey, stdin, stdout)
	case "totp":
		return generateTOTP(stdout)
	default:
		return fmt.Errorf("%w: unknown keyserver subcommand %q", ErrUsage, args.Subcommand)
	}
}

func runKeyServer(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	opts := server.OptionsFromConfig(cfg)
	if opts.APIKey == "" {
		fmt.Fprintln(stdout, WarningStyle.Render("key_server.api_key is empty; clients will get 503 until it is set"))
	}
	fmt.Fprintf(stdout, "%s %s\n", LabelStyle.Render("listening on"), ValueStyle.Render("http://"+opts.Addr+server.KeyPath))
	return server.New(opts).Run(ctx)
}

// hashToken prints a bcrypt hash of token for key_server.auth_token_bcrypt.
// A token of "-" or "" is read from stdin.
func hashToken(token string, stdin io.Reader, stdout io.Writer) error {
	if token == "" || token == "-" {
		data, err := io.ReadAll(io.LimitReader(stdin, 1024))
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(string(data))
	}
	if token == "" {
		return fmt.Errorf("%w: keyserver hash needs a token", ErrUsage)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash token: %w", err)
	}
	fmt.Fprintln(stdout, string(hash))
	return nil
}

// generateTOTP prints a new shared secret and its provisioning URL. The same
// secret goes in key_server.totp_secret and key_service.totp_secret.
func generateTOTP(stdout io.Writer) error {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: "key-server",
	})
	if err != nil {
		return fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	fmt.Fprintf(stdout, "%s %s\n", LabelStyle.Render("secret"), ValueStyle.Render(key.Secret()))
	fmt.Fprintf(stdout, "%s %s\n", LabelStyle.Render("url"), ValueStyle.Render(key.URL()))
	return nil
}
