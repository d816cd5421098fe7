// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/fredchat/internal/chatbot"
	"github.com/jeranaias/fredchat/internal/config"
	"github.com/jeranaias/fredchat/internal/model"
	"github.com/jeranaias/fredchat/internal/render"
)

var (
	// ErrNoQuestion is returned when ask has nothing to send.
	ErrNoQuestion = errors.New("no question given")

	// ErrAskFailed wraps the user-facing failure message of a send.
	ErrAskFailed = errors.New("ask failed")
)

// maxQuestionSize caps a question read from stdin.
const maxQuestionSize = 1 << 20

// HandleAsk handles "fredchat ask": one question, one printed reply.
func HandleAsk(ctx context.Context, cfg *config.Config, args Args, stdin io.Reader, stdout io.Writer) error {
	question, err := readQuestion(args.Query, stdin, !IsTTY())
	if err != nil {
		return err
	}

	vm, err := chatbot.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	return Ask(ctx, vm, newTerminalRenderer(cfg), question, stdout)
}

// readQuestion returns query, or stdin's contents when query is "-" or empty
// with piped input.
func readQuestion(query string, stdin io.Reader, piped bool) (string, error) {
	if query == "-" || (query == "" && piped) {
		data, err := io.ReadAll(io.LimitReader(stdin, maxQuestionSize))
		if err != nil {
			return "", fmt.Errorf("failed to read question from stdin: %w", err)
		}
		query = string(data)
	}
	if strings.TrimSpace(query) == "" {
		return "", ErrNoQuestion
	}
	return query, nil
}

// Ask sends question through vm and writes the rendered reply to out.
func Ask(ctx context.Context, vm *chatbot.ViewModel, renderer *render.Terminal, question string, out io.Writer) error {
	if strings.TrimSpace(question) == "" {
		return ErrNoQuestion
	}

	vm.SetInput(norm.NFC.String(question))
	if err := vm.SendMessage(ctx); err != nil {
		return err
	}

	state := vm.Snapshot()
	if state.ErrorOccurred {
		return fmt.Errorf("%w: %s", ErrAskFailed, state.CustomErrorMessage)
	}

	fmt.Fprintln(out, renderer.Render(lastReply(state.Messages)))
	return nil
}

// lastReply returns the newest message when it is a bot reply.
func lastReply(msgs []model.ChatMessage) string {
	if len(msgs) == 0 || msgs[len(msgs)-1].User {
		return ""
	}
	return msgs[len(msgs)-1].Text
}

// newTerminalRenderer builds a reply renderer for the configured mode at the
// current terminal width.
func newTerminalRenderer(cfg *config.Config) *render.Terminal {
	mode, err := render.ParseMode(cfg.UI.RenderMode)
	if err != nil {
		mode = render.ModeCode
	}
	if !ColorsEnabled() && mode == render.ModeCode {
		mode = render.ModePlain
	}
	return render.NewTerminal(mode, GetTerminalWidth())
}
