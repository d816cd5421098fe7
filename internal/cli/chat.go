// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/fredchat/internal/chatbot"
	"github.com/jeranaias/fredchat/internal/config"
	"github.com/jeranaias/fredchat/internal/export"
	"github.com/jeranaias/fredchat/internal/logging"
	"github.com/jeranaias/fredchat/internal/render"
	"github.com/jeranaias/fredchat/internal/util"
)

// ErrUnknownChatCommand is returned for an unrecognized slash command.
var ErrUnknownChatCommand = errors.New("unknown command")

const (
	// historyFileName lives in the config directory.
	historyFileName = "chat_history"

	// chatPrompt is unstyled; liner measures the prompt width itself.
	chatPrompt = "you> "
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides line editing and persistent history for the REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor and loads history from historyFile.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.LoadHistory()
	return c
}

// LoadHistory loads history from file. A missing file is not an error.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line. Non-blank lines are added to history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes history owner-only; it holds conversation text.
func (c *ChatCLI) SaveHistory() {
	var buf bytes.Buffer
	if _, err := c.line.WriteHistory(&buf); err != nil {
		return
	}
	if err := util.AtomicWriteFile(c.historyFile, buf.Bytes(), 0600, 0700); err != nil {
		logging.L().Warnf("failed to save chat history: %v", err)
	}
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION
// =============================================================================

// ChatSession runs sends and slash commands for the REPL. It does no
// terminal input of its own.
type ChatSession struct {
	cfg       *config.Config
	vm        *chatbot.ViewModel
	renderer  *render.Terminal
	formatter *render.HTMLFormatter
	out       io.Writer
	quiet     bool
}

// NewChatSession creates a session writing to out.
func NewChatSession(cfg *config.Config, vm *chatbot.ViewModel, renderer *render.Terminal, out io.Writer) *ChatSession {
	trust, err := render.ParseTrustMode(cfg.UI.Trust)
	if err != nil {
		trust = render.TrustTrusted
	}
	return &ChatSession{
		cfg:       cfg,
		vm:        vm,
		renderer:  renderer,
		formatter: render.NewHTMLFormatter(trust),
		out:       out,
	}
}

// PrintWelcome shows the banner and the messages already in the transcript.
func (s *ChatSession) PrintWelcome() {
	if !s.quiet {
		fmt.Fprintln(s.out, TitleStyle.Render("fredchat")+" "+DimStyle.Render("type /help for commands"))
	}
	for _, msg := range s.vm.Messages() {
		if !msg.User {
			s.printReply(msg.Text)
		}
	}
}

// Send sends text and prints the reply or the failure message.
func (s *ChatSession) Send(ctx context.Context, text string) error {
	s.vm.SetInput(norm.NFC.String(text))
	if !s.quiet {
		fmt.Fprintln(s.out, DimStyle.Render(s.cfg.UI.BotName+" is typing..."))
	}
	if err := s.vm.SendMessage(ctx); err != nil {
		return err
	}

	state := s.vm.Snapshot()
	if state.ErrorOccurred {
		fmt.Fprintln(s.out, ErrorStyle.Render("[X] "+state.CustomErrorMessage))
		return nil
	}
	s.printReply(lastReply(state.Messages))
	return nil
}

func (s *ChatSession) printReply(text string) {
	fmt.Fprintln(s.out, BotNameStyle.Render(s.cfg.UI.BotName+":"))
	fmt.Fprintln(s.out, s.renderer.Render(text))
	fmt.Fprintln(s.out)
}

// HandleSlashCommand runs a /command. It returns false when the REPL should
// exit.
func (s *ChatSession) HandleSlashCommand(input string) (bool, error) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "/quit", "/q", "/exit":
		return false, nil
	case "/help", "/h", "/?":
		fmt.Fprintln(s.out, "  /export [html|md|json]  save the transcript")
		fmt.Fprintln(s.out, "  /help                   show this list")
		fmt.Fprintln(s.out, "  /quit                   leave the chat")
		return true, nil
	case "/export":
		format := ""
		if len(fields) > 1 {
			format = fields[1]
		}
		path, err := s.Export(format)
		if err != nil {
			return true, err
		}
		fmt.Fprintln(s.out, SuccessStyle.Render("[OK] Exported to "+path))
		return true, nil
	default:
		return true, fmt.Errorf("%w: %s (try /help)", ErrUnknownChatCommand, cmd)
	}
}

// Export writes the transcript in format to the export directory.
func (s *ChatSession) Export(format string) (string, error) {
	opts := export.DefaultOptions()
	opts.OutputDir = s.cfg.UI.ExportDir
	opts.Formatter = s.formatter

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return "", err
	}
	return export.ExportToFile(export.NewDocument(s.cfg, s.vm.Messages()), exporter, opts)
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the line-based REPL until /quit, Ctrl+C or Ctrl+D.
func HandleChat(ctx context.Context, cfg *config.Config, args Args) error {
	vm, err := chatbot.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	session := NewChatSession(cfg, vm, newTerminalRenderer(cfg), os.Stdout)
	session.quiet = args.Quiet

	var historyFile string
	if dir, err := config.ConfigDir(); err == nil {
		historyFile = filepath.Join(dir, historyFileName)
	} else {
		historyFile = filepath.Join(os.TempDir(), "fredchat_"+historyFileName)
	}
	input := NewChatCLI(historyFile)
	defer input.Close()

	session.PrintWelcome()

	for {
		line, err := input.ReadInput(chatPrompt)
		if err != nil {
			// Ctrl+C (liner.ErrPromptAborted) and Ctrl+D (io.EOF) both leave.
			fmt.Fprintln(os.Stdout)
			return nil
		}

		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "/") {
			keepGoing, err := session.HandleSlashCommand(text)
			if err != nil {
				PrintError(os.Stderr, err)
			}
			if !keepGoing {
				return nil
			}
			continue
		}

		// Ctrl+C during a send cancels the request instead of exiting.
		sendCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		err = session.Send(sendCtx, line)
		stop()
		if err != nil {
			PrintError(os.Stderr, err)
		}
	}
}
