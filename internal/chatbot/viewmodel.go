// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatbot

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/jeranaias/fredchat/internal/completion"
	"github.com/jeranaias/fredchat/internal/config"
	"github.com/jeranaias/fredchat/internal/keyclient"
	"github.com/jeranaias/fredchat/internal/logging"
	"github.com/jeranaias/fredchat/internal/model"
	"github.com/jeranaias/fredchat/internal/render"
)

// =============================================================================
// USER-FACING MESSAGES
// =============================================================================

// Messages shown in the error banner. Underlying causes are only logged.
const (
	MsgKeyFailure            = "Failed to retrieve API key."
	MsgInvalidResponse       = "Invalid or empty response from the API."
	MsgTechnicalDifficulties = "I'm experiencing technical difficulties at the moment. Please try again later."
)

// ErrSendInProgress is returned when SendMessage is called while another
// send has not finished. The rejected call changes nothing.
var ErrSendInProgress = errors.New("a message is already being sent")

// =============================================================================
// COLLABORATORS
// =============================================================================

// KeyProvider returns a fresh completion credential, or "" when none could
// be obtained.
type KeyProvider interface {
	GetAPIKey(ctx context.Context) string
}

// Completer sends one request and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, apiKey string, turns []model.Turn) (string, error)
}

// Formatter turns reply text into the HTML kept as the formatted response.
type Formatter interface {
	Format(text string) template.HTML
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Options are the fixed settings of a view-model.
type Options struct {
	// SystemPrompt is sent ahead of every user message.
	SystemPrompt string
	// Welcome is appended as a bot message on construction when non-empty.
	Welcome string
	// MinInputLines and MaxInputLines bound AutoGrow.
	MinInputLines int
	MaxInputLines int
}

// OptionsFromConfig extracts view-model options from the app config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SystemPrompt:  cfg.Completion.SystemPrompt,
		Welcome:       cfg.UI.Welcome,
		MinInputLines: 1,
		MaxInputLines: cfg.UI.MaxInputLines,
	}
}

// =============================================================================
// VIEW-MODEL
// =============================================================================

// State is a point-in-time copy of everything a renderer needs.
type State struct {
	Messages           []model.ChatMessage
	Input              string
	Loading            bool
	ErrorOccurred      bool
	CustomErrorMessage string
	FormattedResponse  template.HTML
}

// ViewModel holds the chat state and the send sequence behind every front end.
// It is safe for concurrent use: renderers may read snapshots while a send
// runs on another goroutine.
type ViewModel struct {
	opts      Options
	keys      KeyProvider
	completer Completer
	formatter Formatter

	transcript *model.Transcript

	mu                 sync.Mutex
	input              string
	loading            bool
	errorOccurred      bool
	customErrorMessage string
	formatted          template.HTML
	scrollHook         func() error
}

// New creates a view-model and posts the welcome message.
func New(opts Options, keys KeyProvider, completer Completer, formatter Formatter) *ViewModel {
	if opts.MinInputLines < 1 {
		opts.MinInputLines = 1
	}
	if opts.MaxInputLines < opts.MinInputLines {
		opts.MaxInputLines = opts.MinInputLines
	}

	vm := &ViewModel{
		opts:       opts,
		keys:       keys,
		completer:  completer,
		formatter:  formatter,
		transcript: model.NewTranscript(),
	}
	if opts.Welcome != "" {
		vm.transcript.Append(model.NewBotMessage(opts.Welcome))
	}
	return vm
}

// NewFromConfig wires the key client, completion backend and formatter
// described by cfg.
func NewFromConfig(cfg *config.Config) (*ViewModel, error) {
	completer, err := completion.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	trust, err := render.ParseTrustMode(cfg.UI.Trust)
	if err != nil {
		return nil, fmt.Errorf("ui.trust: %w", err)
	}
	if trust == render.TrustTrusted {
		logging.L().Debug("reply HTML is inserted without escaping (ui.trust=trusted)")
	}
	return New(
		OptionsFromConfig(cfg),
		keyclient.NewFromConfig(cfg),
		completer,
		render.NewHTMLFormatter(trust),
	), nil
}

// =============================================================================
// STATE ACCESSORS
// =============================================================================

// SetInput replaces the current input text.
func (vm *ViewModel) SetInput(text string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.input = text
}

// Input returns the current input text.
func (vm *ViewModel) Input() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.input
}

// Loading reports whether a send is in flight.
func (vm *ViewModel) Loading() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.loading
}

// Messages returns a copy of the message list in order.
func (vm *ViewModel) Messages() []model.ChatMessage {
	return vm.transcript.Messages()
}

// Snapshot returns a consistent copy of the full state.
func (vm *ViewModel) Snapshot() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return State{
		Messages:           vm.transcript.Messages(),
		Input:              vm.input,
		Loading:            vm.loading,
		ErrorOccurred:      vm.errorOccurred,
		CustomErrorMessage: vm.customErrorMessage,
		FormattedResponse:  vm.formatted,
	}
}

// =============================================================================
// SEND SEQUENCE
// =============================================================================

// SendMessage sends the current input.
//
// Whitespace-only input is ignored. Otherwise the input is appended as a user
// message, a credential is fetched, and one completion request is made with
// the system prompt and that message alone. The reply is appended as a bot
// message; a failure is recorded in the error flags instead. Either way the
// send ends with Loading false and the input cleared.
//
// The only error returned is ErrSendInProgress. Failures of the send itself
// are reported through Snapshot.
func (vm *ViewModel) SendMessage(ctx context.Context) error {
	vm.mu.Lock()
	if vm.loading {
		vm.mu.Unlock()
		return ErrSendInProgress
	}
	text := vm.input
	if strings.TrimSpace(text) == "" {
		vm.mu.Unlock()
		return nil
	}
	vm.transcript.Append(model.NewUserMessage(text))
	vm.loading = true
	vm.errorOccurred = false
	vm.customErrorMessage = ""
	vm.mu.Unlock()

	defer func() {
		vm.mu.Lock()
		vm.loading = false
		vm.input = ""
		vm.mu.Unlock()
	}()

	apiKey := vm.keys.GetAPIKey(ctx)
	if apiKey == "" {
		vm.handleError(MsgKeyFailure, nil)
		return nil
	}

	reply, err := vm.completer.Complete(ctx, apiKey, model.SingleExchange(vm.opts.SystemPrompt, text))
	switch {
	case errors.Is(err, completion.ErrEmptyResponse):
		vm.handleError(MsgInvalidResponse, err)
		return nil
	case err != nil:
		vm.handleError(MsgTechnicalDifficulties, err)
		return nil
	}

	reply = strings.TrimSpace(reply)
	formatted := vm.formatter.Format(reply)

	vm.mu.Lock()
	vm.transcript.Append(model.NewBotMessage(reply))
	vm.formatted = formatted
	vm.mu.Unlock()
	return nil
}

// handleError records a user-facing failure and logs the cause.
func (vm *ViewModel) handleError(message string, cause error) {
	fields := logging.Fields{"user_message": message}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	logging.ErrorWithFields("send failed", fields)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.customErrorMessage = message
	vm.errorOccurred = true
}

// =============================================================================
// INPUT SIZING AND SCROLLING
// =============================================================================

// AutoGrow returns the input height, in lines, that fits lineCount lines of
// content within the configured bounds.
func (vm *ViewModel) AutoGrow(lineCount int) int {
	if lineCount < vm.opts.MinInputLines {
		return vm.opts.MinInputLines
	}
	if lineCount > vm.opts.MaxInputLines {
		return vm.opts.MaxInputLines
	}
	return lineCount
}

// SetScrollHook registers the function that scrolls the message list to its
// last line. Front ends register it once their list exists.
func (vm *ViewModel) SetScrollHook(hook func() error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.scrollHook = hook
}

// RenderComplete is called by the front end after every render.
func (vm *ViewModel) RenderComplete() {
	vm.ScrollToBottom()
}

// ScrollToBottom runs the scroll hook. Errors and panics from the hook are
// swallowed; a missing hook is a no-op.
func (vm *ViewModel) ScrollToBottom() {
	vm.mu.Lock()
	hook := vm.scrollHook
	vm.mu.Unlock()
	if hook == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logging.L().Debugf("scroll to bottom panicked: %v", r)
		}
	}()
	if err := hook(); err != nil {
		logging.L().Debugf("scroll to bottom failed: %v", err)
	}
}
