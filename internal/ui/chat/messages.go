// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/fredchat/internal/config"
)

// =============================================================================
// SEND MESSAGES
// =============================================================================

// SendCompleteMsg signals that a SendMessage call returned. The outcome
// itself (reply or user-facing error) is read from the view-model.
type SendCompleteMsg struct {
	Err error
}

// =============================================================================
// EXPORT MESSAGES
// =============================================================================

// ExportDoneMsg reports the result of an export.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg carries a config re-read after the file changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}
