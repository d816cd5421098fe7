// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role is the sender role of a request turn on the wire.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// CHAT MESSAGE
// =============================================================================

// ChatMessage is one entry in the visible message list.
// User is true for messages typed by the human and false for bot replies.
// Messages are values and are never modified after creation.
type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	User      bool      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserMessage creates a message authored by the human.
func NewUserMessage(text string) ChatMessage {
	return newChatMessage(text, true)
}

// NewBotMessage creates a message authored by the bot.
func NewBotMessage(text string) ChatMessage {
	return newChatMessage(text, false)
}

func newChatMessage(text string, user bool) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Text:      text,
		User:      user,
		CreatedAt: time.Now(),
	}
}

// Role maps the message sender to its wire role.
func (m ChatMessage) Role() Role {
	if m.User {
		return RoleUser
	}
	return RoleAssistant
}

// =============================================================================
// REQUEST TURNS
// =============================================================================

// Turn is a role-tagged entry in a completion request.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewSystemTurn creates a system instruction turn.
func NewSystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content}
}

// NewUserTurn creates a user turn.
func NewUserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// SingleExchange builds the payload for one send: the system instruction
// followed by the latest user text. Earlier messages are never included, so
// the remote model sees each send in isolation.
func SingleExchange(systemPrompt, userText string) []Turn {
	turns := make([]Turn, 0, 2)
	if systemPrompt != "" {
		turns = append(turns, NewSystemTurn(systemPrompt))
	}
	return append(turns, NewUserTurn(userText))
}
