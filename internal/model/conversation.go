// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds one persisted chat exchange with a single model.
//
// Invariants:
//   - Messages is append-only: never reordered, never mutated after insert
//   - UpdatedAt reflects the most recent append (or creation, when empty)
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	ModelID   string    `json:"model_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages, in creation order
	Messages []Message `json:"messages"`
}

// NewConversation creates an empty conversation bound to a model.
func NewConversation(modelID string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        "conv_" + uuid.NewString(),
		ModelID:   modelID,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message and bumps UpdatedAt.
func (c *Conversation) AddMessage(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// AddUserMessage creates and appends a user message.
func (c *Conversation) AddUserMessage(content string) Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and appends an assistant message.
func (c *Conversation) AddAssistantMessage(content string) Message {
	msg := NewAssistantMessage(content)
	c.AddMessage(msg)
	return msg
}

// LastMessage returns the most recent message and true, or false if empty.
func (c *Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages. Empty conversations are
// persisted but hidden from history listings until populated.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// CONTEXT WINDOW
// =============================================================================

// Window returns the last n messages in chronological order. The returned
// slice is a copy, so callers may hold it across later appends.
func (c *Conversation) Window(n int) []Message {
	if n <= 0 {
		return nil
	}
	start := 0
	if len(c.Messages) > n {
		start = len(c.Messages) - n
	}
	window := make([]Message, len(c.Messages)-start)
	copy(window, c.Messages[start:])
	return window
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone creates a deep copy of the conversation. Messages are value types,
// so copying the slice is sufficient.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.Messages = make([]Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	return &clone
}
