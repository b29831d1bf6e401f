// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the live chat session: which conversation is open,
// which model is selected, the draft input, and whether a turn is in flight.
package session

import (
	"errors"
	"sync"

	"polychat/internal/model"
	"polychat/internal/storage"
)

// ErrTurnInFlight is returned when an operation that would change the active
// conversation is attempted while a completion is awaited.
var ErrTurnInFlight = errors.New("a response is still pending")

// =============================================================================
// SESSION
// =============================================================================

// Session is the mutable state behind the chat screen. All methods are safe
// for concurrent use; the dispatcher settles turns from another goroutine.
type Session struct {
	mu sync.Mutex

	registry *model.Registry
	store    *storage.Store

	// Conversation state
	activeConversationID string
	messages             []model.Message

	// Selection and input
	selectedModelID string
	draft           string

	// Turn state
	awaitingResponse bool
	lastError        string
}

// New creates a session over the given registry and store. No conversation
// is active; the selected model is the registry default.
func New(registry *model.Registry, store *storage.Store) *Session {
	return &Session{
		registry:        registry,
		store:           store,
		selectedModelID: registry.Default().ID,
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ActiveConversationID returns the open conversation's ID, or "" when the
// session shows a fresh unsaved chat.
func (s *Session) ActiveConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeConversationID
}

// SelectedModelID returns the model the next turn will use.
func (s *Session) SelectedModelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedModelID
}

// SelectedModel resolves the selected model in the registry.
func (s *Session) SelectedModel() model.Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.ResolveOrDefault(s.selectedModelID)
}

// Messages returns a copy of the displayed transcript.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Draft returns the current input text.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SetDraft replaces the current input text.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

// AwaitingResponse reports whether a completion is in flight.
func (s *Session) AwaitingResponse() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaitingResponse
}

// LastError returns the advisory error from the most recent failed turn,
// or "" when the last turn succeeded or none has run yet.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// =============================================================================
// CONVERSATION SWITCHING
// =============================================================================

// StartNew clears the session to a fresh unsaved conversation: active ID,
// transcript, and error are dropped and the model selection resets to the
// registry default. Rejected while a turn is in flight.
func (s *Session) StartNew() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.awaitingResponse {
		return ErrTurnInFlight
	}
	s.activeConversationID = ""
	s.messages = nil
	s.lastError = ""
	s.selectedModelID = s.registry.Default().ID
	return nil
}

// SelectConversation opens a stored conversation: its transcript becomes the
// displayed history and its model becomes the selection. An unknown model ID
// on the record falls back to the registry default. Rejected while a turn is
// in flight.
func (s *Session) SelectConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.awaitingResponse {
		return ErrTurnInFlight
	}

	conv, ok := s.store.Get(id)
	if !ok {
		return errors.New("conversation not found")
	}

	s.activeConversationID = conv.ID
	s.messages = conv.Messages
	s.selectedModelID = s.registry.ResolveOrDefault(conv.ModelID).ID
	s.lastError = ""
	return nil
}

// SelectModel changes the model for subsequent turns. The displayed
// transcript is kept, and switching is allowed while a turn is in flight;
// the pending turn still settles against its own conversation and model.
func (s *Session) SelectModel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedModelID = s.registry.ResolveOrDefault(id).ID
}

// =============================================================================
// TURN LIFECYCLE
// =============================================================================

// BeginTurn marks a completion as in flight and clears the previous error.
// It fails with ErrTurnInFlight when a turn is already pending.
func (s *Session) BeginTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.awaitingResponse {
		return ErrTurnInFlight
	}
	s.awaitingResponse = true
	s.lastError = ""
	return nil
}

// EndTurn clears the in-flight flag.
func (s *Session) EndTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaitingResponse = false
}

// BindConversation records the conversation the session is displaying.
func (s *Session) BindConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeConversationID = id
}

// AppendMessage appends to the displayed transcript if the session is still
// showing conversationID. A stale append (the user switched away while the
// turn was pending) is dropped; the stored conversation keeps it regardless.
func (s *Session) AppendMessage(conversationID string, msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeConversationID != conversationID {
		return
	}
	s.messages = append(s.messages, msg)
}

// SetError records the advisory error for the current turn if the session
// is still showing conversationID.
func (s *Session) SetError(conversationID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeConversationID != conversationID {
		return
	}
	s.lastError = message
}
