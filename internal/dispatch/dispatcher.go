// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch coordinates a chat turn end to end: persist the user
// message, call the completion API against the recent context window, and
// settle the outcome back into the session and the history store.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"polychat/internal/cloud"
	"polychat/internal/model"
	"polychat/internal/session"
	"polychat/internal/storage"
)

// ContextWindow is how many trailing messages are sent with each request.
const ContextWindow = 12

// rateLimitAdvisory is shown when the upstream rejects a turn with HTTP 429.
const rateLimitAdvisory = "Rate limit exceeded for %s. Please wait or switch to another model."

// Completer is the completion surface the dispatcher talks to. *cloud.Client
// satisfies it; tests substitute stubs.
type Completer interface {
	Complete(ctx context.Context, model string, messages []cloud.ChatMessage) (string, error)
}

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher runs chat turns. One turn may be in flight at a time; the
// session enforces the guard.
type Dispatcher struct {
	registry  *model.Registry
	store     *storage.Store
	session   *session.Session
	completer Completer
}

// New creates a dispatcher over the given collaborators.
func New(registry *model.Registry, store *storage.Store, sess *session.Session, completer Completer) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		store:     store,
		session:   sess,
		completer: completer,
	}
}

// Send runs one chat turn with the given input text.
//
// Blank input is a no-op. A second send while a turn is pending fails with
// session.ErrTurnInFlight. The user message is committed optimistically and
// is never rolled back: a failed completion surfaces as an advisory error
// next to the transcript, not as a retraction.
func (d *Dispatcher) Send(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	if err := d.session.BeginTurn(); err != nil {
		return err
	}
	defer d.session.EndTurn()

	conv := d.currentConversation()

	// The turn settles against the conversation and model captured here,
	// even if the user switches either while the request is in flight.
	conversationID := conv.ID
	modelID := d.session.SelectedModelID()
	conv.ModelID = modelID

	userMsg := conv.AddUserMessage(trimmed)
	d.persist(conv)
	d.session.BindConversation(conversationID)
	d.session.AppendMessage(conversationID, userMsg)
	d.session.SetDraft("")

	content, err := d.completer.Complete(ctx, modelID, toWire(conv.Window(ContextWindow)))
	if err != nil {
		d.session.SetError(conversationID, Advisory(err, d.registry.ResolveOrDefault(modelID).Name))
		return nil
	}

	assistantMsg := conv.AddAssistantMessage(content)
	d.persist(conv)
	d.session.AppendMessage(conversationID, assistantMsg)
	return nil
}

// currentConversation returns the conversation the turn appends to: the
// stored record behind the session's active ID, or a fresh conversation
// when none is active. An active ID whose record was evicted mid-session
// is rebuilt from the displayed transcript so no shown message is lost.
func (d *Dispatcher) currentConversation() *model.Conversation {
	activeID := d.session.ActiveConversationID()
	if activeID == "" {
		return model.NewConversation(d.session.SelectedModelID())
	}

	if conv, ok := d.store.Get(activeID); ok {
		return conv
	}

	conv := model.NewConversation(d.session.SelectedModelID())
	conv.ID = activeID
	conv.Messages = d.session.Messages()
	return conv
}

// persist upserts the conversation and saves the history. Persistence is
// best-effort: a failed save is logged and the session continues in memory.
func (d *Dispatcher) persist(conv *model.Conversation) {
	d.store.Upsert(conv)
	if err := d.store.Save(); err != nil {
		log.Printf("history: save failed, continuing in memory: %v", err)
	}
}

// toWire converts transcript messages to completion API messages.
func toWire(messages []model.Message) []cloud.ChatMessage {
	wire := make([]cloud.ChatMessage, len(messages))
	for i, msg := range messages {
		wire[i] = cloud.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	return wire
}

// Advisory maps a completion failure to the message shown to the user.
// Classification is first-match: rate limiting, then upstream rejection,
// then everything else as a network failure.
func Advisory(err error, modelName string) string {
	if errors.Is(err, cloud.ErrRateLimited) {
		return fmt.Sprintf(rateLimitAdvisory, modelName)
	}

	var upstream *cloud.UpstreamError
	if errors.As(err, &upstream) {
		return "Error: " + upstream.StatusText
	}

	return "Network or API error: " + err.Error()
}
