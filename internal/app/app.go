// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires the registry, store, session, and dispatcher into one
// facade the UI drives. The UI layer renders state and forwards intents;
// all chat semantics live behind this surface.
package app

import (
	"context"

	"polychat/internal/dispatch"
	"polychat/internal/model"
	"polychat/internal/session"
	"polychat/internal/storage"
)

// App is the assembled application core.
type App struct {
	registry   *model.Registry
	store      *storage.Store
	session    *session.Session
	dispatcher *dispatch.Dispatcher
}

// New assembles the core over a registry, a store, and a completer.
func New(registry *model.Registry, store *storage.Store, completer dispatch.Completer) *App {
	sess := session.New(registry, store)
	return &App{
		registry:   registry,
		store:      store,
		session:    sess,
		dispatcher: dispatch.New(registry, store, sess, completer),
	}
}

// =============================================================================
// INTENTS
// =============================================================================

// SendMessage runs one chat turn. Blocks until the turn settles.
func (a *App) SendMessage(ctx context.Context, text string) error {
	return a.dispatcher.Send(ctx, text)
}

// SelectModel switches the model for subsequent turns.
func (a *App) SelectModel(id string) {
	a.session.SelectModel(id)
}

// SelectConversation opens a stored conversation.
func (a *App) SelectConversation(id string) error {
	return a.session.SelectConversation(id)
}

// StartNewConversation clears the screen to a fresh unsaved chat.
func (a *App) StartNewConversation() error {
	return a.session.StartNew()
}

// =============================================================================
// READ ACCESSORS
// =============================================================================

// Models lists the selectable models in registry order.
func (a *App) Models() []model.Info {
	return a.registry.List()
}

// SelectedModel returns the model the next turn will use.
func (a *App) SelectedModel() model.Info {
	return a.session.SelectedModel()
}

// Messages returns the displayed transcript.
func (a *App) Messages() []model.Message {
	return a.session.Messages()
}

// AwaitingResponse reports whether a completion is in flight.
func (a *App) AwaitingResponse() bool {
	return a.session.AwaitingResponse()
}

// LastError returns the advisory error for the most recent failed turn.
func (a *App) LastError() string {
	return a.session.LastError()
}

// ActiveConversationID returns the open conversation's ID, or "".
func (a *App) ActiveConversationID() string {
	return a.session.ActiveConversationID()
}

// Summaries lists past chats newest-first, empty conversations excluded.
func (a *App) Summaries() []storage.Summary {
	return a.store.Summaries(a.registry)
}
