// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation history persistence for polychat.
//
// The history is a mapping from conversation ID to conversation, capped at
// MaxConversations entries, serialized as a single JSON document behind a
// key-value Backend. Two backends are provided: an atomic-write file backend
// and a SQLite backend.
//
// Durability is best-effort by design: a corrupt or missing blob loads as an
// empty history, and a failed write degrades the session to in-memory-only
// operation instead of aborting the turn.
package storage
