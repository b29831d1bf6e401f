// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: Container for one chat exchange with messages and metadata
//   - Message: Single message with role, content, and timestamp
//   - Info: Registry entry for a selectable model (ID, display name, color)
//   - Registry: Ordered set of selectable models with default fallback
//
// # Usage
//
// Create a conversation and append a message:
//
//	conv := model.NewConversation("openai/gpt-4o-mini")
//	conv.AddUserMessage("Hello!")
//
// Resolve a model with default fallback:
//
//	reg := model.DefaultRegistry()
//	info, ok := reg.Resolve(conv.ModelID)
//	if !ok {
//	    info = reg.Default()
//	}
package model
