// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides the terminal chat interface for polychat.
//
// The UI is a Bubble Tea program over the application core: it renders the
// transcript, the model selector, and the collapsible past-chats panel, and
// forwards user intents to the core. All chat semantics (persistence, the
// in-flight guard, error classification) live below this layer.
//
// # Key Types
//
//   - Model: the Bubble Tea model for the chat screen
//   - Theme: the lipgloss styling for both color themes
//
// # Usage
//
//	m := ui.NewModel(core, ui.Options{Theme: "dark"})
//	p := tea.NewProgram(m, tea.WithAltScreen())
//	_, err := p.Run()
package ui
