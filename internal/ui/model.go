// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"polychat/internal/app"
)

// focus identifies which pane receives key input.
type focus int

const (
	focusInput focus = iota
	focusHistory
)

// Options configures the chat screen.
type Options struct {
	// Theme is "dark" or "light".
	Theme string
	// HistoryOpen shows the past-chats panel on startup.
	HistoryOpen bool
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	core  *app.App
	theme *Theme

	// Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	// Layout
	width  int
	height int
	ready  bool

	// History panel
	historyOpen  bool
	historyIndex int
	focus        focus

	// Transient notices (switch rejected while awaiting)
	notice string

	quitting bool
}

// NewModel creates the chat screen over the application core.
func NewModel(core *app.App, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = "> "
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	theme := NewTheme(opts.Theme)
	sp.Style = theme.Spinner

	var style string
	if theme.IsDark {
		style = "dark"
	} else {
		style = "light"
	}
	// Renderer failure degrades to plain text, never blocks startup.
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(0),
	)

	return Model{
		core:        core,
		theme:       theme,
		input:       ti,
		spinner:     sp,
		renderer:    renderer,
		historyOpen: opts.HistoryOpen,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// renderMarkdown renders assistant content, falling back to the raw text
// when the renderer is unavailable or fails.
func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return out
}
