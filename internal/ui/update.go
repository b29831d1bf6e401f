// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"polychat/internal/session"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, m.transcriptHeight())
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = m.transcriptHeight()
		}
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case turnSettledMsg:
		if msg.err != nil {
			// The send lost the race against an in-flight turn: give the
			// draft back instead of silently dropping it.
			if errors.Is(msg.err, session.ErrTurnInFlight) {
				if m.input.Value() == "" {
					m.input.SetValue(msg.text)
				}
				m.notice = "Still waiting for a response."
			} else {
				m.notice = msg.err.Error()
			}
		}
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case switchRejectedMsg:
		m.notice = msg.reason
		return m, nil

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.core.AwaitingResponse() {
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey routes a key press by the focused pane.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "ctrl+h":
		m.historyOpen = !m.historyOpen
		if m.historyOpen {
			m.focus = focusHistory
			m.historyIndex = 0
			m.input.Blur()
		} else {
			m.focus = focusInput
			m.input.Focus()
		}
		return m, nil

	case "ctrl+n":
		if err := m.core.StartNewConversation(); err != nil {
			return m, noticeCmd(err)
		}
		m.notice = ""
		m.refreshTranscript()
		return m, nil

	case "tab":
		m.cycleModel(1)
		return m, nil

	case "shift+tab":
		m.cycleModel(-1)
		return m, nil
	}

	if m.focus == focusHistory {
		return m.handleHistoryKey(msg)
	}
	return m.handleInputKey(msg)
}

// handleInputKey handles keys while the message input is focused.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.quitting = true
		return m, tea.Quit

	case "enter":
		text := m.input.Value()
		if m.core.AwaitingResponse() {
			m.notice = "Still waiting for a response."
			return m, nil
		}
		m.input.SetValue("")
		m.notice = ""
		return m, tea.Batch(m.sendCmd(text), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleHistoryKey handles keys while the past-chats panel is focused.
func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	summaries := m.core.Summaries()
	// Index 0 is the "+ New Chat" entry; stored chats follow.
	entries := len(summaries) + 1

	switch msg.String() {
	case "esc":
		m.historyOpen = false
		m.focus = focusInput
		m.input.Focus()
		return m, nil

	case "up", "k":
		if m.historyIndex > 0 {
			m.historyIndex--
		}
		return m, nil

	case "down", "j":
		if m.historyIndex < entries-1 {
			m.historyIndex++
		}
		return m, nil

	case "enter":
		var err error
		if m.historyIndex == 0 {
			err = m.core.StartNewConversation()
		} else if m.historyIndex-1 < len(summaries) {
			err = m.core.SelectConversation(summaries[m.historyIndex-1].ID)
		}
		if err != nil {
			return m, noticeCmd(err)
		}
		m.historyOpen = false
		m.focus = focusInput
		m.input.Focus()
		m.notice = ""
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil
	}
	return m, nil
}

// cycleModel advances the model selection by delta, wrapping around.
// Allowed while a turn is pending; the pending turn keeps its own model.
func (m *Model) cycleModel(delta int) {
	models := m.core.Models()
	current := m.core.SelectedModel().ID
	idx := 0
	for i, info := range models {
		if info.ID == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(models)) % len(models)
	m.core.SelectModel(models[idx].ID)
}

// sendCmd runs one chat turn off the UI goroutine.
func (m Model) sendCmd(text string) tea.Cmd {
	core := m.core
	return func() tea.Msg {
		err := core.SendMessage(context.Background(), text)
		return turnSettledMsg{err: err, text: text}
	}
}

// noticeCmd converts a rejected switch into a transient notice.
func noticeCmd(err error) tea.Cmd {
	return func() tea.Msg {
		if errors.Is(err, session.ErrTurnInFlight) {
			return switchRejectedMsg{reason: "Please wait for the current response to finish."}
		}
		return switchRejectedMsg{reason: err.Error()}
	}
}
