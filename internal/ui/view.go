// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"polychat/internal/model"
	"polychat/internal/util"
)

const (
	headerHeight = 2
	footerHeight = 4
	panelWidth   = 36
)

// transcriptHeight returns the viewport height for the current window.
func (m Model) transcriptHeight() int {
	h := m.height - headerHeight - footerHeight
	if h < 1 {
		return 1
	}
	return h
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.viewport.View(),
		m.footerView(),
	)

	if !m.historyOpen {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.historyView(), main)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) headerView() string {
	info := m.core.SelectedModel()
	badge := m.theme.BadgeFor(info.Color).Render(info.Name)
	title := m.theme.HeaderTitle.Render("polychat")
	return m.theme.Header.Render(title+"  "+badge) + "\n"
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshTranscript re-renders the transcript into the viewport.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.transcriptView())
}

func (m Model) transcriptView() string {
	messages := m.core.Messages()
	if len(messages) == 0 {
		return m.theme.PanelEmpty.Render("Send a message to start chatting.")
	}

	var sb strings.Builder
	for _, msg := range messages {
		label := msg.Role.DisplayName() + ":"
		switch msg.Role {
		case model.RoleUser:
			sb.WriteString(m.theme.UserLabel.Render(label))
			sb.WriteString("\n")
			sb.WriteString(m.theme.UserBubble.Render(msg.Content))
		default:
			sb.WriteString(m.theme.AssistantLabel.Render(label))
			sb.WriteString("\n")
			sb.WriteString(strings.TrimRight(m.renderMarkdown(msg.Content), "\n"))
		}
		sb.WriteString("\n\n")
	}

	if m.core.AwaitingResponse() {
		sb.WriteString(m.spinner.View())
		sb.WriteString(m.theme.ThinkingText.Render(" thinking..."))
		sb.WriteString("\n")
	}
	return sb.String()
}

// =============================================================================
// HISTORY PANEL
// =============================================================================

func (m Model) historyView() string {
	summaries := m.core.Summaries()
	inner := panelWidth - 4

	var sb strings.Builder
	sb.WriteString(m.theme.PanelTitle.Render("Past Chats"))
	sb.WriteString("\n\n")

	newChat := "+ New Chat"
	if m.focus == focusHistory && m.historyIndex == 0 {
		sb.WriteString(m.theme.PanelSelected.Render("> " + newChat))
	} else {
		sb.WriteString(m.theme.PanelItem.Render("  " + newChat))
	}
	sb.WriteString("\n")

	if len(summaries) == 0 {
		sb.WriteString(m.theme.PanelEmpty.Render("  No past chats"))
		sb.WriteString("\n")
	}

	for i, s := range summaries {
		selected := m.focus == focusHistory && m.historyIndex == i+1

		title := runewidth.Truncate(s.ModelName, inner-2, "…")
		preview := runewidth.Truncate(util.CollapseWhitespace(s.Preview), inner-2, "…")

		if selected {
			sb.WriteString(m.theme.PanelSelected.Render("> " + title))
		} else {
			sb.WriteString(m.theme.PanelItem.Render("  " + title))
		}
		sb.WriteString("\n")
		sb.WriteString(m.theme.PanelPreview.Render("  " + preview))
		sb.WriteString("\n")
	}

	panel := m.theme.PanelBorder.Width(panelWidth - 2).Render(sb.String())
	return panel
}

// =============================================================================
// FOOTER
// =============================================================================

func (m Model) footerView() string {
	var lines []string

	if errText := m.core.LastError(); errText != "" {
		lines = append(lines, m.theme.ErrorBanner.Render(errText))
	} else if m.notice != "" {
		lines = append(lines, m.theme.ErrorBanner.Render(m.notice))
	} else {
		lines = append(lines, "")
	}

	lines = append(lines, m.input.View())
	lines = append(lines, m.statusBarView())
	return strings.Join(lines, "\n")
}

func (m Model) statusBarView() string {
	shortcuts := []struct{ key, desc string }{
		{"enter", "send"},
		{"tab", "model"},
		{"ctrl+h", "chats"},
		{"ctrl+n", "new"},
		{"ctrl+c", "quit"},
	}

	parts := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		parts = append(parts,
			m.theme.ShortcutKey.Render(s.key)+" "+m.theme.ShortcutDesc.Render(s.desc))
	}
	return m.theme.StatusBar.Render(strings.Join(parts, "  "))
}
