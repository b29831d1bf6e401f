// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the chat screen.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	ModelBadge  lipgloss.Style

	// Transcript
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserBubble     lipgloss.Style
	AssistantText  lipgloss.Style

	// Error banner
	ErrorBanner lipgloss.Style

	// History panel
	PanelBorder   lipgloss.Style
	PanelTitle    lipgloss.Style
	PanelItem     lipgloss.Style
	PanelSelected lipgloss.Style
	PanelPreview  lipgloss.Style
	PanelEmpty    lipgloss.Style

	// Input and status
	InputPrompt  lipgloss.Style
	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// NewTheme builds a theme for the given name ("dark" or "light").
func NewTheme(name string) *Theme {
	isDark := name != "light"
	profile := termenv.ColorProfile()

	var (
		fg     lipgloss.Color
		dim    lipgloss.Color
		accent lipgloss.Color
		errFg  lipgloss.Color
	)
	if isDark {
		fg = lipgloss.Color("#e5e7eb")
		dim = lipgloss.Color("#6b7280")
		accent = lipgloss.Color("#60a5fa")
		errFg = lipgloss.Color("#f87171")
	} else {
		fg = lipgloss.Color("#1f2937")
		dim = lipgloss.Color("#9ca3af")
		accent = lipgloss.Color("#2563eb")
		errFg = lipgloss.Color("#b91c1c")
	}

	return &Theme{
		IsDark:       isDark,
		ColorProfile: profile,

		Header:      lipgloss.NewStyle().Padding(0, 1),
		HeaderTitle: lipgloss.NewStyle().Bold(true).Foreground(fg),
		ModelBadge:  lipgloss.NewStyle().Bold(true).Padding(0, 1),

		UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(accent),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(fg),
		UserBubble:     lipgloss.NewStyle().Foreground(fg),
		AssistantText:  lipgloss.NewStyle().Foreground(fg),

		ErrorBanner: lipgloss.NewStyle().Foreground(errFg).Bold(true).Padding(0, 1),

		PanelBorder:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(dim).Padding(0, 1),
		PanelTitle:    lipgloss.NewStyle().Bold(true).Foreground(fg),
		PanelItem:     lipgloss.NewStyle().Foreground(fg),
		PanelSelected: lipgloss.NewStyle().Bold(true).Foreground(accent),
		PanelPreview:  lipgloss.NewStyle().Foreground(dim),
		PanelEmpty:    lipgloss.NewStyle().Italic(true).Foreground(dim),

		InputPrompt:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		Spinner:      lipgloss.NewStyle().Foreground(accent),
		ThinkingText: lipgloss.NewStyle().Italic(true).Foreground(dim),
		StatusBar:    lipgloss.NewStyle().Foreground(dim),
		ShortcutKey:  lipgloss.NewStyle().Bold(true).Foreground(fg),
		ShortcutDesc: lipgloss.NewStyle().Foreground(dim),
	}
}

// BadgeFor returns the model badge style with the model's accent color.
// Unknown or empty colors fall back to the theme accent.
func (t *Theme) BadgeFor(color string) lipgloss.Style {
	if color == "" {
		return t.ModelBadge
	}
	return t.ModelBadge.Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color(color))
}
