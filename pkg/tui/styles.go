package tui

import (
	"charm.land/lipgloss/v2"
)

// ANSI 256 palette shared across the terminal surface.
var (
	colorAccent      = lipgloss.Color("141")
	colorText        = lipgloss.Color("252")
	colorTextMuted   = lipgloss.Color("245")
	colorError       = lipgloss.Color("196")
	colorCode        = lipgloss.Color("213")
	colorCodeBg      = lipgloss.Color("235")
	colorUser        = lipgloss.Color("39")
	colorBorderMuted = lipgloss.Color("62")
)

var (
	userLabelStyle = lipgloss.NewStyle().
			Foreground(colorUser).
			Bold(true)

	aiLabelStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	boldStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	italicStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Italic(true)

	codeStyle = lipgloss.NewStyle().
			Foreground(colorCode).
			Background(colorCodeBg)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	attachmentStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	separatorStyle = lipgloss.NewStyle().
			Foreground(colorBorderMuted)
)
