package render

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#10B981")
	colorAccent    = lipgloss.Color("#F59E0B")
	colorError     = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#6B7280")
	colorInfo      = lipgloss.Color("#3B82F6")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	// Tree styles
	OperatorStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	StatementStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	LiteralStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	IdentifierStyle = lipgloss.NewStyle().
			Foreground(colorInfo)

	BranchStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	PositionStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	// Status styles
	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	CaretStyle = lipgloss.NewStyle().
			Foreground(colorError)

	OKStyle = lipgloss.NewStyle().
		Foreground(colorSecondary)

	HelpStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)
