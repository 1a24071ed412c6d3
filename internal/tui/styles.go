// Package tui provides the interactive chat interface and styled terminal
// output using lipgloss.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color (ledger green).
	PrimaryColor = lipgloss.Color("#2EC27E")
	// AccentColor highlights amounts and categories.
	AccentColor = lipgloss.Color("#F5C211")
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// UserStyle formats the user's side of the chat transcript.
	UserStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor)

	// AssistantStyle formats the assistant's side of the chat transcript.
	AssistantStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	// AmountStyle highlights money values.
	AmountStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor)

	// CategoryStyle highlights category names.
	CategoryStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text such as confidence hints.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// SuccessStyle formats confirmation messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)
)
