package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorError     = lipgloss.Color("203") // Red
)

// SourceBadge style for source name badges.
var SourceBadge = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Bold(true)

// KeywordHit style for matched keywords inside item text.
var KeywordHit = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// ItemMeta style for timestamps and URLs.
var ItemMeta = lipgloss.NewStyle().
	Foreground(colorSecondary)

// InfoLine style for informational output.
var InfoLine = lipgloss.NewStyle().
	Foreground(colorSuccess)

// ErrorLine style for inline error output.
var ErrorLine = lipgloss.NewStyle().
	Foreground(colorError)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarText style for descriptive text in the status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// Prompt style for the command input prompt.
var Prompt = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)
