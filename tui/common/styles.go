package common

import "github.com/charmbracelet/lipgloss"

var (
	// AppTitleStyle styles the application title. Rendered at call site with content.
	AppTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6600")).
			Padding(0, 1)

	// ConversationStyle styles the open conversation's name next to the title.
	ConversationStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#A6DA95")).
				Bold(true)

	// SectionStyle styles list section headers in the inbox.
	SectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Italic(true).
			MarginLeft(1)

	// AuthorStyle styles a message sender's name.
	AuthorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7DC4E4"))

	// OwnAuthorStyle styles the viewer's own name.
	OwnAuthorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A6DA95"))

	// TimestampStyle styles timestamps.
	TimestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E738D"))

	// ContentStyle styles message bodies.
	ContentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CAD3F5"))

	// ReplyStyle styles the quoted preview of the message being answered.
	ReplyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8087A2")).
			Italic(true)

	// SelectedStyle marks the selected message with a left bar.
	SelectedStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#FF6600")).
			PaddingLeft(1)

	// UnselectedStyle keeps unselected messages aligned with the selected one.
	UnselectedStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	// PinnedStyle styles the pinned bar and pin markers.
	PinnedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EED49F"))

	// BadgeStyle styles vote counts and reactions.
	BadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F5A97F"))

	// PollBarStyle styles the filled part of a poll result bar.
	PollBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8AADF4"))

	// StatusBarStyle styles the bottom status bar.
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E738D"))

	// HintStyle styles the key hint line.
	HintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#494D64"))

	// ActionActiveStyle styles the selected row of a list.
	ActionActiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF6600")).
				Bold(true).
				Padding(0, 1)

	// ActionInactiveStyle styles unselected rows of a list.
	ActionInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#CAD3F5")).
				Padding(0, 1)

	// UnreadStyle highlights unread counts.
	UnreadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ED8796")).
			Bold(true)

	// ConfirmStyle styles confirmation prompts.
	ConfirmStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ED8796")).
			Bold(true).
			Padding(0, 1)

	// ErrorStyle styles error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ED8796")).
			Bold(true)

	// SuccessStyle styles success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6DA95")).
			Bold(true)
)
