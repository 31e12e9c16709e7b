package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/taskdeck/internal/model"
)

var (
	// Priority colors
	PriorityHighColor   = lipgloss.Color("#FF6B6B")
	PriorityMediumColor = lipgloss.Color("#FFE66D")
	PriorityLowColor    = lipgloss.Color("#4ECDC4")

	// Status colors
	Completed  = lipgloss.Color("#95E1A3")
	InProgress = lipgloss.Color("#FFB347")
	NotStarted = lipgloss.Color("#6C757D")
	Overdue    = lipgloss.Color("#FF6B6B")

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	StatsStyle = lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(Border)

	SidebarStyle = lipgloss.NewStyle().
			Width(24).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(Border).
			Padding(1, 1)

	TaskListStyle = lipgloss.NewStyle().
			Padding(1, 2)

	CategoryItemStyle = lipgloss.NewStyle().
				Padding(0, 1)

	CategoryItemSelectedStyle = lipgloss.NewStyle().
					Padding(0, 1).
					Background(Surface).
					Bold(true)

	TaskItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	TaskItemSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	TaskDoneStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Strikethrough(true).
			Padding(0, 1)

	OverdueStyle = lipgloss.NewStyle().Foreground(Overdue).Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// PriorityStyle returns the style for a given priority
func PriorityStyle(p model.Priority) lipgloss.Style {
	switch p {
	case model.PriorityHigh:
		return lipgloss.NewStyle().Foreground(PriorityHighColor).Bold(true)
	case model.PriorityMedium:
		return lipgloss.NewStyle().Foreground(PriorityMediumColor)
	default:
		return lipgloss.NewStyle().Foreground(PriorityLowColor)
	}
}

// FormatPriority returns a one letter priority badge
func FormatPriority(p model.Priority) string {
	badge := "L"
	switch p {
	case model.PriorityHigh:
		badge = "H"
	case model.PriorityMedium:
		badge = "M"
	}
	return PriorityStyle(p).Render(badge)
}

// StatusStyle returns the style for a given status
func StatusStyle(s model.Status) lipgloss.Style {
	switch s {
	case model.StatusCompleted:
		return lipgloss.NewStyle().Foreground(Completed)
	case model.StatusInProgress:
		return lipgloss.NewStyle().Foreground(InProgress)
	default:
		return lipgloss.NewStyle().Foreground(NotStarted)
	}
}

// CategoryStyle colors a category name with its own color
func CategoryStyle(c model.Category) lipgloss.Style {
	if c.Color == "" {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color))
}
