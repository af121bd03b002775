package render

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorPurple   = lipgloss.Color("#7D56F4")
	ColorGreen    = lipgloss.Color("#25A065")
	ColorBlue     = lipgloss.Color("#4285F4")
	ColorRed      = lipgloss.Color("#E05252")
	ColorYellow   = lipgloss.Color("#E5C07B")
	ColorGray     = lipgloss.Color("#626262")
	ColorOffWhite = lipgloss.Color("#D0D0D0")
	ColorOrange   = lipgloss.Color("#D19A66")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)

	CountStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	IDStyle = lipgloss.NewStyle().
		Foreground(ColorGray)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorOffWhite)

	DoneTitleStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Strikethrough(true)

	OverdueTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorRed)

	DescStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			PaddingLeft(6)

	TagStyle = lipgloss.NewStyle().
			Foreground(ColorBlue)
)

// badgeStyles maps a badge class to its chip style.
var badgeStyles = map[string]lipgloss.Style{
	"todo":    lipgloss.NewStyle().Foreground(ColorOffWhite),
	"doing":   lipgloss.NewStyle().Foreground(ColorYellow),
	"blocked": lipgloss.NewStyle().Foreground(ColorOrange),
	"done":    lipgloss.NewStyle().Foreground(ColorGreen),
	"high":    lipgloss.NewStyle().Foreground(ColorRed),
	"medium":  lipgloss.NewStyle().Foreground(ColorYellow),
	"low":     lipgloss.NewStyle().Foreground(ColorGray),
	"due":     lipgloss.NewStyle().Foreground(ColorGray),
	"overdue": lipgloss.NewStyle().Bold(true).Foreground(ColorRed),
}

var defaultBadgeStyle = lipgloss.NewStyle().Foreground(ColorOffWhite)

// Status icons
const (
	IconDone    = "✓"
	IconOpen    = "○"
	IconOverdue = "!"
)
