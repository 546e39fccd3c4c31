package theme

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha.
var (
	Base     = lipgloss.Color("#1e1e2e")
	Mantle   = lipgloss.Color("#181825")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Yellow   = lipgloss.Color("#f9e2af")
	Peach    = lipgloss.Color("#fab387")
	Red      = lipgloss.Color("#f38ba8")

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Background(Mantle).
		Foreground(Text).
		Padding(0, 1)

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
)

// State colors a GREEN/ORANGE/RED usage state.
func State(state string) lipgloss.Style {
	switch state {
	case "RED":
		return lipgloss.NewStyle().Foreground(Red).Bold(true)
	case "ORANGE":
		return lipgloss.NewStyle().Foreground(Peach).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(Green).Bold(true)
	}
}

// Tier colors a low/moderate/high risk tier.
func Tier(tier string) lipgloss.Style {
	switch tier {
	case "high":
		return lipgloss.NewStyle().Foreground(Red).Bold(true)
	case "moderate":
		return lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(Green).Bold(true)
	}
}
