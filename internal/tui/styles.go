package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorBlue   = lipgloss.Color("39")
	ColorGreen  = lipgloss.Color("42")
	ColorOrange = lipgloss.Color("208")
	ColorRed    = lipgloss.Color("196")
	ColorGray   = lipgloss.Color("244")
	ColorDim    = lipgloss.Color("238")
	ColorWhite  = lipgloss.Color("255")
)

var titleStyle = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)

var scoreStyle = lipgloss.NewStyle().Foreground(ColorWhite)

var helpStyle = lipgloss.NewStyle().Foreground(ColorGray)

var chartTitleStyle = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)

var sectionStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorDim).
	Padding(0, 1)

// Card styles share a border so the grid keeps its geometry across states.
var cardHiddenStyle = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	BorderForeground(ColorGray).
	Foreground(ColorGray).
	Align(lipgloss.Center)

var cardRevealedStyle = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	BorderForeground(ColorOrange).
	Foreground(ColorWhite).
	Bold(true).
	Align(lipgloss.Center)

var cardMatchedStyle = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	BorderForeground(ColorGreen).
	Foreground(ColorGreen).
	Align(lipgloss.Center)

// statusStyle colors a status message by tone.
func statusStyle(t tone) lipgloss.Style {
	switch t {
	case toneGood:
		return lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	case toneBad:
		return lipgloss.NewStyle().Foreground(ColorOrange)
	case toneError:
		return lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(ColorGray)
	}
}
