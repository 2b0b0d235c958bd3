package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Smallest terminal that still fits one row of cards plus the score and help lines.
const (
	minWidth  = cardWidth + 4
	minHeight = 12
)

// Screen is a full-terminal view hosted by App.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width, height int) string
}

// App is the top-level Bubble Tea model. It tracks the terminal size and
// refuses to draw the screen when the terminal is too small for the board.
type App struct {
	screen Screen
	width  int
	height int
}

// NewApp wraps a screen.
func NewApp(screen Screen) *App {
	return &App{screen: screen}
}

func (a *App) Init() tea.Cmd {
	return a.screen.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = wsm.Width
		a.height = wsm.Height
	}
	return a, a.screen.Update(msg)
}

func (a *App) View() string {
	if a.width == 0 && a.height == 0 {
		return "Initializing..."
	}
	if a.width < minWidth || a.height < minHeight {
		msg := fmt.Sprintf("Terminal too small (%dx%d).\nNeed at least %dx%d.", a.width, a.height, minWidth, minHeight)
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, helpStyle.Render(msg))
	}
	return a.screen.View(a.width, a.height)
}
