package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestApp_TooSmall(t *testing.T) {
	t.Parallel()
	games := &fakeGames{snap: hiddenSnapshot("g1", 2)}
	app := NewApp(NewGamePage(games, GameOptions{}))

	if got := app.View(); got != "Initializing..." {
		t.Errorf("view before size = %q", got)
	}

	app.Update(tea.WindowSizeMsg{Width: 10, Height: 5})
	if got := app.View(); !strings.Contains(got, "Terminal too small") {
		t.Errorf("small view = %q", got)
	}

	app.Update(tea.WindowSizeMsg{Width: 120, Height: 50})
	app.Update(gameStartedMsg{snap: games.snap})
	if got := app.View(); !strings.Contains(got, "Pairs 0/2") {
		t.Errorf("view missing score line:\n%s", got)
	}
}
