package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tinytelemetry/concentration/internal/model"
)

const newGameTimeout = 30 * time.Second

type tone int

const (
	toneInfo tone = iota
	toneGood
	toneBad
	toneError
)

// Messages

type gameStartedMsg struct {
	snap model.Snapshot
	err  error
}

// updateMsg carries the result of an action or a poll. gen is the action
// generation the request was issued under; poll results from an older
// generation are dropped.
type updateMsg struct {
	upd  model.Update
	err  error
	poll bool
	gen  int
}

type pollTickMsg time.Time

// GameOptions configures a GamePage.
type GameOptions struct {
	PairCount    int
	Seed         *uint64
	PollInterval time.Duration
	Source       string // shown in the header, e.g. "local" or the socket path
}

// GamePage plays one game at a time against a model.GameService.
type GamePage struct {
	games model.GameService
	opts  GameOptions
	keys  KeyMap
	help  help.Model

	snap     model.Snapshot
	lastSeq  uint64
	cursor   int
	starting bool
	showHelp bool

	status     string
	statusTone tone

	pollInFlight bool
	gen          int

	// progress holds attempts spent on each found pair, in order.
	progress      []int
	sinceLastPair int

	width  int
	height int
}

// NewGamePage creates the game page.
func NewGamePage(games model.GameService, opts GameOptions) *GamePage {
	if opts.PollInterval <= 0 {
		opts.PollInterval = model.DefaultPollInterval
	}
	return &GamePage{
		games: games,
		opts:  opts,
		keys:  DefaultKeyMap(),
		help:  help.New(),
	}
}

func (p *GamePage) Init() tea.Cmd {
	return tea.Batch(p.startGame(), p.pollTick())
}

func (p *GamePage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.help.Width = msg.Width
		return nil

	case tea.KeyMsg:
		return p.handleKey(msg)

	case SpinnerTickMsg:
		return p.handleSpinnerTick()

	case gameStartedMsg:
		p.starting = false
		if msg.err != nil {
			p.setStatus(toneError, "Could not start a game: %v", msg.err)
			return nil
		}
		p.snap = msg.snap
		p.lastSeq = msg.snap.Seq
		p.cursor = 0
		p.progress = nil
		p.sinceLastPair = 0
		p.setStatus(toneInfo, "Find the %d pairs.", msg.snap.TotalPairs)
		return nil

	case updateMsg:
		if msg.poll {
			p.pollInFlight = false
			if msg.gen != p.gen {
				return nil
			}
		}
		p.applyUpdate(msg)
		return nil

	case pollTickMsg:
		if p.pollInFlight || p.snap.GameID == "" {
			return p.pollTick()
		}
		p.pollInFlight = true
		return tea.Batch(p.pollCmd(), p.pollTick())
	}
	return nil
}

func (p *GamePage) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, p.keys.ForceQuit):
		return tea.Quit
	case key.Matches(msg, p.keys.Quit):
		return tea.Sequence(p.endGameCmd(p.snap.GameID), tea.Quit)
	}

	if p.showHelp {
		if key.Matches(msg, p.keys.Help, p.keys.Escape) {
			p.showHelp = false
		}
		return nil
	}

	switch {
	case key.Matches(msg, p.keys.Help):
		p.showHelp = true
	case key.Matches(msg, p.keys.Up):
		p.moveCursor(0, -1)
	case key.Matches(msg, p.keys.Down):
		p.moveCursor(0, 1)
	case key.Matches(msg, p.keys.Left):
		p.moveCursor(-1, 0)
	case key.Matches(msg, p.keys.Right):
		p.moveCursor(1, 0)
	case key.Matches(msg, p.keys.Home):
		p.cursor = 0
	case key.Matches(msg, p.keys.End):
		p.cursor = max(0, len(p.snap.Slots)-1)
	case key.Matches(msg, p.keys.Reveal):
		return p.revealCmd(p.cursor)
	case key.Matches(msg, p.keys.Reset):
		return p.resetCmd()
	case key.Matches(msg, p.keys.NewGame):
		old := p.snap.GameID
		p.snap = model.Snapshot{}
		p.gen++
		return tea.Sequence(p.endGameCmd(old), p.startGame())
	}
	return nil
}

// moveCursor moves within the grid, clamping at the edges.
func (p *GamePage) moveCursor(dx, dy int) {
	n := len(p.snap.Slots)
	if n == 0 {
		return
	}
	cols, _ := gridSize(n, p.width)
	row, col := p.cursor/cols, p.cursor%cols
	col += dx
	row += dy
	if col < 0 || col >= cols || row < 0 {
		return
	}
	next := row*cols + col
	if next >= n {
		return
	}
	p.cursor = next
}

// applyUpdate takes the newer snapshot and narrates events not seen yet.
func (p *GamePage) applyUpdate(msg updateMsg) {
	if msg.err != nil {
		if errors.Is(msg.err, model.ErrGameNotFound) {
			p.snap = model.Snapshot{}
			p.setStatus(toneError, "Game ended on the server. Press n for a new game.")
			return
		}
		p.setStatus(toneError, "Error: %v", msg.err)
		return
	}
	upd := msg.upd
	if upd.Snapshot.GameID != p.snap.GameID || upd.Snapshot.Seq < p.snap.Seq {
		return
	}
	p.snap = upd.Snapshot

	for _, ev := range upd.Events {
		if ev.Seq <= p.lastSeq {
			continue
		}
		p.lastSeq = ev.Seq
		p.narrate(ev)
	}
}

func (p *GamePage) narrate(ev model.Event) {
	switch ev.Kind {
	case model.EventCardRevealed:
		if len(p.snap.Revealed) == 1 {
			p.setStatus(toneInfo, "Pick its partner.")
		}
	case model.EventPairMatched:
		p.sinceLastPair++
		p.progress = append(p.progress, p.sinceLastPair)
		p.sinceLastPair = 0
		p.setStatus(toneGood, "Pair found! %s", p.itemTitle(ev.First))
	case model.EventMismatchPending:
		p.sinceLastPair++
		p.setStatus(toneBad, "No match.")
	case model.EventCardsHidden:
		if p.statusTone == toneBad {
			p.setStatus(toneInfo, "Try again.")
		}
	case model.EventGameWon:
		p.setStatus(toneGood, "You won in %d attempts! Press n for a new game.", p.snap.Attempts)
	case model.EventGameReset:
		p.progress = nil
		p.sinceLastPair = 0
		p.setStatus(toneInfo, "Board reset.")
	}
}

func (p *GamePage) itemTitle(slot int) string {
	if slot < 0 || slot >= len(p.snap.Slots) || p.snap.Slots[slot].Item == nil {
		return ""
	}
	it := p.snap.Slots[slot].Item
	if it.Title != "" {
		return it.Title
	}
	return it.ID
}

func (p *GamePage) setStatus(t tone, format string, args ...any) {
	p.statusTone = t
	p.status = fmt.Sprintf(format, args...)
}

// Commands

func (p *GamePage) startGame() tea.Cmd {
	p.starting = true
	games, opts := p.games, model.NewGameOptions{PairCount: p.opts.PairCount, Seed: p.opts.Seed}
	return tea.Batch(func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), newGameTimeout)
		defer cancel()
		snap, err := games.NewGame(ctx, opts)
		return gameStartedMsg{snap: snap, err: err}
	}, spinnerTick())
}

func (p *GamePage) revealCmd(slot int) tea.Cmd {
	id := p.snap.GameID
	if id == "" {
		return nil
	}
	p.gen++
	games, gen := p.games, p.gen
	return func() tea.Msg {
		upd, err := games.Reveal(id, slot)
		return updateMsg{upd: upd, err: err, gen: gen}
	}
}

func (p *GamePage) resetCmd() tea.Cmd {
	id := p.snap.GameID
	if id == "" {
		return nil
	}
	p.gen++
	p.progress = nil
	p.sinceLastPair = 0
	p.setStatus(toneInfo, "Board reset.")
	games, gen := p.games, p.gen
	return func() tea.Msg {
		upd, err := games.Reset(id)
		return updateMsg{upd: upd, err: err, gen: gen}
	}
}

func (p *GamePage) pollCmd() tea.Cmd {
	games, id, after, gen := p.games, p.snap.GameID, p.lastSeq, p.gen
	return func() tea.Msg {
		upd, err := games.Poll(id, after)
		return updateMsg{upd: upd, err: err, poll: true, gen: gen}
	}
}

func (p *GamePage) endGameCmd(id string) tea.Cmd {
	if id == "" {
		return nil
	}
	games := p.games
	return func() tea.Msg {
		games.EndGame(id)
		return nil
	}
}

func (p *GamePage) pollTick() tea.Cmd {
	return tea.Tick(p.opts.PollInterval, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}
