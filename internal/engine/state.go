package engine

import (
	"slices"

	"github.com/tinytelemetry/concentration/internal/deck"
	"github.com/tinytelemetry/concentration/internal/model"
)

// Phase is the per-turn state derived from a State.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseOneRevealed
	PhaseLocked
	PhaseWon
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseOneRevealed:
		return "one_revealed"
	case PhaseLocked:
		return "locked"
	case PhaseWon:
		return "won"
	default:
		return "unknown"
	}
}

// Turn holds the slots revealed in the current turn, in reveal order.
// InputLocked is true only while a mismatch waits to be resolved.
type Turn struct {
	Revealed    []int
	InputLocked bool
}

// Config selects how a deck is built for a game.
type Config struct {
	PairCount int
	Selection deck.Selection
}

// State is one game. Operations take a State and return a new one; the input
// value is never modified.
type State struct {
	Deck         deck.Deck
	Turn         Turn
	MatchedPairs int
	TotalPairs   int
	Attempts     int

	pool []model.Item
	cfg  Config
	rng  deck.RNG
}

// Phase derives the turn phase.
func (s State) Phase() Phase {
	switch {
	case s.TotalPairs > 0 && s.MatchedPairs == s.TotalPairs:
		return PhaseWon
	case s.Turn.InputLocked:
		return PhaseLocked
	case len(s.Turn.Revealed) == 1:
		return PhaseOneRevealed
	default:
		return PhaseIdle
	}
}

// Won reports whether every pair has been found.
func (s State) Won() bool { return s.Phase() == PhaseWon }

// IsRevealed reports whether slot is face up in the current turn.
func (s State) IsRevealed(slot int) bool {
	return slices.Contains(s.Turn.Revealed, slot)
}

// Config returns the configuration the game was built with.
func (s State) Config() Config { return s.cfg }

func (s State) withTurn(t Turn) State {
	s.Turn = t
	return s
}

func (s State) revealedWith(slot int) []int {
	out := make([]int, 0, len(s.Turn.Revealed)+1)
	out = append(out, s.Turn.Revealed...)
	return append(out, slot)
}
