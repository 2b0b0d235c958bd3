// Package engine implements the turn and flip state machine of a memory-matching
// game as pure transitions over a State value.
//
// Guard failures are not errors: a transition whose guard fails returns the
// input state and no events.
package engine

import (
	"github.com/tinytelemetry/concentration/internal/deck"
	"github.com/tinytelemetry/concentration/internal/model"
)

// ErrInsufficientItems is returned by NewGame when the pool holds fewer
// distinct items than the requested pair count.
var ErrInsufficientItems = deck.ErrInsufficientItems

// NewGame builds a fresh deck from items and returns a game with no revealed
// slots and zeroed counters. Deck builder errors propagate unchanged.
func NewGame(items []model.Item, cfg Config, rng deck.RNG) (State, error) {
	d, err := deck.Build(items, cfg.PairCount, cfg.Selection, rng)
	if err != nil {
		return State{}, err
	}
	return State{
		Deck:       d,
		TotalPairs: d.PairCount(),
		pool:       append([]model.Item(nil), items...),
		cfg:        cfg,
		rng:        rng,
	}, nil
}

// Reveal flips slot face up. It is the only user-facing transition.
func Reveal(s State, slot int) (State, []model.Event) {
	if s.Turn.InputLocked ||
		slot < 0 || slot >= len(s.Deck) ||
		s.Deck[slot].Matched ||
		s.IsRevealed(slot) ||
		len(s.Turn.Revealed) >= 2 {
		return s, nil
	}

	revealed := s.revealedWith(slot)
	events := []model.Event{{Kind: model.EventCardRevealed, Slot: slot}}

	if len(revealed) == 1 {
		return s.withTurn(Turn{Revealed: revealed}), events
	}

	a, b := revealed[0], revealed[1]
	s.Attempts++

	if s.Deck[a].Item.ID != s.Deck[b].Item.ID {
		s = s.withTurn(Turn{Revealed: revealed, InputLocked: true})
		return s, append(events, model.Event{Kind: model.EventMismatchPending, First: a, Second: b})
	}

	s.Deck = s.Deck.Clone()
	s.Deck[a].Matched = true
	s.Deck[b].Matched = true
	s.MatchedPairs++
	s = s.withTurn(Turn{})
	events = append(events, model.Event{Kind: model.EventPairMatched, First: a, Second: b})
	if s.MatchedPairs == s.TotalPairs {
		events = append(events, model.Event{Kind: model.EventGameWon})
	}
	return s, events
}

// ResolveMismatch hides a pending mismatch. It is a no-op unless the game is
// locked on exactly first and second, in reveal order, which makes late or
// repeated timer callbacks harmless.
func ResolveMismatch(s State, first, second int) (State, []model.Event) {
	if !s.Turn.InputLocked || len(s.Turn.Revealed) != 2 ||
		s.Turn.Revealed[0] != first || s.Turn.Revealed[1] != second {
		return s, nil
	}
	return s.withTurn(Turn{}), []model.Event{{Kind: model.EventCardsHidden, First: first, Second: second}}
}

// Reset replaces the game with a new one built from the same item pool and
// configuration. It is allowed in every state and always clears the lock.
func Reset(s State) State {
	next, err := NewGame(s.pool, s.cfg, s.rng)
	if err == nil {
		return next
	}

	// Only reachable for a zero State; keep the current cards face down.
	d := s.Deck.Clone()
	for i := range d {
		d[i].Matched = false
	}
	return State{
		Deck:       d,
		TotalPairs: d.PairCount(),
		pool:       s.pool,
		cfg:        s.cfg,
		rng:        s.rng,
	}
}
