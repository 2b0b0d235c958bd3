package engine_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/tinytelemetry/concentration/internal/deck"
	"github.com/tinytelemetry/concentration/internal/engine"
	"github.com/tinytelemetry/concentration/internal/model"
)

type scriptedRNG struct {
	values []int
	idx    int
}

func (r *scriptedRNG) IntN(n int) int {
	v := r.values[r.idx%len(r.values)] % n
	r.idx++
	return v
}

func seed(v uint64) *uint64 { return &v }

func testItems(n int) []model.Item {
	items := make([]model.Item, n)
	for i := range n {
		items[i] = model.Item{ID: fmt.Sprintf("p%d", i)}
	}
	return items
}

// abab builds a two-pair game laid out as [A,B,A,B].
func abab(t *testing.T) engine.State {
	t.Helper()
	s, err := engine.NewGame(
		[]model.Item{{ID: "A"}, {ID: "B"}},
		engine.Config{PairCount: 2, Selection: deck.SelectFirst},
		&scriptedRNG{values: []int{3, 1, 1}},
	)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	got := []string{s.Deck[0].Item.ID, s.Deck[1].Item.ID, s.Deck[2].Item.ID, s.Deck[3].Item.ID}
	if !reflect.DeepEqual(got, []string{"A", "B", "A", "B"}) {
		t.Fatalf("layout = %v, want [A B A B]", got)
	}
	return s
}

func revealed(slot int) model.Event {
	return model.Event{Kind: model.EventCardRevealed, Slot: slot}
}

func pairEvent(kind model.EventKind, a, b int) model.Event {
	return model.Event{Kind: kind, First: a, Second: b}
}

func expectEvents(t *testing.T, step string, got, want []model.Event) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("%s: events = %+v, want %+v", step, got, want)
	}
}

func TestScenario_TwoPairs(t *testing.T) {
	t.Parallel()

	s := abab(t)
	var ev []model.Event

	s, ev = engine.Reveal(s, 0)
	expectEvents(t, "reveal(0)", ev, []model.Event{revealed(0)})
	if s.Phase() != engine.PhaseOneRevealed {
		t.Fatalf("phase = %v, want one_revealed", s.Phase())
	}

	s, ev = engine.Reveal(s, 1)
	expectEvents(t, "reveal(1)", ev, []model.Event{revealed(1), pairEvent(model.EventMismatchPending, 0, 1)})
	if !s.Turn.InputLocked || s.Phase() != engine.PhaseLocked {
		t.Fatalf("expected locked after mismatch, got %+v", s.Turn)
	}

	s, ev = engine.Reveal(s, 2)
	expectEvents(t, "reveal(2) locked", ev, nil)

	s, ev = engine.ResolveMismatch(s, 0, 1)
	expectEvents(t, "resolve(0,1)", ev, []model.Event{pairEvent(model.EventCardsHidden, 0, 1)})
	if s.Turn.InputLocked || len(s.Turn.Revealed) != 0 {
		t.Fatalf("expected idle after resolve, got %+v", s.Turn)
	}

	s, ev = engine.Reveal(s, 0)
	expectEvents(t, "reveal(0) again", ev, []model.Event{revealed(0)})
	s, ev = engine.Reveal(s, 2)
	expectEvents(t, "reveal(2)", ev, []model.Event{revealed(2), pairEvent(model.EventPairMatched, 0, 2)})
	if s.MatchedPairs != 1 {
		t.Fatalf("matched = %d, want 1", s.MatchedPairs)
	}

	s, ev = engine.Reveal(s, 1)
	expectEvents(t, "reveal(1) again", ev, []model.Event{revealed(1)})
	s, ev = engine.Reveal(s, 3)
	expectEvents(t, "reveal(3)", ev, []model.Event{
		revealed(3),
		pairEvent(model.EventPairMatched, 1, 3),
		{Kind: model.EventGameWon},
	})
	if s.MatchedPairs != 2 || !s.Won() {
		t.Fatalf("expected won with 2 pairs, got matched=%d phase=%v", s.MatchedPairs, s.Phase())
	}
	if s.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", s.Attempts)
	}
}

func TestReveal_GuardsAreNoOps(t *testing.T) {
	t.Parallel()

	base := abab(t)
	matched, _ := engine.Reveal(base, 0)
	matched, _ = engine.Reveal(matched, 2)
	one, _ := engine.Reveal(matched, 1)

	tests := []struct {
		name  string
		state engine.State
		slot  int
	}{
		{"negative index", base, -1},
		{"index past end", base, 4},
		{"matched slot", matched, 0},
		{"other matched slot", matched, 2},
		{"already revealed", one, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ev := engine.Reveal(tt.state, tt.slot)
			if len(ev) != 0 {
				t.Fatalf("expected no events, got %+v", ev)
			}
			if !reflect.DeepEqual(got, tt.state) {
				t.Fatalf("state changed on guarded reveal")
			}
		})
	}
}

func TestReveal_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	s := abab(t)
	s1, _ := engine.Reveal(s, 0)
	s2, _ := engine.Reveal(s1, 2)

	if len(s.Turn.Revealed) != 0 {
		t.Fatalf("original turn modified: %+v", s.Turn)
	}
	if !reflect.DeepEqual(s1.Turn.Revealed, []int{0}) {
		t.Fatalf("intermediate turn modified: %+v", s1.Turn)
	}
	if s1.Deck[0].Matched || s.Deck[2].Matched {
		t.Fatalf("earlier deck marked matched")
	}
	if !s2.Deck[0].Matched || !s2.Deck[2].Matched {
		t.Fatalf("new deck not marked matched")
	}
}

func TestResolveMismatch_Stale(t *testing.T) {
	t.Parallel()

	s := abab(t)
	s, _ = engine.Reveal(s, 0)
	locked, _ := engine.Reveal(s, 1)

	tests := []struct {
		name          string
		state         engine.State
		first, second int
	}{
		{"not locked", abab(t), 0, 1},
		{"reversed order", locked, 1, 0},
		{"different pair", locked, 0, 3},
		{"after reset", engine.Reset(locked), 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ev := engine.ResolveMismatch(tt.state, tt.first, tt.second)
			if len(ev) != 0 {
				t.Fatalf("expected no events, got %+v", ev)
			}
			if !reflect.DeepEqual(got, tt.state) {
				t.Fatalf("stale resolve changed state")
			}
		})
	}

	resolved, ev := engine.ResolveMismatch(locked, 0, 1)
	if len(ev) != 1 {
		t.Fatalf("expected one event, got %+v", ev)
	}
	again, ev := engine.ResolveMismatch(resolved, 0, 1)
	if len(ev) != 0 || !reflect.DeepEqual(again, resolved) {
		t.Fatalf("duplicate resolve was not a no-op")
	}
}

func TestReset_ClearsEverything(t *testing.T) {
	t.Parallel()

	s := abab(t)
	s, _ = engine.Reveal(s, 0)
	s, _ = engine.Reveal(s, 2)
	s, _ = engine.Reveal(s, 1)
	s, _ = engine.Reveal(s, 0) // matched, ignored
	finished, _ := engine.Reveal(s, 3)
	if !finished.Won() {
		t.Fatalf("matched = %d, want 2", finished.MatchedPairs)
	}

	for _, st := range []engine.State{abab(t), finished} {
		r := engine.Reset(st)
		if r.MatchedPairs != 0 || r.Attempts != 0 || len(r.Turn.Revealed) != 0 || r.Turn.InputLocked {
			t.Fatalf("reset left state behind: %+v", r)
		}
		if r.TotalPairs != 2 || len(r.Deck) != 4 {
			t.Fatalf("reset changed pair count: total=%d len=%d", r.TotalPairs, len(r.Deck))
		}
		for _, sl := range r.Deck {
			if sl.Matched {
				t.Fatalf("reset deck has a matched slot")
			}
		}
	}
}

func TestReset_WhileLocked(t *testing.T) {
	t.Parallel()

	s := abab(t)
	s, _ = engine.Reveal(s, 0)
	s, _ = engine.Reveal(s, 1)
	if !s.Turn.InputLocked {
		t.Fatalf("expected locked")
	}

	r := engine.Reset(s)
	if r.Turn.InputLocked || r.Phase() != engine.PhaseIdle {
		t.Fatalf("reset did not unlock: %+v", r.Turn)
	}
	if _, ev := engine.Reveal(r, 0); len(ev) != 1 {
		t.Fatalf("reveal after reset should be accepted, got %+v", ev)
	}
}

func TestNewGame_InsufficientItems(t *testing.T) {
	t.Parallel()

	_, err := engine.NewGame(testItems(3), engine.Config{PairCount: 4}, deck.NewRNG(seed(1)))
	if !errors.Is(err, engine.ErrInsufficientItems) {
		t.Fatalf("expected ErrInsufficientItems, got %v", err)
	}
}

func TestNewGame_UsesSeed(t *testing.T) {
	t.Parallel()

	cfg := engine.Config{PairCount: 8, Selection: deck.SelectRandom}
	a, err := engine.NewGame(testItems(20), cfg, deck.NewRNG(seed(5)))
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	b, err := engine.NewGame(testItems(20), cfg, deck.NewRNG(seed(5)))
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if !reflect.DeepEqual(a.Deck, b.Deck) {
		t.Fatalf("same seed produced different decks")
	}
}

func TestGameWon_EmittedExactlyOnce(t *testing.T) {
	t.Parallel()

	s, err := engine.NewGame(testItems(10), engine.Config{PairCount: 6}, deck.NewRNG(seed(11)))
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	won := 0
	lastMatched := 0
	step := func(slot int) {
		var ev []model.Event
		s, ev = engine.Reveal(s, slot)
		for _, e := range ev {
			switch e.Kind {
			case model.EventGameWon:
				won++
			case model.EventMismatchPending:
				s, _ = engine.ResolveMismatch(s, e.First, e.Second)
			}
		}
		if len(s.Turn.Revealed) > 2 {
			t.Fatalf("revealed grew to %d", len(s.Turn.Revealed))
		}
		if s.MatchedPairs < lastMatched || s.MatchedPairs > lastMatched+1 {
			t.Fatalf("matched went from %d to %d", lastMatched, s.MatchedPairs)
		}
		lastMatched = s.MatchedPairs
	}

	// Try every unmatched slot pair.
	for i := range s.Deck {
		for j := i + 1; j < len(s.Deck); j++ {
			if s.Deck[i].Matched || s.Deck[j].Matched {
				continue
			}
			step(i)
			step(j)
		}
	}
	if !s.Won() {
		t.Fatalf("game never finished")
	}

	for i := range s.Deck {
		var ev []model.Event
		s, ev = engine.Reveal(s, i)
		if len(ev) != 0 {
			t.Fatalf("reveal after win emitted %+v", ev)
		}
	}
	if won != 1 {
		t.Fatalf("GameWon emitted %d times, want 1", won)
	}
}

func TestSnapshot_HidesFaceDownItems(t *testing.T) {
	t.Parallel()

	s := abab(t)
	s, _ = engine.Reveal(s, 0)
	s, _ = engine.Reveal(s, 2)
	s, _ = engine.Reveal(s, 1)

	snap := s.Snapshot("g1", 7)
	if snap.GameID != "g1" || snap.Seq != 7 {
		t.Fatalf("unexpected header: %+v", snap)
	}
	wantStates := []model.SlotState{model.SlotMatched, model.SlotRevealed, model.SlotMatched, model.SlotHidden}
	for i, v := range snap.Slots {
		if v.State != wantStates[i] {
			t.Fatalf("slot %d state = %s, want %s", i, v.State, wantStates[i])
		}
		if (v.Item == nil) != (v.State == model.SlotHidden) {
			t.Fatalf("slot %d item visibility wrong: %+v", i, v)
		}
	}
	if snap.MatchedPairs != 1 || snap.TotalPairs != 2 || !reflect.DeepEqual(snap.Revealed, []int{1}) {
		t.Fatalf("unexpected counters: %+v", snap)
	}
}
