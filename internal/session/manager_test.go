package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tinytelemetry/concentration/internal/deck"
	"github.com/tinytelemetry/concentration/internal/model"
)

type stubCatalog struct {
	items []model.Item
	err   error
}

func (c stubCatalog) ListItems(context.Context) ([]model.Item, error) {
	return c.items, c.err
}

type fakeScheduler struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []func()
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.pending = append(s.pending, f)
}

// take removes and returns the pending callbacks without running them.
func (s *fakeScheduler) take() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fns := s.pending
	s.pending = nil
	return fns
}

// fire runs every pending callback.
func (s *fakeScheduler) fire() int {
	s.mu.Lock()
	fns := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, f := range fns {
		f()
	}
	return len(fns)
}

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]model.Event
	err     error
}

func (p *recordingPublisher) Publish(_ string, events []model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, events)
	return p.err
}

func items(n int) []model.Item {
	out := make([]model.Item, n)
	for i := range n {
		out[i] = model.Item{ID: fmt.Sprintf("i%d", i), Title: fmt.Sprintf("Item %d", i)}
	}
	return out
}

func seedp(v uint64) *uint64 { return &v }

func newTestManager(t *testing.T, cfg Config, opts ...Option) (*Manager, *fakeScheduler) {
	t.Helper()
	sched := &fakeScheduler{}
	opts = append([]Option{WithScheduler(sched)}, opts...)
	return NewManager(stubCatalog{items: items(12)}, cfg, opts...), sched
}

// findPair returns two slots holding the same item, and a slot holding a
// different item from the first.
func findPair(t *testing.T, m *Manager, id string) (a, b, other int) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.games[id].state.Deck
	a, b, other = -1, -1, -1
	for i := range d {
		for j := i + 1; j < len(d); j++ {
			if d[i].Item.ID == d[j].Item.ID && a < 0 {
				a, b = i, j
			}
		}
	}
	for i := range d {
		if d[i].Item.ID != d[a].Item.ID {
			other = i
			break
		}
	}
	return a, b, other
}

func TestNewGame_Defaults(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t, Config{PairCount: 4, Seed: seedp(1)})

	snap, err := m.NewGame(context.Background(), model.NewGameOptions{})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if snap.GameID == "" {
		t.Fatal("expected a game id")
	}
	if snap.TotalPairs != 4 || len(snap.Slots) != 8 {
		t.Fatalf("unexpected size: pairs=%d slots=%d", snap.TotalPairs, len(snap.Slots))
	}
	for _, s := range snap.Slots {
		if s.State != model.SlotHidden || s.Item != nil {
			t.Fatalf("new game slot not hidden: %+v", s)
		}
	}

	snap2, err := m.NewGame(context.Background(), model.NewGameOptions{PairCount: 2})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if snap2.TotalPairs != 2 {
		t.Fatalf("override ignored: pairs=%d", snap2.TotalPairs)
	}
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
}

func TestNewGame_Errors(t *testing.T) {
	t.Parallel()

	down := errors.New("connection refused")
	m := NewManager(stubCatalog{err: down}, Config{})
	_, err := m.NewGame(context.Background(), model.NewGameOptions{})
	if !errors.Is(err, model.ErrCatalogUnavailable) || !errors.Is(err, down) {
		t.Fatalf("expected wrapped catalog error, got %v", err)
	}

	m = NewManager(stubCatalog{items: items(3)}, Config{PairCount: 5})
	_, err = m.NewGame(context.Background(), model.NewGameOptions{})
	if !errors.Is(err, deck.ErrInsufficientItems) {
		t.Fatalf("expected ErrInsufficientItems, got %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("failed game was registered")
	}
}

func TestNewGame_MaxGames(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t, Config{PairCount: 2, MaxGames: 1})

	if _, err := m.NewGame(context.Background(), model.NewGameOptions{}); err != nil {
		t.Fatalf("first NewGame: %v", err)
	}
	if _, err := m.NewGame(context.Background(), model.NewGameOptions{}); !errors.Is(err, ErrTooManyGames) {
		t.Fatalf("expected ErrTooManyGames, got %v", err)
	}
}

func TestNewGame_SeedReproducible(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t, Config{PairCount: 6})

	a, err := m.NewGame(context.Background(), model.NewGameOptions{Seed: seedp(77)})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	b, err := m.NewGame(context.Background(), model.NewGameOptions{Seed: seedp(77)})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	da, db := m.games[a.GameID].state.Deck, m.games[b.GameID].state.Deck
	for i := range da {
		if da[i] != db[i] {
			t.Fatalf("slot %d differs between seeded games", i)
		}
	}
}

func TestMismatch_ScheduledAndResolved(t *testing.T) {
	t.Parallel()
	m, sched := newTestManager(t, Config{PairCount: 4, HideDelay: 250 * time.Millisecond, Seed: seedp(3)})

	snap, err := m.NewGame(context.Background(), model.NewGameOptions{})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	a, _, other := findPair(t, m, snap.GameID)

	if _, err := m.Reveal(snap.GameID, a); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	upd, err := m.Reveal(snap.GameID, other)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if !upd.Snapshot.InputLocked {
		t.Fatal("expected locked after mismatch")
	}
	if len(upd.Events) != 2 || upd.Events[1].Kind != model.EventMismatchPending {
		t.Fatalf("unexpected events: %+v", upd.Events)
	}
	if len(sched.delays) != 1 || sched.delays[0] != 250*time.Millisecond {
		t.Fatalf("expected one timer at 250ms, got %v", sched.delays)
	}

	// Locked: a further reveal is absorbed.
	upd, err = m.Reveal(snap.GameID, a)
	if err != nil || len(upd.Events) != 0 {
		t.Fatalf("expected silent no-op, got %+v err=%v", upd.Events, err)
	}

	sched.fire()

	poll, err := m.Poll(snap.GameID, 3)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if poll.Snapshot.InputLocked || len(poll.Snapshot.Revealed) != 0 {
		t.Fatalf("timer did not resolve: %+v", poll.Snapshot)
	}
	if len(poll.Events) != 1 || poll.Events[0].Kind != model.EventCardsHidden || poll.Events[0].Seq != 4 {
		t.Fatalf("unexpected polled events: %+v", poll.Events)
	}
}

func TestReset_StaleTimerIgnored(t *testing.T) {
	t.Parallel()
	m, sched := newTestManager(t, Config{PairCount: 4, Seed: seedp(9)})

	snap, err := m.NewGame(context.Background(), model.NewGameOptions{})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	a, _, other := findPair(t, m, snap.GameID)
	m.Reveal(snap.GameID, a)
	m.Reveal(snap.GameID, other)

	upd, err := m.Reset(snap.GameID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if upd.Snapshot.InputLocked || upd.Snapshot.MatchedPairs != 0 {
		t.Fatalf("unexpected reset result: %+v", upd)
	}
	if len(upd.Events) != 1 || upd.Events[0].Kind != model.EventGameReset || upd.Events[0].Seq != 4 {
		t.Fatalf("reset events = %+v, want one game_reset at seq 4", upd.Events)
	}
	if upd.Snapshot.Seq != 4 {
		t.Fatalf("reset snapshot seq = %d, want 4", upd.Snapshot.Seq)
	}

	seqBefore := upd.Snapshot.Seq
	sched.fire()

	poll, err := m.Poll(snap.GameID, seqBefore)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(poll.Events) != 0 {
		t.Fatalf("stale timer produced events: %+v", poll.Events)
	}
}

func sameItem(t *testing.T, m *Manager, id string, a, b int) bool {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.games[id].state.Deck
	return d[a].Item.ID == d[b].Item.ID
}

func TestReset_OldTimerSkipsSamePairInNewDeal(t *testing.T) {
	t.Parallel()
	m, sched := newTestManager(t, Config{PairCount: 4, Seed: seedp(9)})

	snap, err := m.NewGame(context.Background(), model.NewGameOptions{})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	id := snap.GameID
	a, _, other := findPair(t, m, id)
	m.Reveal(id, a)
	m.Reveal(id, other)

	old := sched.take()
	if len(old) != 1 {
		t.Fatalf("scheduled %d timers, want 1", len(old))
	}

	// Redeal until the same two slots mismatch again.
	for i := 0; ; i++ {
		if _, err := m.Reset(id); err != nil {
			t.Fatalf("Reset: %v", err)
		}
		if !sameItem(t, m, id, a, other) {
			break
		}
		if i == 50 {
			t.Fatal("no deal with a mismatch on the original slots")
		}
	}
	m.Reveal(id, a)
	upd, err := m.Reveal(id, other)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if !upd.Snapshot.InputLocked {
		t.Fatal("expected locked after mismatch in the new deal")
	}

	old[0]()
	poll, err := m.Poll(id, upd.Snapshot.Seq)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !poll.Snapshot.InputLocked || len(poll.Events) != 0 {
		t.Fatalf("timer from the previous deal resolved the new mismatch: %+v", poll)
	}

	if n := sched.fire(); n != 1 {
		t.Fatalf("fired %d timers, want 1", n)
	}
	poll, err = m.Poll(id, upd.Snapshot.Seq)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if poll.Snapshot.InputLocked || len(poll.Events) != 1 || poll.Events[0].Kind != model.EventCardsHidden {
		t.Fatalf("current timer did not resolve: %+v", poll)
	}
}

func TestTimerAfterEndGame(t *testing.T) {
	t.Parallel()
	m, sched := newTestManager(t, Config{PairCount: 4, Seed: seedp(4)})

	snap, _ := m.NewGame(context.Background(), model.NewGameOptions{})
	a, _, other := findPair(t, m, snap.GameID)
	m.Reveal(snap.GameID, a)
	m.Reveal(snap.GameID, other)

	if err := m.EndGame(snap.GameID); err != nil {
		t.Fatalf("EndGame: %v", err)
	}
	if n := sched.fire(); n != 1 {
		t.Fatalf("fired %d timers, want 1", n)
	}
	if err := m.EndGame(snap.GameID); !errors.Is(err, model.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestMatch_PublishesAndSequences(t *testing.T) {
	t.Parallel()
	pub := &recordingPublisher{err: errors.New("bus down")}
	m, sched := newTestManager(t, Config{PairCount: 3, Seed: seedp(5)}, WithPublisher(pub))

	snap, _ := m.NewGame(context.Background(), model.NewGameOptions{})
	a, b, _ := findPair(t, m, snap.GameID)

	m.Reveal(snap.GameID, a)
	upd, err := m.Reveal(snap.GameID, b)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if upd.Snapshot.MatchedPairs != 1 {
		t.Fatalf("matched = %d, want 1", upd.Snapshot.MatchedPairs)
	}
	if len(sched.delays) != 0 {
		t.Fatal("a match must not schedule a timer")
	}

	last := upd.Events[len(upd.Events)-1]
	if last.Kind != model.EventPairMatched || last.First != a || last.Second != b || last.Seq != 3 {
		t.Fatalf("unexpected match event: %+v", last)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 2 {
		t.Fatalf("published %d batches, want 2", len(pub.batches))
	}
}

func TestPoll_BoundedLog(t *testing.T) {
	t.Parallel()
	m, sched := newTestManager(t, Config{PairCount: 4, EventLogSize: 3, Seed: seedp(6)})

	snap, _ := m.NewGame(context.Background(), model.NewGameOptions{})
	a, _, other := findPair(t, m, snap.GameID)
	for range 3 {
		m.Reveal(snap.GameID, a)
		m.Reveal(snap.GameID, other)
		sched.fire()
	}

	poll, err := m.Poll(snap.GameID, 0)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(poll.Events) != 3 {
		t.Fatalf("log holds %d events, want 3", len(poll.Events))
	}
	if poll.Snapshot.Seq != 12 || poll.Events[2].Seq != 12 {
		t.Fatalf("unexpected seq: snapshot=%d last=%d", poll.Snapshot.Seq, poll.Events[2].Seq)
	}
	if poll.Snapshot.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", poll.Snapshot.Attempts)
	}
}

func TestUnknownGame(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t, Config{})

	if _, err := m.Reveal("nope", 0); !errors.Is(err, model.ErrGameNotFound) {
		t.Errorf("Reveal: %v", err)
	}
	if _, err := m.ResolveMismatch("nope", 0, 1); !errors.Is(err, model.ErrGameNotFound) {
		t.Errorf("ResolveMismatch: %v", err)
	}
	if _, err := m.Reset("nope"); !errors.Is(err, model.ErrGameNotFound) {
		t.Errorf("Reset: %v", err)
	}
	if _, err := m.Poll("nope", 0); !errors.Is(err, model.ErrGameNotFound) {
		t.Errorf("Poll: %v", err)
	}
}

func TestReaper_SweepsIdleGames(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	m, _ := newTestManager(t, Config{PairCount: 2}, WithClock(clock))
	idle, _ := m.NewGame(context.Background(), model.NewGameOptions{})
	active, _ := m.NewGame(context.Background(), model.NewGameOptions{})

	r := NewReaper(m, 10*time.Minute)
	defer r.Stop()

	advance(6 * time.Minute)
	m.Reveal(active.GameID, 0)
	advance(6 * time.Minute)

	if n := r.Sweep(); n != 1 {
		t.Fatalf("swept %d games, want 1", n)
	}
	if _, err := m.Poll(idle.GameID, 0); !errors.Is(err, model.ErrGameNotFound) {
		t.Fatalf("idle game still present: %v", err)
	}
	if _, err := m.Poll(active.GameID, 0); err != nil {
		t.Fatalf("active game reaped: %v", err)
	}
}

func TestNewReaper_Disabled(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t, Config{})
	if r := NewReaper(m, 0); r != nil {
		t.Fatal("expected nil reaper for zero ttl")
	}
}
