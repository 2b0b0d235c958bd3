// Package session hosts running games: it serializes calls per game, owns the
// mismatch-hide timers, stamps event sequence numbers and fans events out to
// an optional publisher.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tinytelemetry/concentration/internal/deck"
	"github.com/tinytelemetry/concentration/internal/engine"
	"github.com/tinytelemetry/concentration/internal/model"
)

// ErrTooManyGames is returned by NewGame when the host is at capacity.
var ErrTooManyGames = errors.New("too many active games")

// Scheduler runs f once after d. The default is time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// Config holds host-wide game defaults.
type Config struct {
	PairCount    int
	HideDelay    time.Duration
	Selection    deck.Selection
	Seed         *uint64
	MaxGames     int
	EventLogSize int
}

func (c Config) withDefaults() Config {
	if c.PairCount <= 0 {
		c.PairCount = model.DefaultPairCount
	}
	if c.HideDelay < 0 {
		c.HideDelay = 0
	}
	if c.Selection == "" {
		c.Selection = deck.SelectRandom
	}
	if c.EventLogSize <= 0 {
		c.EventLogSize = 256
	}
	return c
}

type game struct {
	id       string
	state    engine.State
	seq      uint64
	log      []model.Event
	resets   uint64 // bumped by Reset; pending timers from an older deal are dropped
	lastUsed time.Time
}

// Manager implements model.GameService for games held in memory.
type Manager struct {
	catalog   model.CatalogProvider
	publisher model.EventPublisher
	scheduler Scheduler
	now       func() time.Time
	cfg       Config

	mu    sync.Mutex
	games map[string]*game
}

// Option configures a Manager.
type Option func(*Manager)

// WithPublisher sets the publisher that receives every event batch.
func WithPublisher(p model.EventPublisher) Option {
	return func(m *Manager) { m.publisher = p }
}

// WithScheduler replaces the timer used for mismatch resolution.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) { m.scheduler = s }
}

// WithClock replaces the clock used for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a session host backed by catalog.
func NewManager(catalog model.CatalogProvider, cfg Config, opts ...Option) *Manager {
	m := &Manager{
		catalog:   catalog,
		scheduler: timeScheduler{},
		now:       time.Now,
		cfg:       cfg.withDefaults(),
		games:     make(map[string]*game),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Config returns the effective host configuration.
func (m *Manager) Config() Config { return m.cfg }

// NewGame lists the catalog and starts a game. Catalog failures are returned
// wrapped with model.ErrCatalogUnavailable.
func (m *Manager) NewGame(ctx context.Context, opts model.NewGameOptions) (model.Snapshot, error) {
	m.mu.Lock()
	full := m.cfg.MaxGames > 0 && len(m.games) >= m.cfg.MaxGames
	m.mu.Unlock()
	if full {
		return model.Snapshot{}, ErrTooManyGames
	}

	items, err := m.catalog.ListItems(ctx)
	if err != nil {
		if !errors.Is(err, model.ErrCatalogUnavailable) {
			err = fmt.Errorf("%w: %w", model.ErrCatalogUnavailable, err)
		}
		return model.Snapshot{}, err
	}

	pairs := m.cfg.PairCount
	if opts.PairCount > 0 {
		pairs = opts.PairCount
	}
	seed := m.cfg.Seed
	if opts.Seed != nil {
		seed = opts.Seed
	}

	st, err := engine.NewGame(items, engine.Config{PairCount: pairs, Selection: m.cfg.Selection}, deck.NewRNG(seed))
	if err != nil {
		return model.Snapshot{}, err
	}

	g := &game{id: uuid.NewString(), state: st, lastUsed: m.now()}

	m.mu.Lock()
	if m.cfg.MaxGames > 0 && len(m.games) >= m.cfg.MaxGames {
		m.mu.Unlock()
		return model.Snapshot{}, ErrTooManyGames
	}
	m.games[g.id] = g
	m.mu.Unlock()

	log.Printf("session: game %s started with %d pairs", g.id, st.TotalPairs)
	return st.Snapshot(g.id, 0), nil
}

// Reveal flips a slot. Guarded reveals return the current snapshot and no events.
func (m *Manager) Reveal(gameID string, slot int) (model.Update, error) {
	return m.apply(gameID, func(g *game) (engine.State, []model.Event) {
		return engine.Reveal(g.state, slot)
	})
}

// ResolveMismatch hides a pending mismatch. Stale pairs are no-ops.
func (m *Manager) ResolveMismatch(gameID string, first, second int) (model.Update, error) {
	return m.apply(gameID, func(g *game) (engine.State, []model.Event) {
		return engine.ResolveMismatch(g.state, first, second)
	})
}

// Reset replaces the game's deck and logs a game_reset event, so pollers and
// subscribers see a newer Seq. Outstanding timers are not cancelled; they
// carry the deal they were scheduled under and are dropped once it is gone.
func (m *Manager) Reset(gameID string) (model.Update, error) {
	return m.apply(gameID, func(g *game) (engine.State, []model.Event) {
		g.resets++
		return engine.Reset(g.state), []model.Event{{Kind: model.EventGameReset}}
	})
}

// resolveScheduled runs a mismatch timer. It is a no-op when the game was
// reset after the timer was scheduled, even if the new deal has the same
// pair pending.
func (m *Manager) resolveScheduled(gameID string, deal uint64, first, second int) (model.Update, error) {
	return m.apply(gameID, func(g *game) (engine.State, []model.Event) {
		if g.resets != deal {
			return g.state, nil
		}
		return engine.ResolveMismatch(g.state, first, second)
	})
}

// Poll returns the current snapshot and logged events with Seq > afterSeq.
// Events older than the log window are skipped.
func (m *Manager) Poll(gameID string, afterSeq uint64) (model.Update, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return model.Update{}, model.ErrGameNotFound
	}

	events := []model.Event{}
	for _, e := range g.log {
		if e.Seq > afterSeq {
			events = append(events, e)
		}
	}
	return model.Update{Snapshot: g.state.Snapshot(g.id, g.seq), Events: events}, nil
}

// EndGame discards a game.
func (m *Manager) EndGame(gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.games[gameID]; !ok {
		return model.ErrGameNotFound
	}
	delete(m.games, gameID)
	return nil
}

// Len returns the number of active games.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.games)
}

func (m *Manager) apply(gameID string, fn func(*game) (engine.State, []model.Event)) (model.Update, error) {
	m.mu.Lock()
	g, ok := m.games[gameID]
	if !ok {
		m.mu.Unlock()
		return model.Update{}, model.ErrGameNotFound
	}

	next, events := fn(g)
	g.state = next
	g.lastUsed = m.now()
	events = m.record(g, events)
	upd := model.Update{Snapshot: next.Snapshot(g.id, g.seq), Events: events}
	deal := g.resets
	m.mu.Unlock()

	for _, e := range events {
		if e.Kind == model.EventMismatchPending {
			first, second := e.First, e.Second
			m.scheduler.AfterFunc(m.cfg.HideDelay, func() {
				if _, err := m.resolveScheduled(gameID, deal, first, second); err != nil && !errors.Is(err, model.ErrGameNotFound) {
					log.Printf("session: resolve mismatch for %s: %v", gameID, err)
				}
			})
		}
	}

	m.publish(gameID, events)
	return upd, nil
}

// record stamps sequence numbers and appends to the bounded event log.
// Caller must hold m.mu.
func (m *Manager) record(g *game, events []model.Event) []model.Event {
	if len(events) == 0 {
		return []model.Event{}
	}
	out := make([]model.Event, len(events))
	for i, e := range events {
		g.seq++
		e.Seq = g.seq
		out[i] = e
	}
	g.log = append(g.log, out...)
	if over := len(g.log) - m.cfg.EventLogSize; over > 0 {
		g.log = append([]model.Event(nil), g.log[over:]...)
	}
	return out
}

func (m *Manager) publish(gameID string, events []model.Event) {
	if m.publisher == nil || len(events) == 0 {
		return
	}
	if err := m.publisher.Publish(gameID, events); err != nil {
		log.Printf("session: publish events for %s: %v", gameID, err)
	}
}

// reapIdle removes games unused since cutoff and returns how many were removed.
func (m *Manager) reapIdle(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, g := range m.games {
		if g.lastUsed.Before(cutoff) {
			delete(m.games, id)
			n++
		}
	}
	return n
}
