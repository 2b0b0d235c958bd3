package model

// Item is one matchable catalog entry. The engine only compares ID; the rest is
// display metadata carried through to presentation adapters untouched.
type Item struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title,omitempty" yaml:"title"`
	Vendor   string `json:"vendor,omitempty" yaml:"vendor"`
	ImageURL string `json:"image_url,omitempty" yaml:"image_url"`
}

// EventKind identifies a render command emitted by the engine.
type EventKind string

const (
	EventCardRevealed    EventKind = "card_revealed"
	EventPairMatched     EventKind = "pair_matched"
	EventMismatchPending EventKind = "mismatch_pending"
	EventCardsHidden     EventKind = "cards_hidden"
	EventGameWon         EventKind = "game_won"

	// EventGameReset is logged by the session host when a game is redealt.
	// The engine never emits it.
	EventGameReset EventKind = "game_reset"
)

// Event is one engine event in emission order.
// Slot is set for card_revealed. First and Second are set for the pair events
// and are in reveal order. Seq is stamped by the session host (0 inside the engine).
type Event struct {
	Seq    uint64    `json:"seq"`
	Kind   EventKind `json:"kind"`
	Slot   int       `json:"slot"`
	First  int       `json:"first"`
	Second int       `json:"second"`
}

// SlotState is the client-facing state of one slot.
type SlotState string

const (
	SlotHidden   SlotState = "hidden"
	SlotRevealed SlotState = "revealed"
	SlotMatched  SlotState = "matched"
)

// SlotView is the client-facing representation of a slot.
// Item is only included when the slot is revealed or matched.
type SlotView struct {
	Index int       `json:"index"`
	State SlotState `json:"state"`
	Item  *Item     `json:"item,omitempty"`
}

// Snapshot is the render-ready projection of one game.
type Snapshot struct {
	GameID       string     `json:"game_id"`
	Slots        []SlotView `json:"slots"`
	Revealed     []int      `json:"revealed"`
	MatchedPairs int        `json:"matched_pairs"`
	TotalPairs   int        `json:"total_pairs"`
	Attempts     int        `json:"attempts"`
	InputLocked  bool       `json:"input_locked"`
	Won          bool       `json:"won"`
	Seq          uint64     `json:"seq"` // last event sequence number
}

// Update is returned by every game operation: the state after the call plus the
// events it produced (empty for guarded no-ops).
type Update struct {
	Snapshot Snapshot `json:"snapshot"`
	Events   []Event  `json:"events"`
}

// NewGameOptions overrides host defaults for a single game.
// Zero values mean "use the host default".
type NewGameOptions struct {
	PairCount int     `json:"pair_count,omitempty"`
	Seed      *uint64 `json:"seed,omitempty"`
}
