// Package deck turns distinct catalog items into a shuffled sequence of paired slots.
package deck

import (
	"errors"
	"fmt"

	"github.com/tinytelemetry/concentration/internal/model"
)

var (
	ErrInsufficientItems = errors.New("insufficient distinct items for pair count")
	ErrInvalidPairCount  = errors.New("pair count must be positive")
	ErrUnknownSelection  = errors.New("unknown selection policy")
)

// RNG abstracts random number generation for deterministic testing.
// *math/rand/v2.Rand satisfies it.
type RNG interface {
	// IntN returns a non-negative random int in [0, n).
	IntN(n int) int
}

// Selection decides which items of a larger pool end up in the deck.
type Selection string

const (
	SelectFirst  Selection = "first"  // first pairCount distinct items in catalog order
	SelectRandom Selection = "random" // uniform random subset
)

// ParseSelection maps a config string to a Selection.
func ParseSelection(s string) (Selection, error) {
	switch Selection(s) {
	case SelectFirst, SelectRandom:
		return Selection(s), nil
	case "":
		return SelectRandom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSelection, s)
	}
}

// Slot is one fixed position in the deck.
// Origin is the slot's position in the unshuffled construction: the k-th selected
// item occupies origins 2k and 2k+1.
type Slot struct {
	Index   int        `json:"index"`
	Item    model.Item `json:"item"`
	Matched bool       `json:"matched"`
	Origin  int        `json:"origin"`
}

// Deck is an ordered slot sequence, two slots per item.
type Deck []Slot

// PairCount returns the number of pairs in the deck.
func (d Deck) PairCount() int { return len(d) / 2 }

// Clone returns an independent copy of the deck.
func (d Deck) Clone() Deck {
	out := make(Deck, len(d))
	copy(out, d)
	return out
}

// Build selects pairCount distinct items, duplicates each into two slots and
// shuffles the 2*pairCount slots with Fisher-Yates.
// Entries with a blank or repeated id are skipped.
func Build(items []model.Item, pairCount int, sel Selection, rng RNG) (Deck, error) {
	if pairCount <= 0 {
		return nil, ErrInvalidPairCount
	}

	pool := distinct(items)
	if len(pool) < pairCount {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientItems, len(pool), pairCount)
	}

	chosen, err := selectItems(pool, pairCount, sel, rng)
	if err != nil {
		return nil, err
	}

	d := make(Deck, 0, 2*pairCount)
	for _, it := range chosen {
		d = append(d,
			Slot{Item: it, Origin: len(d)},
			Slot{Item: it, Origin: len(d) + 1},
		)
	}

	shuffle(len(d), rng, func(i, j int) { d[i], d[j] = d[j], d[i] })

	for i := range d {
		d[i].Index = i
	}
	return d, nil
}

func distinct(items []model.Item) []model.Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

func selectItems(pool []model.Item, n int, sel Selection, rng RNG) ([]model.Item, error) {
	switch sel {
	case SelectFirst:
		return append([]model.Item(nil), pool[:n]...), nil
	case SelectRandom, "":
		// Partial Fisher-Yates: the first n positions end up a uniform sample.
		idx := make([]int, len(pool))
		for i := range idx {
			idx[i] = i
		}
		for i := 0; i < n; i++ {
			j := i + rng.IntN(len(idx)-i)
			idx[i], idx[j] = idx[j], idx[i]
		}
		out := make([]model.Item, n)
		for i := range n {
			out[i] = pool[idx[i]]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSelection, sel)
	}
}

// shuffle is an unbiased in-place Fisher-Yates over n elements.
func shuffle(n int, rng RNG, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		swap(i, j)
	}
}
