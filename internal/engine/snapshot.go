package engine

import "github.com/tinytelemetry/concentration/internal/model"

// Snapshot projects the state into its client-facing form. Hidden slots carry
// no item so a client cannot read the layout before revealing.
func (s State) Snapshot(gameID string, seq uint64) model.Snapshot {
	slots := make([]model.SlotView, len(s.Deck))
	for i, sl := range s.Deck {
		v := model.SlotView{Index: i, State: model.SlotHidden}
		switch {
		case sl.Matched:
			v.State = model.SlotMatched
		case s.IsRevealed(i):
			v.State = model.SlotRevealed
		}
		if v.State != model.SlotHidden {
			item := sl.Item
			v.Item = &item
		}
		slots[i] = v
	}

	return model.Snapshot{
		GameID:       gameID,
		Slots:        slots,
		Revealed:     append([]int{}, s.Turn.Revealed...),
		MatchedPairs: s.MatchedPairs,
		TotalPairs:   s.TotalPairs,
		Attempts:     s.Attempts,
		InputLocked:  s.Turn.InputLocked,
		Won:          s.Won(),
		Seq:          seq,
	}
}
