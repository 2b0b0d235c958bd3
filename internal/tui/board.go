package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/concentration/internal/model"
)

const (
	cardWidth  = 14 // inner width, borders excluded
	cardHeight = 2
	cardGap    = 1
)

// gridSize picks the column count for n cards: the squarest layout that fits
// the terminal width.
func gridSize(n, width int) (cols, rows int) {
	if n <= 0 {
		return 1, 0
	}
	cols = 1
	for cols*cols < n {
		cols++
	}
	if width > 0 {
		fit := max(1, (width+cardGap)/(cardWidth+2+cardGap))
		cols = min(cols, fit)
	}
	rows = (n + cols - 1) / cols
	return cols, rows
}

// cardFace returns the text shown on a card.
func cardFace(s model.SlotView) string {
	if s.State == model.SlotHidden || s.Item == nil {
		return "?"
	}
	label := s.Item.Title
	if label == "" {
		label = s.Item.ID
	}
	return truncate(label, cardWidth*cardHeight)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func renderCard(s model.SlotView, selected bool) string {
	var style lipgloss.Style
	switch s.State {
	case model.SlotMatched:
		style = cardMatchedStyle
	case model.SlotRevealed:
		style = cardRevealedStyle
	default:
		style = cardHiddenStyle
	}
	style = style.Width(cardWidth).Height(cardHeight)
	if selected {
		style = style.BorderStyle(lipgloss.ThickBorder()).BorderForeground(ColorBlue)
	}
	return style.Render(cardFace(s))
}

// renderBoard lays the slots out row by row.
func renderBoard(snap model.Snapshot, cursor, width int) string {
	if len(snap.Slots) == 0 {
		return helpStyle.Render("No cards dealt")
	}
	cols, rows := gridSize(len(snap.Slots), width)
	gap := strings.Repeat(" ", cardGap)

	lines := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		cells := make([]string, 0, cols*2)
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if i >= len(snap.Slots) {
				break
			}
			if c > 0 {
				cells = append(cells, gap)
			}
			cells = append(cells, renderCard(snap.Slots[i], i == cursor))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
