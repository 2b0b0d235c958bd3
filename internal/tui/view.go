package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/concentration/internal/model"
)

// scoreLine renders "Pairs x/y · Attempts n".
func scoreLine(snap model.Snapshot) string {
	return fmt.Sprintf("Pairs %d/%d · Attempts %d", snap.MatchedPairs, snap.TotalPairs, snap.Attempts)
}

// View renders the game page.
func (p *GamePage) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return "Initializing..."
	}
	if p.showHelp {
		return p.renderHelp(width, height)
	}
	if p.starting {
		return renderLoadingPlaceholder("Dealing cards...", width, height)
	}

	header := titleStyle.Render("Concentration")
	if p.opts.Source != "" {
		header += helpStyle.Render("  " + p.opts.Source)
	}

	sections := []string{header}
	if p.snap.GameID != "" {
		score := scoreStyle.Render(scoreLine(p.snap))
		if p.snap.Won {
			score = statusStyle(toneGood).Render(scoreLine(p.snap) + "  ★ solved")
		}
		sections = append(sections,
			score,
			"",
			renderBoard(p.snap, p.cursor, width),
			"",
			renderProgress(p.progress, min(width, 60)),
		)
	}
	sections = append(sections,
		statusStyle(p.statusTone).Render(p.status),
		p.help.ShortHelpView(p.keys.ShortHelp()),
	)

	return lipgloss.NewStyle().
		MaxWidth(width).
		MaxHeight(height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (p *GamePage) renderHelp(width, height int) string {
	modalWidth := min(width-8, 80)

	header := lipgloss.NewStyle().
		Foreground(ColorBlue).
		Bold(true).
		Render("How to play")

	rules := helpStyle.Render("Flip two cards per turn. A matching pair stays face up;\n" +
		"a mismatch flips back after a short delay. Find every pair.")

	h := p.help
	h.ShowAll = true
	h.Width = modalWidth - 4

	statusBar := helpStyle.Render("?/esc: close help")

	modal := lipgloss.NewStyle().
		Width(modalWidth).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBlue).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, "", rules, "", h.View(p.keys), "", statusBar))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}
