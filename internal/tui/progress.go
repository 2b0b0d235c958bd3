package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
)

const progressChartHeight = 6

// renderProgress draws one bar per found pair, its height the attempts that
// pair took. The newest pairs win when the panel is too narrow.
func renderProgress(progress []int, width int) string {
	style := sectionStyle.Width(width)

	title := chartTitleStyle.Render("Attempts per pair")
	if len(progress) == 0 {
		return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, helpStyle.Render("No pairs found yet")))
	}

	best, worst := progress[0], progress[0]
	for _, v := range progress {
		best = min(best, v)
		worst = max(worst, v)
	}
	stats := fmt.Sprintf("Best: %d | Worst: %d", best, worst)
	innerWidth := width - 4
	if pad := innerWidth - lipgloss.Width(title) - len(stats); pad > 0 {
		title = title + strings.Repeat(" ", pad) + helpStyle.Render(stats)
	}

	chartWidth := max(10, innerWidth)
	maxBars := max(1, chartWidth/3)
	data := progress
	if len(data) > maxBars {
		data = data[len(data)-maxBars:]
	}

	bc := barchart.New(chartWidth, progressChartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(2),
		barchart.WithNoAxis(),
	)
	for _, v := range data {
		barStyle := lipgloss.NewStyle().Foreground(ColorGreen).Background(ColorGreen)
		if v > 1 {
			barStyle = lipgloss.NewStyle().Foreground(ColorOrange).Background(ColorOrange)
		}
		bc.Push(barchart.BarData{
			Values: []barchart.BarValue{{Name: "attempts", Value: float64(v), Style: barStyle}},
		})
	}
	bc.Draw()

	return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, bc.View()))
}
