package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderProgress renders a fraction as a colored block bar with a
// trailing percentage, like [████░░░░]  50%. Fractions outside [0, 1]
// are clamped.
func RenderProgress(frac float64, width int) string {
	frac = min(max(frac, 0), 1)
	if width < 2 {
		width = 2
	}

	filled := min(int(frac*float64(width)), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	return fmt.Sprintf("[%s] %3.0f%%", progressStyle(frac).Render(bar), frac*100)
}

// progressStyle picks the bar color: red for the first third, yellow for
// the middle, green above two thirds.
func progressStyle(frac float64) lipgloss.Style {
	switch {
	case frac < 0.33:
		return StyleRed
	case frac < 0.66:
		return StyleYellow
	default:
		return StyleGreen
	}
}
