package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const tableGap = "  "

// RenderTable renders headers and rows as aligned columns separated by a
// dim rule. Column widths follow the widest visible cell, measured with
// lipgloss so styled cells do not skew alignment.
func RenderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	widths := make([]int, len(headers))
	measure := func(cells []string) {
		for i, c := range cells {
			if i >= len(widths) {
				break
			}
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}

	rule := make([]string, len(headers))
	styledHeaders := make([]string, len(headers))
	for i, h := range headers {
		styledHeaders[i] = StyleHeader.Render(h)
		rule[i] = StyleDim.Render(strings.Repeat("─", widths[i]))
	}

	var b strings.Builder
	writeRow(&b, styledHeaders, widths)
	writeRow(&b, rule, widths)
	for _, row := range rows {
		writeRow(&b, row, widths)
	}
	return b.String()
}

// writeRow emits one padded line. The last column is never padded, so
// lines carry no trailing spaces.
func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		b.WriteString(cell)
		if i == len(widths)-1 {
			break
		}
		if pad := widths[i] - lipgloss.Width(cell); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(tableGap)
	}
	b.WriteString("\n")
}
