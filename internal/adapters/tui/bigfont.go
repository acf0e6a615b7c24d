package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const glyphRows = 5

// glyphs holds a 5-row block rendering for each character a clock can show.
// Rows are separated by '|'.
var glyphs = map[rune]string{
	'0': "████|█  █|█  █|█  █|████",
	'1': " █ |██ | █ | █ |███",
	'2': "████|   █|████|█   |████",
	'3': "████|   █|████|   █|████",
	'4': "█  █|█  █|████|   █|   █",
	'5': "████|█   |████|   █|████",
	'6': "████|█   |████|█  █|████",
	'7': "████|   █|  █ | █  | █  ",
	'8': "████|█  █|████|█  █|████",
	'9': "████|█  █|████|   █|████",
	':': " |█| |█| ",
}

// bigTimeWidth returns the number of columns renderBigTime needs for s.
func bigTimeWidth(s string) int {
	width := 0
	n := 0
	for _, ch := range s {
		g, ok := glyphs[ch]
		if !ok {
			continue
		}
		width += lipgloss.Width(strings.SplitN(g, "|", 2)[0])
		n++
	}
	if n > 1 {
		width += n - 1
	}
	return width
}

// renderBigTime renders a clock string like "14:32" in block digits.
// When the terminal is too narrow it falls back to a single bold line.
func renderBigTime(timeStr string, color lipgloss.Color, width int) string {
	style := lipgloss.NewStyle().Bold(true).Foreground(color)
	if width < bigTimeWidth(timeStr)+4 {
		return style.Render(timeStr)
	}

	var rows [glyphRows][]string
	for _, ch := range timeStr {
		g, ok := glyphs[ch]
		if !ok {
			continue
		}
		for i, row := range strings.Split(g, "|") {
			rows[i] = append(rows[i], row)
		}
	}

	lines := make([]string, glyphRows)
	for i := range rows {
		lines[i] = style.Render(strings.Join(rows[i], " "))
	}
	return strings.Join(lines, "\n")
}
