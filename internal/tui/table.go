// internal/tui/table.go
package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// FormatTable lays rows out in space-separated columns sized to the widest
// cell. Columns listed in right are right aligned.
func FormatTable(headers []string, rows [][]string, right map[int]bool) []string {
	cols := len(headers)
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return nil
	}

	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, right))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, right))
	}
	return lines
}

func formatRow(row []string, widths []int, right map[int]bool) string {
	var b strings.Builder
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		if right[i] {
			b.WriteString(runewidth.FillLeft(cell, w))
		} else if i < len(widths)-1 {
			b.WriteString(runewidth.FillRight(cell, w))
		} else {
			b.WriteString(cell)
		}
	}
	return b.String()
}
