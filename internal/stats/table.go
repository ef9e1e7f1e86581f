// Package stats contains translation timing statistics and reporting.
package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// column describes one table column. maxWidth of zero means unbounded.
type column struct {
	title    string
	right    bool
	maxWidth int
}

// pairColumns is the layout of the per-pair history table.
var pairColumns = []column{
	{title: "Pair"},
	{title: "Name", maxWidth: 28},
	{title: "Count", right: true},
	{title: "Avg", right: true},
	{title: "Fastest", right: true},
	{title: "Slowest", right: true},
	{title: "Chars", right: true},
	{title: "Failed", right: true},
}

// tableLines lays rows out under cols, followed by a rule below the header.
// Cells wider than a column's maxWidth are cut with an ellipsis.
func tableLines(cols []column, rows [][]string) []string {
	if len(cols) == 0 {
		return nil
	}
	cells := make([][]string, len(rows))
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = runewidth.StringWidth(c.title)
	}
	for r, row := range rows {
		cells[r] = make([]string, len(cols))
		for i, c := range cols {
			if i >= len(row) {
				continue
			}
			cell := row[i]
			if c.maxWidth > 0 {
				cell = runewidth.Truncate(cell, c.maxWidth, "…")
			}
			cells[r][i] = cell
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	titles := make([]string, len(cols))
	rule := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.title
		rule[i] = strings.Repeat("-", widths[i])
	}
	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, joinCells(cols, widths, titles), strings.Join(rule, "  "))
	for _, row := range cells {
		lines = append(lines, joinCells(cols, widths, row))
	}
	return lines
}

func joinCells(cols []column, widths []int, cells []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		if c.right {
			parts[i] = runewidth.FillLeft(cells[i], widths[i])
		} else {
			parts[i] = runewidth.FillRight(cells[i], widths[i])
		}
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

func writeTable(w io.Writer, cols []column, rows [][]string) error {
	for _, line := range tableLines(cols, rows) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
