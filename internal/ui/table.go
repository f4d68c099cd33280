package ui

import (
	"fmt"
	"io"
	"strings"
)

// Table writes rows as an aligned text table with a styled header row and
// a separator line. An empty row set prints "(no data)".
func Table(w io.Writer, fields []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no data)")
		return
	}

	widths := make([]int, len(fields))
	for i, f := range fields {
		widths[i] = len(f)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	header := make([]string, len(fields))
	sep := make([]string, len(fields))
	for i, f := range fields {
		header[i] = pad(f, widths[i])
		sep[i] = strings.Repeat("-", widths[i])
	}
	fmt.Fprintln(w, render(headerStyle, strings.Join(header, " | ")))
	fmt.Fprintln(w, strings.Join(sep, "-+-"))

	for _, row := range rows {
		cells := make([]string, len(fields))
		for i := range fields {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = pad(cell, widths[i])
		}
		fmt.Fprintln(w, strings.Join(cells, " | "))
	}
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
