// Package report renders normalized batches for the log.
package report

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"profpipe/internal/models"
)

// Table renders records as a plain-text table in column order, header first,
// cells padded to the widest display width in each column.
func Table(columns []string, records []models.Record) string {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = runewidth.StringWidth(col)
	}

	for _, rec := range records {
		for i, col := range columns {
			if w := runewidth.StringWidth(rec[col]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				sb.WriteString("  ")
			}

			sb.WriteString(cell)

			// No trailing padding on the last column.
			if i < len(cells)-1 {
				if pad := widths[i] - runewidth.StringWidth(cell); pad > 0 {
					sb.WriteString(strings.Repeat(" ", pad))
				}
			}
		}

		sb.WriteString("\n")
	}

	writeRow(columns)

	dashes := make([]string, len(columns))
	for i := range columns {
		dashes[i] = strings.Repeat("-", widths[i])
	}

	writeRow(dashes)

	row := make([]string, len(columns))

	for _, rec := range records {
		for i, col := range columns {
			row[i] = rec[col]
		}

		writeRow(row)
	}

	return sb.String()
}
