package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/syncoria/assistant-go/internal/table"
)

// FormatTimestamp renders a timestamp as mm/dd/yyyy HH:MM, empty for the
// zero time.
func FormatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format("01/02/2006 15:04")
}

// RenderTable renders a data table as plain text, capped at maxRows rows.
func RenderTable(tbl *table.Table, maxRows int) string {
	if tbl == nil || len(tbl.Columns) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(strings.Join(tbl.Columns, " | "))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", len(strings.Join(tbl.Columns, " | "))))

	rows := tbl.Rows
	extra := 0
	if maxRows > 0 && len(rows) > maxRows {
		extra = len(rows) - maxRows
		rows = rows[:maxRows]
	}
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, " | "))
	}
	if extra > 0 {
		b.WriteString("\n... (" + strconv.Itoa(extra) + " more rows)")
	}
	return b.String()
}

// truncate shortens s to at most n runes, with a trailing ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
