package tui

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/use-agent/scrapeconsole/console"
)

const (
	maxColumnWidth = 32
	minColumnWidth = 6
	tableHeight    = 10
)

// resultsTable is the mounted results widget. It keeps the full row set and
// shows a sorted, filtered projection of it.
type resultsTable struct {
	headers []string
	rows    [][]string

	col      int // selected column
	sortCol  int // -1 when unsorted
	sortDesc bool
	filter   string

	destroyed bool
	tbl       table.Model
}

func newResultsTable(t console.Table) *resultsTable {
	rt := &resultsTable{
		headers: t.Headers,
		rows:    t.Rows,
		sortCol: -1,
	}

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(colorPrimary).
		Bold(false)

	rt.tbl = table.New(
		table.WithHeight(tableHeight),
		table.WithStyles(s),
	)
	rt.refresh()
	return rt
}

// Destroy detaches the widget. A destroyed table renders nothing.
func (rt *resultsTable) Destroy() {
	rt.destroyed = true
	rt.tbl.Blur()
	rt.rows = nil
	rt.tbl.SetRows(nil)
}

// MoveColumn shifts the selected column by delta, clamped to the edges.
func (rt *resultsTable) MoveColumn(delta int) {
	if len(rt.headers) == 0 {
		return
	}
	rt.col = min(max(rt.col+delta, 0), len(rt.headers)-1)
	rt.refresh()
}

// SortSelected sorts by the selected column. Sorting the same column again
// flips the direction.
func (rt *resultsTable) SortSelected() {
	if rt.sortCol == rt.col {
		rt.sortDesc = !rt.sortDesc
	} else {
		rt.sortCol = rt.col
		rt.sortDesc = false
	}
	rt.refresh()
}

// SetFilter keeps only rows with a cell containing q, case-insensitively.
func (rt *resultsTable) SetFilter(q string) {
	rt.filter = q
	rt.tbl.GotoTop()
	rt.refresh()
}

// Visible returns the rows currently shown, in display order.
func (rt *resultsTable) Visible() [][]string {
	rows := filterRows(rt.rows, rt.filter)
	if rt.sortCol >= 0 {
		sortRows(rows, rt.sortCol, rt.sortDesc)
	}
	return rows
}

func (rt *resultsTable) refresh() {
	visible := rt.Visible()

	cols := make([]table.Column, len(rt.headers))
	for i, h := range rt.headers {
		title := h
		if i == rt.sortCol {
			if rt.sortDesc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		if i == rt.col {
			title = "[" + title + "]"
		}
		cols[i] = table.Column{Title: title, Width: columnWidth(title, i, visible)}
	}

	rows := make([]table.Row, len(visible))
	for i, r := range visible {
		rows[i] = table.Row(r)
	}

	// Rows must shrink before columns change or the table indexes past them.
	rt.tbl.SetRows(nil)
	rt.tbl.SetColumns(cols)
	rt.tbl.SetRows(rows)
}

func (rt *resultsTable) View() string {
	if rt.destroyed {
		return ""
	}
	return rt.tbl.View()
}

func columnWidth(title string, col int, rows [][]string) int {
	w := utf8.RuneCountInString(title)
	for _, r := range rows {
		if col < len(r) {
			w = max(w, utf8.RuneCountInString(r[col]))
		}
	}
	return min(max(w, minColumnWidth), maxColumnWidth)
}

// filterRows returns the rows with any cell containing q. The result is a
// new slice; rows are shared.
func filterRows(rows [][]string, q string) [][]string {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		if q == "" || rowContains(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func rowContains(row []string, q string) bool {
	for _, cell := range row {
		if strings.Contains(strings.ToLower(cell), q) {
			return true
		}
	}
	return false
}

// sortRows orders rows by col. Cells that both parse as numbers compare
// numerically, everything else compares as case-insensitive text. Empty
// cells sort last in either direction.
func sortRows(rows [][]string, col int, desc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := cell(rows[i], col), cell(rows[j], col)
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		c := compareCells(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

func compareCells(a, b string) int {
	fa, errA := strconv.ParseFloat(numericPart(a), 64)
	fb, errB := strconv.ParseFloat(numericPart(b), 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// numericPart drops thousands separators and a leading currency sign so
// "$1,200" sorts as 1200.
func numericPart(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£")
	return strings.ReplaceAll(s, ",", "")
}
