package console

import (
	"unicode"
	"unicode/utf8"

	"github.com/use-agent/scrapeconsole/export"
	"github.com/use-agent/scrapeconsole/models"
)

// Table is a rendered result set: one header per required key, one row per
// record. Cells are plain text.
type Table struct {
	Keys    []string
	Headers []string
	Rows    [][]string
}

// BuildTable renders records over keys. A key that is absent or null in a
// record renders as an empty cell.
func BuildTable(keys []string, records []models.Record) Table {
	t := Table{
		Keys:    append([]string(nil), keys...),
		Headers: make([]string, len(keys)),
		Rows:    make([][]string, len(records)),
	}
	for i, k := range keys {
		t.Headers[i] = Capitalize(k)
	}
	for i, rec := range records {
		row := make([]string, len(keys))
		for j, k := range keys {
			row[j] = CellText(rec[k])
		}
		t.Rows[i] = row
	}
	return t
}

// Capitalize upper-cases the first letter of s and leaves the rest as is.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// CellText renders one record value. Values print the same way as in the
// CSV export.
func CellText(v any) string {
	return export.FormatValue(v)
}
