package tui

import (
	"reflect"
	"testing"

	"github.com/use-agent/scrapeconsole/console"
)

func sampleTable() console.Table {
	return console.Table{
		Keys:    []string{"name", "price"},
		Headers: []string{"Name", "Price"},
		Rows: [][]string{
			{"Loft", "$1,200"},
			{"grand hall", "950"},
			{"Atrium", ""},
			{"barn", "80"},
		},
	}
}

func names(rows [][]string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r[0]
	}
	return out
}

func TestSortRows(t *testing.T) {
	tests := []struct {
		name string
		col  int
		desc bool
		want []string
	}{
		{"text ascending", 0, false, []string{"Atrium", "barn", "grand hall", "Loft"}},
		{"text descending", 0, true, []string{"Loft", "grand hall", "barn", "Atrium"}},
		{"numeric ascending", 1, false, []string{"barn", "grand hall", "Loft", "Atrium"}},
		{"numeric descending", 1, true, []string{"Loft", "grand hall", "barn", "Atrium"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := append([][]string(nil), sampleTable().Rows...)
			sortRows(rows, tt.col, tt.desc)
			if got := names(rows); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterRows(t *testing.T) {
	rows := sampleTable().Rows
	tests := []struct {
		q    string
		want []string
	}{
		{"", []string{"Loft", "grand hall", "Atrium", "barn"}},
		{"HALL", []string{"grand hall"}},
		{"1,2", []string{"Loft"}},
		{"  ar ", []string{"barn"}},
		{" an ", []string{"grand hall"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		if got := names(filterRows(rows, tt.q)); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("filterRows(%q) = %q, want %q", tt.q, got, tt.want)
		}
	}
}

func TestResultsTable(t *testing.T) {
	rt := newResultsTable(sampleTable())

	rt.MoveColumn(5)
	if rt.col != 1 {
		t.Fatalf("col: got %d, want 1", rt.col)
	}
	rt.MoveColumn(-3)
	if rt.col != 0 {
		t.Fatalf("col: got %d, want 0", rt.col)
	}

	rt.SortSelected()
	if got := names(rt.Visible()); got[0] != "Atrium" {
		t.Errorf("ascending: got %q", got)
	}
	rt.SortSelected()
	if got := names(rt.Visible()); got[0] != "Loft" {
		t.Errorf("descending: got %q", got)
	}

	rt.SetFilter("a")
	if got := len(rt.Visible()); got != 3 {
		t.Errorf("filtered rows: got %d, want 3", got)
	}
	if len(rt.rows) != 4 {
		t.Errorf("filter must not drop the source rows, got %d", len(rt.rows))
	}

	rt.Destroy()
	if rt.View() != "" {
		t.Error("destroyed table should render nothing")
	}
}
