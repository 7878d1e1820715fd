// Package console is the control panel for the scraping service: it reads
// the scrape form, starts jobs over HTTP, streams job log lines, renders
// the returned venues as a table and fetches the CSV export.
//
// The Controller owns all UI state and is driven from a single event loop.
// A front-end supplies the View.
package console

// View is the display surface the controller drives. All methods are called
// from the event loop.
type View interface {
	// Form returns the current values of the form fields.
	Form() Form

	// Alert shows a blocking notification.
	Alert(msg string)

	SetStatus(status string)
	SetStartEnabled(enabled bool)
	SetDownloadEnabled(enabled bool)

	// ClearLog empties the log view. AppendLog adds one plain-text entry at
	// the end and scrolls to it; markup in line is never interpreted.
	ClearLog()
	AppendLog(line string)

	// MountTable attaches a sortable, filterable widget over t.
	MountTable(t Table) TableWidget
}

// TableWidget is a mounted results table.
type TableWidget interface {
	// Destroy tears the widget down. It is called before a new table is
	// mounted and when the controller closes.
	Destroy()
}
