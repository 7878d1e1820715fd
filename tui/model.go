// Package tui is the terminal front-end of the scrape console, built on
// bubbletea. The Model implements console.View and forwards user actions to
// a console.Controller on the bubbletea event loop.
package tui

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/use-agent/scrapeconsole/console"
)

// focus targets, in tab order
const (
	focusBaseURL = iota
	focusSelector
	focusKeys
	focusStart
	focusDownload
	focusTable
)

// maxLogLines bounds the log view; older lines are dropped.
const maxLogLines = 2000

type logLineMsg string

type logClosedMsg struct{}

type scrapeDoneMsg struct {
	outcome console.Outcome
}

type downloadDoneMsg struct {
	err error
}

// Model is the bubbletea model of the console.
type Model struct {
	ctx  context.Context
	ctrl *console.Controller

	inputs   []textinput.Model // base url, selector, required keys
	maxPages string
	focus    int

	startEnabled    bool
	downloadEnabled bool
	status          string
	notice          string
	alert           string

	logLines []string
	logView  viewport.Model

	table     *resultsTable
	filtering bool
	filterIn  textinput.Model

	width int
}

// New creates a Model with the form pre-filled from form. Bind must be
// called before the program starts.
func New(ctx context.Context, form console.Form) *Model {
	placeholders := []string{"https://venues.example.com/list", "div.venue", "name, location, price"}
	values := []string{form.BaseURL, form.CSSSelector, form.RequiredKeys}

	inputs := make([]textinput.Model, len(values))
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 2048
		in.Width = 60
		in.SetValue(values[i])
		inputs[i] = in
	}
	inputs[focusBaseURL].Focus()

	filterIn := textinput.New()
	filterIn.Prompt = "/"
	filterIn.Placeholder = "filter rows"
	filterIn.Width = 40

	return &Model{
		ctx:      ctx,
		inputs:   inputs,
		maxPages: form.MaxPages,
		logView:  viewport.New(80, 8),
		filterIn: filterIn,
		width:    80,
	}
}

// Bind attaches the controller that drives this view.
func (m *Model) Bind(c *console.Controller) { m.ctrl = c }

// Form implements console.View.
func (m *Model) Form() console.Form {
	return console.Form{
		BaseURL:      m.inputs[focusBaseURL].Value(),
		CSSSelector:  m.inputs[focusSelector].Value(),
		RequiredKeys: m.inputs[focusKeys].Value(),
		MaxPages:     m.maxPages,
	}
}

// Alert implements console.View. The alert stays up until a key is pressed.
func (m *Model) Alert(msg string) { m.alert = msg }

// SetStatus implements console.View.
func (m *Model) SetStatus(status string) { m.status = status }

// SetStartEnabled implements console.View.
func (m *Model) SetStartEnabled(enabled bool) { m.startEnabled = enabled }

// SetDownloadEnabled implements console.View.
func (m *Model) SetDownloadEnabled(enabled bool) { m.downloadEnabled = enabled }

// ClearLog implements console.View.
func (m *Model) ClearLog() {
	m.logLines = m.logLines[:0]
	m.logView.SetContent("")
}

// AppendLog implements console.View. Control characters are replaced, so a
// line can never drive the terminal.
func (m *Model) AppendLog(line string) {
	m.logLines = append(m.logLines, plainText(line))
	if len(m.logLines) > maxLogLines {
		m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
	}
	m.syncLog()
}

// MountTable implements console.View.
func (m *Model) MountTable(t console.Table) console.TableWidget {
	m.table = newResultsTable(t)
	m.filtering = false
	m.filterIn.SetValue("")
	return m.table
}

func (m *Model) syncLog() {
	styled := make([]string, len(m.logLines))
	for i, l := range m.logLines {
		styled[i] = logLineStyle(l).Render(l)
	}
	m.logView.SetContent(strings.Join(styled, "\n"))
	m.logView.GotoBottom()
}

// plainText replaces control characters, ESC included, with spaces.
func plainText(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForLog())
}

// waitForLog blocks on the next streamed log line.
func (m *Model) waitForLog() tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	lines := m.ctrl.Logs()
	if lines == nil {
		return nil
	}
	return func() tea.Msg {
		line, ok := <-lines
		if !ok {
			return logClosedMsg{}
		}
		return logLineMsg(line)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.logView.Width = max(msg.Width-2, 20)
		m.logView.Height = max(msg.Height/4, 4)
		m.syncLog()
		return m, nil

	case logLineMsg:
		m.ctrl.AppendLog(string(msg))
		return m, m.waitForLog()

	case logClosedMsg:
		m.notice = "log stream closed"
		return m, nil

	case scrapeDoneMsg:
		m.ctrl.Finish(msg.outcome)
		return m, nil

	case downloadDoneMsg:
		if msg.err != nil {
			m.notice = "download failed: " + msg.err.Error()
		} else {
			m.notice = "download saved"
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	if m.alert != "" {
		m.alert = ""
		return m, nil
	}
	if m.filtering {
		return m.handleFilterKey(msg)
	}

	switch key {
	case "esc":
		return m, tea.Quit
	case "tab", "shift+tab":
		delta := 1
		if key == "shift+tab" {
			delta = -1
		}
		return m, m.moveFocus(delta)
	case "ctrl+s":
		return m, m.start()
	case "ctrl+d":
		return m, m.download()
	case "enter":
		switch m.focus {
		case focusStart:
			return m, m.start()
		case focusDownload:
			return m, m.download()
		case focusBaseURL, focusSelector, focusKeys:
			return m, m.moveFocus(1)
		}
	}

	if m.focus == focusTable && m.table != nil {
		switch key {
		case "s":
			m.table.SortSelected()
			return m, nil
		case "/":
			m.filtering = true
			m.filterIn.SetValue(m.table.filter)
			return m, m.filterIn.Focus()
		case "left", "h":
			m.table.MoveColumn(-1)
			return m, nil
		case "right", "l":
			m.table.MoveColumn(1)
			return m, nil
		}
	}

	return m.updateFocused(msg)
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filtering = false
		m.filterIn.Blur()
		return m, nil
	case "esc":
		m.filtering = false
		m.filterIn.Blur()
		m.filterIn.SetValue("")
		m.table.SetFilter("")
		return m, nil
	}
	var cmd tea.Cmd
	m.filterIn, cmd = m.filterIn.Update(msg)
	m.table.SetFilter(m.filterIn.Value())
	return m, cmd
}

func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.focus <= focusKeys:
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	case m.focus == focusTable && m.table != nil:
		m.table.tbl, cmd = m.table.tbl.Update(msg)
	default:
		m.logView, cmd = m.logView.Update(msg)
	}
	return m, cmd
}

func (m *Model) focusCount() int {
	if m.table != nil && !m.table.destroyed {
		return focusTable + 1
	}
	return focusTable
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	n := m.focusCount()
	m.focus = ((m.focus+delta)%n + n) % n

	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.focus {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	if m.table != nil {
		if m.focus == focusTable {
			m.table.tbl.Focus()
		} else {
			m.table.tbl.Blur()
		}
	}
	return cmd
}

// start asks the controller for a task and runs it off the event loop.
func (m *Model) start() tea.Cmd {
	if !m.startEnabled {
		return nil
	}
	task := m.ctrl.Start()
	if task == nil {
		return nil
	}
	m.notice = ""
	ctx := m.ctx
	return func() tea.Msg {
		return scrapeDoneMsg{outcome: task.Do(ctx)}
	}
}

func (m *Model) download() tea.Cmd {
	if !m.downloadEnabled {
		return nil
	}
	m.notice = "downloading..."
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return downloadDoneMsg{err: ctrl.Download(ctx)}
	}
}

func (m *Model) View() string {
	if m.alert != "" {
		return alertStyle.Render(m.alert+"\n\n"+helpStyle.Render("Press any key to continue")) + "\n"
	}

	var b strings.Builder
	b.WriteString(renderTitle("Venue Scraper Console"))
	b.WriteString("\n")

	labels := []string{"Base URL", "CSS Selector", "Required Keys"}
	for i, in := range m.inputs {
		b.WriteString(fieldLabelStyle.Render(labels[i]) + in.View() + "\n")
	}
	b.WriteString(fieldLabelStyle.Render("Max Pages") + mutedStyle.Render(m.maxPagesText()) + "\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		renderButton("Start Scraping", m.focus == focusStart, m.startEnabled),
		" ",
		renderButton("Download CSV", m.focus == focusDownload, m.downloadEnabled),
	))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(infoStyle.Render(m.status) + "\n")
	}
	if m.notice != "" {
		b.WriteString(mutedStyle.Render(m.notice) + "\n")
	}

	b.WriteString(logBoxStyle.Render(m.logView.View()))
	b.WriteString("\n")

	if m.table != nil && !m.table.destroyed {
		b.WriteString(m.table.View() + "\n")
		if m.filtering {
			b.WriteString(m.filterIn.View() + "\n")
		} else if m.table.filter != "" {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("filter: %q (%d of %d rows)",
				m.table.filter, len(m.table.Visible()), len(m.table.rows))) + "\n")
		}
	}

	b.WriteString(helpStyle.Render(m.helpText()))
	return b.String()
}

func (m *Model) maxPagesText() string {
	if m.ctrl != nil && m.ctrl.MaxPages() > 0 {
		return fmt.Sprint(m.ctrl.MaxPages())
	}
	if strings.TrimSpace(m.maxPages) == "" {
		return "(server default)"
	}
	return m.maxPages
}

func (m *Model) helpText() string {
	parts := []string{"tab focus", "enter select", "ctrl+s start", "ctrl+d download"}
	if m.focus == focusTable {
		parts = append(parts, "←/→ column", "s sort", "/ filter")
	}
	parts = append(parts, "esc quit")
	return strings.Join(parts, " • ")
}
