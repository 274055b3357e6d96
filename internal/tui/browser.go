package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-record-sync/internal/cursor"
	"github.com/MKhiriev/go-record-sync/internal/service"
	"github.com/MKhiriev/go-record-sync/models"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	defaultChunk  = 50
	idColumnWidth = 18
	columnWidth   = 20
)

type screen int

const (
	screenList screen = iota
	screenDetail
)

type browserModel struct {
	ctx     context.Context
	queries service.QueryService
	query   models.Query

	cursor  *cursor.Cursor
	records []models.Record
	columns []string
	chunk   int
	done    bool
	loading bool

	table   table.Model
	spinner spinner.Model
	screen  screen
	detail  models.Record
	status  string
	overlay *errorOverlayModel

	// fatal is returned from Browse once the user closes its overlay.
	fatal error
}

func newBrowserModel(ctx context.Context, queries service.QueryService, q models.Query) browserModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot

	t := table.New(
		table.WithFocused(true),
		table.WithHeight(15),
		table.WithStyles(tableStyles()),
	)

	return browserModel{
		ctx:     ctx,
		queries: queries,
		query:   q,
		chunk:   defaultChunk,
		loading: true,
		table:   t,
		spinner: s,
	}
}

func (m browserModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, cmdOpen(m.ctx, m.queries, m.query))
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-10, 3))
		m.table.SetWidth(max(msg.Width-4, 20))
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case cursorOpenedMsg:
		if msg.err != nil {
			m.loading = false
			m.fatal = msg.err
			m.overlay = &errorOverlayModel{message: humanizeError(msg.err)}
			return m, nil
		}
		m.cursor = msg.cursor
		return m, cmdLoad(m.ctx, m.cursor, m.chunk)

	case recordsLoadedMsg:
		m.loading = false
		m.done = msg.done
		m.appendRecords(msg.records)
		if msg.err != nil {
			m.overlay = &errorOverlayModel{message: humanizeError(msg.err)}
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.overlay = &errorOverlayModel{message: msg.err.Error()}
			return m, nil
		}
		m.status = "Copied " + msg.id
		return m, cmdClearStatus()

	case clearStatusMsg:
		m.status = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m browserModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.overlay != nil {
		if key.Matches(msg, keys.enter, keys.esc) {
			m.overlay = nil
			if m.fatal != nil {
				return m, tea.Quit
			}
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}

	if key.Matches(msg, keys.quit) {
		return m, tea.Quit
	}

	if m.screen == screenDetail {
		switch {
		case key.Matches(msg, keys.esc):
			m.screen = screenList
		case key.Matches(msg, keys.copy):
			return m, cmdCopyID(m.detail.ID)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.enter):
		if rec, ok := m.selected(); ok {
			m.detail = rec
			m.screen = screenDetail
		}
		return m, nil
	case key.Matches(msg, keys.more):
		return m.loadMore()
	case key.Matches(msg, keys.copy):
		if rec, ok := m.selected(); ok {
			return m, cmdCopyID(rec.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	if len(m.records) > 0 && m.table.Cursor() == len(m.records)-1 {
		next, loadCmd := m.loadMore()
		return next, tea.Batch(cmd, loadCmd)
	}
	return m, cmd
}

// loadMore reads the next chunk from the cursor unless a load is running or
// the cursor is exhausted.
func (m browserModel) loadMore() (browserModel, tea.Cmd) {
	if m.loading || m.done || m.cursor == nil {
		return m, nil
	}
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, cmdLoad(m.ctx, m.cursor, m.chunk))
}

func (m browserModel) selected() (models.Record, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.records) {
		return models.Record{}, false
	}
	return m.records[i], true
}

func (m *browserModel) appendRecords(records []models.Record) {
	if len(records) == 0 {
		return
	}
	if m.columns == nil {
		m.columns = columnsFor(m.query, records[0])
		cols := make([]table.Column, 0, len(m.columns))
		for _, name := range m.columns {
			width := columnWidth
			if name == models.FieldID {
				width = idColumnWidth
			}
			cols = append(cols, table.Column{Title: name, Width: width})
		}
		m.table.SetColumns(cols)
	}

	m.records = append(m.records, records...)
	rows := make([]table.Row, 0, len(m.records))
	for _, rec := range m.records {
		row := make(table.Row, 0, len(m.columns))
		for _, name := range m.columns {
			row = append(row, fitText(fieldText(rec, name), columnWidth))
		}
		rows = append(rows, row)
	}
	m.table.SetRows(rows)
}

// columnsFor lists the table columns: Id first, then the selected fields,
// or the fields of the first record for a raw statement.
func columnsFor(q models.Query, first models.Record) []string {
	names := q.Fields
	if q.Raw != "" || len(names) == 0 {
		names = first.Names()
	}
	cols := []string{models.FieldID}
	for _, name := range models.Unique(names) {
		if name != models.FieldID {
			cols = append(cols, name)
		}
	}
	return cols
}

func (m browserModel) View() string {
	if m.overlay != nil {
		return appStyle.Render(m.overlay.View())
	}
	if m.screen == screenDetail {
		return appStyle.Render(renderPage(
			strings.TrimSpace(m.detail.Type+" "+m.detail.ID),
			detailData(m.detail),
			"c: copy id  esc: back  q: quit",
		))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fitText(m.query.String(), 80)))
	if m.loading {
		b.WriteString("  " + m.spinner.View())
	}
	b.WriteString("\n\n")

	if len(m.records) == 0 {
		if m.loading {
			b.WriteString("Loading...\n")
		} else {
			b.WriteString("No records\n")
		}
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	b.WriteString("\n" + m.summary() + "\n")
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	b.WriteString(helpStyle.Render("enter: open  n: more  c: copy id  q: quit"))
	return appStyle.Render(b.String())
}

func (m browserModel) summary() string {
	size := len(m.records)
	if m.cursor != nil {
		size = m.cursor.Size()
	}
	s := fmt.Sprintf("%d of %d records", len(m.records), size)
	if m.done {
		s += " (end)"
	}
	return s
}

func detailData(r models.Record) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render(models.FieldID) + r.ID + "\n")
	b.WriteString(labelStyle.Render(models.FieldType) + r.Type)
	r.Range(func(name string, v models.Value) bool {
		b.WriteString("\n" + labelStyle.Render(name) + formatValue(v))
		return true
	})
	if len(r.FieldsToNull) > 0 {
		b.WriteString("\n" + labelStyle.Render(models.FieldFieldsToNull) + strings.Join(r.FieldsToNull, ", "))
	}
	return b.String()
}

func cmdOpen(ctx context.Context, queries service.QueryService, q models.Query) tea.Cmd {
	return func() tea.Msg {
		c, err := queries.Query(ctx, q)
		return cursorOpenedMsg{cursor: c, err: err}
	}
}

// cmdLoad reads up to n records from c.
func cmdLoad(ctx context.Context, c *cursor.Cursor, n int) tea.Cmd {
	return func() tea.Msg {
		records := make([]models.Record, 0, n)
		for range n {
			ok, err := c.HasNext(ctx)
			if err != nil {
				return recordsLoadedMsg{records: records, err: err}
			}
			if !ok {
				return recordsLoadedMsg{records: records, done: true}
			}
			rec, err := c.Next(ctx)
			if err != nil {
				return recordsLoadedMsg{records: records, err: err}
			}
			records = append(records, rec)
		}
		return recordsLoadedMsg{records: records}
	}
}

func cmdCopyID(id string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(id); err != nil {
			return copiedMsg{err: fmt.Errorf("copy to clipboard: %w", err)}
		}
		return copiedMsg{id: id}
	}
}

func cmdClearStatus() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
