package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/MKhiriev/go-record-sync/internal/adapter"
	"github.com/MKhiriev/go-record-sync/internal/cursor"
	"github.com/MKhiriev/go-record-sync/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueries struct {
	cursor *cursor.Cursor
	err    error
}

func (f fakeQueries) Query(context.Context, models.Query) (*cursor.Cursor, error) {
	return f.cursor, f.err
}

func (f fakeQueries) Subquery(models.QuerySeed) *cursor.Cursor {
	return nil
}

func account(id, name string, phone models.Value) models.Record {
	r := models.NewRecord("Account")
	r.ID = id
	r.Set("Name", models.Scalar(name))
	r.Set("Phone", phone)
	return r
}

func threeAccounts() *cursor.Cursor {
	return cursor.New(models.Page{
		Records: []models.Record{
			account("001000000000000001", "Acme", models.Scalar("555-0100")),
			account("001000000000000002", "Globex", models.Null()),
			account("001000000000000003", "Initech", models.Scalar("555-0300")),
		},
		Done: true,
		Size: 3,
	})
}

var accountQuery = models.Query{ObjectType: "Account", Fields: []string{"Name", "Phone"}}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m browserModel, msg tea.Msg) (browserModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	bm, ok := next.(browserModel)
	require.True(t, ok)
	return bm, cmd
}

// opened runs the open and first load commands against queries.
func opened(t *testing.T, queries fakeQueries, chunk int) browserModel {
	t.Helper()
	ctx := context.Background()
	m := newBrowserModel(ctx, queries, accountQuery)
	m.chunk = chunk

	m, cmd := update(t, m, cmdOpen(ctx, queries, accountQuery)())
	if cmd == nil {
		return m
	}
	m, _ = update(t, m, cmd())
	return m
}

// ── Loading ────────────────────────────────────────────────────────────

func TestBrowser_LoadsChunks(t *testing.T) {
	m := opened(t, fakeQueries{cursor: threeAccounts()}, 2)

	assert.False(t, m.loading)
	assert.False(t, m.done)
	require.Len(t, m.records, 2)
	assert.Equal(t, []string{"Id", "Name", "Phone"}, m.columns)

	view := m.View()
	assert.Contains(t, view, "Acme")
	assert.Contains(t, view, "Globex")
	assert.NotContains(t, view, "Initech")
	assert.Contains(t, view, "2 of 3 records")

	m, cmd := update(t, m, keyPress("n"))
	assert.True(t, m.loading)
	assert.NotNil(t, cmd)

	m, _ = update(t, m, cmdLoad(context.Background(), m.cursor, m.chunk)())
	assert.True(t, m.done)
	require.Len(t, m.records, 3)
	assert.Contains(t, m.View(), "Initech")
	assert.Contains(t, m.View(), "3 of 3 records (end)")

	_, cmd = update(t, m, keyPress("n"))
	assert.Nil(t, cmd, "exhausted cursor is not read again")
}

func TestBrowser_EmptyResult(t *testing.T) {
	m := opened(t, fakeQueries{cursor: cursor.New(models.Page{Done: true})}, 10)

	assert.True(t, m.done)
	assert.Empty(t, m.records)
	assert.Contains(t, m.View(), "No records")
}

func TestBrowser_PageFetchError(t *testing.T) {
	c := cursor.New(models.Page{
		Records: []models.Record{account("001000000000000001", "Acme", models.Null())},
		Locator: "locator-1",
		Size:    2,
	}, cursor.WithFetcher(cursor.FetcherFunc(func(context.Context, string) (models.Page, error) {
		return models.Page{}, adapter.ErrUnauthorized
	})))

	m := opened(t, fakeQueries{cursor: c}, 10)

	require.Len(t, m.records, 1)
	require.NotNil(t, m.overlay)
	assert.Contains(t, m.View(), "rejected the credentials")

	m, cmd := update(t, m, keyPress("esc"))
	assert.Nil(t, m.overlay)
	assert.Nil(t, cmd, "a page error keeps the browser open")
}

func TestBrowser_OpenErrorQuits(t *testing.T) {
	openErr := errors.New("dial tcp 127.0.0.1:1: connect: connection refused")
	m := opened(t, fakeQueries{err: openErr}, 10)

	require.NotNil(t, m.overlay)
	assert.Contains(t, m.View(), "remote store is unavailable")

	m, cmd := update(t, m, keyPress("enter"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.ErrorIs(t, m.fatal, openErr)
}

// ── Navigation ─────────────────────────────────────────────────────────

func TestBrowser_DetailScreen(t *testing.T) {
	m := opened(t, fakeQueries{cursor: threeAccounts()}, 10)

	m, _ = update(t, m, keyPress("enter"))
	require.Equal(t, screenDetail, m.screen)
	assert.Equal(t, "001000000000000001", m.detail.ID)

	view := m.View()
	assert.Contains(t, view, "Account 001000000000000001")
	assert.Contains(t, view, "555-0100")
	assert.Contains(t, view, "esc: back")

	m, _ = update(t, m, keyPress("esc"))
	assert.Equal(t, screenList, m.screen)
}

func TestBrowser_Quit(t *testing.T) {
	m := opened(t, fakeQueries{cursor: threeAccounts()}, 10)

	_, cmd := update(t, m, keyPress("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestBrowser_CopyStatus(t *testing.T) {
	m := opened(t, fakeQueries{cursor: threeAccounts()}, 10)

	m, cmd := update(t, m, copiedMsg{id: "001000000000000002"})
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Copied 001000000000000002")

	m, _ = update(t, m, clearStatusMsg{})
	assert.NotContains(t, m.View(), "Copied")

	m, _ = update(t, m, copiedMsg{err: errors.New("copy to clipboard: no clipboard utilities")})
	require.NotNil(t, m.overlay)
	assert.Contains(t, m.View(), "no clipboard utilities")
}

// ── Rendering ──────────────────────────────────────────────────────────

func TestColumnsFor(t *testing.T) {
	first := account("001000000000000001", "Acme", models.Null())

	assert.Equal(t, []string{"Id", "Name"},
		columnsFor(models.Query{ObjectType: "Account", Fields: []string{"Id", "Name", "Name"}}, first))
	assert.Equal(t, []string{"Id", "Name", "Phone"},
		columnsFor(models.Query{Raw: "SELECT Name, Phone FROM Account"}, first))
}

func TestFormatValue(t *testing.T) {
	child := models.NewRecord("Contact")
	child.ID = "003000000000000001"

	tests := []struct {
		name  string
		value models.Value
		want  string
	}{
		{"null", models.Null(), "-"},
		{"string", models.Scalar("Acme"), "Acme"},
		{"number", models.Scalar(42), "42"},
		{"record", models.RecordValue(child), "Contact 003000000000000001"},
		{"list", models.List(models.Scalar("a"), models.Scalar("b")), "[2 items]"},
		{"seed", models.SeedValue(models.QuerySeed{Size: 7}), "<subquery: 7 records>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.value))
		})
	}
}

func TestFitText(t *testing.T) {
	assert.Equal(t, "short", fitText("short", 10))
	assert.Equal(t, "abcdefg...", fitText("abcdefghijklmno", 10))
	assert.Equal(t, "ab", fitText("abcdef", 2))
	assert.Equal(t, "ünï...", fitText("ünïcödé", 6))
}
