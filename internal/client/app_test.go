package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-record-sync/internal/adapter"
	"github.com/MKhiriev/go-record-sync/internal/config"
	handler "github.com/MKhiriev/go-record-sync/internal/handler/http"
	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/sandbox"
	"github.com/MKhiriev/go-record-sync/internal/store"
	"github.com/MKhiriev/go-record-sync/migrations"
)

type harness struct {
	remote   adapter.RemoteStore
	storages *store.Storages
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	sandboxCfg := config.SandboxConfig{
		PageSize:      2,
		TokenSignKey:  "sign-key",
		TokenIssuer:   "record-sync-sandbox",
		TokenDuration: time.Hour,
		Username:      "client@example.com",
		Password:      "s3cret",
	}
	h, err := handler.NewHandler(sandbox.NewStore(sandbox.WithPageSize(sandboxCfg.PageSize)), sandboxCfg, logger.Nop())
	require.NoError(t, err)
	srv := httptest.NewServer(h.Init())
	t.Cleanup(srv.Close)

	remote, err := adapter.NewHTTPRemoteStore(config.ClientAdapter{
		HTTPAddress: srv.URL,
		Username:    sandboxCfg.Username,
		Password:    sandboxCfg.Password,
	}, nil, logger.Nop())
	require.NoError(t, err)

	storages, err := store.NewStorages(ctx, config.ClientStorage{
		DB: config.ClientDB{DSN: ":memory:", Driver: migrations.DialectSQLite},
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { storages.Close() })

	return &harness{remote: remote, storages: storages}
}

// run executes one command and returns its output.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app, err := NewApp(h.remote, h.storages, nil, &config.ClientConfig{
		Sync: config.ClientSync{Retry: 1, BatchSize: 50},
		Args: args,
	}, logger.Nop())
	require.NoError(t, err)

	var out bytes.Buffer
	app.SetOutput(&out)
	err = app.Run(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err)
	return out
}

// ── Commands ───────────────────────────────────────────────────────────

func TestApp_OutboxRoundTrip(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "enqueue", "Account", "acc-1", `{"Name":"Acme","Phone":"555-0100"}`)
	assert.Contains(t, out, `"local_key": "acc-1"`)

	assert.Equal(t, "pushed 1, failed 0\n", h.mustRun(t, "push"))
	assert.Equal(t, "pushed 0, failed 0\n", h.mustRun(t, "push"), "synced entries are not pushed again")

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(h.mustRun(t, "query", "SELECT Name, Phone FROM Account")), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Acme", records[0]["Name"])
	id, _ := records[0]["Id"].(string)
	require.NotEmpty(t, id)

	entry, err := h.storages.Outbox.Get(context.Background(), "Account", "acc-1")
	require.NoError(t, err)
	assert.Equal(t, id, entry.RemoteID)

	out = h.mustRun(t, "pull", "Account", id, "Name")
	assert.Contains(t, out, `"Name": "Acme"`)
	assert.NotContains(t, out, "Phone")

	out = h.mustRun(t, "delete", "Account", id)
	assert.Contains(t, out, `"success": true`)

	_, err = h.run(t, "pull", "Account", id, "Name")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestApp_QueryPagesThroughCursor(t *testing.T) {
	h := newHarness(t)

	for _, key := range []string{"a", "b", "c", "d", "e"} {
		h.mustRun(t, "enqueue", "Contact", key, `{"LastName":"`+key+`"}`)
	}
	assert.Equal(t, "pushed 5, failed 0\n", h.mustRun(t, "push"))

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(h.mustRun(t, "query", "SELECT", "LastName", "FROM", "Contact")), &records))
	require.Len(t, records, 5)
	assert.Equal(t, "e", records[4]["LastName"])
}

func TestApp_FailedPushIsLogged(t *testing.T) {
	h := newHarness(t)

	h.mustRun(t, "enqueue", "Account", "no-name", `{"Phone":"555-0199"}`)
	assert.Equal(t, "pushed 0, failed 1\n", h.mustRun(t, "push"))

	var failures []map[string]any
	require.NoError(t, json.Unmarshal([]byte(h.mustRun(t, "failures")), &failures))
	require.Len(t, failures, 1)
	assert.Equal(t, "Account", failures[0]["object_type"])
	assert.Equal(t, []any{"REQUIRED_FIELD_MISSING"}, failures[0]["codes"])
	assert.Equal(t, []any{"no-name"}, failures[0]["local_keys"])
}

func TestApp_EmptyResultsPrintEmptyLists(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "[]\n", h.mustRun(t, "failures", "5"))
	assert.Equal(t, "[]\n", h.mustRun(t, "query", "SELECT Name FROM Account"))
}

// ── Usage ──────────────────────────────────────────────────────────────

func TestApp_Usage(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no command", nil, ErrUsage},
		{"unknown command", []string{"sync"}, ErrUnknownCommand},
		{"enqueue without fields", []string{"enqueue", "Account", "k"}, ErrUsage},
		{"enqueue with bad json", []string{"enqueue", "Account", "k", "{"}, ErrUsage},
		{"pull without fields", []string{"pull", "Account", "001000000000000001"}, ErrUsage},
		{"query without statement", []string{"query"}, ErrUsage},
		{"delete without ids", []string{"delete", "Account"}, ErrUsage},
		{"failures with bad limit", []string{"failures", "zero"}, ErrUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(t, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	out := h.mustRun(t, "help")
	assert.Contains(t, out, "usage: recordsync")
}

func TestApp_BrowseNeedsUI(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "browse", "Account", "Name")
	assert.Error(t, err)
}

func TestNewApp_RequiresDependencies(t *testing.T) {
	_, err := NewApp(nil, nil, nil, &config.ClientConfig{}, nil)
	assert.Error(t, err)
}
