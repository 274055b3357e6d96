// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-record-sync/internal/mock"
	"github.com/MKhiriev/go-record-sync/internal/store"
	"github.com/MKhiriev/go-record-sync/models"
)

// fakeOutbox keeps entries in memory, in insertion order.
type fakeOutbox struct {
	entries []models.OutboxEntry
	synced  map[int64]string
	err     error
}

func (f *fakeOutbox) Save(_ context.Context, e models.OutboxEntry) (models.OutboxEntry, error) {
	e.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, e)
	return e, nil
}

func (f *fakeOutbox) Get(_ context.Context, objectType, localKey string) (models.OutboxEntry, error) {
	for _, e := range f.entries {
		if e.ObjectType == objectType && e.LocalKey == localKey {
			return e, nil
		}
	}
	return models.OutboxEntry{}, store.ErrNotFound
}

func (f *fakeOutbox) Pending(_ context.Context, objectType string, limit int) ([]models.OutboxEntry, error) {
	var out []models.OutboxEntry
	for _, e := range f.entries {
		if e.ObjectType == objectType && e.Pending() && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeOutbox) PendingTypes(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var types []string
	seen := map[string]bool{}
	for _, e := range f.entries {
		if e.Pending() && !seen[e.ObjectType] {
			seen[e.ObjectType] = true
			types = append(types, e.ObjectType)
		}
	}
	return types, nil
}

func (f *fakeOutbox) MarkSynced(_ context.Context, entry models.OutboxEntry, remoteID string, at time.Time) error {
	for i := range f.entries {
		if f.entries[i].ID == entry.ID {
			f.entries[i].RemoteID = remoteID
			f.entries[i].SyncedAt = &at
			if f.synced == nil {
				f.synced = map[int64]string{}
			}
			f.synced[entry.ID] = remoteID
			return nil
		}
	}
	return store.ErrNotFound
}

type fakeFailureLog struct {
	failures []models.SyncFailure
}

func (f *fakeFailureLog) Add(_ context.Context, failure models.SyncFailure) (int64, error) {
	f.failures = append(f.failures, failure)
	return int64(len(f.failures)), nil
}

func (f *fakeFailureLog) Recent(context.Context, int) ([]models.SyncFailure, error) {
	return f.failures, nil
}

func newTestPushJob(t *testing.T, writer *mock.MockRecordWriter, retry int) (*pushJob, *fakeOutbox, *fakeFailureLog) {
	t.Helper()
	outbox := &fakeOutbox{}
	failures := &fakeFailureLog{}
	job := NewPushJob(&store.Storages{Outbox: outbox, Failures: failures}, writer, retry, 10, nil).(*pushJob)
	job.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return job, outbox, failures
}

func seed(t *testing.T, outbox *fakeOutbox, entries ...models.OutboxEntry) {
	t.Helper()
	for _, e := range entries {
		_, err := outbox.Save(context.Background(), e)
		require.NoError(t, err)
	}
}

// ── RunOnce ──────────────────────────────────────────────────────────────────

func TestPushJob_RunOnce_PushesAndMarksSynced(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock.NewMockRecordWriter(ctrl)
	job, outbox, failures := newTestPushJob(t, writer, 3)

	seed(t, outbox,
		models.OutboxEntry{ObjectType: "Account", LocalKey: "a", RemoteID: "001000000000001", Fields: map[string]any{"Name": "A", "Fax": nil}},
		models.OutboxEntry{ObjectType: "Account", LocalKey: "b", Fields: map[string]any{"Name": "B", "Fax": nil}},
		models.OutboxEntry{ObjectType: "Contact", LocalKey: "c", Fields: map[string]any{"LastName": "C"}},
	)

	writer.EXPECT().
		Write(gomock.Any(), models.OperationUpdate, "Account", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.Operation, _ string, records []models.Record) ([]models.SyncResult, error) {
			require.Len(t, records, 1)
			assert.Equal(t, "001000000000001", records[0].ID)
			assert.Equal(t, []string{"Fax"}, records[0].FieldsToNull)
			return okResults("001000000000001"), nil
		})
	writer.EXPECT().
		Write(gomock.Any(), models.OperationCreate, "Account", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.Operation, _ string, records []models.Record) ([]models.SyncResult, error) {
			require.Len(t, records, 1)
			assert.Nil(t, records[0].FieldsToNull)
			assert.False(t, records[0].Has("Fax"))
			return okResults("001000000000002"), nil
		})
	writer.EXPECT().
		Write(gomock.Any(), models.OperationCreate, "Contact", gomock.Any()).
		Return(okResults("003000000000001"), nil)

	report, err := job.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PushReport{Pushed: 3}, report)
	assert.Empty(t, failures.failures)
	assert.Equal(t, map[int64]string{
		1: "001000000000001",
		2: "001000000000002",
		3: "003000000000001",
	}, outbox.synced)

	// nothing left to push
	report, err = job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report)
}

func TestPushJob_RunOnce_RecordsFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock.NewMockRecordWriter(ctrl)
	job, outbox, failures := newTestPushJob(t, writer, 2)

	seed(t, outbox,
		models.OutboxEntry{ObjectType: "Account", LocalKey: "x", Fields: map[string]any{"Name": "X"}},
		models.OutboxEntry{ObjectType: "Account", LocalKey: "y", Fields: map[string]any{"Name": "Y"}},
	)

	writer.EXPECT().
		Write(gomock.Any(), models.OperationCreate, "Account", gomock.Any()).
		Return(failedResults(models.StatusUnableToLockRow), nil).
		Times(3)

	report, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PushReport{Failed: 2}, report)

	require.Len(t, failures.failures, 1)
	f := failures.failures[0]
	assert.Equal(t, "Account", f.ObjectType)
	assert.Equal(t, models.OperationCreate, f.Operation)
	assert.Equal(t, []string{"x", "y"}, f.LocalKeys)
	assert.Equal(t, []string{models.StatusUnableToLockRow}, f.Codes)
	assert.Equal(t, 3, f.Attempts)
	assert.Contains(t, f.Message, "2 Attempts:")

	assert.Empty(t, outbox.synced)
}

func TestPushJob_RunOnce_PartialSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock.NewMockRecordWriter(ctrl)
	job, outbox, failures := newTestPushJob(t, writer, 0)

	seed(t, outbox,
		models.OutboxEntry{ObjectType: "Account", LocalKey: "u", RemoteID: "001000000000001", Fields: map[string]any{"Name": "U"}},
		models.OutboxEntry{ObjectType: "Account", LocalKey: "n", Fields: map[string]any{}},
	)

	writer.EXPECT().
		Write(gomock.Any(), models.OperationUpdate, gomock.Any(), gomock.Any()).
		Return(okResults("001000000000001"), nil)
	writer.EXPECT().
		Write(gomock.Any(), models.OperationCreate, gomock.Any(), gomock.Any()).
		Return(failedResults(models.StatusRequiredFieldMissing), nil)

	report, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PushReport{Pushed: 1, Failed: 1}, report)
	require.Len(t, failures.failures, 1)
	assert.Equal(t, []string{"n"}, failures.failures[0].LocalKeys)
	assert.Equal(t, 1, failures.failures[0].Attempts)
}

func TestPushJob_RunOnce_MixedCreateBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock.NewMockRecordWriter(ctrl)
	job, outbox, failures := newTestPushJob(t, writer, 0)

	seed(t, outbox,
		models.OutboxEntry{ObjectType: "Account", LocalKey: "ok", Fields: map[string]any{"Name": "Acme"}},
		models.OutboxEntry{ObjectType: "Account", LocalKey: "bad", Fields: map[string]any{}},
	)

	writer.EXPECT().
		Write(gomock.Any(), models.OperationCreate, "Account", gomock.Len(2)).
		Return([]models.SyncResult{
			{ID: "001000000000NEW", Success: true},
			{Success: false, Errors: []models.SyncError{{StatusCode: models.StatusRequiredFieldMissing, Message: "Name"}}},
		}, nil)
	writer.EXPECT().
		Write(gomock.Any(), models.OperationCreate, "Account", gomock.Len(1)).
		Return(failedResults(models.StatusRequiredFieldMissing), nil)

	report, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PushReport{Pushed: 1, Failed: 1}, report)
	assert.Equal(t, map[int64]string{1: "001000000000NEW"}, outbox.synced)
	require.Len(t, failures.failures, 1)
	assert.Equal(t, []string{"bad"}, failures.failures[0].LocalKeys)

	// only the rejected entry is sent again
	report, err = job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PushReport{Pushed: 0, Failed: 1}, report)
	assert.Equal(t, []string{"bad"}, failures.failures[1].LocalKeys)
}

func TestPushJob_RunOnce_StorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock.NewMockRecordWriter(ctrl)
	job, outbox, _ := newTestPushJob(t, writer, 1)
	outbox.err = errors.New("database is locked")

	_, err := job.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestPushJob_RunOnce_BatchSize(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock.NewMockRecordWriter(ctrl)
	job, outbox, _ := newTestPushJob(t, writer, 1)

	for i := range 15 {
		seed(t, outbox, models.OutboxEntry{ObjectType: "Lead", LocalKey: fmt.Sprint(i), Fields: map[string]any{"LastName": "L"}})
	}

	writer.EXPECT().
		Write(gomock.Any(), models.OperationCreate, "Lead", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.Operation, _ string, records []models.Record) ([]models.SyncResult, error) {
			ids := make([]string, len(records))
			for i := range records {
				ids[i] = fmt.Sprintf("00Q%015d", i)
			}
			return okResults(ids...), nil
		}).
		Times(2)

	report, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, report.Pushed)

	report, err = job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Pushed)
}

// ── storage failures ─────────────────────────────────────────────────────────

func TestPushJob_RunOnce_MarkSyncedError(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock.NewMockRecordWriter(ctrl)
	outbox := mock.NewMockOutboxRepository(ctrl)
	failures := mock.NewMockFailureLog(ctrl)

	entry := models.OutboxEntry{ID: 7, ObjectType: "Account", LocalKey: "k", Fields: map[string]any{"Name": "K"}}
	outbox.EXPECT().PendingTypes(gomock.Any()).Return([]string{"Account"}, nil)
	outbox.EXPECT().Pending(gomock.Any(), "Account", 10).Return([]models.OutboxEntry{entry}, nil)
	writer.EXPECT().
		Write(gomock.Any(), models.OperationCreate, "Account", gomock.Any()).
		Return(okResults("001000000000007"), nil)
	outbox.EXPECT().
		MarkSynced(gomock.Any(), entry, "001000000000007", gomock.Any()).
		Return(store.ErrNotFound)

	job := NewPushJob(&store.Storages{Outbox: outbox, Failures: failures}, writer, 0, 10, nil)
	report, err := job.RunOnce(context.Background())

	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "mark Account/k synced")
	assert.Zero(t, report)
}

func TestPushJob_RunOnce_FailureLogError(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mock.NewMockRecordWriter(ctrl)
	outbox := mock.NewMockOutboxRepository(ctrl)
	failures := mock.NewMockFailureLog(ctrl)
	logErr := errors.New("disk full")

	outbox.EXPECT().PendingTypes(gomock.Any()).Return([]string{"Contact"}, nil)
	outbox.EXPECT().Pending(gomock.Any(), "Contact", 10).Return([]models.OutboxEntry{
		{ID: 1, ObjectType: "Contact", LocalKey: "c", Fields: map[string]any{}},
	}, nil)
	writer.EXPECT().
		Write(gomock.Any(), models.OperationCreate, "Contact", gomock.Any()).
		Return(failedResults(models.StatusRequiredFieldMissing), nil)
	failures.EXPECT().
		Add(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f models.SyncFailure) (int64, error) {
			assert.Equal(t, []string{"c"}, f.LocalKeys)
			return 0, logErr
		})

	job := NewPushJob(&store.Storages{Outbox: outbox, Failures: failures}, writer, 0, 10, nil)
	report, err := job.RunOnce(context.Background())

	require.ErrorIs(t, err, logErr)
	assert.Equal(t, PushReport{Failed: 1}, report)
}
