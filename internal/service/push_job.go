// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-record-sync/internal/adapter"
	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/store"
	"github.com/MKhiriev/go-record-sync/models"
)

// PushReport summarizes one outbox push cycle.
type PushReport struct {
	Pushed int
	Failed int
}

// PushJob pushes pending outbox entries to the remote store.
type PushJob interface {
	// RunOnce pushes every pending entry, one batch of each object type per
	// write. Raised sync failures are recorded in the failure log and do not
	// stop the cycle; storage errors do.
	RunOnce(ctx context.Context) (PushReport, error)
}

type pushJob struct {
	outbox   store.OutboxRepository
	failures store.FailureLog
	writer   adapter.RecordWriter

	retry     int
	batchSize int

	logger *logger.Logger
	now    func() time.Time
}

// NewPushJob builds a PushJob writing through writer with the given retry
// budget and batch size.
func NewPushJob(storages *store.Storages, writer adapter.RecordWriter, retry, batchSize int, log *logger.Logger) PushJob {
	if log == nil {
		log = logger.Nop()
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	return &pushJob{
		outbox:    storages.Outbox,
		failures:  storages.Failures,
		writer:    writer,
		retry:     retry,
		batchSize: batchSize,
		logger:    log.WithComponent("push_job"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (j *pushJob) RunOnce(ctx context.Context) (PushReport, error) {
	var report PushReport

	types, err := j.outbox.PendingTypes(ctx)
	if err != nil {
		return report, fmt.Errorf("list pending object types: %w", err)
	}

	for _, objectType := range types {
		if err = ctx.Err(); err != nil {
			return report, err
		}

		entries, err := j.outbox.Pending(ctx, objectType, j.batchSize)
		if err != nil {
			return report, fmt.Errorf("list pending %s entries: %w", objectType, err)
		}
		if len(entries) == 0 {
			continue
		}

		pushed, failed, err := j.pushBatch(ctx, objectType, entries)
		report.Pushed += pushed
		report.Failed += failed
		if err != nil {
			return report, err
		}
	}

	j.logger.Info().
		Int("pushed", report.Pushed).
		Int("failed", report.Failed).
		Msg("outbox push cycle finished")

	return report, nil
}

func (j *pushJob) pushBatch(ctx context.Context, objectType string, entries []models.OutboxEntry) (int, int, error) {
	var updates, creates []models.OutboxEntry
	records := make([]models.Record, 0, len(entries))
	for _, entry := range entries {
		rec := localRecord(entry)
		records = append(records, rec)
		if rec.HasID() {
			entry.RemoteID = rec.ID
			updates = append(updates, entry)
		} else {
			creates = append(creates, entry)
		}
	}

	engine := NewSyncEngine(objectType, j.writer, nil, j.logger).WithRetry(j.retry)
	res, pushErr := engine.Push(ctx, records...)

	pushed := 0
	for _, group := range []struct {
		entries []models.OutboxEntry
		results []models.SyncResult
	}{{updates, res.Updated}, {creates, res.Created}} {
		if len(group.results) == 0 {
			continue
		}
		for i, entry := range group.entries {
			remoteID := entry.RemoteID
			if i < len(group.results) && group.results[i].ID != "" {
				remoteID = group.results[i].ID
			}
			if err := j.outbox.MarkSynced(ctx, entry, remoteID, j.now()); err != nil {
				return pushed, 0, fmt.Errorf("mark %s/%s synced: %w", objectType, entry.LocalKey, err)
			}
			pushed++
		}
	}

	if pushErr == nil {
		return pushed, 0, nil
	}

	var failure *SyncFailedError
	if !errors.As(pushErr, &failure) {
		return pushed, 0, fmt.Errorf("push %s: %w", objectType, pushErr)
	}

	group := creates
	if failure.Operation == models.OperationUpdate {
		group = updates
	}

	// Results aligned with the batch are per record: entries the remote
	// accepted are written back so they are not sent again.
	var failed []models.OutboxEntry
	if len(failure.Results) == len(group) {
		for i, entry := range group {
			result := failure.Results[i]
			if !result.Success {
				failed = append(failed, entry)
				continue
			}
			remoteID := entry.RemoteID
			if result.ID != "" {
				remoteID = result.ID
			}
			if err := j.outbox.MarkSynced(ctx, entry, remoteID, j.now()); err != nil {
				return pushed, 0, fmt.Errorf("mark %s/%s synced: %w", objectType, entry.LocalKey, err)
			}
			pushed++
		}
	} else {
		failed = group
	}
	if len(failed) == 0 {
		return pushed, 0, nil
	}

	keys := make([]string, 0, len(failed))
	for _, entry := range failed {
		keys = append(keys, entry.LocalKey)
	}

	if _, err := j.failures.Add(ctx, models.SyncFailure{
		ObjectType: objectType,
		Operation:  failure.Operation,
		LocalKeys:  keys,
		Codes:      failure.Codes(),
		Attempts:   len(failure.Attempts) + 1,
		Message:    failure.Error(),
		CreatedAt:  j.now(),
	}); err != nil {
		return pushed, len(failed), fmt.Errorf("record %s failure: %w", objectType, err)
	}

	j.logger.Warn().
		Str("object_type", objectType).
		Str("operation", string(failure.Operation)).
		Strs("local_keys", keys).
		Msg("outbox push failed, recorded in failure log")

	return pushed, len(failed), nil
}

// localRecord builds the outbound record of an outbox entry. Null fields of
// an entry that exists remotely are cleared through FieldsToNull.
func localRecord(entry models.OutboxEntry) models.Record {
	return NewSyncEngine(entry.ObjectType, nil, nil, nil).
		WithID(entry.RemoteID).
		WithPushValues(entry.Fields).
		LocalObject()
}
