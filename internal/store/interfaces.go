package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-record-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// OutboxRepository keeps local entities waiting to be pushed.
type OutboxRepository interface {
	// Save inserts or updates the entry identified by object type and local
	// key. An entry whose fields changed becomes pending again; saving the
	// same fields twice keeps its sync state.
	Save(ctx context.Context, entry models.OutboxEntry) (models.OutboxEntry, error)
	// Get returns the entry identified by object type and local key.
	Get(ctx context.Context, objectType, localKey string) (models.OutboxEntry, error)
	// Pending returns up to limit unsynced entries of objectType, oldest first.
	Pending(ctx context.Context, objectType string, limit int) ([]models.OutboxEntry, error)
	// PendingTypes returns the object types having unsynced entries.
	PendingTypes(ctx context.Context) ([]string, error)
	// MarkSynced stores the remote id of entry and marks it synced at at,
	// unless its fields changed since entry was read.
	MarkSynced(ctx context.Context, entry models.OutboxEntry, remoteID string, at time.Time) error
}

// FailureLog persists raised sync failures.
type FailureLog interface {
	Add(ctx context.Context, failure models.SyncFailure) (int64, error)
	Recent(ctx context.Context, limit int) ([]models.SyncFailure, error)
}

// ErrorClassificator decides whether a failed database operation can be
// retried.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
