package models

import (
	"slices"
	"time"
)

// Operation is a remote write kind.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Status codes reported by the remote store (and synthesized locally for
// transport faults).
const (
	StatusUnableToLockRow       = "UNABLE_TO_LOCK_ROW"
	StatusRequestRunningTooLong = "REQUEST_RUNNING_TOO_LONG"
	StatusTransportFault        = "TRANSPORT_FAULT"
	StatusInvalidField          = "INVALID_FIELD"
	StatusInvalidIDField        = "INVALID_ID_FIELD"
	StatusEntityIsDeleted       = "ENTITY_IS_DELETED"
	StatusRequiredFieldMissing  = "REQUIRED_FIELD_MISSING"
)

// TransientStatusCodes are the codes a failed write is retried for.
var TransientStatusCodes = []string{
	StatusUnableToLockRow,
	StatusRequestRunningTooLong,
	StatusTransportFault,
}

// SyncError is one field-scoped error of a write result.
type SyncError struct {
	StatusCode string   `json:"statusCode"`
	Message    string   `json:"message"`
	Fields     []string `json:"fields,omitempty"`
}

// SyncResult is the outcome of writing a single record.
type SyncResult struct {
	ID      string      `json:"id,omitempty"`
	Success bool        `json:"success"`
	Errors  []SyncError `json:"errors,omitempty"`
}

// IsSuccessful reports whether results is non-empty and every element
// succeeded.
func IsSuccessful(results []SyncResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}

// HasErrorCode reports whether any error of any result carries one of codes.
func HasErrorCode(results []SyncResult, codes ...string) bool {
	if len(codes) == 0 {
		return false
	}
	for _, r := range results {
		for _, e := range r.Errors {
			if slices.Contains(codes, e.StatusCode) {
				return true
			}
		}
	}
	return false
}

// ErrorCodes returns every status code found in results, in encounter order.
func ErrorCodes(results []SyncResult) []string {
	var codes []string
	for _, r := range results {
		for _, e := range r.Errors {
			codes = append(codes, e.StatusCode)
		}
	}
	return codes
}

// OutboxEntry is a local entity waiting to be pushed to the remote store.
// Fingerprint identifies the field set and is set by the store on save.
type OutboxEntry struct {
	ID          int64          `json:"id"`
	ObjectType  string         `json:"object_type"`
	LocalKey    string         `json:"local_key"`
	RemoteID    string         `json:"remote_id,omitempty"`
	Fields      map[string]any `json:"fields"`
	Fingerprint string         `json:"fingerprint,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
	SyncedAt    *time.Time     `json:"synced_at,omitempty"`
}

// Pending reports whether the entry has not been pushed since its last
// change.
func (e OutboxEntry) Pending() bool {
	return e.SyncedAt == nil
}

// SyncFailure is a persisted record of a push that ended in a raised failure.
type SyncFailure struct {
	ID         int64     `json:"id"`
	ObjectType string    `json:"object_type"`
	Operation  Operation `json:"operation"`
	LocalKeys  []string  `json:"local_keys"`
	Codes      []string  `json:"codes"`
	Attempts   int       `json:"attempts"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
