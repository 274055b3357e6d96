package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-record-sync/models"
)

var (
	// ErrMissingDependency is returned when an engine is used before the
	// capability an operation needs (writer or reader) was attached.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrEmptyObjectType is returned when a remote operation is requested on
	// an engine without a remote object type.
	ErrEmptyObjectType = errors.New("empty object type")

	// ErrSyncFailed is matched by every [*SyncFailedError].
	ErrSyncFailed = errors.New("sync failure")

	// ErrPullConsumer wraps errors returned by pull consumers.
	ErrPullConsumer = errors.New("pull consumer failed")
)

// SyncFailedError is the aggregated failure of a remote write. It carries
// the final result batch and, when available, the acting entity, the records
// that were written and the failed batches of every earlier attempt.
type SyncFailedError struct {
	Operation  models.Operation
	ObjectType string

	// Results is the batch of the last attempt.
	Results []models.SyncResult
	// Attempts holds the failed batches that were retried, oldest first.
	Attempts [][]models.SyncResult

	// Entity is nil for ad-hoc engines.
	Entity  Entity
	Objects []models.Record
}

// Error renders every result and attempt as a single diagnostic line set.
func (e *SyncFailedError) Error() string {
	var b strings.Builder
	b.WriteString(ErrSyncFailed.Error())
	b.WriteString(": ")

	for _, r := range e.Results {
		if r.ID != "" {
			fmt.Fprintf(&b, "Id: %s ", r.ID)
		}
		for _, se := range r.Errors {
			fmt.Fprintf(&b, "Code: %s - %s", se.StatusCode, se.Message)
			if len(se.Fields) > 0 {
				fmt.Fprintf(&b, " (Fields: %s)", strings.Join(se.Fields, ", "))
			}
			b.WriteString("; ")
		}
		b.WriteString("\n")
	}

	if len(e.Attempts) > 0 {
		fmt.Fprintf(&b, "%d Attempts:\n", len(e.Attempts))
		for _, attempt := range e.Attempts {
			for _, r := range attempt {
				if r.ID != "" {
					fmt.Fprintf(&b, "Id: %s ", r.ID)
				}
				for _, se := range r.Errors {
					fmt.Fprintf(&b, "Code: %s; ", se.StatusCode)
				}
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// Unwrap lets errors.Is match [ErrSyncFailed].
func (e *SyncFailedError) Unwrap() error {
	return ErrSyncFailed
}

// HasErrorCode reports whether the final batch carries any of codes.
func (e *SyncFailedError) HasErrorCode(codes ...string) bool {
	return models.HasErrorCode(e.Results, codes...)
}

// Codes returns the status codes of the final batch.
func (e *SyncFailedError) Codes() []string {
	return models.ErrorCodes(e.Results)
}

// AttemptCodes returns the status codes of every retried attempt followed by
// the final batch.
func (e *SyncFailedError) AttemptCodes() [][]string {
	out := make([][]string, 0, len(e.Attempts)+1)
	for _, a := range e.Attempts {
		out = append(out, models.ErrorCodes(a))
	}
	return append(out, e.Codes())
}
