package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-record-sync/internal/adapter"
	"github.com/MKhiriev/go-record-sync/models"
)

// AttemptSync writes records of objectType through writer with the given
// retry budget, outside of any entity.
func AttemptSync(ctx context.Context, writer adapter.RecordWriter, op models.Operation, objectType string, records []models.Record, retry int) ([]models.SyncResult, error) {
	if objectType == "" {
		return nil, ErrEmptyObjectType
	}
	return NewSyncEngine(objectType, writer, nil, nil).WithRetry(retry).attempt(ctx, op, records)
}

// ValidateResults returns results unchanged when every element succeeded and
// a [*SyncFailedError] otherwise. entity and objects are optional context.
func ValidateResults(results []models.SyncResult, entity Entity, objects []models.Record) ([]models.SyncResult, error) {
	f := &SyncFailedError{Entity: entity, Objects: objects}
	if entity != nil {
		f.ObjectType = entity.ObjectType()
	}
	return validate(results, f)
}

func validate(results []models.SyncResult, failure *SyncFailedError) ([]models.SyncResult, error) {
	if models.IsSuccessful(results) {
		return results, nil
	}
	failure.Results = results
	return nil, failure
}

// attempt runs one write and repeats it while the batch fails with a
// transient status code and the retry budget allows it.
func (e *SyncEngine) attempt(ctx context.Context, op models.Operation, objects []models.Record) ([]models.SyncResult, error) {
	if e.writer == nil {
		return nil, fmt.Errorf("%w: record writer", ErrMissingDependency)
	}

	log := e.logger.With().
		Str("object_type", e.objectType).
		Str("operation", string(op)).
		Int("records", len(objects)).
		Logger()

	var attempts [][]models.SyncResult
	for {
		results := e.write(ctx, op, objects)

		if e.retry == 0 {
			return validate(results, e.failure(op, objects, nil))
		}
		if models.IsSuccessful(results) {
			if len(attempts) > 0 {
				log.Info().Int("attempts", len(attempts)+1).Msg("write succeeded after retry")
			}
			return results, nil
		}

		if len(attempts) < e.retry &&
			models.HasErrorCode(results, models.TransientStatusCodes...) &&
			ctx.Err() == nil {
			attempts = append(attempts, results)
			log.Warn().
				Int("attempt", len(attempts)).
				Int("retry", e.retry).
				Strs("codes", models.ErrorCodes(results)).
				Msg("transient write failure, retrying")
			continue
		}

		failure := e.failure(op, objects, attempts)
		failure.Results = results
		log.Error().
			Int("attempts", len(attempts)+1).
			Strs("codes", failure.Codes()).
			Msg("write failed")
		return nil, failure
	}
}

// write calls the writer and turns a transport error into a single failed
// result carrying [models.StatusTransportFault].
func (e *SyncEngine) write(ctx context.Context, op models.Operation, objects []models.Record) []models.SyncResult {
	results, err := e.writer.Write(ctx, op, e.objectType, objects)
	if err == nil {
		return results
	}
	return []models.SyncResult{{
		Success: false,
		Errors: []models.SyncError{{
			StatusCode: models.StatusTransportFault,
			Message:    err.Error(),
		}},
	}}
}
