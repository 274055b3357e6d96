package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/models"
)

const failuresTable = "sync_failures"

type failureLog struct {
	*DB
	logger *logger.Logger
	now    func() time.Time
}

// NewFailureLog returns the SQL implementation of [FailureLog].
func NewFailureLog(db *DB, log *logger.Logger) FailureLog {
	return &failureLog{
		DB:     db,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (f *failureLog) Add(ctx context.Context, failure models.SyncFailure) (int64, error) {
	log := logger.FromContext(ctx)

	localKeys, err := encodeStrings(failure.LocalKeys)
	if err != nil {
		return 0, err
	}
	codes, err := encodeStrings(failure.Codes)
	if err != nil {
		return 0, err
	}

	createdAt := failure.CreatedAt
	if createdAt.IsZero() {
		createdAt = f.now()
	}

	query, args, err := f.builder().
		Insert(failuresTable).
		Columns("object_type", "operation", "local_keys", "codes", "attempts", "message", "created_at").
		Values(failure.ObjectType, string(failure.Operation), localKeys, codes, failure.Attempts, failure.Message, createdAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var id int64
	if err = f.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		log.Err(err).
			Str("func", "failureLog.Add").
			Str("object_type", failure.ObjectType).
			Msg("failed to insert sync failure")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, f.wrap(err))
	}

	return id, nil
}

func (f *failureLog) Recent(ctx context.Context, limit int) ([]models.SyncFailure, error) {
	builder := f.builder().
		Select("id", "object_type", "operation", "local_keys", "codes", "attempts", "message", "created_at").
		From(failuresTable).
		OrderBy("id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := f.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, f.wrap(err))
	}
	defer rows.Close()

	var failures []models.SyncFailure
	for rows.Next() {
		var (
			item             models.SyncFailure
			op               string
			localKeys, codes []byte
		)
		if err = rows.Scan(&item.ID, &item.ObjectType, &op, &localKeys, &codes, &item.Attempts, &item.Message, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		item.Operation = models.Operation(op)
		if err = json.Unmarshal(localKeys, &item.LocalKeys); err != nil {
			return nil, fmt.Errorf("%w: local_keys: %w", ErrEncodingColumn, err)
		}
		if err = json.Unmarshal(codes, &item.Codes); err != nil {
			return nil, fmt.Errorf("%w: codes: %w", ErrEncodingColumn, err)
		}
		failures = append(failures, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return failures, nil
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncodingColumn, err)
	}
	return string(b), nil
}
