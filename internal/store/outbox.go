package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/utils"
	"github.com/MKhiriev/go-record-sync/models"
)

const outboxTable = "outbox"

var outboxColumns = []string{
	"id", "object_type", "local_key", "remote_id", "fields", "fingerprint", "updated_at", "synced_at",
}

// the stored fields keep their sync state when the fingerprint is unchanged
const outboxUpsertSuffix = `ON CONFLICT (object_type, local_key) DO UPDATE SET ` +
	`remote_id = CASE WHEN excluded.remote_id <> '' THEN excluded.remote_id ELSE outbox.remote_id END, ` +
	`fields = excluded.fields, ` +
	`fingerprint = excluded.fingerprint, ` +
	`updated_at = CASE WHEN outbox.fingerprint = excluded.fingerprint THEN outbox.updated_at ELSE excluded.updated_at END, ` +
	`synced_at = CASE WHEN outbox.fingerprint = excluded.fingerprint THEN outbox.synced_at ELSE NULL END`

type outboxRepository struct {
	*DB
	logger *logger.Logger
	now    func() time.Time
}

// NewOutboxRepository returns the SQL implementation of [OutboxRepository].
func NewOutboxRepository(db *DB, log *logger.Logger) OutboxRepository {
	return &outboxRepository{
		DB:     db,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *outboxRepository) Save(ctx context.Context, entry models.OutboxEntry) (models.OutboxEntry, error) {
	log := logger.FromContext(ctx)

	fields := entry.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return models.OutboxEntry{}, fmt.Errorf("%w: fields of %s/%s: %w", ErrEncodingColumn, entry.ObjectType, entry.LocalKey, err)
	}

	updatedAt := entry.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = r.now()
	}

	query, args, err := r.builder().
		Insert(outboxTable).
		Columns("object_type", "local_key", "remote_id", "fields", "fingerprint", "updated_at").
		Values(entry.ObjectType, entry.LocalKey, entry.RemoteID, string(encoded), utils.Fingerprint(encoded), updatedAt).
		Suffix(outboxUpsertSuffix).
		ToSql()
	if err != nil {
		return models.OutboxEntry{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "outboxRepository.Save").
			Str("object_type", entry.ObjectType).
			Str("local_key", entry.LocalKey).
			Msg("failed to upsert outbox entry")
		return models.OutboxEntry{}, fmt.Errorf("%w: %w", ErrExecutingQuery, r.wrap(err))
	}

	return r.Get(ctx, entry.ObjectType, entry.LocalKey)
}

func (r *outboxRepository) Get(ctx context.Context, objectType, localKey string) (models.OutboxEntry, error) {
	query, args, err := r.builder().
		Select(outboxColumns...).
		From(outboxTable).
		Where(sq.Eq{"object_type": objectType, "local_key": localKey}).
		ToSql()
	if err != nil {
		return models.OutboxEntry{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	entry, err := scanOutboxEntry(r.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.OutboxEntry{}, fmt.Errorf("%w: outbox entry %s/%s", ErrNotFound, objectType, localKey)
	}
	if err != nil {
		return models.OutboxEntry{}, r.wrap(err)
	}
	return entry, nil
}

func (r *outboxRepository) Pending(ctx context.Context, objectType string, limit int) ([]models.OutboxEntry, error) {
	log := logger.FromContext(ctx)

	builder := r.builder().
		Select(outboxColumns...).
		From(outboxTable).
		Where(sq.Eq{"object_type": objectType, "synced_at": nil}).
		OrderBy("updated_at", "id")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "outboxRepository.Pending").
			Str("object_type", objectType).
			Msg("failed to query pending outbox entries")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, r.wrap(err))
	}
	defer rows.Close()

	var entries []models.OutboxEntry
	for rows.Next() {
		entry, scanErr := scanOutboxEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return entries, nil
}

func (r *outboxRepository) PendingTypes(ctx context.Context) ([]string, error) {
	query, args, err := r.builder().
		Select("object_type").
		Distinct().
		From(outboxTable).
		Where(sq.Eq{"synced_at": nil}).
		OrderBy("object_type").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, r.wrap(err))
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err = rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		types = append(types, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return types, nil
}

func (r *outboxRepository) MarkSynced(ctx context.Context, entry models.OutboxEntry, remoteID string, at time.Time) error {
	log := logger.FromContext(ctx)

	query, args, err := r.builder().
		Update(outboxTable).
		Set("remote_id", sq.Expr("CASE WHEN ? <> '' THEN ? ELSE remote_id END", remoteID, remoteID)).
		Set("synced_at", sq.Expr("CASE WHEN fingerprint = ? THEN ? ELSE synced_at END", entry.Fingerprint, at)).
		Where(sq.Eq{"id": entry.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "outboxRepository.MarkSynced").
			Int64("id", entry.ID).
			Msg("failed to mark outbox entry synced")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, r.wrap(err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: outbox entry %d", ErrNotFound, entry.ID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOutboxEntry(row rowScanner) (models.OutboxEntry, error) {
	var (
		entry    models.OutboxEntry
		fields   []byte
		syncedAt sql.NullTime
	)
	err := row.Scan(
		&entry.ID,
		&entry.ObjectType,
		&entry.LocalKey,
		&entry.RemoteID,
		&fields,
		&entry.Fingerprint,
		&entry.UpdatedAt,
		&syncedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.OutboxEntry{}, err
	}
	if err != nil {
		return models.OutboxEntry{}, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	if err = json.Unmarshal(fields, &entry.Fields); err != nil {
		return models.OutboxEntry{}, fmt.Errorf("%w: fields of outbox entry %d: %w", ErrEncodingColumn, entry.ID, err)
	}
	if syncedAt.Valid {
		t := syncedAt.Time
		entry.SyncedAt = &t
	}
	return entry, nil
}
