package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-record-sync/internal/adapter"
	"github.com/MKhiriev/go-record-sync/internal/cursor"
	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/normalizer"
	"github.com/MKhiriev/go-record-sync/models"
)

// QueryService opens cursors over remote query results.
type QueryService interface {
	// Query runs q and returns a cursor seeded with the first page.
	Query(ctx context.Context, q models.Query) (*cursor.Cursor, error)
	// Subquery returns a cursor over a nested paginated fragment of a record.
	Subquery(seed models.QuerySeed) *cursor.Cursor
}

type queryService struct {
	reader     adapter.RecordReader
	fetcher    adapter.RecordFetcher
	normalizer *normalizer.Normalizer
	logger     *logger.Logger
}

// NewQueryService builds a QueryService. Cursors it returns load further
// pages through fetcher.
func NewQueryService(reader adapter.RecordReader, fetcher adapter.RecordFetcher, n *normalizer.Normalizer, log *logger.Logger) QueryService {
	if log == nil {
		log = logger.Nop()
	}
	if n == nil {
		n = normalizer.New(log)
	}
	return &queryService{
		reader:     reader,
		fetcher:    fetcher,
		normalizer: n,
		logger:     log.WithComponent("query_service"),
	}
}

func (s *queryService) Query(ctx context.Context, q models.Query) (*cursor.Cursor, error) {
	if s.reader == nil {
		return nil, fmt.Errorf("%w: record reader", ErrMissingDependency)
	}
	if q.Raw == "" && q.ObjectType == "" {
		return nil, ErrEmptyObjectType
	}

	page, err := s.reader.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.ObjectType, err)
	}
	s.logger.Debug().
		Str("query", q.String()).
		Int("records", len(page.Records)).
		Int("size", page.Size).
		Bool("done", page.Done).
		Msg("query opened")

	return cursor.New(page, s.options()...), nil
}

func (s *queryService) Subquery(seed models.QuerySeed) *cursor.Cursor {
	return cursor.FromSeed(seed, s.normalizer, s.options()...)
}

func (s *queryService) options() []cursor.Option {
	opts := []cursor.Option{cursor.WithLogger(s.logger)}
	if s.fetcher != nil {
		opts = append(opts, cursor.WithFetcher(s.fetcher))
	}
	return opts
}
