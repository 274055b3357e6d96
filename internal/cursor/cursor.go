// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package cursor implements a lazy, forward-only iterator over a paginated
// remote query. The first page is supplied up front; further pages are
// requested through a [Fetcher] only when the buffered records run out.
//
// A Cursor is not safe for concurrent use.
package cursor

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/normalizer"
	"github.com/MKhiriev/go-record-sync/models"
)

// Fetcher requests the page following locator.
type Fetcher interface {
	QueryMore(ctx context.Context, locator string) (models.Page, error)
}

// FetcherFunc adapts a function to [Fetcher].
type FetcherFunc func(ctx context.Context, locator string) (models.Page, error)

// QueryMore calls f.
func (f FetcherFunc) QueryMore(ctx context.Context, locator string) (models.Page, error) {
	return f(ctx, locator)
}

// Cursor iterates the records of a query, fetching pages on demand.
type Cursor struct {
	buffer   []models.Record
	position int
	locator  string
	done     bool
	size     int
	fetches  int

	fetcher Fetcher
	logger  *logger.Logger
}

// Option configures a Cursor.
type Option func(*Cursor)

// WithFetcher attaches the capability used to load further pages.
func WithFetcher(f Fetcher) Option {
	return func(c *Cursor) {
		c.fetcher = f
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(c *Cursor) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a cursor positioned before the first record of page.
func New(page models.Page, opts ...Option) *Cursor {
	c := &Cursor{
		buffer:  append([]models.Record(nil), page.Records...),
		locator: page.Locator,
		done:    page.Done,
		size:    page.Size,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromSeed returns a cursor over a nested paginated fragment, normalizing its
// first-page records with n.
func FromSeed(seed models.QuerySeed, n *normalizer.Normalizer, opts ...Option) *Cursor {
	return New(n.PageFromSeed(seed), opts...)
}

// SetFetcher attaches f after construction.
func (c *Cursor) SetFetcher(f Fetcher) {
	c.fetcher = f
}

// HasNext reports whether another record is available, fetching further
// pages as needed. Once it returns false it keeps returning false without
// contacting the remote.
func (c *Cursor) HasNext(ctx context.Context) (bool, error) {
	for c.position >= len(c.buffer) {
		if c.done {
			return false, nil
		}
		if err := c.fetch(ctx); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Next returns the record at the current position and advances it.
func (c *Cursor) Next(ctx context.Context) (models.Record, error) {
	ok, err := c.HasNext(ctx)
	if err != nil {
		return models.Record{}, err
	}
	if !ok {
		return models.Record{}, ErrNoMoreRecords
	}

	rec := c.buffer[c.position]
	c.position++
	return rec, nil
}

// Reset moves the position back to the first buffered record. Already
// buffered pages are kept and are not fetched again.
func (c *Cursor) Reset() {
	c.position = 0
}

// All drains the cursor from its current position.
func (c *Cursor) All(ctx context.Context) ([]models.Record, error) {
	var out []models.Record
	for {
		ok, err := c.HasNext(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		rec, err := c.Next(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// Size is the total record count reported by the remote.
func (c *Cursor) Size() int {
	return c.size
}

// Position is the number of records consumed since the last reset.
func (c *Cursor) Position() int {
	return c.position
}

// Buffered is the number of records loaded so far.
func (c *Cursor) Buffered() int {
	return len(c.buffer)
}

// Done reports whether the remote has no further pages.
func (c *Cursor) Done() bool {
	return c.done
}

func (c *Cursor) fetch(ctx context.Context) error {
	if c.fetcher == nil {
		return ErrMissingDependency
	}
	if c.locator == "" {
		return fmt.Errorf("%w: no continuation locator after %d records", ErrDataGap, len(c.buffer))
	}

	page, err := c.fetcher.QueryMore(ctx, c.locator)
	if err != nil {
		return fmt.Errorf("cursor: fetch page after %d records: %w", len(c.buffer), err)
	}
	c.fetches++

	if len(page.Records) == 0 && !page.Done && (page.Locator == "" || page.Locator == c.locator) {
		return fmt.Errorf("%w: locator %q", ErrDataGap, c.locator)
	}

	c.logger.Debug().
		Str("locator", c.locator).
		Int("records", len(page.Records)).
		Bool("done", page.Done).
		Int("fetch", c.fetches).
		Msg("fetched page")

	c.buffer = append(c.buffer, page.Records...)
	c.locator = page.Locator
	c.done = page.Done
	if page.Size > 0 {
		c.size = page.Size
	}
	return nil
}
