// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package cursor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/normalizer"
	"github.com/MKhiriev/go-record-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedFetcher serves a fixed record set in pages of a given size and counts
// the calls it receives.
type pagedFetcher struct {
	records  []models.Record
	pageSize int
	calls    int
}

func (f *pagedFetcher) first() models.Page {
	return f.page(0)
}

func (f *pagedFetcher) page(offset int) models.Page {
	end := min(offset+f.pageSize, len(f.records))
	p := models.Page{
		Records: f.records[offset:end],
		Done:    end >= len(f.records),
		Size:    len(f.records),
	}
	if !p.Done {
		p.Locator = fmt.Sprintf("loc-%d", end)
	}
	return p
}

func (f *pagedFetcher) QueryMore(_ context.Context, locator string) (models.Page, error) {
	f.calls++
	var offset int
	if _, err := fmt.Sscanf(locator, "loc-%d", &offset); err != nil {
		return models.Page{}, err
	}
	return f.page(offset), nil
}

func makeRecords(n int) []models.Record {
	out := make([]models.Record, n)
	for i := range out {
		out[i] = models.Record{ID: fmt.Sprintf("r%d", i), Type: "Account"}
	}
	return out
}

func ids(records []models.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

// ── iteration ────────────────────────────────────────────────────────────────

func TestCursor_All_NoGapsNoDupes(t *testing.T) {
	const total = 23
	want := ids(makeRecords(total))

	for _, size := range []int{1, 2, 5, 7, 22, 23, 50} {
		t.Run(fmt.Sprintf("page_size_%d", size), func(t *testing.T) {
			f := &pagedFetcher{records: makeRecords(total), pageSize: size}
			c := New(f.first(), WithFetcher(f))

			got, err := c.All(context.Background())
			require.NoError(t, err)
			assert.Equal(t, want, ids(got))
			assert.Equal(t, total, c.Size())

			expectedCalls := (total+size-1)/size - 1
			assert.Equal(t, expectedCalls, f.calls)
		})
	}
}

func TestCursor_HasNext_IdempotentExhaustion(t *testing.T) {
	f := &pagedFetcher{records: makeRecords(4), pageSize: 2}
	c := New(f.first(), WithFetcher(f))
	ctx := context.Background()

	_, err := c.All(ctx)
	require.NoError(t, err)
	callsAfterDrain := f.calls

	for range 5 {
		ok, err := c.HasNext(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, callsAfterDrain, f.calls)

	_, err = c.Next(ctx)
	assert.ErrorIs(t, err, ErrNoMoreRecords)
}

func TestCursor_Reset_ReplaysWithoutRefetch(t *testing.T) {
	f := &pagedFetcher{records: makeRecords(6), pageSize: 2}
	c := New(f.first(), WithFetcher(f))
	ctx := context.Background()

	first, err := c.All(ctx)
	require.NoError(t, err)
	calls := f.calls

	c.Reset()
	assert.Equal(t, 0, c.Position())

	second, err := c.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, calls, f.calls)
}

func TestCursor_Reset_MidwayKeepsLazyFetching(t *testing.T) {
	f := &pagedFetcher{records: makeRecords(6), pageSize: 2}
	c := New(f.first(), WithFetcher(f))
	ctx := context.Background()

	for range 3 {
		_, err := c.Next(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.calls)

	c.Reset()
	got, err := c.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids(makeRecords(6)), ids(got))
	assert.Equal(t, 2, f.calls)
}

func TestCursor_SinglePageNeedsNoFetcher(t *testing.T) {
	c := New(models.Page{Records: makeRecords(3), Done: true, Size: 3})

	got, err := c.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

// ── failures ─────────────────────────────────────────────────────────────────

func TestCursor_MissingFetcher(t *testing.T) {
	c := New(models.Page{Records: makeRecords(1), Locator: "loc-1"})
	ctx := context.Background()

	_, err := c.Next(ctx)
	require.NoError(t, err)

	_, err = c.HasNext(ctx)
	assert.ErrorIs(t, err, ErrMissingDependency)

	f := &pagedFetcher{records: makeRecords(2), pageSize: 1}
	c.SetFetcher(f)
	rec, err := c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", rec.ID)
}

func TestCursor_DataGap(t *testing.T) {
	tests := []struct {
		name  string
		start models.Page
		reply models.Page
	}{
		{
			name:  "empty page with same locator",
			start: models.Page{Locator: "loc-1"},
			reply: models.Page{Locator: "loc-1"},
		},
		{
			name:  "empty page without locator",
			start: models.Page{Locator: "loc-1"},
			reply: models.Page{},
		},
		{
			name:  "not done without locator",
			start: models.Page{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.start, WithFetcher(FetcherFunc(func(context.Context, string) (models.Page, error) {
				return tt.reply, nil
			})))

			_, err := c.HasNext(context.Background())
			assert.ErrorIs(t, err, ErrDataGap)
		})
	}
}

func TestCursor_FetchErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	c := New(models.Page{Locator: "loc-0"}, WithFetcher(FetcherFunc(func(context.Context, string) (models.Page, error) {
		return models.Page{}, boom
	})))

	_, err := c.Next(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Position())
}

func TestCursor_EmptyPageWithNewLocatorContinues(t *testing.T) {
	pages := map[string]models.Page{
		"a": {Locator: "b"},
		"b": {Records: makeRecords(1), Done: true},
	}
	c := New(models.Page{Locator: "a"}, WithFetcher(FetcherFunc(func(_ context.Context, loc string) (models.Page, error) {
		return pages[loc], nil
	})))

	got, err := c.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"r0"}, ids(got))
}

func TestFromSeed(t *testing.T) {
	seed := models.QuerySeed{
		Done: true,
		Size: 1,
		Records: []models.Payload{
			models.PayloadObject{Members: []models.PayloadMember{
				{Key: "type", Value: models.PayloadScalar{Value: "Task"}},
				{Key: "Id", Value: models.PayloadScalar{Value: "00T1"}},
			}},
		},
	}

	c := FromSeed(seed, normalizer.New(logger.Nop()))
	got, err := c.All(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "00T1", got[0].ID)
	assert.Equal(t, "Task", got[0].Type)
}
