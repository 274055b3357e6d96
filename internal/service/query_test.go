package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-record-sync/internal/cursor"
	"github.com/MKhiriev/go-record-sync/internal/mock"
	"github.com/MKhiriev/go-record-sync/models"
)

func accounts(from, to int) []models.Record {
	out := make([]models.Record, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, models.Record{ID: fmt.Sprintf("001%015d", i), Type: "Account"})
	}
	return out
}

func TestQueryService_Query_IteratesAllPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mock.NewMockRecordReader(ctrl)
	fetcher := mock.NewMockRecordFetcher(ctrl)
	ctx := context.Background()

	q := models.Query{ObjectType: "Account", Fields: []string{"Id", "Name"}}

	reader.EXPECT().Query(ctx, q).
		Return(models.Page{Records: accounts(0, 2), Locator: "loc-2", Size: 5}, nil)
	gomock.InOrder(
		fetcher.EXPECT().QueryMore(ctx, "loc-2").
			Return(models.Page{Records: accounts(2, 4), Locator: "loc-4", Size: 5}, nil),
		fetcher.EXPECT().QueryMore(ctx, "loc-4").
			Return(models.Page{Records: accounts(4, 5), Done: true, Size: 5}, nil),
	)

	c, err := NewQueryService(reader, fetcher, nil, nil).Query(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Size())

	all, err := c.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, accounts(0, 5), all)

	ok, err := c.HasNext(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueryService_Query_NoFetcher(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mock.NewMockRecordReader(ctrl)
	ctx := context.Background()

	reader.EXPECT().Query(gomock.Any(), gomock.Any()).
		Return(models.Page{Records: accounts(0, 1), Locator: "loc-1", Size: 2}, nil)

	c, err := NewQueryService(reader, nil, nil, nil).Query(ctx, models.Query{ObjectType: "Account", Fields: []string{"Id"}})
	require.NoError(t, err)

	_, err = c.Next(ctx)
	require.NoError(t, err)
	_, err = c.HasNext(ctx)
	require.ErrorIs(t, err, cursor.ErrMissingDependency)
}

func TestQueryService_Query_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := mock.NewMockRecordReader(ctrl)
	boom := errors.New("boom")

	reader.EXPECT().Query(gomock.Any(), gomock.Any()).Return(models.Page{}, boom)

	svc := NewQueryService(reader, nil, nil, nil)
	_, err := svc.Query(context.Background(), models.Query{ObjectType: "Account"})
	require.ErrorIs(t, err, boom)

	_, err = svc.Query(context.Background(), models.Query{})
	require.ErrorIs(t, err, ErrEmptyObjectType)

	_, err = NewQueryService(nil, nil, nil, nil).Query(context.Background(), models.Query{ObjectType: "Account"})
	require.ErrorIs(t, err, ErrMissingDependency)
}

func TestQueryService_Subquery(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock.NewMockRecordFetcher(ctrl)
	ctx := context.Background()

	seed := models.QuerySeed{
		Locator: "child-1",
		Size:    2,
		Records: []models.Payload{
			models.PayloadObject{Members: []models.PayloadMember{
				{Key: "type", Value: models.PayloadScalar{Value: "Contact"}},
				{Key: "Id", Value: models.PayloadScalar{Value: "003000000000001"}},
			}},
		},
	}
	second := models.NewRecord("Contact")
	second.ID = "003000000000002"

	fetcher.EXPECT().QueryMore(ctx, "child-1").
		Return(models.Page{Records: []models.Record{second}, Done: true, Size: 2}, nil)

	all, err := NewQueryService(nil, fetcher, nil, nil).Subquery(seed).All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "003000000000001", all[0].ID)
	assert.Equal(t, "Contact", all[0].Type)
	assert.Equal(t, "003000000000002", all[1].ID)
}
