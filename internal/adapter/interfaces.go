// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the capabilities the sync core consumes to talk to
// the remote record store, and an HTTP JSON-RPC implementation of them.
//
// The core never depends on the transport: [RecordWriter], [RecordReader] and
// [RecordFetcher] are injected into the sync engine and cursors. Transport
// failures are reported as errors wrapping [ErrTransportFault] (or
// [ErrUnauthorized] when the session was rejected) so that callers can use
// [errors.Is] regardless of the protocol.
package adapter

import (
	"context"

	"github.com/MKhiriev/go-record-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_store_mock.go -package=mock

// RecordWriter performs remote writes.
type RecordWriter interface {
	// Write sends records of objectType as one create, update or delete call
	// and returns one result per record, in order. For deletes only the
	// record identifiers are used.
	Write(ctx context.Context, op models.Operation, objectType string, records []models.Record) ([]models.SyncResult, error)
}

// RecordReader runs the initial fetch of a query.
type RecordReader interface {
	Query(ctx context.Context, q models.Query) (models.Page, error)
}

// RecordFetcher loads the page following a continuation locator.
type RecordFetcher interface {
	QueryMore(ctx context.Context, locator string) (models.Page, error)
}

// RemoteStore bundles every capability of the remote record store.
type RemoteStore interface {
	RecordWriter
	RecordReader
	RecordFetcher

	// Login opens a session with the configured credentials. Other methods
	// log in on demand, so calling it is only needed to fail fast.
	Login(ctx context.Context) (models.Session, error)
}
