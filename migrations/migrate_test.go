// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package migrations

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(".*").WillReturnError(errors.New("boom"))
	mock.ExpectQuery(".*").WillReturnError(errors.New("boom"))

	err = Migrate(db, DialectSQLite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration error")
}

func TestMigrate_NilDB(t *testing.T) {
	err := Migrate(nil, DialectSQLite)
	require.ErrorIs(t, err, ErrNilDB)
	assert.Contains(t, err.Error(), "db is nil")
}

func TestMigrate_UnsupportedDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	err = Migrate(db, "mysql")
	require.ErrorIs(t, err, ErrUnsupportedDialect)
}

func TestEmbeddedMigrations_MatchPerDialect(t *testing.T) {
	sqlite, err := fs.Glob(embedMigrations, "sqlite/*.sql")
	require.NoError(t, err)
	postgres, err := fs.Glob(embedMigrations, "postgres/*.sql")
	require.NoError(t, err)

	require.NotEmpty(t, sqlite)
	require.Len(t, postgres, len(sqlite))

	for i := range sqlite {
		assert.Equal(t, sqlite[i][len("sqlite/"):], postgres[i][len("postgres/"):])
	}
}
