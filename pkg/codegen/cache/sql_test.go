package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS cache_entries").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := NewSQLStore(db)
	require.NoError(t, err)
	return store, mock
}

func TestSQLStore_GetMiss(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT value FROM cache_entries").
		WithArgs("k").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_DatabaseErrors(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT value FROM cache_entries").
		WithArgs("k").
		WillReturnError(errors.New("disk I/O error"))
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheUnavailable)

	mock.ExpectExec("INSERT OR REPLACE INTO cache_entries").
		WithArgs("k", []byte("v"), sqlmock.AnyArg()).
		WillReturnError(errors.New("database is locked"))
	err = store.Put(ctx, "k", []byte("v"))
	assert.ErrorIs(t, err, ErrCacheUnavailable)

	mock.ExpectExec("DELETE FROM cache_entries").
		WithArgs("k").
		WillReturnError(errors.New("database is locked"))
	err = store.Delete(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_SchemaFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("read-only database"))

	_, err = NewSQLStore(db)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize schema")
}
