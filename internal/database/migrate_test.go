package database

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func migrationFS() fstest.MapFS {
	return fstest.MapFS{
		"migrations/002_drafts.up.sql":   {Data: []byte("CREATE TABLE drafts (id INT)")},
		"migrations/001_activity.up.sql": {Data: []byte("CREATE TABLE activity (id INT)")},
		"migrations/README.md":           {Data: []byte("not a migration")},
	}
}

func newMigrateMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	return mock
}

func expectApplied(mock pgxmock.PgxPoolIface, version string, done bool) {
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(version).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(done))
}

func TestMigrate_AppliesPendingInOrder(t *testing.T) {
	mock := newMigrateMock(t)

	expectApplied(mock, "001_activity", true)
	expectApplied(mock, "002_drafts", false)
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE drafts").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs("002_drafts").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, Migrate(context.Background(), mock, migrationFS(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_FailedFileRollsBack(t *testing.T) {
	mock := newMigrateMock(t)

	expectApplied(mock, "001_activity", false)
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE activity").WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err := Migrate(context.Background(), mock, migrationFS(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migration 001_activity")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_TrackingTableFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnError(errors.New("permission denied"))

	err = Migrate(context.Background(), mock, migrationFS(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema_migrations")
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"migrations/001_admin_activity.up.sql",
		"migrations/002_page_drafts.up.sql",
	}, names)
}
