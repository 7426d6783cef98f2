package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code2deploy-console/internal/model"
)

func newDraftFixture(t *testing.T) (*DraftRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewDraftRepository(mock), mock
}

func TestDraftRepository_Get(t *testing.T) {
	repo, mock := newDraftFixture(t)
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	sections := json.RawMessage(`{"hero":{"title":"Learn to deploy"}}`)

	mock.ExpectQuery("SELECT sections, updated_at FROM page_drafts").
		WithArgs(int64(9), "home").
		WillReturnRows(pgxmock.NewRows([]string{"sections", "updated_at"}).AddRow(sections, at))

	d, err := repo.Get(context.Background(), 9, "home")
	require.NoError(t, err)
	assert.JSONEq(t, string(sections), string(d.Sections))
	assert.Equal(t, at, d.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDraftRepository_GetMissing(t *testing.T) {
	repo, mock := newDraftFixture(t)

	mock.ExpectQuery("SELECT sections, updated_at FROM page_drafts").
		WithArgs(int64(9), "about").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), 9, "about")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDraftRepository_Upsert(t *testing.T) {
	repo, mock := newDraftFixture(t)
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	d := &model.Draft{UserID: 9, PageKey: "home", Sections: json.RawMessage(`{}`), UpdatedAt: at}

	mock.ExpectExec("INSERT INTO page_drafts").
		WithArgs(int64(9), "home", d.Sections, at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Upsert(context.Background(), d))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDraftRepository_Delete(t *testing.T) {
	repo, mock := newDraftFixture(t)

	mock.ExpectExec("DELETE FROM page_drafts").
		WithArgs(int64(9), "home").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM page_drafts").
		WithArgs(int64(9), "home").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), 9, "home"))
	assert.ErrorIs(t, repo.Delete(context.Background(), 9, "home"), model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
