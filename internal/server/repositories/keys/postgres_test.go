package keys

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/abidm-bit/riceKrispies/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	claimQuery  = `(?s)^UPDATE\s+all_keys\s+SET\s+burned\s*=\s*TRUE,\s*burned_by\s*=\s*\$1\s+WHERE\s+key\s*=\s*\(.*FOR\s+UPDATE\s+SKIP\s+LOCKED\s*\)\s*AND\s+burned\s*=\s*FALSE\s+RETURNING\s+key,\s*burned,\s*burned_by\s*$`
	insertQuery = `(?s)^INSERT\s+INTO\s+all_keys\s*\(key,\s*burned\)\s*VALUES\s*\(\$1,\s*FALSE\)\s*ON\s+CONFLICT\s*\(key\)\s*DO\s+NOTHING\s*$`
	countQuery  = `(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+all_keys\s+WHERE\s+burned\s*=\s*FALSE\s*$`
)

func TestClaim_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(claimQuery).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"key", "burned", "burned_by"}).
			AddRow("AAAAA-BBBBB-CCCCC-DDDDD-EEEEE", true, int64(7)))

	k, err := repo.Claim(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "AAAAA-BBBBB-CCCCC-DDDDD-EEEEE", k.Token)
	assert.True(t, k.Burned)
	require.NotNil(t, k.BurnedBy)
	assert.Equal(t, int64(7), *k.BurnedBy)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaim_NoKeys(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(claimQuery).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"key", "burned", "burned_by"}))

	_, err := repo.Claim(context.Background(), 7)
	assert.ErrorIs(t, err, common.ErrNoAvailableKeys)
}

func TestClaim_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(claimQuery).
		WithArgs(int64(7)).
		WillReturnError(errors.New("conn reset"))

	_, err := repo.Claim(context.Background(), 7)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrNoAvailableKeys)
	assert.Contains(t, err.Error(), "db error: conn reset")
}

func TestInsertBatch_CommitsAndCounts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(insertQuery).WithArgs("K1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertQuery).WithArgs("K2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(insertQuery).WithArgs("K3").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := repo.InsertBatch(context.Background(), []string{"K1", "K2", "K3"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatch_RollsBackOnError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(insertQuery).WithArgs("K1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertQuery).WithArgs("K2").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	n, err := repo.InsertBatch(context.Background(), []string{"K1", "K2"})
	require.Error(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatch_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	n, err := repo.InsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountUnburned(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(countQuery).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))
	mock.ExpectQuery(countQuery).WillReturnError(errors.New("down"))

	n, err := repo.CountUnburned(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	_, err = repo.CountUnburned(context.Background())
	assert.Error(t, err)
}
