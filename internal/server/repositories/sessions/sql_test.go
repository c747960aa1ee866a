package sessions

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/server/models"
)

const (
	insertQ        = `(?s)^\s*INSERT\s+INTO\s+sessions\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*$`
	findQ          = `(?s)^\s*SELECT\s+user_id,\s*expires_at,\s*created_at\s+FROM\s+sessions\s+WHERE\s+token_hash\s*=\s*\$1\s*$`
	deleteQ        = `(?s)^\s*DELETE\s+FROM\s+sessions\s+WHERE\s+token_hash\s*=\s*\$1\s*$`
	deleteExpiredQ = `(?s)^\s*DELETE\s+FROM\s+sessions\s+WHERE\s+expires_at\s*<=\s*\$1\s*$`
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewSQLRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	expires := time.Unix(1700003600, 0)
	created := time.Unix(1700000000, 0)

	mock.ExpectExec(insertQ).
		WithArgs("hash1", int64(5), expires.Unix(), created.Unix()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Session{TokenHash: "hash1", UserID: 5, ExpiresAt: expires, CreatedAt: created})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).
		WithArgs("hash1", int64(5), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.Session{TokenHash: "hash1", UserID: 5, ExpiresAt: time.Now()})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFind_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"user_id", "expires_at", "created_at"}).
		AddRow(int64(5), int64(1700003600), int64(1700000000))

	mock.ExpectQuery(findQ).
		WithArgs("hash1").
		WillReturnRows(rows)

	got, err := repo.Find(context.Background(), "hash1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != 5 || got.TokenHash != "hash1" || !got.ExpiresAt.Equal(time.Unix(1700003600, 0)) {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQ).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestFind_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQ).
		WithArgs("hash1").
		WillReturnError(errors.New("db err"))

	_, err := repo.Find(context.Background(), "hash1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).
		WithArgs("hash1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "hash1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(deleteQ).
		WithArgs("hash1").
		WillReturnError(errors.New("db err"))

	err := repo.Delete(context.Background(), "hash1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Unix(1700000000, 0)
	mock.ExpectExec(deleteExpiredQ).
		WithArgs(now.Unix()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Fatalf("want 4 rows, got %d", n)
	}
}
