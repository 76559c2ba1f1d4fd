package folders

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/archivekeeper/internal/common"
	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+folders\s*\(name,.*\)\s*VALUES.*RETURNING\s+id\s*$`

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(42))
	mock.ExpectQuery(q).
		WithArgs("Finance", nil, nil, nil, nil, "private", int64(7), nil, now, now).
		WillReturnRows(rows)

	f := &models.Folder{
		Name:       "Finance",
		Visibility: models.VisibilityPrivate,
		OwnerID:    7,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	got, err := repo.Create(context.Background(), f)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 {
		t.Fatalf("unexpected folder id: %d", got.ID)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+folders`

	mock.ExpectQuery(q).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Folder{Name: "x", Visibility: models.VisibilityPrivate})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*\s+FROM\s+folders\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).WithArgs(int64(999)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 999)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*\s+FROM\s+folders\s+WHERE\s+id\s*=\s*\$1\s*$`

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "year", "theme", "sector", "description", "visibility", "owner_id", "parent_id", "created_at", "updated_at"}).
		AddRow(int64(1), "Finance", int64(2024), "budget", nil, nil, "shared", int64(7), nil, now, now)
	mock.ExpectQuery(q).WithArgs(int64(1)).WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Name != "Finance" || got.Visibility != models.VisibilityShared {
		t.Fatalf("unexpected folder: %+v", got)
	}
	if got.Year == nil || *got.Year != 2024 {
		t.Fatalf("unexpected year: %v", got.Year)
	}
	if got.ParentID != nil {
		t.Fatalf("expected root folder, got parent %v", *got.ParentID)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+folders\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectExec(q).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 5)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestUpdate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+folders\s+SET\s+name\s*=\s*\$1,.*WHERE\s+id\s*=\s*\$9\s*$`

	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 1))

	f := &models.Folder{ID: 3, Name: "Renamed", Visibility: models.VisibilityPrivate, UpdatedAt: time.Now()}
	if err := repo.Update(context.Background(), f); err != nil {
		t.Fatalf("Update error: %v", err)
	}
}
