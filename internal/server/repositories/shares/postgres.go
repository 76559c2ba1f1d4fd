package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/archivekeeper/internal/common"
	"github.com/dmitrijs2005/archivekeeper/internal/dbx"
	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
)

// PostgresRepository implements share storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const shareColumns = `id, folder_id, user_id, permission, shared_by, created_at`

func scanShare(row interface{ Scan(dest ...any) error }) (*models.Share, error) {
	s := &models.Share{}
	var permission string
	if err := row.Scan(&s.ID, &s.FolderID, &s.UserID, &permission, &s.SharedBy, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Permission = models.Permission(permission)
	return s, nil
}

// Create inserts a share row. The UNIQUE(folder_id, user_id) constraint
// surfaces duplicates as common.ErrConstraintViolation.
func (r *PostgresRepository) Create(ctx context.Context, share *models.Share) (*models.Share, error) {
	query := `
		INSERT INTO shares (folder_id, user_id, permission, shared_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		share.FolderID, share.UserID, string(share.Permission), share.SharedBy, share.CreatedAt,
	).Scan(&share.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return share, nil
}

// Get returns the share for (folderID, userID) or common.ErrNotFound.
func (r *PostgresRepository) Get(ctx context.Context, folderID, userID int64) (*models.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares WHERE folder_id = $1 AND user_id = $2`

	s, err := scanShare(r.db.QueryRowContext(ctx, query, folderID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return s, nil
}

// UpdatePermission overwrites the permission of an existing share.
func (r *PostgresRepository) UpdatePermission(ctx context.Context, id int64, permission models.Permission) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shares SET permission = $1 WHERE id = $2`, string(permission), id)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Delete removes the share for (folderID, userID).
func (r *PostgresRepository) Delete(ctx context.Context, folderID, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM shares WHERE folder_id = $1 AND user_id = $2`, folderID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ListByFolder returns every share on folderID.
func (r *PostgresRepository) ListByFolder(ctx context.Context, folderID int64) ([]*models.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares WHERE folder_id = $1 ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	defer rows.Close()

	var result []*models.Share
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountByFolder returns the number of shares on folderID.
func (r *PostgresRepository) CountByFolder(ctx context.Context, folderID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shares WHERE folder_id = $1`, folderID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return n, nil
}
