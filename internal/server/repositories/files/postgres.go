package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/archivekeeper/internal/common"
	"github.com/dmitrijs2005/archivekeeper/internal/dbx"
	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
)

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, name, storage_path, size_bytes, mime_type, folder_id, uploaded_by, created_at, updated_at`

func scanFile(row interface{ Scan(dest ...any) error }) (*models.File, error) {
	f := &models.File{}
	var (
		size sql.NullInt64
		mime sql.NullString
	)
	if err := row.Scan(&f.ID, &f.Name, &f.StoragePath, &size, &mime,
		&f.FolderID, &f.UploadedBy, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	if size.Valid {
		f.SizeBytes = &size.Int64
	}
	if mime.Valid {
		f.MimeType = &mime.String
	}
	return f, nil
}

func (r *PostgresRepository) queryFiles(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Create inserts a file row and returns it with the assigned id.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (name, storage_path, size_bytes, mime_type, folder_id, uploaded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		file.Name, file.StoragePath, file.SizeBytes, file.MimeType,
		file.FolderID, file.UploadedBy, file.CreatedAt, file.UpdatedAt,
	).Scan(&file.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return file, nil
}

// GetByID returns the file row or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return f, nil
}

// Delete removes the file row. Exactly one row must be affected.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
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

// ListByFolder returns all files directly in folderID.
func (r *PostgresRepository) ListByFolder(ctx context.Context, folderID int64) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE folder_id = $1 ORDER BY name`
	return r.queryFiles(ctx, query, folderID)
}

// SearchByName matches files whose name contains nameSubstr, optionally
// restricted to folders owned by ownerID.
func (r *PostgresRepository) SearchByName(ctx context.Context, nameSubstr string, ownerID *int64) ([]*models.File, error) {
	pattern := "%" + nameSubstr + "%"
	if ownerID == nil {
		query := `SELECT ` + fileColumns + ` FROM files WHERE LOWER(name) LIKE LOWER($1) ORDER BY name`
		return r.queryFiles(ctx, query, pattern)
	}
	query := `
		SELECT f.id, f.name, f.storage_path, f.size_bytes, f.mime_type, f.folder_id, f.uploaded_by, f.created_at, f.updated_at
		FROM files f
		JOIN folders d ON d.id = f.folder_id
		WHERE LOWER(f.name) LIKE LOWER($1) AND d.owner_id = $2
		ORDER BY f.name
	`
	return r.queryFiles(ctx, query, pattern, *ownerID)
}
