package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/archivekeeper/internal/common"
	"github.com/dmitrijs2005/archivekeeper/internal/dbx"
	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
)

// PostgresRepository implements folder storage over a dbx.DBTX
// (*sql.DB or *sql.Tx). The SQL sticks to the portable subset supported by
// both pgx and the sqlite driver used in tests.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const folderColumns = `id, name, year, theme, sector, description, visibility, owner_id, parent_id, created_at, updated_at`

func scanFolder(row interface{ Scan(dest ...any) error }) (*models.Folder, error) {
	f := &models.Folder{}
	var (
		year        sql.NullInt64
		theme       sql.NullString
		sector      sql.NullString
		description sql.NullString
		parentID    sql.NullInt64
		visibility  string
	)
	if err := row.Scan(&f.ID, &f.Name, &year, &theme, &sector, &description,
		&visibility, &f.OwnerID, &parentID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	if year.Valid {
		y := int(year.Int64)
		f.Year = &y
	}
	if theme.Valid {
		f.Theme = &theme.String
	}
	if sector.Valid {
		f.Sector = &sector.String
	}
	if description.Valid {
		f.Description = &description.String
	}
	if parentID.Valid {
		f.ParentID = &parentID.Int64
	}
	f.Visibility = models.Visibility(visibility)
	return f, nil
}

func (r *PostgresRepository) queryFolders(ctx context.Context, query string, args ...any) ([]*models.Folder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	defer rows.Close()

	var result []*models.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
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

// Create inserts a folder row and returns it with the assigned id.
func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	query := `
		INSERT INTO folders (name, year, theme, sector, description, visibility, owner_id, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		folder.Name, intOrNil(folder.Year), folder.Theme, folder.Sector, folder.Description,
		string(folder.Visibility), folder.OwnerID, folder.ParentID, folder.CreatedAt, folder.UpdatedAt,
	).Scan(&folder.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return folder, nil
}

// GetByID returns the folder row or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE id = $1`

	f, err := scanFolder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return f, nil
}

// Update writes all mutable columns of the folder back to its row.
func (r *PostgresRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := `
		UPDATE folders
		SET name = $1, year = $2, theme = $3, sector = $4, description = $5,
		    visibility = $6, parent_id = $7, updated_at = $8
		WHERE id = $9
	`
	res, err := r.db.ExecContext(ctx, query,
		folder.Name, intOrNil(folder.Year), folder.Theme, folder.Sector, folder.Description,
		string(folder.Visibility), folder.ParentID, folder.UpdatedAt, folder.ID)
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

// Delete removes the folder row. Descendant folders, their files, and all
// shares in the subtree go with it through ON DELETE CASCADE, as one atomic
// statement.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM folders WHERE id = $1`, id)
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

// ListRoots returns the caller's folders with no parent.
func (r *PostgresRepository) ListRoots(ctx context.Context, ownerID int64) ([]*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE parent_id IS NULL AND owner_id = $1 ORDER BY name`
	return r.queryFolders(ctx, query, ownerID)
}

// ListAllRoots returns every parentless folder regardless of owner.
func (r *PostgresRepository) ListAllRoots(ctx context.Context) ([]*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE parent_id IS NULL ORDER BY name`
	return r.queryFolders(ctx, query)
}

// ListChildren returns the direct subfolders of parentID.
func (r *PostgresRepository) ListChildren(ctx context.Context, parentID int64) ([]*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE parent_id = $1 ORDER BY name`
	return r.queryFolders(ctx, query, parentID)
}

// ListPublicRoots returns parentless public folders owned by someone else.
func (r *PostgresRepository) ListPublicRoots(ctx context.Context, excludeOwnerID int64) ([]*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE parent_id IS NULL AND visibility = $1 AND owner_id <> $2 ORDER BY name`
	return r.queryFolders(ctx, query, string(models.VisibilityPublic), excludeOwnerID)
}

// ListSharedWith returns every folder on which userID holds a share grant.
// The granted folder itself is the entry point, whether or not it is a root.
func (r *PostgresRepository) ListSharedWith(ctx context.Context, userID int64) ([]*models.Folder, error) {
	query := `
		SELECT f.id, f.name, f.year, f.theme, f.sector, f.description, f.visibility, f.owner_id, f.parent_id, f.created_at, f.updated_at
		FROM folders f
		JOIN shares s ON s.folder_id = f.id
		WHERE s.user_id = $1
		ORDER BY f.name
	`
	return r.queryFolders(ctx, query, userID)
}

// Search filters folders by substring and metadata criteria.
func (r *PostgresRepository) Search(ctx context.Context, filter SearchFilter) ([]*models.Folder, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OwnerID != nil {
		conds = append(conds, "owner_id = "+arg(*filter.OwnerID))
	}
	if filter.Text != "" {
		p := arg(likePattern(filter.Text))
		conds = append(conds, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(description) LIKE %s)", p, p))
	}
	if filter.Year != nil {
		conds = append(conds, "year = "+arg(*filter.Year))
	}
	if filter.Theme != "" {
		conds = append(conds, "LOWER(theme) LIKE "+arg(likePattern(filter.Theme)))
	}
	if filter.Sector != "" {
		conds = append(conds, "LOWER(sector) LIKE "+arg(likePattern(filter.Sector)))
	}

	query := `SELECT ` + folderColumns + ` FROM folders`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name"

	return r.queryFolders(ctx, query, args...)
}

// CountDescendants returns the number of folders in the subtree rooted at id,
// the root included.
func (r *PostgresRepository) CountDescendants(ctx context.Context, id int64) (int64, error) {
	query := `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM folders WHERE id = $1
			UNION ALL
			SELECT f.id FROM folders f JOIN subtree st ON f.parent_id = st.id
		)
		SELECT COUNT(*) FROM subtree
	`
	var n int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return n, nil
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

func intOrNil(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}
