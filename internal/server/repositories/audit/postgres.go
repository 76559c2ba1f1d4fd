package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/archivekeeper/internal/dbx"
	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
)

// PostgresRepository implements audit storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert appends one audit row and returns it with the assigned id.
func (r *PostgresRepository) Insert(ctx context.Context, entry *models.AuditEntry) (*models.AuditEntry, error) {
	query := `
		INSERT INTO audit_entries (user_id, action, entity_type, entity_id, details, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		entry.UserID, string(entry.Action), string(entry.EntityType),
		entry.EntityID, entry.Details, entry.Timestamp,
	).Scan(&entry.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return entry, nil
}

// Select returns audit rows matching the filter, newest first.
func (r *PostgresRepository) Select(ctx context.Context, filter Filter) ([]*models.AuditEntry, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UserID != nil {
		conds = append(conds, "user_id = "+arg(*filter.UserID))
	}
	if filter.EntityType != "" {
		conds = append(conds, "entity_type = "+arg(string(filter.EntityType)))
	}
	if filter.EntityID != nil {
		conds = append(conds, "entity_id = "+arg(*filter.EntityID))
	}

	query := `SELECT id, user_id, action, entity_type, entity_id, details, timestamp FROM audit_entries`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	defer rows.Close()

	var result []*models.AuditEntry
	for rows.Next() {
		e := &models.AuditEntry{}
		var (
			action     string
			entityType string
			details    sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &action, &entityType, &e.EntityID, &details, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Action = models.Action(action)
		e.EntityType = models.EntityType(entityType)
		if details.Valid {
			e.Details = &details.String
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
