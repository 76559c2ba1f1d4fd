// Package audit persists the append-only audit trail. Rows are inserted and
// read, never updated or deleted.
package audit

import (
	"context"

	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
)

// Filter narrows an audit query. Zero-valued fields are ignored; Limit
// falls back to the caller's default when zero.
type Filter struct {
	UserID     *int64
	EntityType models.EntityType
	EntityID   *int64
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, entry *models.AuditEntry) (*models.AuditEntry, error)
	Select(ctx context.Context, filter Filter) ([]*models.AuditEntry, error)
}
