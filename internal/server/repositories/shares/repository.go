// Package shares persists per-user share grants on folders.
package shares

import (
	"context"

	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, share *models.Share) (*models.Share, error)
	// Get returns the share for (folderID, userID) or common.ErrNotFound.
	Get(ctx context.Context, folderID, userID int64) (*models.Share, error)
	UpdatePermission(ctx context.Context, id int64, permission models.Permission) error
	Delete(ctx context.Context, folderID, userID int64) error
	ListByFolder(ctx context.Context, folderID int64) ([]*models.Share, error)
	CountByFolder(ctx context.Context, folderID int64) (int64, error)
}
