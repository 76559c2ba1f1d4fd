// Package files persists File metadata rows. The bytes themselves live in
// blob storage and are handled by the lifecycle service.
package files

import (
	"context"

	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id int64) (*models.File, error)
	Delete(ctx context.Context, id int64) error
	ListByFolder(ctx context.Context, folderID int64) ([]*models.File, error)
	// SearchByName matches a case-insensitive substring of the file name.
	// A nil ownerID searches across all owners.
	SearchByName(ctx context.Context, nameSubstr string, ownerID *int64) ([]*models.File, error)
}
