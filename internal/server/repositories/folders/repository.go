// Package folders persists Folder rows and the tree queries over them.
package folders

import (
	"context"

	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
)

// SearchFilter narrows a folder search. Zero-valued fields are ignored.
// Text is matched as a case-insensitive substring of name or description;
// Theme and Sector as substrings of their columns; Year exactly.
// OwnerID, when non-nil, restricts results to that owner.
type SearchFilter struct {
	Text    string
	Year    *int
	Theme   string
	Sector  string
	OwnerID *int64
}

type Repository interface {
	Create(ctx context.Context, folder *models.Folder) (*models.Folder, error)
	GetByID(ctx context.Context, id int64) (*models.Folder, error)
	Update(ctx context.Context, folder *models.Folder) error
	Delete(ctx context.Context, id int64) error

	ListRoots(ctx context.Context, ownerID int64) ([]*models.Folder, error)
	ListAllRoots(ctx context.Context) ([]*models.Folder, error)
	ListChildren(ctx context.Context, parentID int64) ([]*models.Folder, error)
	ListPublicRoots(ctx context.Context, excludeOwnerID int64) ([]*models.Folder, error)
	ListSharedWith(ctx context.Context, userID int64) ([]*models.Folder, error)

	Search(ctx context.Context, filter SearchFilter) ([]*models.Folder, error)
	CountDescendants(ctx context.Context, id int64) (int64, error)
}
