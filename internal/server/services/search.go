package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
	"github.com/dmitrijs2005/archivekeeper/internal/server/repositories/folders"
	"github.com/dmitrijs2005/archivekeeper/internal/server/repositories/repomanager"
)

// SearchService runs metadata queries over folders and files. Regular users
// search only what they own; superusers search the whole archive.
type SearchService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewSearchService(db *sql.DB, repomanager repomanager.RepositoryManager) *SearchService {
	return &SearchService{
		db:          db,
		repomanager: repomanager,
	}
}

// Folders searches folder metadata: name/description text, exact year,
// theme and sector substrings.
func (s *SearchService) Folders(ctx context.Context, principal models.Principal, filter folders.SearchFilter) ([]*models.Folder, error) {
	if !principal.IsSuperuser() {
		own := principal.ID
		filter.OwnerID = &own
	}
	return s.repomanager.Folders(s.db).Search(ctx, filter)
}

// Files searches file names by case-insensitive substring.
func (s *SearchService) Files(ctx context.Context, principal models.Principal, nameSubstr string) ([]*models.File, error) {
	var ownerID *int64
	if !principal.IsSuperuser() {
		own := principal.ID
		ownerID = &own
	}
	return s.repomanager.Files(s.db).SearchByName(ctx, nameSubstr, ownerID)
}
