package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/archivekeeper/internal/common"
	"github.com/dmitrijs2005/archivekeeper/internal/dbx"
	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
	"github.com/dmitrijs2005/archivekeeper/internal/server/repositories/repomanager"
)

// AuthzService answers "may this principal do that to this folder".
// Folder access is decided per folder; shares do not cascade to subfolders.
type AuthzService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tree        *TreeService
}

func NewAuthzService(db *sql.DB, repomanager repomanager.RepositoryManager, tree *TreeService) *AuthzService {
	return &AuthzService{
		db:          db,
		repomanager: repomanager,
		tree:        tree,
	}
}

// CanAccess reports whether principal holds at least level on folder.
//
// The decision order is fixed: superusers always pass, owners always pass,
// public folders grant read to everyone, and otherwise an explicit share
// on this exact folder must cover the requested level.
func (s *AuthzService) CanAccess(ctx context.Context, db dbx.DBTX, principal models.Principal, folder *models.Folder, level models.Permission) (bool, error) {
	if principal.IsSuperuser() {
		return true, nil
	}
	if folder.OwnerID == principal.ID {
		return true, nil
	}
	if folder.Visibility == models.VisibilityPublic && level == models.PermissionRead {
		return true, nil
	}

	share, err := s.repomanager.Shares(db).Get(ctx, folder.ID, principal.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return share.Permission.Covers(level), nil
}

// RequireAccess is CanAccess that turns a negative answer into
// common.ErrPermissionDenied naming the required level.
func (s *AuthzService) RequireAccess(ctx context.Context, db dbx.DBTX, principal models.Principal, folder *models.Folder, level models.Permission) error {
	ok, err := s.CanAccess(ctx, db, principal, folder, level)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s access required on folder %d", common.ErrPermissionDenied, level, folder.ID)
	}
	return nil
}

// AccessibleRoots returns the folders that form the principal's view of the
// archive: own roots, public roots of other owners, and folders shared with
// the principal, deduplicated by id. Superusers see every root. Each folder
// is returned with its subtree materialized.
func (s *AuthzService) AccessibleRoots(ctx context.Context, principal models.Principal) ([]*models.Folder, error) {
	repo := s.repomanager.Folders(s.db)

	var list []*models.Folder
	if principal.IsSuperuser() {
		roots, err := repo.ListAllRoots(ctx)
		if err != nil {
			return nil, err
		}
		list = roots
	} else {
		own, err := repo.ListRoots(ctx, principal.ID)
		if err != nil {
			return nil, err
		}
		public, err := repo.ListPublicRoots(ctx, principal.ID)
		if err != nil {
			return nil, err
		}
		shared, err := repo.ListSharedWith(ctx, principal.ID)
		if err != nil {
			return nil, err
		}
		list = append(list, own...)
		list = append(list, public...)
		list = append(list, shared...)
	}

	seen := make(map[int64]struct{}, len(list))
	result := make([]*models.Folder, 0, len(list))
	for _, f := range list {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		if err := s.tree.Materialize(ctx, s.db, f); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, nil
}
