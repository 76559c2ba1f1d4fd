package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/archivekeeper/internal/common"
	"github.com/dmitrijs2005/archivekeeper/internal/dbx"
	"github.com/dmitrijs2005/archivekeeper/internal/logging"
	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
	"github.com/dmitrijs2005/archivekeeper/internal/server/repositories/repomanager"
)

// SharingService manages share grants and folder visibility. Only the owner
// of a folder, or a superuser, may change who sees it.
type SharingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	authz       *AuthzService
	audit       AuditSink
	logger      logging.Logger
}

func NewSharingService(db *sql.DB, repomanager repomanager.RepositoryManager, authz *AuthzService, audit AuditSink, logger logging.Logger) *SharingService {
	return &SharingService{
		db:          db,
		repomanager: repomanager,
		authz:       authz,
		audit:       audit,
		logger:      logger,
	}
}

func (s *SharingService) requireOwner(principal models.Principal, folder *models.Folder) error {
	if principal.IsSuperuser() || folder.OwnerID == principal.ID {
		return nil
	}
	return fmt.Errorf("%w: only the owner may change sharing of folder %d", common.ErrPermissionDenied, folder.ID)
}

// Share grants targetUserID the given permission on the folder, creating
// the grant or overwriting the permission of an existing one. A private
// folder is promoted to shared. A prior grant yields an UPDATE audit entry,
// a fresh one a CREATE entry.
func (s *SharingService) Share(ctx context.Context, principal models.Principal, folderID, targetUserID int64, permission models.Permission) (*models.Share, error) {
	if targetUserID <= 0 {
		return nil, fmt.Errorf("%w: invalid target user %d", common.ErrValidation, targetUserID)
	}
	if _, err := models.ParsePermission(string(permission)); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	folder, err := s.repomanager.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(principal, folder); err != nil {
		return nil, err
	}
	if targetUserID == folder.OwnerID {
		return nil, fmt.Errorf("%w: cannot share a folder with its owner", common.ErrValidation)
	}

	var result *models.Share
	var action models.Action

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		sharesRepo := s.repomanager.Shares(tx)

		existing, err := sharesRepo.Get(ctx, folderID, targetUserID)
		switch {
		case err == nil:
			if err := sharesRepo.UpdatePermission(ctx, existing.ID, permission); err != nil {
				return err
			}
			existing.Permission = permission
			result = existing
			action = models.ActionUpdate
		case errors.Is(err, common.ErrNotFound):
			created, err := sharesRepo.Create(ctx, &models.Share{
				FolderID:   folderID,
				UserID:     targetUserID,
				Permission: permission,
				SharedBy:   principal.ID,
				CreatedAt:  time.Now().UTC(),
			})
			if err != nil {
				return err
			}
			result = created
			action = models.ActionCreate
		default:
			return err
		}

		if folder.Visibility == models.VisibilityPrivate {
			folder.Visibility = models.VisibilityShared
			folder.UpdatedAt = time.Now().UTC()
			if err := s.repomanager.Folders(tx).Update(ctx, folder); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, s.db, s.logger, principal.ID,
		action, models.EntityShare, result.ID,
		fmt.Sprintf("folder %d shared with user %d as %s", folderID, targetUserID, permission))
	return result, nil
}

// Unshare revokes targetUserID's grant on the folder. When the last grant
// disappears from a shared folder, the folder falls back to private.
func (s *SharingService) Unshare(ctx context.Context, principal models.Principal, folderID, targetUserID int64) error {
	folder, err := s.repomanager.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return err
	}
	if err := s.requireOwner(principal, folder); err != nil {
		return err
	}

	var shareID int64
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		sharesRepo := s.repomanager.Shares(tx)

		// The row id is captured before deletion so the audit entry can
		// reference the same entity as the CREATE/UPDATE entries did.
		existing, err := sharesRepo.Get(ctx, folderID, targetUserID)
		if err != nil {
			return err
		}
		shareID = existing.ID

		if err := sharesRepo.Delete(ctx, folderID, targetUserID); err != nil {
			return err
		}

		remaining, err := sharesRepo.CountByFolder(ctx, folderID)
		if err != nil {
			return err
		}
		if remaining == 0 && folder.Visibility == models.VisibilityShared {
			folder.Visibility = models.VisibilityPrivate
			folder.UpdatedAt = time.Now().UTC()
			if err := s.repomanager.Folders(tx).Update(ctx, folder); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	recordAudit(ctx, s.audit, s.db, s.logger, principal.ID,
		models.ActionDelete, models.EntityShare, shareID,
		fmt.Sprintf("folder %d unshared from user %d", folderID, targetUserID))
	return nil
}

// SetVisibility switches a folder between private and public. Demoting a
// public folder that still carries share grants lands it on shared, not
// private. The shared tier itself is managed through Share and Unshare.
func (s *SharingService) SetVisibility(ctx context.Context, principal models.Principal, folderID int64, visibility models.Visibility) (*models.Folder, error) {
	if visibility != models.VisibilityPrivate && visibility != models.VisibilityPublic {
		return nil, fmt.Errorf("%w: visibility must be private or public", common.ErrValidation)
	}

	folder, err := s.repomanager.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(principal, folder); err != nil {
		return nil, err
	}

	if visibility == models.VisibilityPrivate {
		grants, err := s.repomanager.Shares(s.db).CountByFolder(ctx, folderID)
		if err != nil {
			return nil, err
		}
		if grants > 0 {
			visibility = models.VisibilityShared
		}
	}

	if folder.Visibility == visibility {
		return folder, nil
	}

	folder.Visibility = visibility
	folder.UpdatedAt = time.Now().UTC()
	if err := s.repomanager.Folders(s.db).Update(ctx, folder); err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, s.db, s.logger, principal.ID,
		models.ActionUpdate, models.EntityFolder, folder.ID,
		fmt.Sprintf("folder %d visibility set to %s", folder.ID, visibility))
	return folder, nil
}

// ListShares returns the grants on a folder. Requires manage-level access.
func (s *SharingService) ListShares(ctx context.Context, principal models.Principal, folderID int64) ([]*models.Share, error) {
	folder, err := s.repomanager.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireAccess(ctx, s.db, principal, folder, models.PermissionManage); err != nil {
		return nil, err
	}
	return s.repomanager.Shares(s.db).ListByFolder(ctx, folderID)
}
