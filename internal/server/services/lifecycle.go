package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/archivekeeper/internal/common"
	"github.com/dmitrijs2005/archivekeeper/internal/dbx"
	"github.com/dmitrijs2005/archivekeeper/internal/logging"
	"github.com/dmitrijs2005/archivekeeper/internal/server/blob"
	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
	"github.com/dmitrijs2005/archivekeeper/internal/server/repositories/repomanager"
)

// LifecycleService creates, updates and deletes folders and files. The
// database is authoritative: metadata writes must succeed, while blob
// storage cleanup is best effort and never blocks a delete.
type LifecycleService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blob        blob.Sink
	tree        *TreeService
	authz       *AuthzService
	audit       AuditSink
	logger      logging.Logger
}

func NewLifecycleService(db *sql.DB, repomanager repomanager.RepositoryManager, sink blob.Sink,
	tree *TreeService, authz *AuthzService, audit AuditSink, logger logging.Logger) *LifecycleService {
	return &LifecycleService{
		db:          db,
		repomanager: repomanager,
		blob:        sink,
		tree:        tree,
		authz:       authz,
		audit:       audit,
		logger:      logger,
	}
}

// NewFolder carries the caller-supplied attributes of a folder to create.
type NewFolder struct {
	Name        string
	ParentID    *int64
	Year        *int
	Theme       *string
	Sector      *string
	Description *string
}

// DeleteFolderResult reports the outcome of the best-effort blob cleanup
// that accompanies a folder delete.
type DeleteFolderResult struct {
	DeletedFolders int64
	RemovedFiles   int
	FailedCleanup  []string
}

// CreateFolder creates a folder owned by the principal. New folders start
// private. Creating under a parent requires write access to that parent.
func (s *LifecycleService) CreateFolder(ctx context.Context, principal models.Principal, in NewFolder) (*models.Folder, error) {
	if err := models.ValidateName(in.Name); err != nil {
		return nil, err
	}
	if err := models.ValidateYear(in.Year); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := s.repomanager.Folders(s.db).GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if err := s.authz.RequireAccess(ctx, s.db, principal, parent, models.PermissionWrite); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	folder := &models.Folder{
		Name:        in.Name,
		Year:        in.Year,
		Theme:       in.Theme,
		Sector:      in.Sector,
		Description: in.Description,
		Visibility:  models.VisibilityPrivate,
		OwnerID:     principal.ID,
		ParentID:    in.ParentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repomanager.Folders(s.db).Create(ctx, folder)
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, s.db, s.logger, principal.ID,
		models.ActionCreate, models.EntityFolder, created.ID, fmt.Sprintf("folder %q", created.Name))
	return created, nil
}

// UpdateFolder applies a metadata patch. Renaming and metadata edits need
// manage-level access; re-parenting additionally needs write access on the
// destination and is rejected when it would make the folder its own
// descendant.
func (s *LifecycleService) UpdateFolder(ctx context.Context, principal models.Principal, id int64, patch models.FolderPatch) (*models.Folder, error) {
	repo := s.repomanager.Folders(s.db)

	folder, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authz.RequireAccess(ctx, s.db, principal, folder, models.PermissionManage); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if err := models.ValidateName(*patch.Name); err != nil {
			return nil, err
		}
		folder.Name = *patch.Name
	}
	if patch.Year != nil {
		if err := models.ValidateYear(patch.Year); err != nil {
			return nil, err
		}
		folder.Year = patch.Year
	}
	if patch.Theme != nil {
		folder.Theme = patch.Theme
	}
	if patch.Sector != nil {
		folder.Sector = patch.Sector
	}
	if patch.Description != nil {
		folder.Description = patch.Description
	}

	if patch.SetParent {
		if err := s.checkMove(ctx, principal, folder, patch.ParentID); err != nil {
			return nil, err
		}
		folder.ParentID = patch.ParentID
	}

	folder.UpdatedAt = time.Now().UTC()
	if err := repo.Update(ctx, folder); err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, s.db, s.logger, principal.ID,
		models.ActionUpdate, models.EntityFolder, folder.ID, fmt.Sprintf("folder %q", folder.Name))
	return folder, nil
}

// checkMove validates re-parenting folder under newParentID.
func (s *LifecycleService) checkMove(ctx context.Context, principal models.Principal, folder *models.Folder, newParentID *int64) error {
	if newParentID == nil {
		return nil
	}
	if *newParentID == folder.ID {
		return fmt.Errorf("%w: folder cannot be its own parent", common.ErrValidation)
	}

	repo := s.repomanager.Folders(s.db)

	parent, err := repo.GetByID(ctx, *newParentID)
	if err != nil {
		return err
	}
	if err := s.authz.RequireAccess(ctx, s.db, principal, parent, models.PermissionWrite); err != nil {
		return err
	}

	// Walk up from the destination; hitting the moved folder means a cycle.
	for cursor := parent; cursor.ParentID != nil; {
		if *cursor.ParentID == folder.ID {
			return fmt.Errorf("%w: move would create a cycle", common.ErrValidation)
		}
		cursor, err = repo.GetByID(ctx, *cursor.ParentID)
		if err != nil {
			return err
		}
	}
	return nil
}

// AddFile stores the bytes from r in blob storage and records the file row.
// The storage key embeds a fresh UUID so equal names never collide. If the
// row insert fails the stored bytes are removed again.
func (s *LifecycleService) AddFile(ctx context.Context, principal models.Principal, folderID int64, name string, r io.Reader) (*models.File, error) {
	if err := models.ValidateName(name); err != nil {
		return nil, err
	}

	folder, err := s.repomanager.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireAccess(ctx, s.db, principal, folder, models.PermissionWrite); err != nil {
		return nil, err
	}

	sanitized := models.SanitizeFileName(name)
	key := fmt.Sprintf("folders/%d/%s/%s", folderID, uuid.New(), sanitized)

	// Sniff the MIME type from the first bytes without losing them.
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	head = head[:n]
	mimeType := http.DetectContentType(head)

	size, err := s.blob.Put(ctx, key, io.MultiReader(bytes.NewReader(head), r))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	file := &models.File{
		Name:        name,
		StoragePath: key,
		SizeBytes:   &size,
		MimeType:    &mimeType,
		FolderID:    folderID,
		UploadedBy:  principal.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repomanager.Files(s.db).Create(ctx, file)
	if err != nil {
		if delErr := s.blob.Delete(ctx, key); delErr != nil {
			s.logger.Warn(ctx, "orphaned blob after failed insert", "key", key, "error", delErr)
		}
		return nil, err
	}

	recordAudit(ctx, s.audit, s.db, s.logger, principal.ID,
		models.ActionCreate, models.EntityFile, created.ID, fmt.Sprintf("file %q in folder %d", created.Name, folderID))
	return created, nil
}

// DownloadFile opens the stored bytes of a file the principal may read.
// The caller owns the returned reader.
func (s *LifecycleService) DownloadFile(ctx context.Context, principal models.Principal, fileID int64) (io.ReadCloser, *models.File, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	folder, err := s.repomanager.Folders(s.db).GetByID(ctx, file.FolderID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authz.RequireAccess(ctx, s.db, principal, folder, models.PermissionRead); err != nil {
		return nil, nil, err
	}

	rc, err := s.blob.Open(ctx, file.StoragePath)
	if err != nil {
		return nil, nil, err
	}

	recordAudit(ctx, s.audit, s.db, s.logger, principal.ID,
		models.ActionDownload, models.EntityFile, file.ID, fmt.Sprintf("file %q", file.Name))
	return rc, file, nil
}

// DeleteFile removes the metadata row and then the stored bytes. A blob
// that is already gone, or refuses to go, does not fail the delete.
func (s *LifecycleService) DeleteFile(ctx context.Context, principal models.Principal, fileID int64) error {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	folder, err := s.repomanager.Folders(s.db).GetByID(ctx, file.FolderID)
	if err != nil {
		return err
	}
	if err := s.authz.RequireAccess(ctx, s.db, principal, folder, models.PermissionWrite); err != nil {
		return err
	}

	if err := s.repomanager.Files(s.db).Delete(ctx, fileID); err != nil {
		return err
	}

	if err := s.blob.Delete(ctx, file.StoragePath); err != nil {
		s.logger.Warn(ctx, "blob cleanup failed", "key", file.StoragePath, "error", err)
	}

	recordAudit(ctx, s.audit, s.db, s.logger, principal.ID,
		models.ActionDelete, models.EntityFile, file.ID, fmt.Sprintf("file %q", file.Name))
	return nil
}

// DeleteFolder removes a folder and everything beneath it. Blob cleanup
// runs first and is best effort; the database delete is atomic and cascades
// over subfolders, files and shares. When the database delete fails after
// blobs were removed, those bytes are gone for good, so the failure is
// logged before being returned.
func (s *LifecycleService) DeleteFolder(ctx context.Context, principal models.Principal, id int64) (*DeleteFolderResult, error) {
	folder, err := s.repomanager.Folders(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireAccess(ctx, s.db, principal, folder, models.PermissionManage); err != nil {
		return nil, err
	}

	if err := s.tree.Materialize(ctx, s.db, folder); err != nil {
		return nil, err
	}

	descendants, err := s.repomanager.Folders(s.db).CountDescendants(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &DeleteFolderResult{DeletedFolders: descendants}
	for _, file := range CollectFiles(folder) {
		if err := s.blob.Delete(ctx, file.StoragePath); err != nil {
			s.logger.Warn(ctx, "blob cleanup failed", "key", file.StoragePath, "error", err)
			result.FailedCleanup = append(result.FailedCleanup, file.StoragePath)
			continue
		}
		result.RemovedFiles++
	}

	recordAudit(ctx, s.audit, s.db, s.logger, principal.ID,
		models.ActionDelete, models.EntityFolder, id,
		fmt.Sprintf("folder %q, %d files removed", folder.Name, result.RemovedFiles))

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Folders(tx).Delete(ctx, id)
	})
	if err != nil {
		s.logger.Error(ctx, "folder delete failed after blob cleanup", "folder_id", id, "removed_files", result.RemovedFiles, "error", err)
		return nil, err
	}

	return result, nil
}
