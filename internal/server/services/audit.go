// Package services implements the application operations on the archival
// tree: folder and file lifecycle, authorization, sharing, search, and the
// audit trail. Services hold a *sql.DB plus a repository manager and open
// transactions themselves where an operation spans several repositories.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/archivekeeper/internal/common"
	"github.com/dmitrijs2005/archivekeeper/internal/dbx"
	"github.com/dmitrijs2005/archivekeeper/internal/logging"
	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
	"github.com/dmitrijs2005/archivekeeper/internal/server/repositories/audit"
	"github.com/dmitrijs2005/archivekeeper/internal/server/repositories/repomanager"
)

// AuditSink records one audit entry. Mutating services call it after their
// primary write succeeds; a sink failure must never fail the operation that
// produced it.
type AuditSink interface {
	Record(ctx context.Context, db dbx.DBTX, userID int64, action models.Action, entityType models.EntityType, entityID int64, details string) error
}

// AuditService writes and reads the append-only audit trail.
type AuditService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	defaultLimit int
}

func NewAuditService(db *sql.DB, repomanager repomanager.RepositoryManager, defaultLimit int) *AuditService {
	return &AuditService{
		db:           db,
		repomanager:  repomanager,
		defaultLimit: defaultLimit,
	}
}

// Record inserts one audit entry using the given handle, which may be a
// transaction so that the entry commits together with the mutation it
// describes.
func (s *AuditService) Record(ctx context.Context, db dbx.DBTX, userID int64, action models.Action, entityType models.EntityType, entityID int64, details string) error {
	entry := &models.AuditEntry{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Timestamp:  time.Now().UTC(),
	}
	if details != "" {
		entry.Details = &details
	}
	_, err := s.repomanager.Audit(db).Insert(ctx, entry)
	return err
}

// Logs returns audit entries newest first. Regular users see only their own
// entries; admins and superusers may filter across all users. A zero
// filter.Limit falls back to the service default.
func (s *AuditService) Logs(ctx context.Context, principal models.Principal, filter audit.Filter) ([]*models.AuditEntry, error) {
	if principal.Role == models.RoleUser {
		if filter.UserID != nil && *filter.UserID != principal.ID {
			return nil, fmt.Errorf("%w: audit log restricted to own entries", common.ErrPermissionDenied)
		}
		own := principal.ID
		filter.UserID = &own
	}
	if filter.Limit <= 0 {
		filter.Limit = s.defaultLimit
	}
	return s.repomanager.Audit(s.db).Select(ctx, filter)
}

// recordAudit logs a warning instead of failing when the sink rejects an
// entry. Used by mutating services outside their primary transaction.
func recordAudit(ctx context.Context, sink AuditSink, db dbx.DBTX, logger logging.Logger, userID int64, action models.Action, entityType models.EntityType, entityID int64, details string) {
	if err := sink.Record(ctx, db, userID, action, entityType, entityID, details); err != nil {
		logger.Warn(ctx, "audit entry not recorded",
			"action", string(action), "entity_type", string(entityType), "entity_id", entityID, "error", err)
	}
}
