package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/archivekeeper/internal/dbx"
	"github.com/dmitrijs2005/archivekeeper/internal/server/repositories/audit"
	"github.com/dmitrijs2005/archivekeeper/internal/server/repositories/files"
	"github.com/dmitrijs2005/archivekeeper/internal/server/repositories/folders"
	"github.com/dmitrijs2005/archivekeeper/internal/server/repositories/shares"
)

// RepositoryManager vends repository implementations bound to a DBTX, so that
// services can run several repositories inside one transaction by handing
// them the same *sql.Tx.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Folders(db dbx.DBTX) folders.Repository
	Files(db dbx.DBTX) files.Repository
	Shares(db dbx.DBTX) shares.Repository
	Audit(db dbx.DBTX) audit.Repository
}
