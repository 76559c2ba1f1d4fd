package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/archivekeeper/internal/common"
	"github.com/dmitrijs2005/archivekeeper/internal/dbx"
	"github.com/dmitrijs2005/archivekeeper/internal/server/models"
	"github.com/dmitrijs2005/archivekeeper/internal/server/repositories/repomanager"
)

// TreeService loads folder subtrees from the database. Traversal is bounded
// by a maximum depth and a maximum node count so a corrupted or adversarial
// tree cannot pin the server in an unbounded walk.
type TreeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	maxDepth    int
	maxNodes    int
}

func NewTreeService(db *sql.DB, repomanager repomanager.RepositoryManager, maxDepth, maxNodes int) *TreeService {
	return &TreeService{
		db:          db,
		repomanager: repomanager,
		maxDepth:    maxDepth,
		maxNodes:    maxNodes,
	}
}

// Materialize fills folder.Subfolders and folder.Files recursively,
// depth-first, children ordered by name. It returns common.ErrTreeTooDeep
// or common.ErrTreeTooLarge when a limit is crossed; the folder is then
// left partially populated and must not be used.
func (s *TreeService) Materialize(ctx context.Context, db dbx.DBTX, folder *models.Folder) error {
	nodes := 0
	return s.materialize(ctx, db, folder, 0, &nodes)
}

func (s *TreeService) materialize(ctx context.Context, db dbx.DBTX, folder *models.Folder, depth int, nodes *int) error {
	if depth > s.maxDepth {
		return fmt.Errorf("%w: depth limit %d exceeded at folder %d", common.ErrTreeTooDeep, s.maxDepth, folder.ID)
	}
	*nodes++
	if *nodes > s.maxNodes {
		return fmt.Errorf("%w: node limit %d exceeded", common.ErrTreeTooLarge, s.maxNodes)
	}

	fileList, err := s.repomanager.Files(db).ListByFolder(ctx, folder.ID)
	if err != nil {
		return err
	}
	folder.Files = fileList

	children, err := s.repomanager.Folders(db).ListChildren(ctx, folder.ID)
	if err != nil {
		return err
	}
	folder.Subfolders = children

	for _, child := range children {
		if err := s.materialize(ctx, db, child, depth+1, nodes); err != nil {
			return err
		}
	}
	return nil
}

// Subtree loads the folder by id and materializes it.
func (s *TreeService) Subtree(ctx context.Context, id int64) (*models.Folder, error) {
	folder, err := s.repomanager.Folders(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Materialize(ctx, s.db, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

// CollectFiles returns every file of a materialized subtree, the given
// folder included, in depth-first order.
func CollectFiles(folder *models.Folder) []*models.File {
	out := make([]*models.File, 0, len(folder.Files))
	out = append(out, folder.Files...)
	for _, child := range folder.Subfolders {
		out = append(out, CollectFiles(child)...)
	}
	return out
}
