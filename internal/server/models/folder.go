package models

import "time"

// Folder is a node of the archival tree. A nil ParentID marks a root.
// Subfolders and Files are populated only by explicit subtree
// materialization; a Folder loaded by id carries the row columns alone.
type Folder struct {
	ID          int64
	Name        string
	Year        *int
	Theme       *string
	Sector      *string
	Description *string
	Visibility  Visibility
	OwnerID     int64
	ParentID    *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Subfolders []*Folder
	Files      []*File
}

// IsRoot reports whether the folder has no parent.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// FolderPatch carries optional field updates for a folder. Nil fields are
// left untouched. SetParent distinguishes "move to root" (SetParent true,
// ParentID nil) from "do not re-parent" (SetParent false).
type FolderPatch struct {
	Name        *string
	Year        *int
	Theme       *string
	Sector      *string
	Description *string
	ParentID    *int64
	SetParent   bool
}
