package models

import "time"

// Share grants one user one permission level on one folder. At most one
// Share exists per (folder, user) pair; granting again overwrites the
// permission instead of duplicating the row.
type Share struct {
	ID         int64
	FolderID   int64
	UserID     int64
	Permission Permission
	SharedBy   int64
	CreatedAt  time.Time
}
