package models

import "time"

// File is an archived document. The row holds metadata only; the bytes live
// in blob storage under StoragePath.
type File struct {
	ID          int64
	Name        string
	StoragePath string
	SizeBytes   *int64
	MimeType    *string
	FolderID    int64
	UploadedBy  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
