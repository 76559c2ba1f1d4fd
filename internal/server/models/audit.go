package models

import "time"

// AuditEntry is one append-only record of a mutating operation. Entries are
// never updated or deleted by this service.
type AuditEntry struct {
	ID         int64
	UserID     int64
	Action     Action
	EntityType EntityType
	EntityID   int64
	Details    *string
	Timestamp  time.Time
}
