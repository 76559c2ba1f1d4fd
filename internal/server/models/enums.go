// Package models defines the data model persisted by ArchiveKeeper:
// folders organized in a tree, the files they hold, per-user share grants,
// and the append-only audit trail.
package models

import "fmt"

// Visibility is the folder-level exposure tier.
type Visibility string

const (
	// VisibilityPrivate makes the folder visible to its owner only.
	VisibilityPrivate Visibility = "private"
	// VisibilityShared exposes the folder to users holding a Share on it.
	VisibilityShared Visibility = "shared"
	// VisibilityPublic opens the folder for reading to all principals.
	VisibilityPublic Visibility = "public"
)

// ParseVisibility converts a stored string into a Visibility value.
func ParseVisibility(s string) (Visibility, error) {
	switch Visibility(s) {
	case VisibilityPrivate, VisibilityShared, VisibilityPublic:
		return Visibility(s), nil
	}
	return "", fmt.Errorf("unknown visibility %q", s)
}

// Permission is the level of a share grant. Levels are ordered:
// read < write < manage.
type Permission string

const (
	PermissionRead   Permission = "read"
	PermissionWrite  Permission = "write"
	PermissionManage Permission = "manage"
)

var permissionRank = map[Permission]int{
	PermissionRead:   1,
	PermissionWrite:  2,
	PermissionManage: 3,
}

// Covers reports whether p grants at least the given level.
func (p Permission) Covers(level Permission) bool {
	return permissionRank[p] >= permissionRank[level]
}

// ParsePermission converts a stored string into a Permission value.
func ParsePermission(s string) (Permission, error) {
	switch Permission(s) {
	case PermissionRead, PermissionWrite, PermissionManage:
		return Permission(s), nil
	}
	return "", fmt.Errorf("unknown permission %q", s)
}

// Role is the role carried by a Principal. Superusers bypass all
// authorization checks.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleSuperuser Role = "superuser"
)

// Action identifies the kind of mutation recorded in the audit trail.
type Action string

const (
	ActionCreate   Action = "CREATE"
	ActionUpdate   Action = "UPDATE"
	ActionDelete   Action = "DELETE"
	ActionDownload Action = "DOWNLOAD"
	ActionView     Action = "VIEW"
)

// EntityType identifies which kind of entity an audit entry refers to.
type EntityType string

const (
	EntityFolder EntityType = "FOLDER"
	EntityFile   EntityType = "FILE"
	EntityShare  EntityType = "SHARE"
	EntityUser   EntityType = "USER"
)
