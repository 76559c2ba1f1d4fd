package models

// Principal is the acting identity for an operation. It is produced by an
// external authentication layer; this service only consumes it.
type Principal struct {
	ID   int64
	Role Role
}

// IsSuperuser reports whether the principal bypasses authorization checks.
func (p Principal) IsSuperuser() bool {
	return p.Role == RoleSuperuser
}
