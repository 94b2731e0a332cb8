package domain

// Identity is the caller identity resolved by the fronting auth layer.
// Authentication itself happens outside this service; requests arrive with a
// trusted, already-verified user id.
type Identity struct {
	UserID  string
	IsAdmin bool
}

// CanAccess reports whether the identity may operate on a record owned by
// ownerUserID. Admins have elevated privilege over every record.
func (i Identity) CanAccess(ownerUserID string) bool {
	return i.IsAdmin || i.UserID == ownerUserID
}
