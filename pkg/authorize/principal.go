package authorize

import "slices"

// Principal is the authenticated staff user a core operation acts for.
// Handlers build it from the verified token and pass it explicitly.
type Principal struct {
	UserID int64
	Roles  []Role
}

func NewPrincipal(userID int64, roles ...Role) Principal {
	return Principal{UserID: userID, Roles: roles}
}

func (p Principal) Subject() GroupSubject {
	return UserSubject(p.UserID)
}

func (p Principal) HasRole(r Role) bool {
	return slices.Contains(p.Roles, r)
}

// HasAnyRole reports whether the principal holds at least one of roles.
func (p Principal) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

func (p Principal) IsZero() bool {
	return p.UserID == 0
}
