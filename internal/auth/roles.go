package auth

import "strings"

// Role is the access level carried in an API token.
type Role string

const (
	// RoleViewer may read the category catalog.
	RoleViewer Role = "viewer"
	// RoleOperator may also start report runs.
	RoleOperator Role = "operator"
	// RoleAdmin may do everything; the report API has no admin-only route yet.
	RoleAdmin Role = "admin"
)

// roleOrder lists roles from least to most privileged.
var roleOrder = []Role{RoleViewer, RoleOperator, RoleAdmin}

// ParseRole accepts a role name case-insensitively.
func ParseRole(value string) (Role, bool) {
	candidate := Role(strings.ToLower(strings.TrimSpace(value)))
	for _, role := range roleOrder {
		if role == candidate {
			return role, true
		}
	}
	return "", false
}

// Allows reports whether r grants at least the required level.
func (r Role) Allows(required Role) bool {
	have, want := r.level(), required.level()
	return have > 0 && want > 0 && have >= want
}

func (r Role) level() int {
	for i, role := range roleOrder {
		if role == r {
			return i + 1
		}
	}
	return 0
}
