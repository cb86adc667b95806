package valueobjects

import "strings"

// Role is a role name granted by the identity provider
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleAdminUser Role = "AdminUser"
	RoleUser      Role = "user"
)

// adminRoles are the role names that grant moderation rights
var adminRoles = map[Role]struct{}{
	RoleAdmin:     {},
	RoleAdminUser: {},
}

// Roles is the set of roles held by a caller
type Roles map[Role]struct{}

// NewRoles builds a role set from raw role strings, ignoring blanks
func NewRoles(raw ...string) Roles {
	roles := make(Roles, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		roles[Role(r)] = struct{}{}
	}
	return roles
}

// Has reports whether the set contains role
func (r Roles) Has(role Role) bool {
	_, ok := r[role]
	return ok
}

// Strings returns the role names
func (r Roles) Strings() []string {
	out := make([]string, 0, len(r))
	for role := range r {
		out = append(out, string(role))
	}
	return out
}

// IsAdmin reports whether any of the roles grants admin rights
func IsAdmin(roles Roles) bool {
	for role := range roles {
		if _, ok := adminRoles[role]; ok {
			return true
		}
	}
	return false
}
