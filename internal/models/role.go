package models

import "fmt"

// Role is the closed set of privilege levels a user can hold.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleUser       Role = "USER"
)

// roleLevels defines the total privilege order. Higher is more privileged.
var roleLevels = map[Role]int{
	RoleSuperAdmin: 4,
	RoleAdmin:      3,
	RoleManager:    2,
	RoleUser:       1,
}

// Role sets used by the authorization middleware.
var (
	SuperAdminOnly = []Role{RoleSuperAdmin}
	AdminOrAbove   = []Role{RoleSuperAdmin, RoleAdmin}
	ManagerOrAbove = []Role{RoleSuperAdmin, RoleAdmin, RoleManager}
)

// ParseRole validates a role string against the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleLevels[r]; !ok {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}

// Valid reports whether the role is one of the four known levels.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Level returns the privilege rank of the role. Unknown roles rank below USER.
func (r Role) Level() int {
	return roleLevels[r]
}

// AtLeast reports whether r is at least as privileged as other.
func (r Role) AtLeast(other Role) bool {
	return r.Level() >= other.Level()
}

// In reports whether r is a member of the given role set.
func (r Role) In(roles []Role) bool {
	for _, allowed := range roles {
		if r == allowed {
			return true
		}
	}
	return false
}
