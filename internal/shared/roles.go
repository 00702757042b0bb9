package shared

// Role is the closed set of account roles. Free-text role names from
// storage are validated into this set at the access-control boundary.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
)

// ParseRole validates a stored role name.
func ParseRole(name string) (Role, bool) {
	switch Role(name) {
	case RoleAdmin, RoleSeller:
		return Role(name), true
	}
	return "", false
}
