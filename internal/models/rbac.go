package models

// Roles carried in access tokens.
const (
	RoleUser     = "user"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// SelfAssignableRoles are the roles a caller may request at signup.
var SelfAssignableRoles = map[string]bool{
	RoleUser:     true,
	RoleProvider: true,
}

// IsValidRole reports whether role is known.
func IsValidRole(role string) bool {
	switch role {
	case RoleUser, RoleProvider, RoleAdmin:
		return true
	}
	return false
}
