package models

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// KnownRole reports whether role is one the access policy understands.
func KnownRole(role string) bool {
	return role == RoleAdmin || role == RoleStudent
}
