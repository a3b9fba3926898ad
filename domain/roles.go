package domain

import "strings"

// Role is the coarse access-control tag carried by a session.
type Role string

// Standard Roles
const (
	RoleDoctor     Role = "doctor"
	RoleManagement Role = "management"
	// RolePatient is accepted on the general dashboard routes but the backend never issues it.
	RolePatient Role = "patient"
)

// ParseRole normalizes a role string from the backend. An empty or unrecognized value maps
// to RoleDoctor, which is what the login endpoint implies when it omits the field.
func ParseRole(s string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleDoctor, RoleManagement, RolePatient:
		return r
	default:
		return RoleDoctor
	}
}

func (r Role) String() string {
	return string(r)
}

// LandingPath returns the default page for the role.
func (r Role) LandingPath() string {
	if r == RoleManagement {
		return "/management/dashboard"
	}

	return "/dashboard"
}
