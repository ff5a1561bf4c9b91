package roster

import "fmt"

// Role classifies a roster member.
type Role int

const (
	// RoleAdmin is a member with administrative access.
	RoleAdmin Role = iota
	// RoleMember is a regular member.
	RoleMember
)

// String returns the display name for a role.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleMember:
		return "Member"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Record is a single roster entry. IDs start at 1, are unique across the
// dataset, and are never reused. Records are immutable once fetched.
type Record struct {
	ID    int
	Name  string
	Email string
	Role  Role
}

// Page is one fetch result. Records within a page are ordered by ascending
// ID, and pages are disjoint: page N+1 begins where page N ended.
type Page struct {
	Records []Record
	HasMore bool
}
