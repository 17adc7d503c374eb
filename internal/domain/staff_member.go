package domain

import "time"

// StaffRole enumerates dashboard roles.
type StaffRole string

const (
	StaffRoleOfficer StaffRole = "OFFICER"
	StaffRoleAdmin   StaffRole = "ADMIN"
)

// Valid reports whether r is a known role.
func (r StaffRole) Valid() bool {
	return r == StaffRoleOfficer || r == StaffRoleAdmin
}

// StaffMember models a grievance officer or administrator.
type StaffMember struct {
	ID           string
	Name         string
	Username     string
	PasswordHash string
	Role         StaffRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
