package domain

import (
	"strings"
	"time"
)

// Role is the single authorization attribute of a user.
type Role string

const (
	RoleSuperAdmin  Role = "superadmin"
	RoleAdmin       Role = "admin"
	RoleSupportLead Role = "support_lead"
	RoleTechnician  Role = "technician"
	RoleUser        Role = "user"
)

// TechnicianRoles are the roles eligible for ticket assignment.
var TechnicianRoles = []Role{RoleTechnician, RoleSupportLead}

// User is an account of the helpdesk. Active is the business flag managed by
// administrators; Enabled is the login switch of the account itself.
type User struct {
	ID              int64
	Username        string
	PasswordHash    string
	FirstName       string
	LastName        string
	GivenNames      string
	PaternalSurname string
	MaternalSurname string
	Email           string
	Role            Role
	SiteID          *int64
	DepartmentID    *int64
	PositionID      *int64
	Active          bool
	Enabled         bool
	FullName        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ComposeFullName builds a person's name from the first/last pair, falling
// back to given names and paternal surname. Empty when neither pair is complete.
func ComposeFullName(firstName, lastName, givenNames, paternalSurname string) string {
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if firstName != "" && lastName != "" {
		return firstName + " " + lastName
	}
	givenNames, paternalSurname = strings.TrimSpace(givenNames), strings.TrimSpace(paternalSurname)
	if givenNames != "" && paternalSurname != "" {
		return givenNames + " " + paternalSurname
	}
	return ""
}

// Normalize fills derived fields after the user was loaded or built.
func (u *User) Normalize() {
	u.FullName = ComposeFullName(u.FirstName, u.LastName, u.GivenNames, u.PaternalSurname)
}

// DisplayName is the full name when one can be composed, else the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// IsTechnician reports whether the role is eligible for assignment.
func (r Role) IsTechnician() bool {
	for _, candidate := range TechnicianRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsDispatcher reports whether the role may see the full backlog and assign technicians.
func (r Role) IsDispatcher() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleSupportLead, RoleTechnician, RoleUser:
		return true
	}
	return false
}

// CanBeAssigned reports whether the user currently passes the assignment predicate.
func (u *User) CanBeAssigned() bool {
	return u != nil && u.Role.IsTechnician() && u.Active && u.Enabled
}
