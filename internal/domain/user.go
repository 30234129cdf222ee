package domain

import "strings"

// Role is the closed set of roles the client understands. Role strings
// arriving from the identity service are normalized through ParseRole at
// the boundary; consumers never compare raw strings.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"

	// RoleUnknown covers anything the client does not recognize,
	// including an absent role. It never satisfies a role requirement.
	RoleUnknown Role = ""
)

// ParseRole normalizes a role string from the identity service.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer":
		return RoleCustomer
	case "employee":
		return RoleEmployee
	default:
		return RoleUnknown
	}
}

// Matches reports whether the role satisfies a required role.
// Comparison is case-insensitive; an unknown role matches nothing.
func (r Role) Matches(required Role) bool {
	if r == RoleUnknown || required == RoleUnknown {
		return false
	}
	return strings.EqualFold(string(r), string(required))
}

// RegistrationStatus is the server-assigned lifecycle state of a newly
// created account. Accounts created before the approval flow existed
// carry no status at all (StatusUnknown).
type RegistrationStatus string

const (
	StatusPending  RegistrationStatus = "PENDING"
	StatusApproved RegistrationStatus = "APPROVED"
	StatusDeclined RegistrationStatus = "DECLINED"
	StatusUnknown  RegistrationStatus = ""
)

// ParseRegistrationStatus normalizes a status string from the identity
// service.
func ParseRegistrationStatus(s string) RegistrationStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING":
		return StatusPending
	case "APPROVED":
		return StatusApproved
	case "DECLINED":
		return StatusDeclined
	default:
		return StatusUnknown
	}
}

// UserProfile is the cached profile of the logged-in user.
type UserProfile struct {
	ID                 int64              `json:"id"`
	Email              string             `json:"email"`
	Name               string             `json:"name"`
	BSN                string             `json:"bsn,omitempty"`
	Role               Role               `json:"role"`
	RegistrationStatus RegistrationStatus `json:"registrationStatus"`
}

// Clone returns a copy of the profile, or nil for a nil receiver.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// ProfilePatch carries the subset of profile fields a server response
// actually contained. Nil fields are left untouched on merge so a
// partial response never erases cached attributes.
type ProfilePatch struct {
	ID                 *int64
	Email              *string
	Name               *string
	BSN                *string
	Role               *Role
	RegistrationStatus *RegistrationStatus
}

// Apply merges the non-nil fields of the patch into the profile.
func (p *UserProfile) Apply(patch ProfilePatch) {
	if patch.ID != nil {
		p.ID = *patch.ID
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.BSN != nil {
		p.BSN = *patch.BSN
	}
	if patch.Role != nil {
		p.Role = *patch.Role
	}
	if patch.RegistrationStatus != nil {
		p.RegistrationStatus = *patch.RegistrationStatus
	}
}
