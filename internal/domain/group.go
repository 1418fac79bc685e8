package domain

import "time"

// Role is a member's role within a group.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Group carries the group attributes the ledger core needs. Group
// management itself (creation, invitations) lives outside this service.
type Group struct {
	ID              string
	Name            string
	DefaultCurrency string
	CreatedAt       time.Time
}

// GroupMember is one user's membership in a group.
type GroupMember struct {
	GroupID  string
	UserID   string
	Role     Role
	JoinedAt time.Time
}
