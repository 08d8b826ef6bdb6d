package models

import "time"

// Profile is the local identity row materialized from the external
// identity provider on first sight of a new subject (profile sync)
type Profile struct {
	Id         string
	ExternalId string // identity provider subject claim
	Email      string
	Name       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Membership roles within an organization.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// OrganizationMembership links a profile to an organization with a role
type OrganizationMembership struct {
	ProfileId      string
	OrganizationId string
	Role           string
	CreatedAt      time.Time
}
