package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClient
}

// Profile mirrors the identity provider's user record. ID is the OIDC subject.
type Profile struct {
	bun.BaseModel `bun:"table:profiles"`

	ID       string    `bun:"id,pk" json:"id"`
	FullName string    `bun:"full_name,nullzero" json:"full_name,omitempty"`
	Email    string    `bun:"email,notnull" json:"email"`
	JoinedAt time.Time `bun:"joined_at,notnull,default:current_timestamp" json:"joined_at"`
}

// UserRole holds exactly one role row per user. The role gates admin console
// access; row ownership gates everything else.
type UserRole struct {
	bun.BaseModel `bun:"table:roles"`

	UserID string `bun:"user_id,pk" json:"user_id"`
	Role   Role   `bun:"role,notnull" json:"role"`
}
