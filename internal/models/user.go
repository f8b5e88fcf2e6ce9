package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles known to the records core.
type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleHeadteacher UserRole = "headteacher"
	RoleTeacher     UserRole = "teacher"
	RoleBursar      UserRole = "bursar"
	RoleLibrarian   UserRole = "librarian"
)

// Caller is the explicit access-control context handed to service operations.
type Caller struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
}

// IsAdmin reports whether the caller bypasses the deadline gate.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// HasRole reports whether the caller holds any of roles.
func (c Caller) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Caller projects the claims onto a Caller.
func (c *JWTClaims) Caller() Caller {
	if c == nil {
		return Caller{}
	}
	return Caller{UserID: c.UserID, Role: c.Role}
}
