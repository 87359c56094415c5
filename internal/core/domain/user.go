package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the server-assigned access level of an authenticated user.
type Role string

const (
	RoleOwner   Role = "OWNER"
	RoleManager Role = "MANAGER"
	RoleTenant  Role = "TENANT"
)

// ParseRole normalises a role reported by the API. Spring-style authorities
// ("ROLE_OWNER") and lower-case values are accepted.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_"))
	switch r {
	case RoleOwner, RoleManager, RoleTenant:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Credential is the login input. It is never persisted.
type Credential struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUp is the registration input. Length rules belong to the server.
type SignUp struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is the body returned by the signin and register endpoints.
type AuthResponse struct {
	Token string `json:"token"`
	Type  string `json:"type"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Identity is the displayable profile of the logged-in user. It is stored
// next to the session token under the "user" key.
type Identity struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// UsernameFromEmail returns the local part of an email address.
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Encode serialises the identity for durable storage.
func (i Identity) Encode() (string, error) {
	b, err := json.Marshal(i)
	if err != nil {
		return "", fmt.Errorf("encode identity: %w", err)
	}
	return string(b), nil
}

// DecodeIdentity parses a stored identity. An identity without an email or
// with an unknown role is rejected.
func DecodeIdentity(s string) (Identity, error) {
	var id Identity
	if err := json.Unmarshal([]byte(s), &id); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	if id.Email == "" {
		return Identity{}, fmt.Errorf("%w: missing email", ErrCorruptSession)
	}
	role, err := ParseRole(string(id.Role))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	id.Role = role
	return id, nil
}

// UserSummary is the public view of an account returned by GET /users.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}
