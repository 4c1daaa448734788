package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is the coarse permission level of a user
type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleAnnotator UserRole = "annotator"
)

// IsValid reports whether the role is one the server knows about
func (r UserRole) IsValid() bool {
	return r == UserRoleAdmin || r == UserRoleAnnotator
}

// User represents an account that can log in or call the API with its key
type User struct {
	ID           uuid.UUID   `json:"id"`
	FirstName    string      `json:"first_name"`
	LastName     *string     `json:"last_name,omitempty"`
	Username     string      `json:"username"`
	Role         UserRole    `json:"role"`
	APIKey       string      `json:"api_key"`
	PasswordHash string      `json:"-"`
	WorkspaceIDs []uuid.UUID `json:"-"`
	InsertedAt   time.Time   `json:"inserted_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// IsMemberOf reports whether the user belongs to the given workspace
func (u *User) IsMemberOf(workspaceID uuid.UUID) bool {
	if u == nil {
		return false
	}
	for _, id := range u.WorkspaceIDs {
		if id == workspaceID {
			return true
		}
	}
	return false
}

// Workspace groups datasets and the users allowed to annotate them
type Workspace struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	InsertedAt time.Time `json:"inserted_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Token is the body returned by the token endpoint
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// TokenTypeBearer is the only token type the token endpoint issues
const TokenTypeBearer = "bearer"
