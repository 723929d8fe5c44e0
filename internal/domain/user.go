package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Role is the authorization level of a user. The zero value is not a
// valid role; use ParseRole at the boundary.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// ParseRole normalizes s case-insensitively to a canonical Role.
// An empty string yields RoleUser.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("%w: role must be Admin or User", ErrInvalidInput)
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

// User represents a registered user of the application.
type User struct {
	ID           string
	Name         string
	Email        string
	Username     string
	PasswordHash string
	Role         Role
	Favourites   []string // Article IDs
	Articles     []string // IDs of articles the user authored
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the authenticated principal carried by a token.
type Identity struct {
	UserID string
	Role   Role
}

// UserRepository defines persistence operations for users.
// Implementations persist PasswordHash as given and never hash.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	FindByEmailOrUsername(ctx context.Context, identifier string) (*User, error)
	Update(ctx context.Context, user *User) error
	AddOwnedArticle(ctx context.Context, userID, articleID string) error
	RemoveOwnedArticle(ctx context.Context, userID, articleID string) error
	// ToggleFavourite flips membership of articleID in the user's
	// favourites and reports whether it is now present.
	ToggleFavourite(ctx context.Context, userID, articleID string) (bool, error)
}
