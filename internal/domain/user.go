package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string         `gorm:"size:64" json:"name"`
	PasswordHash string         `gorm:"size:100" json:"-"` // empty for externally provisioned accounts
	Role         string         `gorm:"size:16;not null;default:user" json:"role"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// Identity is the normalized record handed out after a successful
// authorization. Role is always populated (defaults to RoleUser).
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

// NewIdentity applies the role default once, at construction.
func NewIdentity(u *User) *Identity {
	role := u.Role
	if role == "" {
		role = RoleUser
	}
	return &Identity{ID: u.ID, Email: u.Email, Name: u.Name, Role: role}
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	// FindByEmail returns (nil, nil) when no user matches.
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, q string, offset, limit int) ([]User, int64, error)
}
