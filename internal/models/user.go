package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

type User struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Username   string    `db:"username" json:"username"`
	FullName   string    `db:"fullname" json:"fullname" validate:"omitempty,max=120"`
	Email      string    `db:"email" json:"email" validate:"required,email"`
	Password   string    `db:"password" json:"password,omitempty" validate:"required,min=8"`
	IsVerified bool      `db:"is_verified" json:"is_verified"`
	Role       string    `db:"role" json:"role"`
	AvatarURL  string    `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// DisplayName prefers the full name and falls back to the e-mail address.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
