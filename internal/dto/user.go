package dto

import (
	"time"

	"identity/internal/domain"
)

type UserCreate struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserUpdate carries a partial update. Pointer fields distinguish
// "not provided" from an explicit value.
type UserUpdate struct {
	Email      *string `json:"email,omitempty"`
	Password   *string `json:"password,omitempty"`
	IsActive   *bool   `json:"isActive,omitempty"`
	IsVerified *bool   `json:"isVerified,omitempty"`
}

// PublicUser is the only user shape that leaves the service.
// There is no hash field to forget to strip.
type PublicUser struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	IsActive    bool       `json:"isActive"`
	IsVerified  bool       `json:"isVerified"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func PublicUserFrom(u *domain.User) *PublicUser {
	return &PublicUser{
		ID:          u.ID.String(),
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
