package domain

import "time"

type User struct {
	ID           UserID     `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Email        string     `gorm:"type:text;uniqueIndex:ux_users_email;not null" db:"email" json:"email"`
	PasswordHash string     `gorm:"type:text;not null" db:"password_hash" json:"-"`
	IsActive     bool       `gorm:"not null;default:true" db:"is_active" json:"isActive"`
	IsVerified   bool       `gorm:"not null;default:false" db:"is_verified" json:"isVerified"`
	CreatedAt    time.Time  `gorm:"not null" db:"created_at" json:"createdAt"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
}

func (User) TableName() string { return "users" }
