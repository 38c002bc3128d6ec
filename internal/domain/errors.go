package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserInactive       = errors.New("user inactive")
	ErrUserUnverified     = errors.New("user not verified")
	ErrEmailTaken         = errors.New("email already in use")
	ErrNotFound           = errors.New("record not found")
)
