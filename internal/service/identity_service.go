package service

import (
	"context"

	"identity/internal/domain"
	"identity/internal/dto"
)

// IdentityService is the authorization pipeline exposed to transports.
//
// Resolve, RequireActive and RequireVerified form an ordered ladder:
// a request can only reach the verified level through resolve -> active.
type IdentityService interface {
	Register(ctx context.Context, input dto.UserCreate) (*dto.PublicUser, error)
	Login(ctx context.Context, email, password string) (*dto.TokenResponse, error)

	Resolve(ctx context.Context, token string) (*domain.User, error)
	RequireActive(user *domain.User) (*domain.User, error)
	RequireVerified(user *domain.User) (*domain.User, error)

	UpdateSelf(ctx context.Context, current *domain.User, input dto.UserUpdate) (*dto.PublicUser, error)
	Users(ctx context.Context, offset, limit int) ([]*dto.PublicUser, error)
	UserByID(ctx context.Context, id domain.UserID) (*dto.PublicUser, error)
}
