package impl

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"identity/internal/domain"
	"identity/internal/dto"
	"identity/internal/observability/metrics"
	"identity/internal/service"
	"identity/internal/store"
)

// userStore is the slice of the user store this pipeline needs.
type userStore interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, offset, limit int) ([]domain.User, error)
	Create(ctx context.Context, input dto.UserCreate) (*domain.User, error)
	Update(ctx context.Context, existing *domain.User, input dto.UserUpdate) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

type IdentityServiceImpl struct {
	Store    userStore
	TService service.TokenService
	TokenTTL time.Duration
}

func NewIdentityServiceImpl(users *store.UserStore, tokens service.TokenService, tokenTTL time.Duration) *IdentityServiceImpl {
	return &IdentityServiceImpl{
		Store:    users,
		TService: tokens,
		TokenTTL: tokenTTL,
	}
}

func (s *IdentityServiceImpl) Register(ctx context.Context, input dto.UserCreate) (*dto.PublicUser, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrEmptyCredential
	}

	usr, err := s.Store.Create(ctx, input)
	if err != nil {
		metrics.AuthRegistrationsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	metrics.AuthRegistrationsTotal.WithLabelValues("success").Inc()
	slog.Info("user registered", "user_id", usr.ID)
	return dto.PublicUserFrom(usr), nil
}

// Login exchanges a credential pair for a bearer token. Every failure
// cause inside Authenticate is already collapsed to invalid credentials;
// this method adds nothing a caller could use to enumerate accounts.
func (s *IdentityServiceImpl) Login(ctx context.Context, email, password string) (*dto.TokenResponse, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	usr, err := s.Store.Authenticate(ctx, email, password)
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	token, err := s.TService.Issue(usr.ID.String(), s.TokenTTL)
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	metrics.AuthLoginsTotal.WithLabelValues("success").Inc()
	slog.Info("login succeeded", "user_id", usr.ID)
	return &dto.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.TokenTTL.Seconds()),
	}, nil
}

// Resolve turns a bearer token into the user it names. Bad signature,
// expiry, malformed subject and a subject that no longer resolves to a
// row all report ErrInvalidToken.
func (s *IdentityServiceImpl) Resolve(ctx context.Context, token string) (*domain.User, error) {
	subject, ok := s.TService.Decode(token)
	if !ok {
		return nil, domain.ErrInvalidToken
	}

	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	usr, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	return usr, nil
}

func (s *IdentityServiceImpl) RequireActive(user *domain.User) (*domain.User, error) {
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}
	return user, nil
}

// RequireVerified is strictly additive over RequireActive: there is no
// path to the verified level that skips the active check.
func (s *IdentityServiceImpl) RequireVerified(user *domain.User) (*domain.User, error) {
	usr, err := s.RequireActive(user)
	if err != nil {
		return nil, err
	}
	if !usr.IsVerified {
		return nil, domain.ErrUserUnverified
	}
	return usr, nil
}

func (s *IdentityServiceImpl) UpdateSelf(ctx context.Context, current *domain.User, input dto.UserUpdate) (*dto.PublicUser, error) {
	if input.Email != nil && *input.Email != current.Email {
		other, err := s.Store.GetByEmail(ctx, *input.Email)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if other != nil && other.ID != current.ID {
			return nil, domain.ErrEmailTaken
		}
	}

	usr, err := s.Store.Update(ctx, current, input)
	if err != nil {
		return nil, err
	}
	return dto.PublicUserFrom(usr), nil
}

func (s *IdentityServiceImpl) Users(ctx context.Context, offset, limit int) ([]*dto.PublicUser, error) {
	recs, err := s.Store.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.PublicUser, 0, len(recs))
	for i := range recs {
		out = append(out, dto.PublicUserFrom(&recs[i]))
	}
	return out, nil
}

func (s *IdentityServiceImpl) UserByID(ctx context.Context, id domain.UserID) (*dto.PublicUser, error) {
	usr, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.PublicUserFrom(usr), nil
}
