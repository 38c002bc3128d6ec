package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"identity/internal/domain"
	"identity/internal/dto"
	"identity/internal/service"
)

// UserStore specializes EntityStore for users: email lookup, password
// hashing on create/update, uniqueness mapping, and credential checks.
type UserStore struct {
	*EntityStore[domain.User, dto.UserCreate, dto.UserUpdate]
	db     *gorm.DB
	hasher service.PasswordService
}

func NewUserStore(s *Store, hasher service.PasswordService) *UserStore {
	h := Handlers[domain.User, dto.UserCreate, dto.UserUpdate]{
		NewRecord: func(in dto.UserCreate) (*domain.User, error) {
			// The plaintext stops here; only the hash is ever persisted.
			hash, err := hasher.Hash(in.Password)
			if err != nil {
				return nil, err
			}
			return &domain.User{
				Email:        in.Email,
				PasswordHash: hash,
				IsActive:     true,
				IsVerified:   false,
			}, nil
		},
		GetID: func(u *domain.User) uuid.UUID { return u.ID },
		SetIdentity: func(u *domain.User, id uuid.UUID, now time.Time) {
			u.ID = id
			u.CreatedAt = now
		},
		Changes: func(in dto.UserUpdate) (map[string]any, error) {
			changes := map[string]any{}
			if in.Email != nil {
				changes["email"] = *in.Email
			}
			if in.Password != nil {
				hash, err := hasher.Hash(*in.Password)
				if err != nil {
					return nil, err
				}
				changes["password_hash"] = hash
			}
			if in.IsActive != nil {
				changes["is_active"] = *in.IsActive
			}
			if in.IsVerified != nil {
				changes["is_verified"] = *in.IsVerified
			}
			return changes, nil
		},
	}

	return &UserStore{
		EntityStore: NewEntityStore(s, h),
		db:          s.DB,
		hasher:      hasher,
	}
}

func (u *UserStore) Create(ctx context.Context, input dto.UserCreate) (*domain.User, error) {
	rec, err := u.EntityStore.Create(ctx, input)
	if err != nil {
		return nil, translateUnique(err)
	}
	return rec, nil
}

func (u *UserStore) Update(ctx context.Context, existing *domain.User, input dto.UserUpdate) (*domain.User, error) {
	rec, err := u.EntityStore.Update(ctx, existing, input)
	if err != nil {
		return nil, translateUnique(err)
	}
	return rec, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var usr domain.User
	if err := u.db.WithContext(ctx).First(&usr, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &usr, nil
}

// Authenticate checks a credential pair. Unknown email, disabled account
// and wrong password all collapse into ErrInvalidCredentials so callers
// cannot enumerate accounts.
func (u *UserStore) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	usr, err := u.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !usr.IsActive {
		return nil, domain.ErrInvalidCredentials
	}
	if !u.hasher.Verify(password, usr.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return usr, nil
}

// translateUnique maps the driver's duplicate-key error onto the email
// uniqueness conflict. users has a single unique index, so any duplicate
// here is an email collision.
func translateUnique(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrEmailTaken
	}
	return err
}
