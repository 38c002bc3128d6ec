package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"identity/internal/domain"
)

// maxPageSize bounds List results regardless of what the caller asks for.
const maxPageSize = 100

// Handlers supplies the entity-specific glue an EntityStore needs.
// Each persisted type registers explicit mapping functions here instead
// of the store copying fields reflectively.
type Handlers[T any, C any, U any] struct {
	// NewRecord builds a fresh record from a creation input. Identifier
	// and creation timestamp are left zero; the store assigns them.
	// Entity hooks (hashing, derived fields) belong in here.
	NewRecord func(input C) (*T, error)
	// GetID reports the record's primary identifier.
	GetID func(rec *T) uuid.UUID
	// SetIdentity stamps the store-assigned identifier and creation time.
	SetIdentity func(rec *T, id uuid.UUID, now time.Time)
	// Changes maps an update input to column assignments for the fields
	// actually present in the input. Absent fields must not appear.
	Changes func(input U) (map[string]any, error)
}

// EntityStore implements CRUD for one persisted type. It knows nothing
// entity-specific beyond what its Handlers tell it. Reads go straight to
// the handle; writes run through Store.WithTx.
type EntityStore[T any, C any, U any] struct {
	store *Store
	h     Handlers[T, C, U]
}

func NewEntityStore[T any, C any, U any](s *Store, h Handlers[T, C, U]) *EntityStore[T, C, U] {
	return &EntityStore[T, C, U]{store: s, h: h}
}

func (s *EntityStore[T, C, U]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var rec T
	if err := s.store.DB.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// List returns records in creation order. The page size is clamped to
// maxPageSize; a non-positive limit means one full page.
func (s *EntityStore[T, C, U]) List(ctx context.Context, offset, limit int) ([]T, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	var recs []T
	err := s.store.DB.WithContext(ctx).
		Order("created_at, id").
		Offset(offset).
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *EntityStore[T, C, U]) Create(ctx context.Context, input C) (*T, error) {
	rec, err := s.h.NewRecord(input)
	if err != nil {
		return nil, err
	}
	s.h.SetIdentity(rec, uuid.New(), time.Now().UTC())

	err = s.store.WithTx(ctx, func(tx *Store) error {
		return tx.DB.Create(rec).Error
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Update applies only the fields present in input and returns the
// refreshed record. An empty change set leaves the store untouched.
func (s *EntityStore[T, C, U]) Update(ctx context.Context, existing *T, input U) (*T, error) {
	changes, err := s.h.Changes(input)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return existing, nil
	}

	id := s.h.GetID(existing)
	var fresh T
	err = s.store.WithTx(ctx, func(tx *Store) error {
		res := tx.DB.Model(new(T)).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return tx.DB.First(&fresh, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &fresh, nil
}

// Remove deletes by id and returns the pre-deletion snapshot. A second
// call for the same id reports ErrNotFound, not a failure.
func (s *EntityStore[T, C, U]) Remove(ctx context.Context, id uuid.UUID) (*T, error) {
	var snapshot T
	err := s.store.WithTx(ctx, func(tx *Store) error {
		if err := tx.DB.First(&snapshot, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		return tx.DB.Delete(new(T), "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}
