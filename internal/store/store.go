package store

import (
	"context"

	"gorm.io/gorm"
)

// Store carries the database handle the entity stores build on.
type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{DB: db} }

// WithTx runs fn inside a single transaction. fn receives a Store bound
// to that transaction; the whole unit commits or rolls back together.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{DB: tx})
	})
}
