package repository

import (
	"context"
)

// Store groups the repositories that share one connection or transaction.
type Store struct {
	db *DB

	Challenges *ChallengeRepository
	Statuses   *StatusRepository
	Vectors    *VectorRepository
	SkillTests *SkillTestRepository
	Users      *UserRepository
	Badges     *BadgeRepository
}

// NewStore creates a store over db.
func NewStore(db *DB) *Store {
	return &Store{
		db:         db,
		Challenges: NewChallengeRepository(db),
		Statuses:   NewStatusRepository(db),
		Vectors:    NewVectorRepository(db),
		SkillTests: NewSkillTestRepository(db),
		Users:      NewUserRepository(db),
		Badges:     NewBadgeRepository(db),
	}
}

// DB returns the underlying connection.
func (s *Store) DB() *DB {
	return s.db
}

// Transaction runs fn with a store whose repositories all share one transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.Transaction(ctx, func(tx *DB) error {
		return fn(NewStore(tx))
	})
}
