package repository

import (
	"gorm.io/gorm"
)

// Store bundles every repository over one database handle. Services receive a
// Store instead of a raw *gorm.DB, and run multi-statement writes through
// Atomically so header, line, stock and ledger writes commit or roll back as
// one unit.
type Store interface {
	Materials() MaterialRepository
	Movements() MovementRepository
	Clients() ClientRepository
	Transactions() TransactionRepository
	Users() UserRepository

	// Atomically executes fn inside a single database transaction.
	// Repositories obtained from the Store passed to fn share that
	// transaction; returning an error rolls everything back.
	Atomically(fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Materials() MaterialRepository       { return &materialRepo{s.db} }
func (s *gormStore) Movements() MovementRepository       { return &movementRepo{s.db} }
func (s *gormStore) Clients() ClientRepository           { return &clientRepo{s.db} }
func (s *gormStore) Transactions() TransactionRepository { return &transactionRepo{s.db} }
func (s *gormStore) Users() UserRepository               { return &userRepo{s.db} }

func (s *gormStore) Atomically(fn func(tx Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
