package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ewm-participation/internal/repository"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
	repository.EventRepository
	repository.RequestRepository
	repository.AdjustmentRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                   db,
		EventRepository:      NewEventRepository(db),
		RequestRepository:    NewRequestRepository(db),
		AdjustmentRepository: NewAdjustmentRepository(db),
	}
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
