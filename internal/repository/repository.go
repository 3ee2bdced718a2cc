package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/Dan9191/finance-scheduler/internal/models"
)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation (error code 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// persistence wraps a storage error into the scheduler's taxonomy,
// translating unique violations into conflicts.
func persistence(op string, err error) error {
	if isUniqueViolation(err) {
		return &models.ConflictError{Resource: op}
	}
	return &models.PersistenceError{Op: op, Err: err}
}
