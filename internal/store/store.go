// Package store owns all durable state: mail jobs, delivery logs, and
// the read-only slices of groups, certificates, and transport rows the
// engine consumes.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a row does not exist. Callers distinguish
// it from infrastructure failures with errors.Is.
var ErrNotFound = errors.New("store: not found")

type Store struct {
	Pool *pgxpool.Pool
}

func New(conn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), conn)
	if err != nil {
		return nil, err
	}

	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}
