// Package store is the persistent key-value store behind the policy.
//
// It mirrors a browser extension's local storage: string keys, JSON
// values, no versioning. The policy lives under three keys (mode,
// excludedDomains, includedDomains); ReadSnapshot turns them into a
// policy.Snapshot with defaults applied for absent keys.
package store

import (
	"database/sql"
	"fmt"

	"github.com/hazyhaar/vidctl/internal/dbopen"
	"github.com/hazyhaar/vidctl/policy"
)

// Store is the vidctl database handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, fmt.Errorf("store: %w: %w", policy.ErrStorageUnavailable, err)
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("store: %s: %w: %w", op, policy.ErrStorageUnavailable, err)
}
