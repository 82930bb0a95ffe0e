package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/hazyhaar/vidctl/internal/dbopen"
	"github.com/hazyhaar/vidctl/policy"
)

// Get returns the raw JSON values of the requested keys in one query.
// Absent keys are absent from the map.
func (s *Store) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	q := `SELECT key, value FROM kv WHERE key IN (?` + strings.Repeat(`, ?`, len(keys)-1) + `)`

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, unavailable("get", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, unavailable("get", err)
		}
		out[k] = json.RawMessage(v)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("get", err)
	}
	return out, nil
}

// Set writes every key of values as JSON in one transaction.
func (s *Store) Set(ctx context.Context, values map[string]any) error {
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		for k, v := range values {
			if err := put(ctx, tx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return unavailable("set", err)
	}
	return nil
}

// SetIfAbsent writes key only when it is not stored yet and reports
// whether it did.
func (s *Store) SetIfAbsent(ctx context.Context, key string, value any) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	res, err := dbopen.Exec(ctx, s.DB, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO NOTHING`,
		key, string(data), time.Now().UnixNano())
	if err != nil {
		return false, unavailable("set if absent", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// UpdateFunc receives the current raw value (nil when absent) and returns
// the value to store.
type UpdateFunc func(current json.RawMessage) (any, error)

// errFromFn marks errors returned by an UpdateFunc so they are passed
// through unwrapped.
type errFromFn struct{ err error }

func (e errFromFn) Error() string { return e.err.Error() }
func (e errFromFn) Unwrap() error { return e.err }

// Update performs a read-modify-write of key in one transaction. Errors
// returned by fn are returned as is.
func (s *Store) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return s.update(ctx, func(*sql.Tx) (string, error) { return key, nil }, fn)
}

// UpdateList performs a read-modify-write of a domain list in one
// transaction. An empty key selects the list of the stored mode, read in
// that same transaction, and the key actually written is returned.
func (s *Store) UpdateList(ctx context.Context, key policy.ListKey, fn UpdateFunc) (policy.ListKey, error) {
	var used policy.ListKey
	err := s.update(ctx, func(tx *sql.Tx) (string, error) {
		used = key
		if used == "" {
			raw, err := get(ctx, tx, policy.KeyMode)
			if err != nil {
				return "", err
			}
			used = decodeMode(raw).ActiveList()
		}
		return string(used), nil
	}, fn)
	return used, err
}

func (s *Store) update(ctx context.Context, keyFn func(*sql.Tx) (string, error), fn UpdateFunc) error {
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		key, err := keyFn(tx)
		if err != nil {
			return err
		}
		current, err := get(ctx, tx, key)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return errFromFn{err}
		}
		return put(ctx, tx, key, next)
	})

	var fe errFromFn
	if errors.As(err, &fe) {
		return fe.err
	}
	if err != nil {
		return unavailable("update", err)
	}
	return nil
}

// get reads one raw value inside tx; nil when absent.
func get(ctx context.Context, tx *sql.Tx, key string) (json.RawMessage, error) {
	var raw string
	err := tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func put(ctx context.Context, tx *sql.Tx, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UnixNano())
	return err
}
