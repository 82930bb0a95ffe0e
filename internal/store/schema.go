package store

// Schema is the DDL of the key-value table. updated_at is in Unix
// nanoseconds and doubles as the change token polled by internal/watch.
const Schema = `
CREATE TABLE IF NOT EXISTS kv (
    key         TEXT PRIMARY KEY,
    value       TEXT NOT NULL,
    updated_at  INTEGER NOT NULL
);
`
