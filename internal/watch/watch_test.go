package watch

import (
	"context"
	"database/sql"
	"sync/atomic"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec(`CREATE TABLE kv (key TEXT PRIMARY KEY, updated_at INTEGER NOT NULL)`); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestMaxColumnDetector(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	detect := MaxColumnDetector("kv", "updated_at")

	v, err := detect(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Fatalf("empty table: got %d, want 0", v)
	}

	db.Exec(`INSERT INTO kv (key, updated_at) VALUES ('mode', 42)`)
	if v, _ = detect(ctx, db); v != 42 {
		t.Fatalf("after insert: got %d, want 42", v)
	}
}

func TestOnChange_FiresOnceAfterDebounce(t *testing.T) {
	db := testDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New(db, Options{
		Interval: 10 * time.Millisecond,
		Debounce: 30 * time.Millisecond,
		Detector: MaxColumnDetector("kv", "updated_at"),
	})

	var fired atomic.Int64
	done := make(chan struct{})
	go func() {
		w.OnChange(ctx, func() error {
			fired.Add(1)
			return nil
		})
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	db.Exec(`INSERT INTO kv (key, updated_at) VALUES ('mode', 7)`)

	deadline := time.Now().Add(2 * time.Second)
	for w.Version() != 7 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if fired.Load() != 1 {
		t.Fatalf("fired: got %d, want 1", fired.Load())
	}
	if w.Version() != 7 {
		t.Errorf("Version: got %d, want 7", w.Version())
	}

	cancel()
	<-done
}
