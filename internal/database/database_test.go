package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenAndMigrate(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "nested", "cadence.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// Running twice is a no-op.
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	for _, table := range []string{"artists", "releases", "tracks", "identity_links", "duplications", "actions"} {
		var name string
		err := db.QueryRowContext(context.Background(),
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var on int
	if err := db.QueryRowContext(context.Background(), `PRAGMA foreign_keys`).Scan(&on); err != nil {
		t.Fatalf("reading pragma: %v", err)
	}
	if on != 1 {
		t.Errorf("foreign_keys = %d, want 1", on)
	}
}

func TestStatusAndOptimize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadence.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	ctx := context.Background()
	if err := Optimize(ctx, db); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	st, err := ReadStatus(ctx, db, path)
	if err != nil {
		t.Fatalf("ReadStatus: %v", err)
	}
	if st.PageCount == 0 || st.PageSize == 0 {
		t.Errorf("status = %+v, want non-zero page counters", st)
	}
	if st.DBFileSize == 0 {
		t.Errorf("DBFileSize = 0, want the file on disk")
	}
}
