package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// Status reports on-disk size information for the catalog database.
type Status struct {
	DBFileSize  int64 `json:"db_file_size"`
	WALFileSize int64 `json:"wal_file_size"`
	PageCount   int64 `json:"page_count"`
	PageSize    int64 `json:"page_size"`
}

// ReadStatus collects file and page statistics. dbPath may be ":memory:",
// in which case only the page counters are filled.
func ReadStatus(ctx context.Context, db *sql.DB, dbPath string) (*Status, error) {
	st := &Status{}
	if info, err := os.Stat(dbPath); err == nil {
		st.DBFileSize = info.Size()
	}
	if info, err := os.Stat(dbPath + "-wal"); err == nil {
		st.WALFileSize = info.Size()
	}
	if err := db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&st.PageCount); err != nil {
		return nil, fmt.Errorf("reading page_count: %w", err)
	}
	if err := db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&st.PageSize); err != nil {
		return nil, fmt.Errorf("reading page_size: %w", err)
	}
	return st, nil
}

// Optimize runs PRAGMA optimize followed by a WAL checkpoint. An import run
// calls it once after its last write.
func Optimize(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return fmt.Errorf("PRAGMA optimize: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("WAL checkpoint: %w", err)
	}
	return nil
}
