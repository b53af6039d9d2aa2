// Package catalog persists artists, releases, tracks, tags, links, user
// actions and the external identity map in SQLite.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const linkTypeCacheSize = 256

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the database handle and the caches shared across queries.
type Store struct {
	db        *sql.DB
	linkTypes *lru.Cache[string, int64]
	logger    *slog.Logger
}

// NewStore creates a Store on an open, migrated database.
func NewStore(db *sql.DB, logger *slog.Logger) (*Store, error) {
	cache, err := lru.New[string, int64](linkTypeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating link type cache: %w", err)
	}
	return &Store{
		db:        db,
		linkTypes: cache,
		logger:    logger.With(slog.String("component", "catalog")),
	}, nil
}

// Queries returns query functions bound to the database handle outside of
// any transaction.
func (s *Store) Queries() *Queries {
	return &Queries{db: s.db, linkTypes: s.linkTypes}
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise. Cache entries written during a
// rolled-back transaction are evicted.
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is a no-op after commit

	q := &Queries{db: tx, linkTypes: s.linkTypes, inTx: true}
	if err := fn(q); err != nil {
		q.evictWritten()
		s.logger.Debug("transaction rolled back", slog.String("error", err.Error()))
		return err
	}
	if err := tx.Commit(); err != nil {
		q.evictWritten()
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Queries holds the query functions for one connection or transaction.
type Queries struct {
	db        DBTX
	linkTypes *lru.Cache[string, int64]
	inTx      bool
	written   []string
}

func (q *Queries) evictWritten() {
	for _, key := range q.written {
		q.linkTypes.Remove(key)
	}
	q.written = nil
}

// Stats counts the rows of the core catalog tables.
type Stats struct {
	Artists       int `json:"artists"`
	Releases      int `json:"releases"`
	Tracks        int `json:"tracks"`
	Tags          int `json:"tags"`
	IdentityLinks int `json:"identity_links"`
	Duplications  int `json:"duplications"`
	Actions       int `json:"actions"`
}

// Stats returns row counts for the catalog tables.
func (q *Queries) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := q.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM artists),
			(SELECT COUNT(*) FROM releases),
			(SELECT COUNT(*) FROM tracks),
			(SELECT COUNT(*) FROM tags),
			(SELECT COUNT(*) FROM identity_links),
			(SELECT COUNT(*) FROM duplications),
			(SELECT COUNT(*) FROM actions)
	`).Scan(&st.Artists, &st.Releases, &st.Tracks, &st.Tags, &st.IdentityLinks, &st.Duplications, &st.Actions)
	if err != nil {
		return Stats{}, fmt.Errorf("counting catalog rows: %w", err)
	}
	return st, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// prefixed qualifies every column in a comma-separated list with prefix.
func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
