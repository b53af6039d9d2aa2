package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// LinkTypeID returns the ID of the named link type, creating it on first
// use. Lookups are served from a bounded LRU cache keyed by name.
func (q *Queries) LinkTypeID(ctx context.Context, name string) (int64, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "other"
	}
	if id, ok := q.linkTypes.Get(name); ok {
		return id, nil
	}

	var id int64
	err := q.db.QueryRowContext(ctx, `SELECT id FROM link_types WHERE name = ?`, name).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := q.db.ExecContext(ctx, `INSERT INTO link_types (name) VALUES (?)`, name)
		if err != nil {
			return 0, fmt.Errorf("creating link type %q: %w", name, err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("reading link type id: %w", err)
		}
		if q.inTx {
			q.written = append(q.written, name)
		}
	case err != nil:
		return 0, fmt.Errorf("looking up link type %q: %w", name, err)
	}

	q.linkTypes.Add(name, id)
	return id, nil
}

func (q *Queries) links(ctx context.Context, query string, args ...any) ([]Link, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.Type, &l.URL); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
