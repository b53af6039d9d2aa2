package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sydlexius/cadence/internal/slug"
)

// GetTagByName retrieves a tag by exact name.
func (q *Queries) GetTagByName(ctx context.Context, name string) (*Tag, error) {
	var t Tag
	err := q.db.QueryRowContext(ctx, `SELECT id, name, slug FROM tags WHERE name = ?`, name).
		Scan(&t.ID, &t.Name, &t.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tag %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting tag: %w", err)
	}
	return &t, nil
}

// CreateTag inserts a new tag, assigning an ID when empty.
func (q *Queries) CreateTag(ctx context.Context, t *Tag) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if _, err := q.db.ExecContext(ctx, `INSERT INTO tags (id, name, slug) VALUES (?, ?, ?)`,
		t.ID, t.Name, t.Slug); err != nil {
		return fmt.Errorf("creating tag %q: %w", t.Name, err)
	}
	return nil
}

// SetReleaseTags replaces the tag applications of a release.
func (q *Queries) SetReleaseTags(ctx context.Context, releaseID string, tagIDs []string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM release_tags WHERE release_id = ?`, releaseID); err != nil {
		return fmt.Errorf("clearing release tags: %w", err)
	}
	for _, id := range tagIDs {
		_, err := q.db.ExecContext(ctx, `
			INSERT INTO release_tags (release_id, tag_id) VALUES (?, ?)
			ON CONFLICT (release_id, tag_id) DO NOTHING
		`, releaseID, id)
		if err != nil {
			return fmt.Errorf("tagging release: %w", err)
		}
	}
	return nil
}

// ReleaseTags lists the tags applied to a release ordered by name.
func (q *Queries) ReleaseTags(ctx context.Context, releaseID string) ([]Tag, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug FROM tags t
		JOIN release_tags rt ON rt.tag_id = t.id
		WHERE rt.release_id = ?
		ORDER BY t.name
	`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("listing release tags: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

var slugTables = map[slug.Namespace]string{
	slug.Artists:  "artists",
	slug.Releases: "releases",
	slug.Tags:     "tags",
}

// SlugTaken implements slug.Checker.
func (q *Queries) SlugTaken(ctx context.Context, ns slug.Namespace, s string) (bool, error) {
	table, ok := slugTables[ns]
	if !ok {
		return false, fmt.Errorf("unknown slug namespace %q", ns)
	}
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE slug = ?`, s).Scan(&n) //nolint:gosec // G202: table is from a fixed map
	if err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}
	return n > 0, nil
}

var _ slug.Checker = (*Queries)(nil)
