package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const artistColumns = `id, name, sort_name, slug, type, biography, page_title, image_url, created_at, updated_at`

// CreateArtist inserts a new artist, assigning an ID when empty.
func (q *Queries) CreateArtist(ctx context.Context, a *Artist) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO artists (`+artistColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, a.Name, a.SortName, a.Slug, a.Type, a.Biography, a.PageTitle, a.ImageURL,
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("creating artist: %w", err)
	}
	return nil
}

// UpdateArtist writes the descriptive fields of an artist. The slug is
// left untouched.
func (q *Queries) UpdateArtist(ctx context.Context, a *Artist) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		UPDATE artists SET name = ?, sort_name = ?, type = ?, biography = ?,
			page_title = ?, image_url = ?, updated_at = ?
		WHERE id = ?
	`,
		a.Name, a.SortName, a.Type, a.Biography, a.PageTitle, a.ImageURL,
		formatTime(a.UpdatedAt), a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating artist: %w", err)
	}
	return requireRow(res, "artist", a.ID)
}

// GetArtist retrieves an artist by ID.
func (q *Queries) GetArtist(ctx context.Context, id string) (*Artist, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE id = ?`, id)
	a, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artist %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting artist: %w", err)
	}
	return a, nil
}

// GetArtistBySlug retrieves an artist by slug.
func (q *Queries) GetArtistBySlug(ctx context.Context, slug string) (*Artist, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE slug = ?`, slug)
	a, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artist %s: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting artist by slug: %w", err)
	}
	return a, nil
}

// AddArtistLink attaches a typed URL to an artist. Duplicate URLs are
// ignored.
func (q *Queries) AddArtistLink(ctx context.Context, artistID string, l Link) error {
	typeID, err := q.LinkTypeID(ctx, l.Type)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO artist_links (id, artist_id, link_type_id, url)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (artist_id, url) DO NOTHING
	`, uuid.New().String(), artistID, typeID, l.URL)
	if err != nil {
		return fmt.Errorf("adding artist link: %w", err)
	}
	return nil
}

// ArtistLinks lists the links of an artist ordered by type then URL.
func (q *Queries) ArtistLinks(ctx context.Context, artistID string) ([]Link, error) {
	return q.links(ctx, `
		SELECT lt.name, l.url FROM artist_links l
		JOIN link_types lt ON lt.id = l.link_type_id
		WHERE l.artist_id = ?
		ORDER BY lt.name, l.url
	`, artistID)
}

func scanArtist(row interface{ Scan(...any) error }) (*Artist, error) {
	var a Artist
	var createdAt, updatedAt string
	err := row.Scan(&a.ID, &a.Name, &a.SortName, &a.Slug, &a.Type, &a.Biography,
		&a.PageTitle, &a.ImageURL, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}

func requireRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking %s update: %w", entity, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}
