package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const releaseColumns = `id, title, slug, release_type, release_date,
	cover_max, cover_500, cover_250, color_1, color_2, color_3,
	created_at, updated_at`

// CreateRelease inserts a new release, assigning an ID when empty.
func (q *Queries) CreateRelease(ctx context.Context, r *Release) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO releases (`+releaseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.Title, r.Slug, r.ReleaseType, r.ReleaseDate,
		r.Cover.Max, r.Cover.Large, r.Cover.Small,
		nullString(r.Colors[0]), nullString(r.Colors[1]), nullString(r.Colors[2]),
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("creating release: %w", err)
	}
	return nil
}

// UpdateRelease writes the descriptive fields, cover and palette of a
// release. The slug is changed only through SetReleaseSlug.
func (q *Queries) UpdateRelease(ctx context.Context, r *Release) error {
	r.UpdatedAt = time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		UPDATE releases SET title = ?, release_type = ?, release_date = ?,
			cover_max = ?, cover_500 = ?, cover_250 = ?,
			color_1 = ?, color_2 = ?, color_3 = ?, updated_at = ?
		WHERE id = ?
	`,
		r.Title, r.ReleaseType, r.ReleaseDate,
		r.Cover.Max, r.Cover.Large, r.Cover.Small,
		nullString(r.Colors[0]), nullString(r.Colors[1]), nullString(r.Colors[2]),
		formatTime(r.UpdatedAt), r.ID,
	)
	if err != nil {
		return fmt.Errorf("updating release: %w", err)
	}
	return requireRow(res, "release", r.ID)
}

// SetReleaseSlug assigns a new slug to a release.
func (q *Queries) SetReleaseSlug(ctx context.Context, id, slug string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE releases SET slug = ?, updated_at = ? WHERE id = ?`,
		slug, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("setting release slug: %w", err)
	}
	return requireRow(res, "release", id)
}

// GetRelease retrieves a release by ID.
func (q *Queries) GetRelease(ctx context.Context, id string) (*Release, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+releaseColumns+` FROM releases WHERE id = ?`, id)
	r, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("release %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting release: %w", err)
	}
	return r, nil
}

// GetReleaseBySlug retrieves a release by slug.
func (q *Queries) GetReleaseBySlug(ctx context.Context, slug string) (*Release, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+releaseColumns+` FROM releases WHERE slug = ?`, slug)
	r, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("release %s: %w", slug, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting release by slug: %w", err)
	}
	return r, nil
}

// ListReleasesByArtist lists the releases credited to an artist, oldest
// first.
func (q *Queries) ListReleasesByArtist(ctx context.Context, artistID string) ([]Release, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+prefixed("r.", releaseColumns)+` FROM releases r
		JOIN release_artists ra ON ra.release_id = r.id
		WHERE ra.artist_id = ?
		ORDER BY r.release_date, r.title, r.id
	`, artistID)
	if err != nil {
		return nil, fmt.Errorf("listing releases: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Release
	for rows.Next() {
		r, err := scanRelease(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning release: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// DeleteRelease removes a release. Its tracks, credits, links and tag
// applications cascade. Actions must be re-pointed first.
func (q *Queries) DeleteRelease(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM releases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting release: %w", err)
	}
	return requireRow(res, "release", id)
}

// CreateTracks inserts the tracks of a release, assigning IDs when empty.
func (q *Queries) CreateTracks(ctx context.Context, releaseID string, tracks []Track) error {
	for i := range tracks {
		t := &tracks[i]
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		t.ReleaseID = releaseID
		_, err := q.db.ExecContext(ctx, `
			INSERT INTO tracks (id, release_id, title, side, position, length_ms)
			VALUES (?, ?, ?, ?, ?, ?)
		`, t.ID, releaseID, t.Title, t.Side, t.Position, t.LengthMS)
		if err != nil {
			return fmt.Errorf("creating track %d.%d: %w", t.Side, t.Position, err)
		}
	}
	return nil
}

// UpdateTrack writes the title and length of a track.
func (q *Queries) UpdateTrack(ctx context.Context, t *Track) error {
	res, err := q.db.ExecContext(ctx, `UPDATE tracks SET title = ?, length_ms = ? WHERE id = ?`,
		t.Title, t.LengthMS, t.ID)
	if err != nil {
		return fmt.Errorf("updating track: %w", err)
	}
	return requireRow(res, "track", t.ID)
}

// Tracks lists the tracks of a release ordered by side then position.
func (q *Queries) Tracks(ctx context.Context, releaseID string) ([]Track, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, release_id, title, side, position, length_ms
		FROM tracks WHERE release_id = ?
		ORDER BY side, position
	`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("listing tracks: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.ID, &t.ReleaseID, &t.Title, &t.Side, &t.Position, &t.LengthMS); err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetReleaseArtists replaces the artist credits of a release. Order is
// preserved as the credit position.
func (q *Queries) SetReleaseArtists(ctx context.Context, releaseID string, artistIDs []string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM release_artists WHERE release_id = ?`, releaseID); err != nil {
		return fmt.Errorf("clearing release artists: %w", err)
	}
	for i, id := range artistIDs {
		_, err := q.db.ExecContext(ctx, `
			INSERT INTO release_artists (release_id, artist_id, position) VALUES (?, ?, ?)
			ON CONFLICT (release_id, artist_id) DO NOTHING
		`, releaseID, id, i)
		if err != nil {
			return fmt.Errorf("crediting artist %s: %w", id, err)
		}
	}
	return nil
}

// ReleaseArtists lists the credited artist IDs of a release in order.
func (q *Queries) ReleaseArtists(ctx context.Context, releaseID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT artist_id FROM release_artists WHERE release_id = ? ORDER BY position`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("listing release artists: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning release artist: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// AddReleaseLink attaches a typed URL to a release. Duplicate URLs are
// ignored.
func (q *Queries) AddReleaseLink(ctx context.Context, releaseID string, l Link) error {
	typeID, err := q.LinkTypeID(ctx, l.Type)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO release_links (id, release_id, link_type_id, url)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (release_id, url) DO NOTHING
	`, uuid.New().String(), releaseID, typeID, l.URL)
	if err != nil {
		return fmt.Errorf("adding release link: %w", err)
	}
	return nil
}

// ReleaseLinks lists the links of a release ordered by type then URL.
func (q *Queries) ReleaseLinks(ctx context.Context, releaseID string) ([]Link, error) {
	return q.links(ctx, `
		SELECT lt.name, l.url FROM release_links l
		JOIN link_types lt ON lt.id = l.link_type_id
		WHERE l.release_id = ?
		ORDER BY lt.name, l.url
	`, releaseID)
}

func scanRelease(row interface{ Scan(...any) error }) (*Release, error) {
	var r Release
	var c1, c2, c3 sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&r.ID, &r.Title, &r.Slug, &r.ReleaseType, &r.ReleaseDate,
		&r.Cover.Max, &r.Cover.Large, &r.Cover.Small, &c1, &c2, &c3,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	r.Colors = [3]string{c1.String, c2.String, c3.String}
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}
