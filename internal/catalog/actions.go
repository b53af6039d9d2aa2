package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordAction stores a user action and updates the active-action summary:
// a regular action becomes the active one for its (user, kind, target), an
// undo action clears the kind it cancels.
func (q *Queries) RecordAction(ctx context.Context, a *Action) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	var rating sql.NullInt64
	if a.Rating != nil {
		rating = sql.NullInt64{Int64: int64(a.Rating.Value), Valid: true}
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO actions (id, user_id, kind, release_id, track_id, rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.UserID, a.Kind, a.ReleaseID, nullString(a.TrackID), rating, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("recording %s action: %w", a.Kind, err)
	}

	if base, ok := a.Kind.Cancels(); ok {
		_, err = q.db.ExecContext(ctx, `
			DELETE FROM active_actions
			WHERE user_id = ? AND kind = ? AND release_id = ? AND track_id = ?
		`, a.UserID, base, a.ReleaseID, a.TrackID)
	} else {
		_, err = q.db.ExecContext(ctx, `
			INSERT INTO active_actions (user_id, kind, release_id, track_id, action_id)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (user_id, kind, release_id, track_id) DO UPDATE SET action_id = excluded.action_id
		`, a.UserID, a.Kind, a.ReleaseID, a.TrackID, a.ID)
	}
	if err != nil {
		return fmt.Errorf("updating active actions: %w", err)
	}
	return nil
}

// Actions lists every action attached to a release or its tracks, oldest
// first.
func (q *Queries) Actions(ctx context.Context, releaseID string) ([]Action, error) {
	return q.queryActions(ctx, `
		SELECT id, user_id, kind, release_id, track_id, rating, created_at
		FROM actions WHERE release_id = ?
		ORDER BY created_at, id
	`, releaseID)
}

// ActiveActions lists the actions currently active for a release.
func (q *Queries) ActiveActions(ctx context.Context, releaseID string) ([]Action, error) {
	return q.queryActions(ctx, `
		SELECT a.id, a.user_id, a.kind, aa.release_id, a.track_id, a.rating, a.created_at
		FROM active_actions aa JOIN actions a ON a.id = aa.action_id
		WHERE aa.release_id = ?
		ORDER BY a.created_at, a.id
	`, releaseID)
}

// ActionedTrackIDs returns the IDs of the release's tracks that carry at
// least one action.
func (q *Queries) ActionedTrackIDs(ctx context.Context, releaseID string) (map[string]bool, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT DISTINCT a.track_id FROM actions a
		JOIN tracks t ON t.id = a.track_id
		WHERE t.release_id = ?
	`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("listing actioned tracks: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning actioned track: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// RepointRelease moves every action, active action and duplication record
// referencing release from onto release to.
func (q *Queries) RepointRelease(ctx context.Context, from, to string) error {
	stmts := []string{
		`UPDATE actions SET release_id = ? WHERE release_id = ?`,
		`UPDATE active_actions SET release_id = ? WHERE release_id = ?`,
		`UPDATE duplications SET original_release_id = ? WHERE original_release_id = ?`,
		`UPDATE duplications SET updated_release_id = ? WHERE updated_release_id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := q.db.ExecContext(ctx, stmt, to, from); err != nil {
			return fmt.Errorf("re-pointing release %s: %w", from, err)
		}
	}
	return nil
}

// RepointTrack moves every action and active action referencing track from
// onto track to.
func (q *Queries) RepointTrack(ctx context.Context, from, to string) error {
	if _, err := q.db.ExecContext(ctx, `UPDATE actions SET track_id = ? WHERE track_id = ?`, to, from); err != nil {
		return fmt.Errorf("re-pointing track %s: %w", from, err)
	}
	if _, err := q.db.ExecContext(ctx, `UPDATE active_actions SET track_id = ? WHERE track_id = ?`, to, from); err != nil {
		return fmt.Errorf("re-pointing active track %s: %w", from, err)
	}
	return nil
}

// CreateDuplication records that updated was imported alongside original.
func (q *Queries) CreateDuplication(ctx context.Context, original, updated string) (*Duplication, error) {
	d := &Duplication{
		ID:                uuid.New().String(),
		OriginalReleaseID: original,
		UpdatedReleaseID:  updated,
		CreatedAt:         time.Now().UTC(),
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO duplications (id, original_release_id, updated_release_id, created_at)
		VALUES (?, ?, ?, ?)
	`, d.ID, d.OriginalReleaseID, d.UpdatedReleaseID, formatTime(d.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("creating duplication: %w", err)
	}
	return d, nil
}

// Duplications lists every duplication record, oldest first.
func (q *Queries) Duplications(ctx context.Context) ([]Duplication, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, original_release_id, updated_release_id, created_at
		FROM duplications ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing duplications: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Duplication
	for rows.Next() {
		var d Duplication
		var createdAt string
		if err := rows.Scan(&d.ID, &d.OriginalReleaseID, &d.UpdatedReleaseID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning duplication: %w", err)
		}
		d.CreatedAt = parseTime(createdAt)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (q *Queries) queryActions(ctx context.Context, query string, args ...any) ([]Action, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing actions: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Action
	for rows.Next() {
		var a Action
		var trackID sql.NullString
		var rating sql.NullInt64
		var createdAt string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Kind, &a.ReleaseID, &trackID, &rating, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}
		a.TrackID = trackID.String
		if a.Kind == ActionRate && rating.Valid {
			a.Rating = &RatingPayload{Value: int(rating.Int64)}
		}
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}
