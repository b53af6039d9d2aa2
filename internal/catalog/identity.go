package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LookupIdentity returns the internal ID linked to an external ID.
func (q *Queries) LookupIdentity(ctx context.Context, kind IdentityKind, externalID string) (string, bool, error) {
	var id string
	err := q.db.QueryRowContext(ctx,
		`SELECT internal_id FROM identity_links WHERE kind = ? AND external_id = ?`,
		kind, externalID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("looking up %s identity %s: %w", kind, externalID, err)
	}
	return id, true, nil
}

// LinkIdentity maps an external ID to an internal ID, replacing any
// previous mapping of that external ID.
func (q *Queries) LinkIdentity(ctx context.Context, kind IdentityKind, externalID, internalID string) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO identity_links (kind, external_id, internal_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, external_id) DO UPDATE SET internal_id = excluded.internal_id
	`, kind, externalID, internalID, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("linking %s identity %s: %w", kind, externalID, err)
	}
	return nil
}

// UnlinkInternal removes every mapping that points at internalID.
func (q *Queries) UnlinkInternal(ctx context.Context, internalID string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM identity_links WHERE internal_id = ?`, internalID); err != nil {
		return fmt.Errorf("unlinking identities of %s: %w", internalID, err)
	}
	return nil
}

// ExternalIDs lists the external IDs of the given kind mapped to internalID.
func (q *Queries) ExternalIDs(ctx context.Context, kind IdentityKind, internalID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT external_id FROM identity_links WHERE kind = ? AND internal_id = ? ORDER BY external_id`,
		kind, internalID)
	if err != nil {
		return nil, fmt.Errorf("listing external ids: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning external id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// IdentityLinks lists every mapping of a kind.
func (q *Queries) IdentityLinks(ctx context.Context, kind IdentityKind) ([]IdentityLink, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT kind, external_id, internal_id FROM identity_links WHERE kind = ? ORDER BY external_id`, kind)
	if err != nil {
		return nil, fmt.Errorf("listing identity links: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []IdentityLink
	for rows.Next() {
		var l IdentityLink
		if err := rows.Scan(&l.Kind, &l.ExternalID, &l.InternalID); err != nil {
			return nil, fmt.Errorf("scanning identity link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
