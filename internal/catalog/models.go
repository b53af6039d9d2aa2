package catalog

import (
	"fmt"
	"time"
)

// Artist is a catalogued artist.
type Artist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SortName  string    `json:"sort_name"`
	Slug      string    `json:"slug"`
	Type      string    `json:"type"`
	Biography string    `json:"biography"`
	PageTitle string    `json:"page_title"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cover holds cover image URLs at three resolutions.
type Cover struct {
	Max   string `json:"max"`
	Large string `json:"large"`
	Small string `json:"small"`
}

// Release is a catalogued release. Colors holds up to three hex colors
// extracted from the cover; empty entries are stored as NULL.
type Release struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	ReleaseType string    `json:"release_type"`
	ReleaseDate string    `json:"release_date"`
	Cover       Cover     `json:"cover"`
	Colors      [3]string `json:"colors"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Track belongs to exactly one release and is ordered by (Side, Position).
type Track struct {
	ID        string `json:"id"`
	ReleaseID string `json:"release_id"`
	Title     string `json:"title"`
	Side      int    `json:"side"`
	Position  int    `json:"position"`
	LengthMS  int    `json:"length_ms"`
}

// Tag is a genre or style label.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Link is a typed outbound URL.
type Link struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// IdentityKind names an identity map.
type IdentityKind string

// Identity kinds.
const (
	KindArtist       IdentityKind = "artist"
	KindReleaseGroup IdentityKind = "release_group"
	KindRelease      IdentityKind = "release"
)

// IdentityLink maps one external id to one internal id.
type IdentityLink struct {
	Kind       IdentityKind `json:"kind"`
	ExternalID string       `json:"external_id"`
	InternalID string       `json:"internal_id"`
}

// Duplication records that a re-import produced a second release instead
// of replacing the original. Rows are permanent history.
type Duplication struct {
	ID                string    `json:"id"`
	OriginalReleaseID string    `json:"original_release_id"`
	UpdatedReleaseID  string    `json:"updated_release_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// ActionKind is the discriminator of a user action.
type ActionKind string

// Action kinds. Each "un" kind cancels its counterpart.
const (
	ActionSave     ActionKind = "save"
	ActionUnsave   ActionKind = "unsave"
	ActionListen   ActionKind = "listen"
	ActionUnlisten ActionKind = "unlisten"
	ActionRate     ActionKind = "rate"
	ActionUnrate   ActionKind = "unrate"
	ActionPick     ActionKind = "pick"
	ActionUnpick   ActionKind = "unpick"
)

var undoes = map[ActionKind]ActionKind{
	ActionUnsave:   ActionSave,
	ActionUnlisten: ActionListen,
	ActionUnrate:   ActionRate,
	ActionUnpick:   ActionPick,
}

// Cancels returns the kind an undo action cancels, if any.
func (k ActionKind) Cancels() (ActionKind, bool) {
	base, ok := undoes[k]
	return base, ok
}

// Valid reports whether k is a known kind.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionSave, ActionListen, ActionRate, ActionPick:
		return true
	}
	_, ok := undoes[k]
	return ok
}

// RatingPayload carries the value of a rate action.
type RatingPayload struct {
	Value int `json:"value"`
}

// Action is one user action on a release or on one of its tracks. Rating
// is set for ActionRate and nil for every other kind; picks always target
// a track.
type Action struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Kind      ActionKind     `json:"kind"`
	ReleaseID string         `json:"release_id"`
	TrackID   string         `json:"track_id,omitempty"`
	Rating    *RatingPayload `json:"rating,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Validate checks that the payload matches the kind.
func (a *Action) Validate() error {
	if !a.Kind.Valid() {
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
	if a.UserID == "" || a.ReleaseID == "" {
		return fmt.Errorf("%s action requires user and release", a.Kind)
	}
	if (a.Kind == ActionRate) != (a.Rating != nil) {
		return fmt.Errorf("rating payload is required for rate actions only, got kind %s", a.Kind)
	}
	if a.Rating != nil && (a.Rating.Value < 0 || a.Rating.Value > 100) {
		return fmt.Errorf("rating %d out of range 0-100", a.Rating.Value)
	}
	if (a.Kind == ActionPick || a.Kind == ActionUnpick) && a.TrackID == "" {
		return fmt.Errorf("%s action requires a track", a.Kind)
	}
	return nil
}
