// Package provider defines the contracts the importer consumes from external
// metadata sources, the record shapes they return, and the error taxonomy
// shared by every adapter.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProviderName uniquely identifies an external provider.
type ProviderName string

// Known provider names.
const (
	NameMusicBrainz ProviderName = "musicbrainz"
	NameCoverArt    ProviderName = "coverart"
	NameDiscogs     ProviderName = "discogs"
	NameWikipedia   ProviderName = "wikipedia"
)

// DisplayName returns a human-readable name for the provider.
func (n ProviderName) DisplayName() string {
	switch n {
	case NameMusicBrainz:
		return "MusicBrainz"
	case NameCoverArt:
		return "Cover Art Archive"
	case NameDiscogs:
		return "Discogs"
	case NameWikipedia:
		return "Wikipedia"
	default:
		return string(n)
	}
}

// URLRelation is an outbound link attached to an entity by the provider.
type URLRelation struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ArtistCredit is one entry of an artist-credit list. Entries with an empty
// ArtistID carry only joining text and are skipped by consumers.
type ArtistCredit struct {
	ArtistID   string `json:"artist_id,omitempty"`
	Name       string `json:"name,omitempty"`
	JoinPhrase string `json:"join_phrase,omitempty"`
}

// Artist is an external artist record.
type Artist struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	SortName       string        `json:"sort_name,omitempty"`
	Type           string        `json:"type,omitempty"`
	Disambiguation string        `json:"disambiguation,omitempty"`
	Links          []URLRelation `json:"links,omitempty"`
}

// ReleaseGroup is a provider-side grouping of pressings of one release.
type ReleaseGroup struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	PrimaryType      string         `json:"primary_type,omitempty"`
	SecondaryTypes   []string       `json:"secondary_types,omitempty"`
	FirstReleaseDate string         `json:"first_release_date,omitempty"`
	ArtistCredit     []ArtistCredit `json:"artist_credit,omitempty"`
	URLRelations     []URLRelation  `json:"url_relations,omitempty"`
}

// Release is one pressing inside a release-group, as returned by browse.
type Release struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Date         string        `json:"date,omitempty"`
	TrackCount   int           `json:"track_count"`
	URLRelations []URLRelation `json:"url_relations,omitempty"`
}

// Track is one track of a release detail. Side is the medium position.
type Track struct {
	Title    string `json:"title"`
	Side     int    `json:"side"`
	Position int    `json:"position"`
	LengthMS int    `json:"length_ms,omitempty"`
}

// ReleaseDetail is the full release lookup with its tracklist.
type ReleaseDetail struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Date         string         `json:"date,omitempty"`
	Tracks       []Track        `json:"tracks"`
	ArtistCredit []ArtistCredit `json:"artist_credit,omitempty"`
}

// CoverImage is one entry of a cover-art image list.
type CoverImage struct {
	Front      bool              `json:"front"`
	Image      string            `json:"image"`
	Thumbnails map[string]string `json:"thumbnails,omitempty"`
}

// CoverEntity selects which kind of id an image lookup is keyed by.
type CoverEntity string

// Cover-art lookup entities.
const (
	CoverRelease      CoverEntity = "release"
	CoverReleaseGroup CoverEntity = "release-group"
)

// TagRefKind distinguishes the entity a tag lookup is keyed by.
type TagRefKind string

// Tag lookup kinds.
const (
	TagMaster  TagRefKind = "master"
	TagRelease TagRefKind = "release"
)

// TagRef names a tag-provider entity.
type TagRef struct {
	Kind TagRefKind `json:"kind"`
	ID   string     `json:"id"`
}

// Page is a resolved encyclopedia page.
type Page struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	URL      string   `json:"url,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	Links    []string `json:"links,omitempty"`
}

// MetadataSource is the canonical music-metadata registry.
type MetadataSource interface {
	GetArtist(ctx context.Context, id string) (*Artist, error)
	BrowseReleaseGroups(ctx context.Context, artistID string, limit, offset int) ([]ReleaseGroup, error)
	BrowseReleases(ctx context.Context, groupID string, limit, offset int) ([]Release, error)
	GetRelease(ctx context.Context, id string) (*ReleaseDetail, error)
}

// CoverArtSource lists cover images for a release or release-group.
type CoverArtSource interface {
	GetImages(ctx context.Context, entity CoverEntity, id string) ([]CoverImage, error)
}

// TagSource returns the tag/genre names for a master or release.
// Implementations return *ErrRateLimited when throttled.
type TagSource interface {
	GetTags(ctx context.Context, ref TagRef) ([]string, error)
}

// Encyclopedia looks up pages by exact title or by search term.
// Implementations return *ErrDisambiguation or *ErrNotFound for those cases.
type Encyclopedia interface {
	GetPage(ctx context.Context, title string) (*Page, error)
	SearchPage(ctx context.Context, term string) (*Page, error)
}

// ErrProviderUnavailable indicates a transient failure (timeout, server error).
type ErrProviderUnavailable struct {
	Provider ProviderName
	Cause    error
}

func (e *ErrProviderUnavailable) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Cause)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Cause }

// ErrRateLimited is the explicit "too many requests" signal. It is the only
// error class the importer retries.
type ErrRateLimited struct {
	Provider   ProviderName
	RetryAfter time.Duration
}

func (e *ErrRateLimited) Error() string {
	return fmt.Sprintf("provider %s: rate limited", e.Provider)
}

// ErrNotFound indicates the provider has no data for the requested ID.
type ErrNotFound struct {
	Provider ProviderName
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("provider %s: %s not found", e.Provider, e.ID)
}

// ErrDisambiguation is returned when a page lookup lands on a disambiguation
// page. Candidates lists the page titles it links to, in page order.
type ErrDisambiguation struct {
	Provider   ProviderName
	Title      string
	Candidates []string
}

func (e *ErrDisambiguation) Error() string {
	return fmt.Sprintf("provider %s: %q is a disambiguation page (%d candidates)", e.Provider, e.Title, len(e.Candidates))
}

// IsRateLimited reports whether err carries a rate-limit signal.
func IsRateLimited(err error) bool {
	var rl *ErrRateLimited
	return errors.As(err, &rl)
}

// IsNotFound reports whether err is a not-found signal.
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}

// AsDisambiguation extracts a disambiguation signal from err.
func AsDisambiguation(err error) (*ErrDisambiguation, bool) {
	var d *ErrDisambiguation
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
