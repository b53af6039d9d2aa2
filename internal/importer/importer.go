// Package importer runs an artist import end to end: collect provider
// records, select the canonical subset, then reconcile artists, releases
// and tags into the catalog.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/sydlexius/cadence/internal/catalog"
	"github.com/sydlexius/cadence/internal/collector"
	"github.com/sydlexius/cadence/internal/event"
	"github.com/sydlexius/cadence/internal/palette"
	"github.com/sydlexius/cadence/internal/provider"
	"github.com/sydlexius/cadence/internal/provider/discogs"
	"github.com/sydlexius/cadence/internal/provider/musicbrainz"
	"github.com/sydlexius/cadence/internal/reconcile"
	"github.com/sydlexius/cadence/internal/selector"
)

var errNoReleases = errors.New("release group has no releases")

// Sources bundles the providers an import reads from.
type Sources struct {
	Metadata provider.MetadataSource
	Covers   provider.CoverArtSource
	Tags     provider.TagSource
	Pages    provider.Encyclopedia
}

// PaletteExtractor computes cover palettes.
type PaletteExtractor interface {
	Extract(ctx context.Context, url string) palette.Palette
}

// Options tunes an import run.
type Options struct {
	Concurrency  int
	PageSize     int
	ReleaseTypes []string // lowercase primary types; empty imports every type
}

// Summary reports what one artist import did.
type Summary struct {
	ArtistID       string              `json:"artist_id"`
	ArtistsCreated int                 `json:"artists_created"`
	Created        int                 `json:"created"`
	Replaced       int                 `json:"replaced"`
	Duplicated     int                 `json:"duplicated"`
	Unchanged      int                 `json:"unchanged"`
	Skipped        []string            `json:"skipped,omitempty"`
	TagsCreated    []string            `json:"tags_created,omitempty"`
	Releases       []*reconcile.Result `json:"releases"`
}

func (s *Summary) count(res *reconcile.Result) {
	s.Releases = append(s.Releases, res)
	switch res.Outcome {
	case reconcile.OutcomeCreated:
		s.Created++
	case reconcile.OutcomeReplaced:
		s.Replaced++
	case reconcile.OutcomeDuplicated:
		s.Duplicated++
	case reconcile.OutcomeUnchanged:
		s.Unchanged++
	}
}

// Importer orchestrates artist imports.
type Importer struct {
	src        Sources
	reconciler *reconcile.Reconciler
	retrier    *collector.Retrier
	resolver   selector.URLResolver
	palette    PaletteExtractor
	events     event.Publisher
	opts       Options
	logger     *slog.Logger
}

// New creates an Importer. Cover URLs are used as listed and no palette is
// extracted until WithResolver and WithPalette are set.
func New(src Sources, rec *reconcile.Reconciler, retrier *collector.Retrier, opts Options, logger *slog.Logger) *Importer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	return &Importer{
		src:        src,
		reconciler: rec,
		retrier:    retrier,
		events:     event.Discard,
		opts:       opts,
		logger:     logger.With(slog.String("component", "importer")),
	}
}

// WithResolver resolves cover URLs through r.
func (i *Importer) WithResolver(r selector.URLResolver) *Importer {
	i.resolver = r
	return i
}

// WithPalette extracts cover palettes with p.
func (i *Importer) WithPalette(p PaletteExtractor) *Importer {
	i.palette = p
	return i
}

// WithEvents publishes import events to p.
func (i *Importer) WithEvents(p event.Publisher) *Importer {
	i.events = p
	return i
}

// ImportArtist imports the artist with the given metadata-provider ID and
// every release-group credited to it. A release-group that cannot be
// fetched is skipped. A catalog write failure aborts the run; releases
// committed before it are kept.
func (i *Importer) ImportArtist(ctx context.Context, artistID string) (*Summary, error) {
	logger := i.logger.With(slog.String("artist", artistID))

	artist, err := collector.Retry(ctx, i.retrier, "get artist", func(ctx context.Context) (*provider.Artist, error) {
		return i.src.Metadata.GetArtist(ctx, artistID)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching artist %s: %w", artistID, err)
	}

	groups := i.releaseGroups(ctx, artistID)
	logger.Info("collected release groups", slog.Int("count", len(groups)))

	fetched := collector.FetchConcurrently(ctx, groups, i.opts.Concurrency, i.fetchGroup)

	summary := &Summary{}

	// Artist pass: the subject first, then featured artists in credit order.
	artistIDs := []string{artistID}
	for _, f := range fetched {
		if f.Err == nil {
			artistIDs = append(artistIDs, f.Value.ArtistIDs...)
		}
	}
	for _, ext := range uniq(artistIDs) {
		id, created, err := i.importArtist(ctx, ext, artist)
		if err != nil {
			return summary, err
		}
		if ext == artistID {
			summary.ArtistID = id
		}
		if created {
			summary.ArtistsCreated++
		}
	}

	// Release pass, one transaction per release-group.
	tagsByRelease := make(map[string][]string)
	for idx, f := range fetched {
		g := groups[idx]
		if f.Err != nil {
			logger.Warn("skipping release group",
				slog.String("release_group", g.ID),
				slog.String("title", g.Title),
				slog.String("error", f.Err.Error()))
			summary.Skipped = append(summary.Skipped, g.ID)
			i.events.Publish(event.Event{Type: event.ReleaseSkipped, Data: map[string]any{
				"release_group": g.ID, "title": g.Title, "error": f.Err.Error(),
			}})
			continue
		}
		res, err := i.reconciler.ImportRelease(ctx, f.Value)
		if err != nil {
			return summary, err
		}
		logger.Info("release reconciled",
			slog.String("release_group", g.ID),
			slog.String("outcome", string(res.Outcome)),
			slog.String("slug", res.Slug))
		summary.count(res)
		tagsByRelease[res.ReleaseID] = f.Value.Tags
	}

	// Tag pass.
	created, err := i.reconciler.ApplyTags(ctx, tagsByRelease)
	summary.TagsCreated = created
	if err != nil {
		return summary, err
	}

	i.events.Publish(event.Event{Type: event.ImportCompleted, Data: map[string]any{
		"artist_id":  summary.ArtistID,
		"created":    summary.Created,
		"replaced":   summary.Replaced,
		"duplicated": summary.Duplicated,
		"unchanged":  summary.Unchanged,
		"skipped":    len(summary.Skipped),
	}})
	return summary, nil
}

// releaseGroups browses every release-group of the artist and keeps the
// configured primary types. A failed browse yields no groups.
func (i *Importer) releaseGroups(ctx context.Context, artistID string) []provider.ReleaseGroup {
	groups, err := collector.CollectPaginated(ctx, i.opts.PageSize, func(ctx context.Context, limit, offset int) ([]provider.ReleaseGroup, error) {
		return collector.Retry(ctx, i.retrier, "browse release groups", func(ctx context.Context) ([]provider.ReleaseGroup, error) {
			return i.src.Metadata.BrowseReleaseGroups(ctx, artistID, limit, offset)
		})
	})
	if err != nil {
		i.logger.Warn("browsing release groups failed",
			slog.String("artist", artistID), slog.String("error", err.Error()))
		return nil
	}
	if len(i.opts.ReleaseTypes) == 0 {
		return groups
	}
	kept := groups[:0]
	for _, g := range groups {
		if slices.Contains(i.opts.ReleaseTypes, strings.ToLower(g.PrimaryType)) {
			kept = append(kept, g)
		}
	}
	return kept
}

// fetchGroup collects everything needed to reconcile one release-group.
func (i *Importer) fetchGroup(ctx context.Context, g provider.ReleaseGroup) (reconcile.ReleaseImport, error) {
	releases, err := collector.CollectPaginated(ctx, i.opts.PageSize, func(ctx context.Context, limit, offset int) ([]provider.Release, error) {
		return collector.Retry(ctx, i.retrier, "browse releases", func(ctx context.Context) ([]provider.Release, error) {
			return i.src.Metadata.BrowseReleases(ctx, g.ID, limit, offset)
		})
	})
	if err != nil {
		return reconcile.ReleaseImport{}, fmt.Errorf("browsing releases: %w", err)
	}
	canonical, ok := selector.CanonicalRelease(releases)
	if !ok {
		return reconcile.ReleaseImport{}, errNoReleases
	}

	detail, err := collector.Retry(ctx, i.retrier, "get release", func(ctx context.Context) (*provider.ReleaseDetail, error) {
		return i.src.Metadata.GetRelease(ctx, canonical.ID)
	})
	if err != nil {
		return reconcile.ReleaseImport{}, fmt.Errorf("fetching release %s: %w", canonical.ID, err)
	}

	in := reconcile.ReleaseImport{
		GroupID:   g.ID,
		ReleaseID: canonical.ID,
		Title:     g.Title,
		Type:      strings.ToLower(g.PrimaryType),
		Date:      canonical.Date,
		Links:     releaseLinks(g, canonical),
	}
	if in.Title == "" {
		in.Title = detail.Title
	}
	for _, c := range g.ArtistCredit {
		if c.ArtistID != "" {
			in.ArtistIDs = append(in.ArtistIDs, c.ArtistID)
		}
	}
	for _, t := range detail.Tracks {
		in.Tracks = append(in.Tracks, catalog.Track{
			Title: t.Title, Side: t.Side, Position: t.Position, LengthMS: t.LengthMS,
		})
	}

	if cover, ok := i.cover(ctx, g.ID, canonical.ID); ok {
		in.Cover = catalog.Cover{Max: cover.Max, Large: cover.Large, Small: cover.Small}
		in.Colors = i.colors(ctx, cover)
	}
	in.Tags = i.tags(ctx, g, canonical)
	return in, nil
}

// cover looks up images for the release, falling back to the release-group.
func (i *Importer) cover(ctx context.Context, groupID, releaseID string) (*selector.Cover, bool) {
	images := collector.Fetch(ctx, i.retrier, "get release images", func(ctx context.Context) ([]provider.CoverImage, error) {
		return i.src.Covers.GetImages(ctx, provider.CoverRelease, releaseID)
	})
	if len(images) == 0 {
		images = collector.Fetch(ctx, i.retrier, "get release group images", func(ctx context.Context) ([]provider.CoverImage, error) {
			return i.src.Covers.GetImages(ctx, provider.CoverReleaseGroup, groupID)
		})
	}
	return selector.CanonicalCover(ctx, images, i.resolver)
}

func (i *Importer) colors(ctx context.Context, cover *selector.Cover) [3]string {
	var out [3]string
	if i.palette == nil {
		return out
	}
	src := cover.Small
	if src == "" {
		src = cover.Max
	}
	for idx, c := range i.palette.Extract(ctx, src) {
		if c != nil {
			out[idx] = c.Hex()
		}
	}
	return out
}

// tags reads genres and styles for the Discogs master linked from the
// release-group, or else the Discogs release linked from the release.
func (i *Importer) tags(ctx context.Context, g provider.ReleaseGroup, r provider.Release) []string {
	ref, ok := discogsRef(g.URLRelations, provider.TagMaster)
	if !ok {
		ref, ok = discogsRef(r.URLRelations, provider.TagRelease)
	}
	if !ok {
		return nil
	}
	return collector.Fetch(ctx, i.retrier, "get tags", func(ctx context.Context) ([]string, error) {
		return i.src.Tags.GetTags(ctx, ref)
	})
}

func discogsRef(rels []provider.URLRelation, kind provider.TagRefKind) (provider.TagRef, bool) {
	for _, rel := range rels {
		if ref, ok := discogs.RefFromURL(rel.URL); ok && ref.Kind == kind {
			return ref, true
		}
	}
	return provider.TagRef{}, false
}

// releaseLinks returns the provider reference link plus the union of the
// release and release-group url-relations.
func releaseLinks(g provider.ReleaseGroup, r provider.Release) []catalog.Link {
	links := []catalog.Link{{Type: string(provider.NameMusicBrainz), URL: musicbrainz.ReleaseGroupURL(g.ID)}}
	seen := map[string]bool{links[0].URL: true}
	for _, rel := range append(append([]provider.URLRelation(nil), g.URLRelations...), r.URLRelations...) {
		if rel.URL == "" || seen[rel.URL] {
			continue
		}
		seen[rel.URL] = true
		links = append(links, catalog.Link{Type: rel.Type, URL: rel.URL})
	}
	return links
}

// importArtist creates an artist unless it is already known. subject is
// the already fetched primary artist and saves a second lookup.
func (i *Importer) importArtist(ctx context.Context, ext string, subject *provider.Artist) (string, bool, error) {
	if id, ok, err := i.reconciler.ArtistID(ctx, ext); err != nil || ok {
		return id, false, err
	}

	a := subject
	if ext != subject.ID {
		a = collector.Fetch(ctx, i.retrier, "get featured artist", func(ctx context.Context) (*provider.Artist, error) {
			return i.src.Metadata.GetArtist(ctx, ext)
		})
		if a == nil {
			i.logger.Warn("featured artist unavailable, credit dropped", slog.String("artist", ext))
			return "", false, nil
		}
	}

	in := reconcile.ArtistImport{
		ExternalID: ext,
		Name:       a.Name,
		SortName:   a.SortName,
		Type:       a.Type,
		Links:      []catalog.Link{{Type: string(provider.NameMusicBrainz), URL: musicbrainz.ArtistURL(ext)}},
	}
	var wikiLink string
	for _, l := range a.Links {
		in.Links = append(in.Links, catalog.Link{Type: l.Type, URL: l.URL})
		if l.Type == string(provider.NameWikipedia) && wikiLink == "" {
			wikiLink = l.URL
		}
	}
	if page, ok := selector.CanonicalArtistPage(ctx, retryingEncyclopedia{i.src.Pages, i.retrier}, a.Name, wikiLink); ok {
		in.Biography = page.Summary
		in.PageTitle = page.Title
		in.ImageURL = page.ImageURL
	}

	return i.reconciler.EnsureArtist(ctx, in)
}

// retryingEncyclopedia applies the retry policy to every page lookup while
// passing disambiguation and not-found signals through.
type retryingEncyclopedia struct {
	enc     provider.Encyclopedia
	retrier *collector.Retrier
}

func (e retryingEncyclopedia) GetPage(ctx context.Context, title string) (*provider.Page, error) {
	return collector.Retry(ctx, e.retrier, "get page", func(ctx context.Context) (*provider.Page, error) {
		return e.enc.GetPage(ctx, title)
	})
}

func (e retryingEncyclopedia) SearchPage(ctx context.Context, term string) (*provider.Page, error) {
	return collector.Retry(ctx, e.retrier, "search page", func(ctx context.Context) (*provider.Page, error) {
		return e.enc.SearchPage(ctx, term)
	})
}

func uniq(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
