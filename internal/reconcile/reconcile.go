// Package reconcile writes freshly collected artists and releases into the
// catalog. Each release is created, replaced in place, or imported as a
// duplicate, always preserving the user actions attached to it.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/sydlexius/cadence/internal/catalog"
	"github.com/sydlexius/cadence/internal/event"
	"github.com/sydlexius/cadence/internal/slug"
)

// errUnsuitableReplacement aborts an in-place replacement whose fresh
// tracks cannot take over every actioned track.
var errUnsuitableReplacement = errors.New("unsuitable replacement")

// Outcome describes what ImportRelease did.
type Outcome string

// Release outcomes.
const (
	OutcomeCreated    Outcome = "created"
	OutcomeReplaced   Outcome = "replaced"
	OutcomeDuplicated Outcome = "duplicated"
	OutcomeUnchanged  Outcome = "unchanged"
)

// ArtistImport is an artist ready to be written.
type ArtistImport struct {
	ExternalID string
	Name       string
	SortName   string
	Type       string
	Biography  string
	PageTitle  string
	ImageURL   string
	Links      []catalog.Link
}

// ReleaseImport is one release-group's canonical release, fully fetched.
type ReleaseImport struct {
	GroupID   string
	ReleaseID string
	Title     string
	Type      string
	Date      string
	Tracks    []catalog.Track
	ArtistIDs []string // external artist ids, credit order
	Links     []catalog.Link
	Cover     catalog.Cover
	Colors    [3]string
	Tags      []string
}

// Result reports the outcome of one release import.
type Result struct {
	ReleaseID  string  `json:"release_id"`
	Slug       string  `json:"slug"`
	Outcome    Outcome `json:"outcome"`
	PreviousID string  `json:"previous_id,omitempty"` // replaced or duplicated release
}

// Reconciler owns the slug allocators of one import run. It is not safe
// for concurrent use: releases are reconciled one at a time.
type Reconciler struct {
	store        *catalog.Store
	artistSlugs  *slug.Allocator
	releaseSlugs *slug.Allocator
	tagSlugs     *slug.Allocator
	events       event.Publisher
	logger       *slog.Logger
}

// New creates a Reconciler writing to store. A nil publisher discards
// events.
func New(store *catalog.Store, events event.Publisher, logger *slog.Logger) *Reconciler {
	if events == nil {
		events = event.Discard
	}
	return &Reconciler{
		store:        store,
		artistSlugs:  slug.NewAllocator(slug.Artists),
		releaseSlugs: slug.NewAllocator(slug.Releases),
		tagSlugs:     slug.NewAllocator(slug.Tags),
		events:       events,
		logger:       logger.With(slog.String("component", "reconciler")),
	}
}

// ArtistID returns the internal ID of an already imported artist.
func (r *Reconciler) ArtistID(ctx context.Context, externalID string) (string, bool, error) {
	return r.store.Queries().LookupIdentity(ctx, catalog.KindArtist, externalID)
}

// EnsureArtist returns the internal ID for the artist, creating it with a
// fresh slug, its links and its identity link when it is not yet known.
// Known artists are left untouched.
func (r *Reconciler) EnsureArtist(ctx context.Context, in ArtistImport) (string, bool, error) {
	var id string
	var created bool
	err := r.store.WithTx(ctx, func(q *catalog.Queries) error {
		existing, ok, err := q.LookupIdentity(ctx, catalog.KindArtist, in.ExternalID)
		if err != nil {
			return err
		}
		if ok {
			id = existing
			return nil
		}

		s, err := r.artistSlugs.Allocate(ctx, q, in.Name)
		if err != nil {
			return err
		}
		a := &catalog.Artist{
			Name:      in.Name,
			SortName:  in.SortName,
			Slug:      s,
			Type:      in.Type,
			Biography: in.Biography,
			PageTitle: in.PageTitle,
			ImageURL:  in.ImageURL,
		}
		if err := q.CreateArtist(ctx, a); err != nil {
			return err
		}
		for _, l := range in.Links {
			if err := q.AddArtistLink(ctx, a.ID, l); err != nil {
				return err
			}
		}
		if err := q.LinkIdentity(ctx, catalog.KindArtist, in.ExternalID, a.ID); err != nil {
			return err
		}
		id, created = a.ID, true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("importing artist %s: %w", in.ExternalID, err)
	}
	if created {
		r.events.Publish(event.Event{Type: event.ArtistImported, Data: map[string]any{
			"artist_id": id, "external_id": in.ExternalID, "name": in.Name,
		}})
	}
	return id, created, nil
}

// ImportRelease reconciles one release-group against the catalog.
//
// Without a previously linked release the release is created under its
// final slug. With one, an unchanged track list updates it in place;
// otherwise a replacement is attempted that re-points every user action to
// the fresh release. When an actioned track has no title match the
// replacement rolls back and the fresh release is kept beside the old one
// as a recorded duplicate.
func (r *Reconciler) ImportRelease(ctx context.Context, in ReleaseImport) (*Result, error) {
	existing, err := r.existingRelease(ctx, in.GroupID)
	if err != nil {
		return nil, fmt.Errorf("importing release group %s: %w", in.GroupID, err)
	}

	var res *Result
	switch {
	case existing == nil:
		res, err = r.create(ctx, in)
	default:
		res, err = r.updateUnchanged(ctx, in, existing)
		if err == nil && res == nil {
			res, err = r.replace(ctx, in, existing)
			if errors.Is(err, errUnsuitableReplacement) {
				r.logger.Info("replacement would orphan user actions, importing duplicate",
					slog.String("release_group", in.GroupID), slog.String("existing", existing.ID))
				res, err = r.duplicate(ctx, in, existing)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("importing release group %s: %w", in.GroupID, err)
	}

	r.publish(in, res)
	return res, nil
}

// existingRelease resolves the release currently linked to a release-group.
// A link to a release that no longer exists is dropped.
func (r *Reconciler) existingRelease(ctx context.Context, groupID string) (*catalog.Release, error) {
	q := r.store.Queries()
	id, ok, err := q.LookupIdentity(ctx, catalog.KindReleaseGroup, groupID)
	if err != nil || !ok {
		return nil, err
	}
	rel, err := q.GetRelease(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		r.logger.Warn("identity link points at missing release", slog.String("release_id", id))
		return nil, q.UnlinkInternal(ctx, id)
	}
	return rel, err
}

func (r *Reconciler) create(ctx context.Context, in ReleaseImport) (*Result, error) {
	res := &Result{Outcome: OutcomeCreated}
	err := r.store.WithTx(ctx, func(q *catalog.Queries) error {
		s, err := r.releaseSlugs.Allocate(ctx, q, in.Title)
		if err != nil {
			return err
		}
		rel, err := r.insert(ctx, q, in, s)
		if err != nil {
			return err
		}
		res.ReleaseID, res.Slug = rel.ID, rel.Slug
		return r.finish(ctx, q, rel.ID, in)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// updateUnchanged refreshes existing in place when the canonical release
// and its track list are the same as last time. It returns a nil Result
// when the release did change.
func (r *Reconciler) updateUnchanged(ctx context.Context, in ReleaseImport, existing *catalog.Release) (*Result, error) {
	var res *Result
	err := r.store.WithTx(ctx, func(q *catalog.Queries) error {
		ext, err := q.ExternalIDs(ctx, catalog.KindRelease, existing.ID)
		if err != nil {
			return err
		}
		if !slices.Contains(ext, in.ReleaseID) {
			return nil
		}
		current, err := q.Tracks(ctx, existing.ID)
		if err != nil {
			return err
		}
		fresh := sortedTracks(in.Tracks)
		if !sameTrackList(current, fresh) {
			return nil
		}

		for i := range current {
			if current[i].LengthMS != fresh[i].LengthMS {
				current[i].LengthMS = fresh[i].LengthMS
				if err := q.UpdateTrack(ctx, &current[i]); err != nil {
					return err
				}
			}
		}
		rel := *existing
		applyFields(&rel, in)
		if err := q.UpdateRelease(ctx, &rel); err != nil {
			return err
		}
		res = &Result{ReleaseID: rel.ID, Slug: rel.Slug, Outcome: OutcomeUnchanged}
		return r.finish(ctx, q, rel.ID, in)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// replace swaps existing for a freshly created release inside one
// transaction. It returns errUnsuitableReplacement, after rolling back,
// when an actioned track of existing has no partner in the fresh tracks.
func (r *Reconciler) replace(ctx context.Context, in ReleaseImport, existing *catalog.Release) (*Result, error) {
	res := &Result{Outcome: OutcomeReplaced, PreviousID: existing.ID}
	err := r.store.WithTx(ctx, func(q *catalog.Queries) error {
		rel, err := r.insert(ctx, q, in, slug.Temporary(in.Title))
		if err != nil {
			return err
		}

		oldTracks, err := q.Tracks(ctx, existing.ID)
		if err != nil {
			return err
		}
		actioned, err := q.ActionedTrackIDs(ctx, existing.ID)
		if err != nil {
			return err
		}
		var mustMatch []catalog.Track
		for _, t := range oldTracks {
			if actioned[t.ID] {
				mustMatch = append(mustMatch, t)
			}
		}
		freshTracks, err := q.Tracks(ctx, rel.ID)
		if err != nil {
			return err
		}
		mapping, ok := MatchTracks(mustMatch, freshTracks)
		if !ok {
			return errUnsuitableReplacement
		}

		for _, t := range mustMatch {
			if err := q.RepointTrack(ctx, t.ID, mapping[t.ID]); err != nil {
				return err
			}
		}
		if err := q.RepointRelease(ctx, existing.ID, rel.ID); err != nil {
			return err
		}
		if err := q.UnlinkInternal(ctx, existing.ID); err != nil {
			return err
		}
		if err := q.DeleteRelease(ctx, existing.ID); err != nil {
			return err
		}
		if err := q.SetReleaseSlug(ctx, rel.ID, existing.Slug); err != nil {
			return err
		}
		r.releaseSlugs.Reserve(existing.Slug)
		res.ReleaseID, res.Slug = rel.ID, existing.Slug
		return r.finish(ctx, q, rel.ID, in)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// duplicate keeps existing and imports the fresh release beside it under
// its own slug. The fresh release takes over the release-group identity.
func (r *Reconciler) duplicate(ctx context.Context, in ReleaseImport, existing *catalog.Release) (*Result, error) {
	res := &Result{Outcome: OutcomeDuplicated, PreviousID: existing.ID}
	err := r.store.WithTx(ctx, func(q *catalog.Queries) error {
		s, err := r.releaseSlugs.Allocate(ctx, q, in.Title)
		if err != nil {
			return err
		}
		rel, err := r.insert(ctx, q, in, s)
		if err != nil {
			return err
		}
		if _, err := q.CreateDuplication(ctx, existing.ID, rel.ID); err != nil {
			return err
		}
		if err := q.UnlinkInternal(ctx, existing.ID); err != nil {
			return err
		}
		res.ReleaseID, res.Slug = rel.ID, rel.Slug
		return r.finish(ctx, q, rel.ID, in)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// insert creates the release row and its tracks.
func (r *Reconciler) insert(ctx context.Context, q *catalog.Queries, in ReleaseImport, s string) (*catalog.Release, error) {
	rel := &catalog.Release{Slug: s}
	applyFields(rel, in)
	if err := q.CreateRelease(ctx, rel); err != nil {
		return nil, err
	}
	if err := q.CreateTracks(ctx, rel.ID, sortedTracks(in.Tracks)); err != nil {
		return nil, err
	}
	return rel, nil
}

// finish links the release identities, recomputes artist credits and
// attaches external links.
func (r *Reconciler) finish(ctx context.Context, q *catalog.Queries, releaseID string, in ReleaseImport) error {
	if err := q.LinkIdentity(ctx, catalog.KindReleaseGroup, in.GroupID, releaseID); err != nil {
		return err
	}
	if in.ReleaseID != "" {
		if err := q.LinkIdentity(ctx, catalog.KindRelease, in.ReleaseID, releaseID); err != nil {
			return err
		}
	}

	var artistIDs []string
	seen := make(map[string]bool)
	for _, ext := range in.ArtistIDs {
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		id, ok, err := q.LookupIdentity(ctx, catalog.KindArtist, ext)
		if err != nil {
			return err
		}
		if !ok {
			r.logger.Warn("credited artist not imported", slog.String("external_id", ext))
			continue
		}
		artistIDs = append(artistIDs, id)
	}
	if err := q.SetReleaseArtists(ctx, releaseID, artistIDs); err != nil {
		return err
	}

	for _, l := range in.Links {
		if err := q.AddReleaseLink(ctx, releaseID, l); err != nil {
			return err
		}
	}
	return nil
}

// ApplyTags creates any missing tag and rewrites the tag applications of
// every release. The map is keyed by internal release ID. It returns the
// names of the tags it created.
func (r *Reconciler) ApplyTags(ctx context.Context, tagsByRelease map[string][]string) ([]string, error) {
	names := make(map[string]bool)
	for _, tags := range tagsByRelease {
		for _, t := range tags {
			names[t] = true
		}
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	tagIDs := make(map[string]string, len(sorted))
	var created []string
	err := r.store.WithTx(ctx, func(q *catalog.Queries) error {
		for _, name := range sorted {
			tag, err := q.GetTagByName(ctx, name)
			if errors.Is(err, catalog.ErrNotFound) {
				s, aerr := r.tagSlugs.Allocate(ctx, q, name)
				if aerr != nil {
					return aerr
				}
				tag = &catalog.Tag{Name: name, Slug: s}
				if err = q.CreateTag(ctx, tag); err == nil {
					created = append(created, name)
				}
			}
			if err != nil {
				return err
			}
			tagIDs[name] = tag.ID
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating tags: %w", err)
	}

	releaseIDs := make([]string, 0, len(tagsByRelease))
	for id := range tagsByRelease {
		releaseIDs = append(releaseIDs, id)
	}
	sort.Strings(releaseIDs)

	for _, id := range releaseIDs {
		ids := make([]string, 0, len(tagsByRelease[id]))
		for _, name := range tagsByRelease[id] {
			ids = append(ids, tagIDs[name])
		}
		err := r.store.WithTx(ctx, func(q *catalog.Queries) error {
			return q.SetReleaseTags(ctx, id, ids)
		})
		if err != nil {
			return created, fmt.Errorf("tagging release %s: %w", id, err)
		}
	}
	return created, nil
}

func (r *Reconciler) publish(in ReleaseImport, res *Result) {
	t := map[Outcome]event.Type{
		OutcomeCreated:    event.ReleaseCreated,
		OutcomeReplaced:   event.ReleaseReplaced,
		OutcomeDuplicated: event.ReleaseDuplicated,
		OutcomeUnchanged:  event.ReleaseUnchanged,
	}[res.Outcome]
	data := map[string]any{
		"release_id":    res.ReleaseID,
		"slug":          res.Slug,
		"release_group": in.GroupID,
		"title":         in.Title,
	}
	if res.PreviousID != "" {
		data["previous_id"] = res.PreviousID
	}
	r.events.Publish(event.Event{Type: t, Data: data})
}

func applyFields(rel *catalog.Release, in ReleaseImport) {
	rel.Title = in.Title
	rel.ReleaseType = in.Type
	rel.ReleaseDate = in.Date
	rel.Cover = in.Cover
	rel.Colors = in.Colors
}

func sortedTracks(tracks []catalog.Track) []catalog.Track {
	out := make([]catalog.Track, len(tracks))
	for i, t := range tracks {
		t.ID, t.ReleaseID = "", ""
		out[i] = t
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Side != out[j].Side {
			return out[i].Side < out[j].Side
		}
		return out[i].Position < out[j].Position
	})
	return out
}
