// Package fixture provides a provider backed by recorded responses. It
// implements every provider contract the importer consumes, so import runs
// can be replayed deterministically without network access.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sydlexius/cadence/internal/provider"
)

// NameFixture identifies recorded responses in errors.
const NameFixture provider.ProviderName = "fixture"

// Recording is the on-disk shape of a recorded provider session. Image
// and tag keys are "<entity>/<id>", e.g. "release/rel-1" or "master/1234".
type Recording struct {
	Artists         map[string]provider.Artist         `json:"artists"`
	ReleaseGroups   map[string][]provider.ReleaseGroup `json:"release_groups"`
	Releases        map[string][]provider.Release      `json:"releases"`
	ReleaseDetails  map[string]provider.ReleaseDetail  `json:"release_details"`
	Images          map[string][]provider.CoverImage   `json:"images"`
	Tags            map[string][]string                `json:"tags"`
	Pages           map[string]provider.Page           `json:"pages"`
	Disambiguations map[string][]string                `json:"disambiguations"`
	Searches        map[string]string                  `json:"searches"`
}

// Provider serves a Recording. It is safe for concurrent use.
type Provider struct {
	mu    sync.RWMutex
	rec   Recording
	calls map[string]int
}

// Load reads a recording from a JSON file.
func Load(path string) (*Provider, error) {
	data, err := os.ReadFile(path) //nolint:gosec // test fixture path
	if err != nil {
		return nil, fmt.Errorf("reading recording: %w", err)
	}
	var rec Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing recording %s: %w", path, err)
	}
	return New(rec), nil
}

// New wraps an in-memory recording.
func New(rec Recording) *Provider {
	return &Provider{rec: rec, calls: make(map[string]int)}
}

// Update mutates the recording, e.g. to simulate a provider-side edit
// between two import runs.
func (p *Provider) Update(fn func(rec *Recording)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.rec)
}

// Calls returns how many times the named operation was invoked.
func (p *Provider) Calls(op string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.calls[op]
}

func (p *Provider) record(op string) {
	p.mu.Lock()
	p.calls[op]++
	p.mu.Unlock()
}

func notFound(id string) error {
	return &provider.ErrNotFound{Provider: NameFixture, ID: id}
}

// GetArtist implements provider.MetadataSource.
func (p *Provider) GetArtist(_ context.Context, id string) (*provider.Artist, error) {
	p.record("GetArtist")
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.rec.Artists[id]
	if !ok {
		return nil, notFound(id)
	}
	return &a, nil
}

// BrowseReleaseGroups implements provider.MetadataSource.
func (p *Provider) BrowseReleaseGroups(_ context.Context, artistID string, limit, offset int) ([]provider.ReleaseGroup, error) {
	p.record("BrowseReleaseGroups")
	p.mu.RLock()
	defer p.mu.RUnlock()
	groups, ok := p.rec.ReleaseGroups[artistID]
	if !ok {
		return nil, notFound(artistID)
	}
	return page(groups, limit, offset), nil
}

// BrowseReleases implements provider.MetadataSource.
func (p *Provider) BrowseReleases(_ context.Context, groupID string, limit, offset int) ([]provider.Release, error) {
	p.record("BrowseReleases")
	p.mu.RLock()
	defer p.mu.RUnlock()
	releases, ok := p.rec.Releases[groupID]
	if !ok {
		return nil, notFound(groupID)
	}
	return page(releases, limit, offset), nil
}

// GetRelease implements provider.MetadataSource.
func (p *Provider) GetRelease(_ context.Context, id string) (*provider.ReleaseDetail, error) {
	p.record("GetRelease")
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.rec.ReleaseDetails[id]
	if !ok {
		return nil, notFound(id)
	}
	d.Tracks = append([]provider.Track(nil), d.Tracks...)
	return &d, nil
}

// GetImages implements provider.CoverArtSource.
func (p *Provider) GetImages(_ context.Context, entity provider.CoverEntity, id string) ([]provider.CoverImage, error) {
	p.record("GetImages")
	p.mu.RLock()
	defer p.mu.RUnlock()
	key := string(entity) + "/" + id
	images, ok := p.rec.Images[key]
	if !ok {
		return nil, notFound(key)
	}
	return append([]provider.CoverImage(nil), images...), nil
}

// GetTags implements provider.TagSource.
func (p *Provider) GetTags(_ context.Context, ref provider.TagRef) ([]string, error) {
	p.record("GetTags")
	p.mu.RLock()
	defer p.mu.RUnlock()
	key := string(ref.Kind) + "/" + ref.ID
	tags, ok := p.rec.Tags[key]
	if !ok {
		return nil, notFound(key)
	}
	return append([]string(nil), tags...), nil
}

// GetPage implements provider.Encyclopedia.
func (p *Provider) GetPage(_ context.Context, title string) (*provider.Page, error) {
	p.record("GetPage")
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lookupPage(title)
}

// SearchPage implements provider.Encyclopedia.
func (p *Provider) SearchPage(_ context.Context, term string) (*provider.Page, error) {
	p.record("SearchPage")
	p.mu.RLock()
	defer p.mu.RUnlock()
	title, ok := p.rec.Searches[term]
	if !ok {
		return nil, notFound(term)
	}
	return p.lookupPage(title)
}

func (p *Provider) lookupPage(title string) (*provider.Page, error) {
	if candidates, ok := p.rec.Disambiguations[title]; ok {
		return nil, &provider.ErrDisambiguation{Provider: NameFixture, Title: title, Candidates: candidates}
	}
	pg, ok := p.rec.Pages[title]
	if !ok {
		return nil, notFound(title)
	}
	return &pg, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return append([]T(nil), items[offset:end]...)
}

var (
	_ provider.MetadataSource = (*Provider)(nil)
	_ provider.CoverArtSource = (*Provider)(nil)
	_ provider.TagSource      = (*Provider)(nil)
	_ provider.Encyclopedia   = (*Provider)(nil)
)
