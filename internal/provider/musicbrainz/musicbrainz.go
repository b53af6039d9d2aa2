package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sydlexius/cadence/internal/provider"
	"github.com/sydlexius/cadence/internal/version"
)

const defaultBaseURL = "https://musicbrainz.org/ws/2"

// Adapter implements provider.MetadataSource for MusicBrainz.
type Adapter struct {
	client  *http.Client
	limiter *provider.RateLimiterMap
	logger  *slog.Logger
	baseURL string
}

// New creates a MusicBrainz adapter with the default base URL.
func New(limiter *provider.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(limiter, logger, defaultBaseURL)
}

// NewWithBaseURL creates a MusicBrainz adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: limiter,
		logger:  logger.With(slog.String("provider", string(provider.NameMusicBrainz))),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GetArtist fetches an artist and its URL relations by MBID.
func (a *Adapter) GetArtist(ctx context.Context, mbid string) (*provider.Artist, error) {
	params := url.Values{
		"inc": {"url-rels"},
		"fmt": {"json"},
	}
	reqURL := a.baseURL + "/artist/" + url.PathEscape(mbid) + "?" + params.Encode()

	var mb MBArtist
	if err := a.getJSON(ctx, reqURL, &mb); err != nil {
		return nil, err
	}

	return &provider.Artist{
		ID:             mb.ID,
		Name:           mb.Name,
		SortName:       mb.SortName,
		Type:           mb.Type,
		Disambiguation: mb.Disambiguation,
		Links:          mapRelations(mb.Relations),
	}, nil
}

// BrowseReleaseGroups returns one page of an artist's release groups.
func (a *Adapter) BrowseReleaseGroups(ctx context.Context, artistID string, limit, offset int) ([]provider.ReleaseGroup, error) {
	params := url.Values{
		"artist": {artistID},
		"inc":    {"artist-credits+url-rels"},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
		"fmt":    {"json"},
	}
	reqURL := a.baseURL + "/release-group?" + params.Encode()

	var resp MBReleaseGroupBrowseResponse
	if err := a.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}

	groups := make([]provider.ReleaseGroup, 0, len(resp.ReleaseGroups))
	for _, rg := range resp.ReleaseGroups {
		groups = append(groups, provider.ReleaseGroup{
			ID:               rg.ID,
			Title:            rg.Title,
			PrimaryType:      rg.PrimaryType,
			SecondaryTypes:   rg.SecondaryTypes,
			FirstReleaseDate: rg.FirstReleaseDate,
			ArtistCredit:     mapCredits(rg.ArtistCredit),
			URLRelations:     mapRelations(rg.Relations),
		})
	}
	return groups, nil
}

// BrowseReleases returns one page of the releases in a release group.
func (a *Adapter) BrowseReleases(ctx context.Context, groupID string, limit, offset int) ([]provider.Release, error) {
	params := url.Values{
		"release-group": {groupID},
		"inc":           {"media+url-rels"},
		"limit":         {strconv.Itoa(limit)},
		"offset":        {strconv.Itoa(offset)},
		"fmt":           {"json"},
	}
	reqURL := a.baseURL + "/release?" + params.Encode()

	var resp MBReleaseBrowseResponse
	if err := a.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}

	releases := make([]provider.Release, 0, len(resp.Releases))
	for _, r := range resp.Releases {
		count := 0
		for _, m := range r.Media {
			count += m.TrackCount
		}
		releases = append(releases, provider.Release{
			ID:           r.ID,
			Title:        r.Title,
			Date:         r.Date,
			TrackCount:   count,
			URLRelations: mapRelations(r.Relations),
		})
	}
	return releases, nil
}

// GetRelease fetches a release with its tracklist and artist credits.
func (a *Adapter) GetRelease(ctx context.Context, id string) (*provider.ReleaseDetail, error) {
	params := url.Values{
		"inc": {"recordings+artist-credits"},
		"fmt": {"json"},
	}
	reqURL := a.baseURL + "/release/" + url.PathEscape(id) + "?" + params.Encode()

	var r MBRelease
	if err := a.getJSON(ctx, reqURL, &r); err != nil {
		return nil, err
	}

	detail := &provider.ReleaseDetail{
		ID:           r.ID,
		Title:        r.Title,
		Date:         r.Date,
		ArtistCredit: mapCredits(r.ArtistCredit),
	}
	for _, m := range r.Media {
		for _, t := range m.Tracks {
			detail.Tracks = append(detail.Tracks, provider.Track{
				Title:    t.Title,
				Side:     m.Position,
				Position: t.Position,
				LengthMS: t.Length,
			})
		}
	}
	return detail, nil
}

func (a *Adapter) getJSON(ctx context.Context, reqURL string, v any) error {
	body, err := a.doRequest(ctx, reqURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing musicbrainz response: %w", err)
	}
	return nil
}

// doRequest executes an HTTP GET with rate limiting and standard headers.
func (a *Adapter) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	if err := a.limiter.Wait(ctx, provider.NameMusicBrainz); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameMusicBrainz,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	a.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := a.client.Do(req) //nolint:gosec // URL constructed from trusted base + MBID
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameMusicBrainz,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrNotFound{Provider: provider.NameMusicBrainz, ID: reqURL}
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		// MusicBrainz signals throttling with 503 as well as 429.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrRateLimited{
			Provider:   provider.NameMusicBrainz,
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameMusicBrainz,
			Cause:    fmt.Errorf("unexpected HTTP %d", resp.StatusCode),
		}
	}
}

func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func mapRelations(rels []MBRelation) []provider.URLRelation {
	var out []provider.URLRelation
	for _, rel := range rels {
		if rel.URL == nil || rel.URL.Resource == "" {
			continue
		}
		out = append(out, provider.URLRelation{Type: rel.Type, URL: rel.URL.Resource})
	}
	return out
}

func mapCredits(credits []MBArtistCredit) []provider.ArtistCredit {
	out := make([]provider.ArtistCredit, 0, len(credits))
	for _, c := range credits {
		out = append(out, provider.ArtistCredit{
			ArtistID:   c.Artist.ID,
			Name:       c.Name,
			JoinPhrase: c.JoinPhrase,
		})
	}
	return out
}

// ReleaseGroupURL returns the public page URL of a release group, used as the
// provider reference link on imported releases.
func ReleaseGroupURL(id string) string {
	return "https://musicbrainz.org/release-group/" + id
}

// ArtistURL returns the public page URL of an artist.
func ArtistURL(id string) string {
	return "https://musicbrainz.org/artist/" + id
}
