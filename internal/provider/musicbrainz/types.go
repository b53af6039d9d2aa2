package musicbrainz

// MusicBrainz web service (ws/2) JSON response types.

// MBArtist represents a MusicBrainz artist entity.
type MBArtist struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	SortName       string       `json:"sort-name"`
	Type           string       `json:"type"`
	Disambiguation string       `json:"disambiguation"`
	Relations      []MBRelation `json:"relations"`
}

// MBRelation represents a relationship between entities. Only URL targets
// are consumed.
type MBRelation struct {
	Type       string         `json:"type"`
	TargetType string         `json:"target-type"`
	URL        *MBRelationURL `json:"url,omitempty"`
}

// MBRelationURL holds URL data within a relation.
type MBRelationURL struct {
	ID       string `json:"id"`
	Resource string `json:"resource"`
}

// MBArtistCredit is one entry of an artist-credit list.
type MBArtistCredit struct {
	Name       string   `json:"name"`
	JoinPhrase string   `json:"joinphrase"`
	Artist     MBArtist `json:"artist"`
}

// MBReleaseGroupBrowseResponse is the top-level response from the release-group browse endpoint.
type MBReleaseGroupBrowseResponse struct {
	ReleaseGroupCount  int              `json:"release-group-count"`
	ReleaseGroupOffset int              `json:"release-group-offset"`
	ReleaseGroups      []MBReleaseGroup `json:"release-groups"`
}

// MBReleaseGroup represents a MusicBrainz release group entity.
type MBReleaseGroup struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	PrimaryType      string           `json:"primary-type"`
	SecondaryTypes   []string         `json:"secondary-types"`
	FirstReleaseDate string           `json:"first-release-date"`
	ArtistCredit     []MBArtistCredit `json:"artist-credit"`
	Relations        []MBRelation     `json:"relations"`
}

// MBReleaseBrowseResponse is the top-level response from the release browse endpoint.
type MBReleaseBrowseResponse struct {
	ReleaseCount  int         `json:"release-count"`
	ReleaseOffset int         `json:"release-offset"`
	Releases      []MBRelease `json:"releases"`
}

// MBRelease represents a MusicBrainz release (one pressing).
type MBRelease struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Date         string           `json:"date"`
	Status       string           `json:"status"`
	ArtistCredit []MBArtistCredit `json:"artist-credit"`
	Media        []MBMedium       `json:"media"`
	Relations    []MBRelation     `json:"relations"`
}

// MBMedium is one disc/side of a release.
type MBMedium struct {
	Position   int       `json:"position"`
	Format     string    `json:"format"`
	TrackCount int       `json:"track-count"`
	Tracks     []MBTrack `json:"tracks"`
}

// MBTrack is one track on a medium.
type MBTrack struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Number   string `json:"number"`
	Title    string `json:"title"`
	Length   int    `json:"length"`
}
