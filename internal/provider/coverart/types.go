package coverart

// Cover Art Archive API response types.

// Response is the image listing for a release or release group.
type Response struct {
	Release string  `json:"release"`
	Images  []Image `json:"images"`
}

// Image is one archived cover image. Thumbnails is keyed by "250", "500",
// "1200" and the legacy "small"/"large" names.
type Image struct {
	ID         any               `json:"id"`
	Front      bool              `json:"front"`
	Back       bool              `json:"back"`
	Types      []string          `json:"types"`
	Approved   bool              `json:"approved"`
	Image      string            `json:"image"`
	Thumbnails map[string]string `json:"thumbnails"`
}
