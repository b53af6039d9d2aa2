package wikipedia

// Wikipedia REST and Action API response types.

// Summary is the REST page summary.
type Summary struct {
	Type          string       `json:"type"`
	Title         string       `json:"title"`
	Extract       string       `json:"extract"`
	Thumbnail     *ImageSource `json:"thumbnail,omitempty"`
	OriginalImage *ImageSource `json:"originalimage,omitempty"`
	ContentURLs   ContentURLs  `json:"content_urls"`
}

// ContentURLs holds the canonical page URLs of a summary.
type ContentURLs struct {
	Desktop struct {
		Page string `json:"page"`
	} `json:"desktop"`
}

// ImageSource is an image reference inside a summary.
type ImageSource struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SearchResponse is the Action API full-text search response.
type SearchResponse struct {
	Query struct {
		Search []SearchHit `json:"search"`
	} `json:"query"`
}

// SearchHit is one search result.
type SearchHit struct {
	Title string `json:"title"`
}

// Summary types returned by the REST API.
const (
	typeDisambiguation = "disambiguation"
)
