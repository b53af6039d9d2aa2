package discogs

// Discogs API response types.

// Entity is the subset of a master or release response carrying tags.
type Entity struct {
	ID     int      `json:"id"`
	Title  string   `json:"title"`
	Year   int      `json:"year"`
	Genres []string `json:"genres"`
	Styles []string `json:"styles"`
}
