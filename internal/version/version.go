// Package version holds build-time version information.
package version

// Version is overridden at build time via -ldflags "-X .../internal/version.Version=...".
var Version = "dev"

// UserAgent returns the User-Agent string sent to metadata providers.
// MusicBrainz rejects anonymous clients, so a contact URL is always included.
func UserAgent() string {
	return "Cadence/" + Version + " (https://github.com/sydlexius/cadence)"
}
