package selector

import (
	"context"
	"regexp"
	"strings"

	"github.com/sydlexius/cadence/internal/provider"
	"github.com/sydlexius/cadence/internal/provider/wikipedia"
)

var musicVocabulary = regexp.MustCompile(`(?i)\b(band|musician|singer|rapper|songwriter|composer|album|music|musical|duo|trio|quartet|dj|producer|vocalist|guitarist|drummer|pianist|orchestra|ensemble|hip hop|rock|jazz|pop|punk|metal|electronic)\b`)

// mentionsMusic reports whether text uses music vocabulary once the artist
// name itself is removed, so "Band A (river)" does not match on "Band".
func mentionsMusic(text, name string) bool {
	if name != "" {
		text = replaceFold(text, name, " ")
	}
	return musicVocabulary.MatchString(text)
}

func replaceFold(s, old, repl string) string {
	lower, lowerOld := strings.ToLower(s), strings.ToLower(old)
	if len(lower) != len(s) {
		// Case folding changed byte lengths; fall back to exact replacement.
		return strings.ReplaceAll(s, old, repl)
	}
	var b strings.Builder
	for {
		i := strings.Index(lower, lowerOld)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		b.WriteString(repl)
		s, lower = s[i+len(old):], lower[i+len(old):]
	}
}

// CanonicalArtistPage resolves the encyclopedia page describing an artist.
// A known article link is tried first; otherwise the name is searched and
// a disambiguation result is narrowed to the first candidate title using
// music vocabulary. Any resolved page must itself mention music.
func CanonicalArtistPage(ctx context.Context, enc provider.Encyclopedia, name, knownLink string) (*provider.Page, bool) {
	if title, ok := wikipedia.TitleFromURL(knownLink); ok {
		page, err := enc.GetPage(ctx, title)
		if err == nil && mentionsMusic(page.Summary, name) {
			return page, true
		}
	}

	if name == "" {
		return nil, false
	}

	page, err := enc.SearchPage(ctx, name)
	if d, ok := provider.AsDisambiguation(err); ok {
		page, err = nil, nil
		for _, candidate := range d.Candidates {
			if mentionsMusic(candidate, name) {
				page, err = enc.GetPage(ctx, candidate)
				break
			}
		}
	}
	if err != nil || page == nil {
		return nil, false
	}
	if !mentionsMusic(page.Summary, name) {
		return nil, false
	}
	return page, true
}
