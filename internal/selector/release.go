// Package selector picks the canonical subset of raw provider records: one
// release per release-group, one cover image per release, and one
// encyclopedia page per artist.
package selector

import (
	"sort"

	"github.com/sydlexius/cadence/internal/provider"
)

// CanonicalRelease chooses the release representing a release-group.
//
// Only candidates sharing the most frequent track count survive. Among
// survivors with a date, the earliest year wins, then the more precise date
// string, then the lexicographically smallest date. Without any dated
// survivor the first survivor is returned.
func CanonicalRelease(candidates []provider.Release) (provider.Release, bool) {
	if len(candidates) == 0 {
		return provider.Release{}, false
	}

	survivors := modalTrackCount(candidates)

	var dated []provider.Release
	for _, r := range survivors {
		if _, ok := releaseYear(r.Date); ok {
			dated = append(dated, r)
		}
	}
	if len(dated) == 0 {
		return survivors[0], true
	}

	sort.SliceStable(dated, func(i, j int) bool {
		yi, _ := releaseYear(dated[i].Date)
		yj, _ := releaseYear(dated[j].Date)
		if yi != yj {
			return yi < yj
		}
		if len(dated[i].Date) != len(dated[j].Date) {
			return len(dated[i].Date) > len(dated[j].Date)
		}
		return dated[i].Date < dated[j].Date
	})
	return dated[0], true
}

// modalTrackCount keeps the candidates whose track count is the most
// frequent one. Ties between counts go to the count seen first.
func modalTrackCount(candidates []provider.Release) []provider.Release {
	freq := make(map[int]int)
	var order []int
	for _, r := range candidates {
		if freq[r.TrackCount] == 0 {
			order = append(order, r.TrackCount)
		}
		freq[r.TrackCount]++
	}

	mode := order[0]
	for _, c := range order[1:] {
		if freq[c] > freq[mode] {
			mode = c
		}
	}

	out := make([]provider.Release, 0, freq[mode])
	for _, r := range candidates {
		if r.TrackCount == mode {
			out = append(out, r)
		}
	}
	return out
}

// releaseYear parses the leading four-digit year of a partial date such as
// "1995", "1995-03" or "1995-03-02".
func releaseYear(date string) (int, bool) {
	if len(date) < 4 {
		return 0, false
	}
	year := 0
	for _, c := range date[:4] {
		if c < '0' || c > '9' {
			return 0, false
		}
		year = year*10 + int(c-'0')
	}
	return year, true
}
