package reconcile

import "github.com/sydlexius/cadence/internal/catalog"

// MatchTracks pairs every existing track with an unclaimed fresh track of
// identical title. Matching is first-fit in the given order without
// backtracking, and each fresh track is claimed at most once. The result
// maps existing track IDs to fresh track IDs; ok is false when any
// existing track is left without a partner.
func MatchTracks(existing, fresh []catalog.Track) (map[string]string, bool) {
	claimed := make([]bool, len(fresh))
	mapping := make(map[string]string, len(existing))

	for _, old := range existing {
		matched := false
		for i, t := range fresh {
			if claimed[i] || t.Title != old.Title {
				continue
			}
			claimed[i] = true
			mapping[old.ID] = t.ID
			matched = true
			break
		}
		if !matched {
			return mapping, false
		}
	}
	return mapping, true
}

// sameTrackList reports whether two ordered track lists agree on side,
// position and title.
func sameTrackList(a, b []catalog.Track) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Side != b[i].Side || a[i].Position != b[i].Position || a[i].Title != b[i].Title {
			return false
		}
	}
	return true
}
