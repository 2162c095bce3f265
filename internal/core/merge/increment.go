package merge

import (
	"github.com/trendwatch-io/trendwatch/internal/core/feed"
)

// NewSet maps platform id to the titles that first appeared in the
// latest snapshot, with their observation data from that snapshot.
type NewSet map[string]map[string]feed.Observation

// Contains reports whether the platform/title pair is flagged new.
func (s NewSet) Contains(platformID, title string) bool {
	titles, ok := s[platformID]
	if !ok {
		return false
	}

	_, ok = titles[title]

	return ok
}

// Total counts all new titles across platforms.
func (s NewSet) Total() int {
	total := 0
	for _, titles := range s {
		total += len(titles)
	}

	return total
}

// DetectNew diffs the latest snapshot against the history of all
// earlier ones. A title is new iff it appears in the latest snapshot's
// platform bucket and in no earlier snapshot for that platform. With
// fewer than two snapshots there is no history to diff against and the
// result is empty.
func (m *Merger) DetectNew(snapshots []feed.Snapshot) NewSet {
	if len(snapshots) < 2 {
		return NewSet{}
	}

	history := make(map[string]map[string]struct{})

	for _, snap := range snapshots[:len(snapshots)-1] {
		for _, section := range snap.Sections {
			if !m.keeps(section.PlatformID) {
				continue
			}

			seen, ok := history[section.PlatformID]
			if !ok {
				seen = make(map[string]struct{})
				history[section.PlatformID] = seen
			}

			for _, obs := range section.Items {
				seen[feed.CleanTitle(obs.Title)] = struct{}{}
			}
		}
	}

	latest := snapshots[len(snapshots)-1]
	result := NewSet{}

	for _, section := range latest.Sections {
		if !m.keeps(section.PlatformID) {
			continue
		}

		for _, obs := range section.Items {
			title := feed.CleanTitle(obs.Title)
			if title == "" {
				continue
			}

			if _, seen := history[section.PlatformID][title]; seen {
				continue
			}

			titles, ok := result[section.PlatformID]
			if !ok {
				titles = make(map[string]feed.Observation)
				result[section.PlatformID] = titles
			}

			titles[title] = obs
		}
	}

	return result
}
