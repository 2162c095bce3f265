// Package report converts ranked groups and new-item sets into the
// single normalized bundle consumed by persistence and notification,
// and persists the per-day summary and incremental JSON documents.
package report

import (
	"sort"

	"github.com/trendwatch-io/trendwatch/internal/core/feed"
	"github.com/trendwatch-io/trendwatch/internal/core/merge"
	"github.com/trendwatch-io/trendwatch/internal/core/rank"
	"github.com/trendwatch-io/trendwatch/internal/platform/timeutil"
)

// Item is one report entry in render-ready form.
type Item struct {
	Title       string `json:"title"`
	SourceName  string `json:"platform"`
	TimeDisplay string `json:"time_display"`
	Count       int    `json:"occurrence_count"`
	Ranks       []int  `json:"ranks"`
	URL         string `json:"url"`
	MobileURL   string `json:"mobile_url"`
	IsNew       bool   `json:"is_new"`
}

// MinRank returns the best rank for serialization, 999 when empty.
func (it Item) MinRank() int {
	if len(it.Ranks) == 0 {
		return 999
	}

	min := it.Ranks[0]
	for _, r := range it.Ranks[1:] {
		if r < min {
			min = r
		}
	}

	return min
}

// Group is one keyword group's rendered statistics.
type Group struct {
	Word       string  `json:"word_group"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Items      []Item  `json:"news_list"`
}

// PlatformNew lists the latest batch's new titles for one platform.
type PlatformNew struct {
	SourceID   string `json:"source_id"`
	SourceName string `json:"source_name"`
	Items      []Item `json:"titles"`
}

// Bundle is the normalized report structure. Groups are ordered by
// match count descending; empty groups are dropped.
type Bundle struct {
	Groups        []Group       `json:"stats"`
	NewItems      []PlatformNew `json:"new_titles"`
	FailedIDs     []string      `json:"failed_ids"`
	TotalNewCount int           `json:"total_new_count"`
}

// TotalCount sums the group match counts.
func (b Bundle) TotalCount() int {
	total := 0
	for _, g := range b.Groups {
		total += g.Count
	}

	return total
}

// Assemble builds a Bundle from scored groups, failed platform ids and
// the run's new-title set. In incremental mode the new-items section
// is suppressed entirely: the main body already holds only new items
// and repeating them would double-report.
func Assemble(stats []rank.GroupStat, failedIDs []string, newSet merge.NewSet, names map[string]string, mode feed.Mode) Bundle {
	bundle := Bundle{FailedIDs: failedIDs}

	for _, stat := range stats {
		if stat.Count <= 0 {
			continue
		}

		group := Group{
			Word:       stat.Word,
			Count:      stat.Count,
			Percentage: stat.Percentage,
			Items:      make([]Item, 0, len(stat.Items)),
		}

		for _, it := range stat.Items {
			group.Items = append(group.Items, Item{
				Title:       it.Title,
				SourceName:  it.SourceName,
				TimeDisplay: timeDisplay(it.FirstSeen, it.LastSeen),
				Count:       it.Count,
				Ranks:       it.Ranks,
				URL:         it.URL,
				MobileURL:   it.MobileURL,
				IsNew:       it.IsNew,
			})
		}

		bundle.Groups = append(bundle.Groups, group)
	}

	if mode != feed.ModeIncremental {
		bundle.NewItems = groupNewByPlatform(newSet, names)
		for _, pn := range bundle.NewItems {
			bundle.TotalNewCount += len(pn.Items)
		}
	}

	return bundle
}

// groupNewByPlatform converts the new-title set into per-platform
// sections carrying the literal new marker, in deterministic platform
// order.
func groupNewByPlatform(newSet merge.NewSet, names map[string]string) []PlatformNew {
	platformIDs := make([]string, 0, len(newSet))
	for id := range newSet {
		platformIDs = append(platformIDs, id)
	}

	sort.Strings(platformIDs)

	var out []PlatformNew

	for _, id := range platformIDs {
		titles := newSet[id]
		if len(titles) == 0 {
			continue
		}

		name := names[id]
		if name == "" {
			name = id
		}

		section := PlatformNew{SourceID: id, SourceName: name}

		ordered := make([]string, 0, len(titles))
		for title := range titles {
			ordered = append(ordered, title)
		}

		sort.Strings(ordered)

		for _, title := range ordered {
			obs := titles[title]
			section.Items = append(section.Items, Item{
				Title:      feed.CleanTitle(title),
				SourceName: name,
				Count:      1,
				Ranks:      obs.Ranks,
				URL:        obs.URL,
				MobileURL:  obs.MobileURL,
				IsNew:      true,
			})
		}

		out = append(out, section)
	}

	return out
}

// timeDisplay renders the first/last seen labels: a single clock when
// they coincide, a bracketed range otherwise.
func timeDisplay(firstSeen, lastSeen string) string {
	first := timeutil.ClockFromLabel(firstSeen)
	last := timeutil.ClockFromLabel(lastSeen)

	switch {
	case first == "":
		return ""
	case first == last || last == "":
		return first
	default:
		return "[" + first + " ~ " + last + "]"
	}
}
