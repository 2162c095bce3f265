// Package merge folds a day's snapshots into cumulative per-title
// records and detects titles that first appeared in the latest
// snapshot.
package merge

import (
	"github.com/rs/zerolog"

	"github.com/trendwatch-io/trendwatch/internal/core/feed"
)

// Key identifies a record: one title on one platform.
type Key struct {
	Platform string
	Title    string
}

// Record is the cumulative view of one title on one platform across a
// day's snapshots. Ranks keeps every observed rank in snapshot order,
// duplicates included.
type Record struct {
	PlatformID  string
	Title       string
	Ranks       []int
	FirstSeen   string
	LastSeen    string
	Occurrences int
	URL         string
	MobileURL   string
}

// Result is an insertion-ordered record set plus the platform display
// names retained from the merged snapshots.
type Result struct {
	records map[Key]*Record
	order   []Key
	names   map[string]string
}

// NewResult returns an empty accumulator.
func NewResult() *Result {
	return &Result{
		records: make(map[Key]*Record),
		names:   make(map[string]string),
	}
}

// Get looks up a record by key.
func (r *Result) Get(key Key) (*Record, bool) {
	rec, ok := r.records[key]

	return rec, ok
}

// Len returns the number of records.
func (r *Result) Len() int {
	return len(r.records)
}

// Records returns all records in first-seen insertion order.
func (r *Result) Records() []*Record {
	out := make([]*Record, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.records[key])
	}

	return out
}

// Names returns the platform-id to display-name map.
func (r *Result) Names() map[string]string {
	return r.names
}

// Name resolves a platform display name, falling back to the id.
func (r *Result) Name(platformID string) string {
	if name, ok := r.names[platformID]; ok && name != "" {
		return name
	}

	return platformID
}

// Merger folds snapshots into a Result. An optional platform filter
// restricts both which platforms are merged and which display names
// are retained.
type Merger struct {
	filter map[string]struct{}
	logger *zerolog.Logger
}

// NewMerger creates a merger. platformIDs == nil means no filtering.
func NewMerger(platformIDs []string, logger *zerolog.Logger) *Merger {
	m := &Merger{logger: logger}

	if platformIDs != nil {
		m.filter = make(map[string]struct{}, len(platformIDs))
		for _, id := range platformIDs {
			m.filter[id] = struct{}{}
		}
	}

	return m
}

func (m *Merger) keeps(platformID string) bool {
	if m.filter == nil {
		return true
	}

	_, ok := m.filter[platformID]

	return ok
}

// Merge folds the time-ordered snapshots into a fresh Result.
func (m *Merger) Merge(snapshots []feed.Snapshot) *Result {
	result := NewResult()
	for _, snap := range snapshots {
		m.Add(result, snap)
	}

	return result
}

// Add folds one snapshot into an existing accumulator. Merging
// [A, B, C] in one call and adding A, B, C one at a time produce the
// same Result.
func (m *Merger) Add(result *Result, snap feed.Snapshot) {
	for _, section := range snap.Sections {
		if !m.keeps(section.PlatformID) {
			continue
		}

		if section.PlatformName != "" {
			result.names[section.PlatformID] = section.PlatformName
		}

		for _, obs := range section.Items {
			m.addObservation(result, section.PlatformID, snap.TimeLabel, obs)
		}
	}
}

func (m *Merger) addObservation(result *Result, platformID, timeLabel string, obs feed.Observation) {
	title := feed.CleanTitle(obs.Title)
	if title == "" {
		m.logger.Warn().Str("platform", platformID).Str("batch", timeLabel).Msg("skipping observation with empty title")

		return
	}

	key := Key{Platform: platformID, Title: title}

	existing, ok := result.records[key]
	if !ok {
		ranks := make([]int, len(obs.Ranks))
		copy(ranks, obs.Ranks)

		result.records[key] = &Record{
			PlatformID:  platformID,
			Title:       title,
			Ranks:       ranks,
			FirstSeen:   timeLabel,
			LastSeen:    timeLabel,
			Occurrences: 1,
			URL:         obs.URL,
			MobileURL:   obs.MobileURL,
		}
		result.order = append(result.order, key)

		return
	}

	existing.Ranks = append(existing.Ranks, obs.Ranks...)
	existing.LastSeen = timeLabel
	existing.Occurrences++

	// First non-empty URL wins, never overwritten.
	if existing.URL == "" {
		existing.URL = obs.URL
	}

	if existing.MobileURL == "" {
		existing.MobileURL = obs.MobileURL
	}
}
