// Package feed defines the domain model shared by the snapshot,
// merge, ranking and notification layers: one ranked observation of a
// title on a platform, one point-in-time snapshot across platforms,
// and the report mode enumeration.
package feed

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"
)

// Mode selects which records a report run considers.
type Mode int

const (
	// ModeDaily considers every record merged so far today.
	ModeDaily Mode = iota
	// ModeCurrent considers only the most recent snapshot's contents.
	ModeCurrent
	// ModeIncremental considers only titles new since the previous snapshot.
	ModeIncremental
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeCurrent:
		return "current"
	case ModeIncremental:
		return "incremental"
	default:
		return "daily"
	}
}

// ReportType returns the human label used in push records and headers.
func (m Mode) ReportType() string {
	switch m {
	case ModeCurrent:
		return "当前榜单"
	case ModeIncremental:
		return "增量监控"
	default:
		return "当日汇总"
	}
}

// ParseMode converts a wire name into a Mode.
func ParseMode(value string) (Mode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "daily":
		return ModeDaily, nil
	case "current":
		return ModeCurrent, nil
	case "incremental":
		return ModeIncremental, nil
	default:
		return ModeDaily, fmt.Errorf("unknown report mode %q", value)
	}
}

// Observation is one distinct title captured in a single snapshot.
// Repeated sightings of the same title within the snapshot append to
// Ranks instead of duplicating the entry.
type Observation struct {
	Title     string
	Ranks     []int
	URL       string
	MobileURL string
}

// Section holds all observations of one platform within a snapshot,
// in capture order.
type Section struct {
	PlatformID   string
	PlatformName string
	Items        []Observation
}

// Snapshot is one point-in-time capture of ranked titles across
// platforms. TimeLabel is the lexically sortable batch label, e.g.
// "09-30" for 09:30.
type Snapshot struct {
	TimeLabel string
	Sections  []Section
	FailedIDs []string
}

// Section returns the section for a platform, if present.
func (s Snapshot) Section(platformID string) (Section, bool) {
	for _, sec := range s.Sections {
		if sec.PlatformID == platformID {
			return sec, true
		}
	}

	return Section{}, false
}

// CleanTitle normalizes a raw title: full-width ASCII variants are
// folded to their narrow forms, newlines become spaces and runs of
// whitespace collapse to a single space.
func CleanTitle(title string) string {
	folded := width.Fold.String(title)

	return strings.Join(strings.Fields(folded), " ")
}
