// Package snapshot persists per-batch captures as plain text files
// under the day's output directory and reads the day back for
// merging. The text format is one platform header line per section
// followed by its numbered titles, with failed platform ids in a
// trailer block.
package snapshot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/trendwatch-io/trendwatch/internal/core/feed"
)

const failedSeparator = "==== 以下ID请求失败 ===="

// Encode renders a snapshot into the text file format. Line numbers
// are the rank positions; a title observed on several ranks within
// the batch is written once per rank, which Decode merges back into
// one observation.
func Encode(snap feed.Snapshot) string {
	var b strings.Builder

	for i, section := range snap.Sections {
		if i > 0 {
			b.WriteString("\n")
		}

		if section.PlatformName != "" && section.PlatformName != section.PlatformID {
			fmt.Fprintf(&b, "%s | %s\n", section.PlatformID, section.PlatformName)
		} else {
			fmt.Fprintf(&b, "%s\n", section.PlatformID)
		}

		for _, obs := range section.Items {
			ranks := obs.Ranks
			if len(ranks) == 0 {
				ranks = []int{0}
			}

			for _, rank := range ranks {
				fmt.Fprintf(&b, "%d. %s", rank, obs.Title)

				if obs.URL != "" {
					fmt.Fprintf(&b, " [URL:%s]", obs.URL)
				}

				if obs.MobileURL != "" {
					fmt.Fprintf(&b, " [MOBILE:%s]", obs.MobileURL)
				}

				b.WriteString("\n")
			}
		}
	}

	if len(snap.FailedIDs) > 0 {
		fmt.Fprintf(&b, "\n%s\n", failedSeparator)

		for _, id := range snap.FailedIDs {
			fmt.Fprintf(&b, "%s\n", id)
		}
	}

	return b.String()
}

// Decode parses the text format back into a snapshot. Malformed lines
// are logged and skipped so one bad line never discards a whole batch.
func Decode(data, timeLabel string, logger *zerolog.Logger) feed.Snapshot {
	snap := feed.Snapshot{TimeLabel: timeLabel}

	var (
		current  *feed.Section
		inFailed bool
	)

	byTitle := make(map[string]int)

	flush := func() {
		if current != nil {
			snap.Sections = append(snap.Sections, *current)
			current = nil
		}

		byTitle = make(map[string]int)
	}

	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if line == failedSeparator {
			flush()

			inFailed = true

			continue
		}

		if inFailed {
			snap.FailedIDs = append(snap.FailedIDs, strings.TrimSpace(line))

			continue
		}

		if rank, rest, ok := parseItemLine(line); ok && current != nil {
			obs := parseObservation(rest)

			title := feed.CleanTitle(obs.Title)
			if title == "" {
				continue
			}

			if idx, seen := byTitle[title]; seen {
				current.Items[idx].Ranks = append(current.Items[idx].Ranks, rank)

				continue
			}

			obs.Title = title
			obs.Ranks = []int{rank}

			byTitle[title] = len(current.Items)
			current.Items = append(current.Items, obs)

			continue
		}

		if id, name, ok := parseHeaderLine(line); ok {
			flush()

			current = &feed.Section{PlatformID: id, PlatformName: name}

			continue
		}

		logger.Warn().Str("line", line).Str("batch", timeLabel).Msg("malformed snapshot line skipped")
	}

	flush()

	return snap
}

// parseItemLine splits "3. title ..." into rank and remainder.
func parseItemLine(line string) (int, string, bool) {
	dot := strings.Index(line, ". ")
	if dot <= 0 {
		return 0, "", false
	}

	rank, err := strconv.Atoi(line[:dot])
	if err != nil || rank < 0 {
		return 0, "", false
	}

	return rank, line[dot+2:], true
}

// parseHeaderLine splits "id | name" or a bare "id". An id never
// contains whitespace.
func parseHeaderLine(line string) (string, string, bool) {
	id, name, found := strings.Cut(line, " | ")

	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, " \t") {
		return "", "", false
	}

	if !found {
		return id, id, true
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = id
	}

	return id, name, true
}

// parseObservation strips the URL and MOBILE suffix markers off an
// item line remainder.
func parseObservation(rest string) feed.Observation {
	obs := feed.Observation{}

	rest, obs.MobileURL = cutMarker(rest, "[MOBILE:")
	rest, obs.URL = cutMarker(rest, "[URL:")
	obs.Title = strings.TrimSpace(rest)

	return obs
}

func cutMarker(s, marker string) (string, string) {
	start := strings.LastIndex(s, marker)
	if start < 0 {
		return s, ""
	}

	end := strings.Index(s[start:], "]")
	if end < 0 {
		return s, ""
	}

	value := s[start+len(marker) : start+end]

	return strings.TrimSpace(s[:start] + s[start+end+1:]), value
}
