// Package rank applies keyword classification to merged records,
// computes the relevance weight and orders results per keyword group.
package rank

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/trendwatch-io/trendwatch/internal/core/feed"
	"github.com/trendwatch-io/trendwatch/internal/core/keyword"
	"github.com/trendwatch-io/trendwatch/internal/core/merge"
)

const (
	defaultRankThreshold = 10

	// fallbackRank stands in for a record that somehow carries no
	// ranks; it sorts last and renders as an off-list position.
	fallbackRank = 99

	rankCap      = 10
	frequencyCap = 10
)

// Config holds the weight formula inputs. The coefficients are applied
// literally even when they do not sum to 1.0.
type Config struct {
	RankThreshold   int
	RankWeight      float64
	FrequencyWeight float64
	HotnessWeight   float64
}

// DefaultConfig returns the stock 0.6/0.3/0.1 coefficient set.
func DefaultConfig() Config {
	return Config{
		RankThreshold:   defaultRankThreshold,
		RankWeight:      0.6,
		FrequencyWeight: 0.3,
		HotnessWeight:   0.1,
	}
}

// Item is a merged record annotated with its computed weight and
// per-run new flag.
type Item struct {
	PlatformID string
	SourceName string
	Title      string
	Ranks      []int
	FirstSeen  string
	LastSeen   string
	Count      int
	URL        string
	MobileURL  string
	Weight     float64
	IsNew      bool
}

// MinRank returns the best observed rank, or the fallback when none.
func (it Item) MinRank() int {
	if len(it.Ranks) == 0 {
		return fallbackRank
	}

	min := it.Ranks[0]
	for _, r := range it.Ranks[1:] {
		if r < min {
			min = r
		}
	}

	return min
}

// GroupStat is one keyword group's matched items, sorted by weight.
type GroupStat struct {
	Word       string
	Count      int
	Percentage float64
	Items      []Item
}

// Engine scores and groups merged records.
type Engine struct {
	matcher *keyword.Matcher
	cfg     Config
	logger  *zerolog.Logger
}

// NewEngine builds an engine. Zero coefficients are replaced by the
// defaults; a zero threshold likewise.
func NewEngine(matcher *keyword.Matcher, cfg Config, logger *zerolog.Logger) *Engine {
	if cfg.RankThreshold <= 0 {
		cfg.RankThreshold = defaultRankThreshold
	}

	return &Engine{matcher: matcher, cfg: cfg, logger: logger}
}

// Threshold exposes the configured highlight threshold.
func (e *Engine) Threshold() int {
	return e.cfg.RankThreshold
}

// Score classifies the considered records into keyword groups and
// returns the group statistics sorted by match count, plus the number
// of records considered. firstToday marks the day's first snapshot,
// which makes incremental mode consider everything as new.
func (e *Engine) Score(result *merge.Result, newSet merge.NewSet, mode feed.Mode, firstToday bool) ([]GroupStat, int) {
	considered, allNew := e.selectRecords(result, newSet, mode, firstToday)

	groups := e.matcher.Groups()

	buckets := make(map[string][]Item, len(groups))

	for _, rec := range considered {
		group, ok := e.matcher.FirstMatch(rec.Title)
		if !ok {
			continue
		}

		item := Item{
			PlatformID: rec.PlatformID,
			SourceName: result.Name(rec.PlatformID),
			Title:      rec.Title,
			Ranks:      rec.Ranks,
			FirstSeen:  rec.FirstSeen,
			LastSeen:   rec.LastSeen,
			Count:      rec.Occurrences,
			URL:        rec.URL,
			MobileURL:  rec.MobileURL,
			IsNew:      allNew || newSet.Contains(rec.PlatformID, rec.Title),
		}
		item.Weight = e.Weight(item.Ranks, item.Count)

		buckets[group.Key] = append(buckets[group.Key], item)
	}

	stats := make([]GroupStat, 0, len(groups))

	for _, group := range groups {
		items := buckets[group.Key]
		sortItems(items)

		stat := GroupStat{
			Word:  group.Key,
			Count: len(items),
			Items: items,
		}

		if len(considered) > 0 {
			stat.Percentage = round2(float64(stat.Count) / float64(len(considered)) * 100)
		}

		stats = append(stats, stat)
	}

	// Groups themselves order by match count, configuration order on ties.
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Count > stats[j].Count
	})

	e.logger.Debug().
		Str("mode", mode.String()).
		Int("considered", len(considered)).
		Int("groups", len(stats)).
		Msg("scoring finished")

	return stats, len(considered)
}

// selectRecords applies the mode-dependent record selection.
func (e *Engine) selectRecords(result *merge.Result, newSet merge.NewSet, mode feed.Mode, firstToday bool) ([]*merge.Record, bool) {
	records := result.Records()

	switch mode {
	case feed.ModeCurrent:
		return latestBatch(records), false
	case feed.ModeIncremental:
		if firstToday {
			return records, true
		}

		var selected []*merge.Record

		for _, rec := range records {
			if newSet.Contains(rec.PlatformID, rec.Title) {
				selected = append(selected, rec)
			}
		}

		return selected, true
	default:
		return records, false
	}
}

// latestBatch keeps only records last seen in the most recent
// snapshot. Records without time labels degrade to keeping everything.
func latestBatch(records []*merge.Record) []*merge.Record {
	latest := ""
	for _, rec := range records {
		if rec.LastSeen > latest {
			latest = rec.LastSeen
		}
	}

	if latest == "" {
		return records
	}

	var selected []*merge.Record

	for _, rec := range records {
		if rec.LastSeen == latest {
			selected = append(selected, rec)
		}
	}

	return selected
}

// Weight computes the relevance score:
//
//	rank_component = mean(11 - min(rank, 10))
//	freq_component = min(count, 10) * 10
//	hot_component  = 100 * share of ranks at or below the threshold
//
// weighted by the configured coefficients. Empty ranks score zero.
func (e *Engine) Weight(ranks []int, count int) float64 {
	if len(ranks) == 0 {
		return 0
	}

	rankSum := 0
	highCount := 0

	for _, r := range ranks {
		capped := r
		if capped > rankCap {
			capped = rankCap
		}

		rankSum += rankCap + 1 - capped

		if r <= e.cfg.RankThreshold {
			highCount++
		}
	}

	rankComponent := float64(rankSum) / float64(len(ranks))

	cappedCount := count
	if cappedCount > frequencyCap {
		cappedCount = frequencyCap
	}

	freqComponent := float64(cappedCount * 10)

	hotComponent := float64(highCount) / float64(len(ranks)) * 100

	return rankComponent*e.cfg.RankWeight +
		freqComponent*e.cfg.FrequencyWeight +
		hotComponent*e.cfg.HotnessWeight
}

// sortItems orders a group's items by weight descending, then best
// rank ascending, then occurrence count descending. The sort is stable
// so remaining ties keep merge insertion order.
func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Weight != items[j].Weight {
			return items[i].Weight > items[j].Weight
		}

		if items[i].MinRank() != items[j].MinRank() {
			return items[i].MinRank() < items[j].MinRank()
		}

		return items[i].Count > items[j].Count
	})
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
