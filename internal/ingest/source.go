// Package ingest captures ranked title lists from the configured
// upstream platforms and assembles them into one snapshot per run.
package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/trendwatch-io/trendwatch/internal/core/feed"
	"github.com/trendwatch-io/trendwatch/internal/platform/timeutil"
)

// Source is one upstream platform returning its current ranked
// titles.
type Source interface {
	// ID is the stable platform identifier used in snapshots and
	// reports.
	ID() string
	// Name is the display name.
	Name() string
	// Fetch returns the platform's current titles in rank order.
	Fetch(ctx context.Context) ([]feed.Observation, error)
}

// Fetcher polls all sources sequentially with a fixed inter-request
// pause, so upstreams never see request bursts.
type Fetcher struct {
	sources []Source
	limiter *rate.Limiter
	now     func() time.Time
	logger  *zerolog.Logger
}

const defaultRequestInterval = time.Second

// NewFetcher builds a fetcher. interval is the pause between
// consecutive platform requests. now defaults to time.Now.
func NewFetcher(sources []Source, interval time.Duration, now func() time.Time, logger *zerolog.Logger) *Fetcher {
	if interval <= 0 {
		interval = defaultRequestInterval
	}

	if now == nil {
		now = time.Now
	}

	return &Fetcher{
		sources: sources,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		now:     now,
		logger:  logger,
	}
}

// FetchAll captures one snapshot across all sources. A failing source
// lands in FailedIDs instead of aborting the batch; only context
// cancellation stops the sweep early.
func (f *Fetcher) FetchAll(ctx context.Context) (feed.Snapshot, error) {
	snap := feed.Snapshot{TimeLabel: timeutil.BatchLabel(f.now())}

	for _, src := range f.sources {
		if err := f.limiter.Wait(ctx); err != nil {
			return snap, err
		}

		items, err := src.Fetch(ctx)
		if err != nil {
			f.logger.Warn().Err(err).Str("platform", src.ID()).Msg("platform fetch failed")
			snap.FailedIDs = append(snap.FailedIDs, src.ID())

			continue
		}

		f.logger.Debug().Str("platform", src.ID()).Int("titles", len(items)).Msg("platform fetched")

		snap.Sections = append(snap.Sections, feed.Section{
			PlatformID:   src.ID(),
			PlatformName: src.Name(),
			Items:        items,
		})
	}

	return snap, nil
}
