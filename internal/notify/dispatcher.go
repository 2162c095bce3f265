package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/trendwatch-io/trendwatch/internal/core/feed"
	"github.com/trendwatch-io/trendwatch/internal/core/report"
	"github.com/trendwatch-io/trendwatch/internal/notify/gate"
	"github.com/trendwatch-io/trendwatch/internal/output/batch"
	"github.com/trendwatch-io/trendwatch/internal/output/render"
)

const defaultMessageDelay = time.Second

// Dispatcher fans a report bundle out to all configured channels.
type Dispatcher struct {
	gate      *gate.Gate
	channels  []Channel
	threshold int
	delay     time.Duration
	now       func() time.Time
	logger    *zerolog.Logger
}

// NewDispatcher builds a dispatcher. threshold is the rank highlight
// threshold, delay the pause between consecutive messages on one
// channel. now defaults to time.Now.
func NewDispatcher(g *gate.Gate, channels []Channel, threshold int, delay time.Duration, now func() time.Time, logger *zerolog.Logger) *Dispatcher {
	if delay <= 0 {
		delay = defaultMessageDelay
	}

	if now == nil {
		now = time.Now
	}

	return &Dispatcher{
		gate:      g,
		channels:  channels,
		threshold: threshold,
		delay:     delay,
		now:       now,
		logger:    logger,
	}
}

// Dispatch renders, splits and sends the bundle on every channel in
// parallel, sequentially within each channel. A denied gate returns an
// empty map without touching any channel. The gate advances to pushed
// exactly once, after all channels report, when at least one
// succeeded.
func (d *Dispatcher) Dispatch(ctx context.Context, bundle report.Bundle, mode feed.Mode) map[string]bool {
	results := make(map[string]bool, len(d.channels))

	if len(d.channels) == 0 {
		d.logger.Info().Msg("no notification channels configured")

		return results
	}

	if !d.gate.Allow() {
		d.logger.Info().Msg("push gate denied, skipping notification")

		return results
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, ch := range d.channels {
		wg.Add(1)

		go func(ch Channel) {
			defer wg.Done()

			ok := d.sendAll(ctx, ch, bundle, mode)

			mu.Lock()
			results[ch.Name()] = ok
			mu.Unlock()
		}(ch)
	}

	wg.Wait()

	anySuccess := false
	for _, ok := range results {
		if ok {
			anySuccess = true

			break
		}
	}

	if anySuccess {
		if err := d.gate.MarkPushed(mode.ReportType()); err != nil {
			d.logger.Error().Err(err).Msg("cannot persist push record")
		}
	}

	return results
}

// sendAll delivers every split message of one channel in order, paced
// by the inter-message delay. The first failed message fails the
// channel; earlier messages stay delivered.
func (d *Dispatcher) sendAll(ctx context.Context, ch Channel, bundle report.Bundle, mode feed.Mode) bool {
	now := d.now()
	r := render.NewRenderer(ch.Kind(), d.threshold)

	header := r.Header(mode, now, bundle.TotalCount())
	messages := batch.Split(r.Sections(bundle), header, func(part, total int) string {
		return r.Footer(now, part, total)
	}, ch.MaxBytes())

	if len(messages) == 0 {
		d.logger.Info().Str("channel", ch.Name()).Msg("nothing to send")

		return false
	}

	limiter := rate.NewLimiter(rate.Every(d.delay), 1)

	for i, msg := range messages {
		if err := limiter.Wait(ctx); err != nil {
			d.logger.Warn().Err(err).Str("channel", ch.Name()).Msg("send canceled")

			return false
		}

		if err := ch.Send(ctx, mode.ReportType(), msg); err != nil {
			d.logger.Error().Err(err).
				Str("channel", ch.Name()).
				Int("part", i+1).
				Int("total", len(messages)).
				Msg("message send failed")

			return false
		}
	}

	d.logger.Info().
		Str("channel", ch.Name()).
		Int("messages", len(messages)).
		Msg("report delivered")

	return true
}
