// Package app wires the configuration, ingest, core pipeline, storage
// and notification layers together and drives the run loop.
package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trendwatch-io/trendwatch/internal/config"
	"github.com/trendwatch-io/trendwatch/internal/core/feed"
	"github.com/trendwatch-io/trendwatch/internal/core/keyword"
	"github.com/trendwatch-io/trendwatch/internal/core/merge"
	"github.com/trendwatch-io/trendwatch/internal/core/rank"
	"github.com/trendwatch-io/trendwatch/internal/core/report"
	"github.com/trendwatch-io/trendwatch/internal/core/snapshot"
	"github.com/trendwatch-io/trendwatch/internal/ingest"
	"github.com/trendwatch-io/trendwatch/internal/notify"
	"github.com/trendwatch-io/trendwatch/internal/notify/gate"
	"github.com/trendwatch-io/trendwatch/internal/platform/httpclient"
	"github.com/trendwatch-io/trendwatch/internal/platform/observability"
	"github.com/trendwatch-io/trendwatch/internal/platform/timeutil"
	"github.com/trendwatch-io/trendwatch/internal/storage/archive"
)

// App owns the assembled pipeline.
type App struct {
	cfg     *config.Config
	fileCfg config.FileConfig
	logger  *zerolog.Logger

	now func() time.Time

	fetcher    *ingest.Fetcher
	store      *snapshot.Store
	merger     *merge.Merger
	engine     *rank.Engine
	writer     *report.Writer
	dispatcher *notify.Dispatcher
	archive    *archive.Archive
}

// New assembles the application from both configuration layers.
func New(ctx context.Context, cfg *config.Config, fileCfg config.FileConfig, logger *zerolog.Logger) (*App, error) {
	loc, err := timeutil.Location(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	now := func() time.Time { return time.Now().In(loc) }

	client, err := httpclient.New(cfg.ProxyURL, cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}

	matcher, err := keyword.Load(cfg.FrequencyWordsPath, logger)
	if err != nil {
		return nil, err
	}

	var sources []ingest.Source

	for _, p := range fileCfg.Platforms {
		sources = append(sources, ingest.NewNewsNow(p.ID, p.Name, "", client))
	}

	for _, f := range fileCfg.Feeds {
		sources = append(sources, ingest.NewRSS(f.ID, f.Name, f.URL, fileCfg.Crawler.RSSMaxAge.Std(), client, now))
	}

	engine := rank.NewEngine(matcher, rank.Config{
		RankThreshold:   fileCfg.Report.RankThreshold,
		RankWeight:      fileCfg.Weight.Rank,
		FrequencyWeight: fileCfg.Weight.Frequency,
		HotnessWeight:   fileCfg.Weight.Hotness,
	}, logger)

	channels, err := buildChannels(cfg, client)
	if err != nil {
		return nil, err
	}

	pushGate := gate.New(filepath.Join(cfg.OutputDir, ".push_records"), gate.Window{
		Enabled:       fileCfg.Notification.Window.Enabled,
		Start:         fileCfg.Notification.Window.Start,
		End:           fileCfg.Notification.Window.End,
		OncePerDay:    fileCfg.Notification.Window.OncePerDay,
		RetentionDays: fileCfg.Notification.Window.RetentionDays,
	}, now, logger)

	app := &App{
		cfg:     cfg,
		fileCfg: fileCfg,
		logger:  logger,
		now:     now,
		fetcher: ingest.NewFetcher(sources, fileCfg.Crawler.RequestInterval.Std(), now, logger),
		store:   snapshot.NewStore(cfg.OutputDir, now, logger),
		merger:  merge.NewMerger(platformFilter(fileCfg), logger),
		engine:  engine,
		writer:  report.NewWriter(cfg.OutputDir, now, logger),
		dispatcher: notify.NewDispatcher(pushGate, channels, fileCfg.Report.RankThreshold,
			fileCfg.Notification.MessageInterval.Std(), now, logger),
	}

	if cfg.PostgresDSN != "" {
		db, err := archive.New(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}

		if err := db.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}

		app.archive = db
	}

	return app, nil
}

// platformFilter limits merging to the configured platforms, or to
// nothing in particular when the file names none.
func platformFilter(fileCfg config.FileConfig) []string {
	ids := fileCfg.PlatformIDs()
	if len(ids) == 0 {
		return nil
	}

	return ids
}

// buildChannels constructs every channel whose credentials are
// present.
func buildChannels(cfg *config.Config, client *http.Client) ([]notify.Channel, error) {
	var channels []notify.Channel

	if ch := notify.NewFeishu(cfg.FeishuWebhookURL, client); ch != nil {
		channels = append(channels, ch)
	}

	if ch := notify.NewDingTalk(cfg.DingTalkWebhookURL, client); ch != nil {
		channels = append(channels, ch)
	}

	if ch := notify.NewWeWork(cfg.WeWorkWebhookURL, client); ch != nil {
		channels = append(channels, ch)
	}

	tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, client)
	if err != nil {
		return nil, err
	}

	if tg != nil {
		channels = append(channels, tg)
	}

	if ch := notify.NewNtfy(cfg.NtfyServerURL, cfg.NtfyTopic, cfg.NtfyToken, client); ch != nil {
		channels = append(channels, ch)
	}

	if ch := notify.NewEmail(notify.EmailConfig{
		Host:     cfg.EmailSMTPHost,
		Port:     cfg.EmailSMTPPort,
		Username: cfg.EmailUsername,
		Password: cfg.EmailPassword,
		From:     cfg.EmailFrom,
		To:       cfg.EmailTo,
	}); ch != nil {
		channels = append(channels, ch)
	}

	return channels, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.archive != nil {
		a.archive.Close()
	}
}

// StartHealthServer serves health and metrics endpoints until the
// context ends.
func (a *App) StartHealthServer(ctx context.Context) error {
	var pinger observability.Pinger
	if a.archive != nil {
		pinger = a.archive
	}

	return observability.NewServer(pinger, a.cfg.HealthPort, a.logger).Start(ctx)
}

// Run executes the pipeline once, or repeatedly on the configured
// interval when once is false.
func (a *App) Run(ctx context.Context, mode feed.Mode, once bool) error {
	if once {
		return a.RunOnce(ctx, mode)
	}

	interval := a.fileCfg.Crawler.RunInterval.Std()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := a.RunOnce(ctx, mode); err != nil {
		a.logger.Error().Err(err).Msg("pipeline run failed")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.RunOnce(ctx, mode); err != nil {
				a.logger.Error().Err(err).Msg("pipeline run failed")
			}
		}
	}
}

// RunOnce executes one full pipeline pass: capture, persist, merge,
// score, report, archive, notify.
func (a *App) RunOnce(ctx context.Context, mode feed.Mode) error {
	started := a.now()
	runID := uuid.New().String()

	logger := a.logger.With().Str("run_id", runID).Str("mode", mode.String()).Logger()

	defer func() {
		observability.RunDurationSeconds.Observe(time.Since(started).Seconds())
	}()

	if a.fileCfg.Crawler.Enabled {
		snap, err := a.fetcher.FetchAll(ctx)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}

		for _, section := range snap.Sections {
			observability.PlatformFetches.WithLabelValues(section.PlatformID, "ok").Inc()
		}

		for _, id := range snap.FailedIDs {
			observability.PlatformFetches.WithLabelValues(id, "failed").Inc()
		}

		if len(snap.Sections) == 0 {
			return fmt.Errorf("all %d platforms failed, keeping previous state", len(snap.FailedIDs))
		}

		if _, err := a.store.Write(snap); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
	}

	snapshots, err := a.store.ReadDay()
	if err != nil {
		return fmt.Errorf("read day: %w", err)
	}

	if len(snapshots) == 0 {
		logger.Info().Msg("no snapshots for today, nothing to report")

		return nil
	}

	latest := snapshots[len(snapshots)-1]
	firstToday := a.store.IsFirstToday()

	result := a.merger.Merge(snapshots)
	newSet := a.merger.DetectNew(snapshots)

	observability.TitlesMerged.Set(float64(result.Len()))
	observability.NewTitles.Set(float64(newSet.Total()))

	stats, considered := a.engine.Score(result, newSet, mode, firstToday)

	bundle := report.Assemble(stats, latest.FailedIDs, newSet, result.Names(), mode)

	logger.Info().
		Int("batches", len(snapshots)).
		Int("titles", result.Len()).
		Int("considered", considered).
		Int("new", newSet.Total()).
		Msg("report assembled")

	batchLabel := latest.TimeLabel

	if err := a.writer.WriteSummary(bundle, batchLabel); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	observability.ReportsWritten.WithLabelValues("summary").Inc()

	if err := a.writer.WriteIncremental(bundle, batchLabel); err != nil {
		return fmt.Errorf("write incremental: %w", err)
	}

	observability.ReportsWritten.WithLabelValues("incremental").Inc()

	if _, err := a.writer.WriteText(bundle, mode, batchLabel); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}

	observability.ReportsWritten.WithLabelValues("text").Inc()

	if a.archive != nil {
		if err := a.archive.SaveBatch(ctx, started, batchLabel, mode, bundle); err != nil {
			logger.Error().Err(err).Msg("archive failed")
		}
	}

	if a.fileCfg.Notification.Enabled {
		results := a.dispatcher.Dispatch(ctx, bundle, mode)

		for name, ok := range results {
			status := "ok"
			if !ok {
				status = "failed"
			}

			observability.MessagesSent.WithLabelValues(name, status).Inc()
		}
	}

	return nil
}
