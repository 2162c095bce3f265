// Package archive persists report batches to Postgres for long-term
// querying. The archive is optional; without a DSN the pipeline keeps
// its file outputs only.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/trendwatch-io/trendwatch/internal/core/feed"
	"github.com/trendwatch-io/trendwatch/internal/core/report"
	"github.com/trendwatch-io/trendwatch/migrations"
)

const (
	connectRetries = 10
	retryDelay     = 2 * time.Second

	migrationLockID = 1000
)

// Archive writes report batches to Postgres.
type Archive struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

// New connects with retries, matching container startup where the
// database may come up after the service.
func New(ctx context.Context, dsn string, logger *zerolog.Logger) (*Archive, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	var pool *pgxpool.Pool
	for i := 0; i < connectRetries; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return &Archive{pool: pool, logger: logger}, nil
			}
		}

		if pool != nil {
			pool.Close()
		}

		time.Sleep(retryDelay)
	}

	return nil, fmt.Errorf("failed to connect to database after retries: %w", err)
}

func (a *Archive) Close() {
	a.pool.Close()
}

// Ping reports database reachability for readiness checks.
func (a *Archive) Ping(ctx context.Context) error {
	return a.pool.Ping(ctx)
}

// Migrate applies the embedded goose migrations under an advisory
// lock, so concurrent instances never race on schema changes.
func (a *Archive) Migrate(ctx context.Context) error {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return err
	}

	defer func() {
		_, _ = conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID)
	}()

	dbSQL := stdlib.OpenDB(*a.pool.Config().ConnConfig)

	defer func() {
		_ = dbSQL.Close()
	}()

	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.Up(dbSQL, "."); err != nil {
		return err
	}

	return nil
}

const upsertBatch = `
INSERT INTO report_batches (id, report_date, batch_id, mode, total_news_count, new_news_count, groups, failed_ids)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (report_date, batch_id, mode) DO UPDATE SET
    total_news_count = EXCLUDED.total_news_count,
    new_news_count = EXCLUDED.new_news_count,
    groups = EXCLUDED.groups,
    failed_ids = EXCLUDED.failed_ids
`

// SaveBatch upserts one run's bundle. Reruns of the same batch label
// replace the earlier row instead of duplicating it.
func (a *Archive) SaveBatch(ctx context.Context, date time.Time, batchLabel string, mode feed.Mode, bundle report.Bundle) error {
	groups, err := json.Marshal(bundle.Groups)
	if err != nil {
		return fmt.Errorf("marshal groups: %w", err)
	}

	failedIDs := bundle.FailedIDs
	if failedIDs == nil {
		failedIDs = []string{}
	}

	_, err = a.pool.Exec(ctx, upsertBatch,
		uuid.New(),
		date,
		batchLabel,
		mode.String(),
		bundle.TotalCount(),
		bundle.TotalNewCount,
		groups,
		failedIDs,
	)
	if err != nil {
		return fmt.Errorf("save report batch: %w", err)
	}

	a.logger.Debug().
		Str("batch", batchLabel).
		Str("mode", mode.String()).
		Msg("report batch archived")

	return nil
}
