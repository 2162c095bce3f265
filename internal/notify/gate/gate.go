// Package gate decides whether a notification run may push at all: an
// optional daily time window, an optional once-per-day latch persisted
// on disk, and retention cleanup of old latch records.
package gate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/trendwatch-io/trendwatch/internal/platform/timeutil"
)

const (
	recordPrefix = "push_record_"
	recordSuffix = ".json"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Window configures the gate. Start and End are HH:MM local clock
// values; malformed values are kept literally and block the window
// instead of being auto-corrected.
type Window struct {
	Enabled       bool
	Start         string
	End           string
	OncePerDay    bool
	RetentionDays int
}

// record is the persisted once-per-day latch.
type record struct {
	Pushed     bool   `json:"pushed"`
	PushTime   string `json:"push_time"`
	ReportType string `json:"report_type"`
}

// Gate evaluates the push window against persisted state.
type Gate struct {
	dir    string
	window Window
	now    func() time.Time
	logger *zerolog.Logger
}

// New builds a gate persisting records under dir and sweeps records
// older than the retention window. now supplies local time and
// defaults to time.Now.
func New(dir string, window Window, now func() time.Time, logger *zerolog.Logger) *Gate {
	if now == nil {
		now = time.Now
	}

	window.Start = normalized(window.Start, logger)
	window.End = normalized(window.End, logger)

	g := &Gate{dir: dir, window: window, now: now, logger: logger}
	g.sweep()

	return g
}

func normalized(value string, logger *zerolog.Logger) string {
	if strings.TrimSpace(value) == "" {
		return value
	}

	clock, err := timeutil.NormalizeClock(value)
	if err != nil {
		logger.Warn().Err(err).Str("value", value).Msg("push window time malformed, window will not match")
	}

	return clock
}

// Allow reports whether a push may proceed now.
func (g *Gate) Allow() bool {
	if !g.window.Enabled {
		return true
	}

	clock := g.now().Format("15:04")
	if clock < g.window.Start || clock > g.window.End {
		g.logger.Info().
			Str("now", clock).
			Str("start", g.window.Start).
			Str("end", g.window.End).
			Msg("outside push window")

		return false
	}

	if g.window.OncePerDay && g.HasPushedToday() {
		g.logger.Info().Msg("already pushed today")

		return false
	}

	return true
}

// HasPushedToday reports whether today's latch record exists and is
// marked pushed.
func (g *Gate) HasPushedToday() bool {
	data, err := os.ReadFile(g.recordPath(g.now()))
	if err != nil {
		return false
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		g.logger.Warn().Err(err).Msg("push record corrupt, treating as not pushed")

		return false
	}

	return rec.Pushed
}

// MarkPushed persists today's latch after a confirmed successful send.
// The write is temp+rename so a concurrent Allow never reads a partial
// record.
func (g *Gate) MarkPushed(reportType string) error {
	now := g.now()

	if err := os.MkdirAll(g.dir, dirPerm); err != nil {
		return fmt.Errorf("create push record dir: %w", err)
	}

	data, err := json.MarshalIndent(record{
		Pushed:     true,
		PushTime:   now.Format(time.RFC3339),
		ReportType: reportType,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal push record: %w", err)
	}

	path := g.recordPath(now)

	tmp, err := os.CreateTemp(g.dir, "."+recordPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("write temp record: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("close temp record: %w", err)
	}

	if err := os.Chmod(tmpName, filePerm); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("chmod temp record: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("replace push record: %w", err)
	}

	return nil
}

func (g *Gate) recordPath(t time.Time) string {
	return filepath.Join(g.dir, recordPrefix+timeutil.DateCompact(t)+recordSuffix)
}

// sweep deletes latch records older than the retention window. The
// comparison is by calendar-day difference, so a record from 23:59
// yesterday is one day old at 00:01 today.
func (g *Gate) sweep() {
	if g.window.RetentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(g.dir)
	if err != nil {
		return
	}

	today, err := time.Parse("20060102", timeutil.DateCompact(g.now()))
	if err != nil {
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, recordPrefix) || !strings.HasSuffix(name, recordSuffix) {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(name, recordPrefix), recordSuffix)

		day, err := time.Parse("20060102", stamp)
		if err != nil {
			continue
		}

		age := int(today.Sub(day).Hours() / 24)
		if age <= g.window.RetentionDays {
			continue
		}

		if err := os.Remove(filepath.Join(g.dir, name)); err != nil {
			g.logger.Warn().Err(err).Str("file", name).Msg("cannot remove expired push record")

			continue
		}

		g.logger.Debug().Str("file", name).Int("age_days", age).Msg("expired push record removed")
	}
}
