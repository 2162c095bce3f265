package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/trendwatch-io/trendwatch/internal/core/feed"
	"github.com/trendwatch-io/trendwatch/internal/platform/timeutil"
)

const (
	txtDirName = "txt"
	txtSuffix  = ".txt"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Store reads and writes snapshot files under the per-day directory.
type Store struct {
	baseDir string
	now     func() time.Time
	logger  *zerolog.Logger
}

// NewStore builds a store rooted at baseDir. now defaults to time.Now.
func NewStore(baseDir string, now func() time.Time, logger *zerolog.Logger) *Store {
	if now == nil {
		now = time.Now
	}

	return &Store{baseDir: baseDir, now: now, logger: logger}
}

// Write persists the snapshot as <baseDir>/<date>/txt/<label>.txt and
// returns the file path. The label comes from the snapshot, falling
// back to the current batch label.
func (s *Store) Write(snap feed.Snapshot) (string, error) {
	now := s.now()

	label := snap.TimeLabel
	if label == "" {
		label = timeutil.BatchLabel(now)
	}

	dir := filepath.Join(s.baseDir, timeutil.DateFolder(now), txtDirName)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, label+txtSuffix)

	if err := os.WriteFile(path, []byte(Encode(snap)), filePerm); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	s.logger.Debug().Str("path", path).Msg("snapshot written")

	return path, nil
}

// ReadDay loads all of today's snapshots in batch order. Labels sort
// lexically, which equals time order within a day. An unreadable file
// is logged and skipped.
func (s *Store) ReadDay() ([]feed.Snapshot, error) {
	dir := filepath.Join(s.baseDir, timeutil.DateFolder(s.now()), txtDirName)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	var labels []string

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, txtSuffix) {
			continue
		}

		labels = append(labels, strings.TrimSuffix(name, txtSuffix))
	}

	sort.Strings(labels)

	snapshots := make([]feed.Snapshot, 0, len(labels))

	for _, label := range labels {
		data, err := os.ReadFile(filepath.Join(dir, label+txtSuffix))
		if err != nil {
			s.logger.Warn().Err(err).Str("batch", label).Msg("snapshot unreadable, skipped")

			continue
		}

		snapshots = append(snapshots, Decode(string(data), label, s.logger))
	}

	return snapshots, nil
}

// IsFirstToday reports whether at most one snapshot exists for today,
// meaning the current run is the day's first crawl.
func (s *Store) IsFirstToday() bool {
	dir := filepath.Join(s.baseDir, timeutil.DateFolder(s.now()), txtDirName)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return true
	}

	count := 0

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), txtSuffix) {
			count++
		}
	}

	return count <= 1
}
