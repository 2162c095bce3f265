package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/trendwatch-io/trendwatch/internal/core/feed"
	"github.com/trendwatch-io/trendwatch/internal/platform/timeutil"
)

const (
	jsonDirName   = "json"
	reportDirName = "report"

	summaryFile     = "summary.json"
	incrementalFile = "incremental.json"

	dirPerm  = 0o755
	filePerm = 0o644
)

// summaryDocument accumulates one batch entry per run across the day.
type summaryDocument struct {
	Metadata summaryMetadata `json:"metadata"`
	Batches  []summaryBatch  `json:"batches"`
}

type summaryMetadata struct {
	Date           string `json:"date"`
	TotalBatches   int    `json:"total_batches"`
	TotalNewsCount int    `json:"total_news_count"`
	LastUpdate     string `json:"last_update"`
}

type summaryBatch struct {
	BatchID        string  `json:"batch_id"`
	Timestamp      string  `json:"timestamp"`
	TotalNewsCount int     `json:"total_news_count"`
	Groups         []Group `json:"groups"`
}

// incrementalDocument holds only the latest batch's new items and is
// rewritten whole on every run.
type incrementalDocument struct {
	Metadata incrementalMetadata `json:"metadata"`
	Groups   []Group             `json:"groups"`
}

type incrementalMetadata struct {
	Date         string `json:"date"`
	BatchID      string `json:"batch_id"`
	Timestamp    string `json:"timestamp"`
	NewNewsCount int    `json:"new_news_count"`
}

// Writer persists report documents under the per-day output directory.
type Writer struct {
	baseDir string
	now     func() time.Time
	logger  *zerolog.Logger
}

// NewWriter builds a writer rooted at baseDir. now supplies the run
// timestamp and defaults to time.Now.
func NewWriter(baseDir string, now func() time.Time, logger *zerolog.Logger) *Writer {
	if now == nil {
		now = time.Now
	}

	return &Writer{baseDir: baseDir, now: now, logger: logger}
}

// WriteSummary appends the batch to the day's summary document. A
// missing or unreadable document is reinitialized rather than aborting
// the run.
func (w *Writer) WriteSummary(bundle Bundle, batchLabel string) error {
	now := w.now()
	dir := filepath.Join(w.baseDir, timeutil.DateFolder(now), jsonDirName)

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create json dir: %w", err)
	}

	path := filepath.Join(dir, summaryFile)

	doc := w.loadSummary(path, now)

	doc.Batches = append(doc.Batches, summaryBatch{
		BatchID:        batchLabel,
		Timestamp:      now.Format(time.RFC3339),
		TotalNewsCount: bundle.TotalCount(),
		Groups:         bundle.Groups,
	})

	doc.Metadata.TotalBatches = len(doc.Batches)
	doc.Metadata.LastUpdate = now.Format(time.RFC3339)

	doc.Metadata.TotalNewsCount = 0
	for _, batch := range doc.Batches {
		doc.Metadata.TotalNewsCount += batch.TotalNewsCount
	}

	return atomicWriteJSON(path, doc)
}

// loadSummary reads the existing document or starts a fresh one. A
// corrupt file is logged and replaced, never propagated.
func (w *Writer) loadSummary(path string, now time.Time) summaryDocument {
	fresh := summaryDocument{Metadata: summaryMetadata{Date: timeutil.DateFolder(now)}}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn().Err(err).Str("path", path).Msg("summary unreadable, reinitializing")
		}

		return fresh
	}

	var doc summaryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		w.logger.Warn().Err(err).Str("path", path).Msg("summary corrupt, reinitializing")

		return fresh
	}

	return doc
}

// WriteIncremental overwrites the day's incremental document with the
// new items of this batch. Groups are filtered down to new items only;
// groups left empty by the filter are dropped.
func (w *Writer) WriteIncremental(bundle Bundle, batchLabel string) error {
	now := w.now()
	dir := filepath.Join(w.baseDir, timeutil.DateFolder(now), jsonDirName)

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create json dir: %w", err)
	}

	doc := incrementalDocument{
		Metadata: incrementalMetadata{
			Date:      timeutil.DateFolder(now),
			BatchID:   batchLabel,
			Timestamp: now.Format(time.RFC3339),
		},
	}

	for _, group := range bundle.Groups {
		var items []Item

		for _, item := range group.Items {
			if item.IsNew {
				items = append(items, item)
			}
		}

		if len(items) == 0 {
			continue
		}

		doc.Groups = append(doc.Groups, Group{
			Word:       group.Word,
			Count:      len(items),
			Percentage: group.Percentage,
			Items:      items,
		})
		doc.Metadata.NewNewsCount += len(items)
	}

	return atomicWriteJSON(filepath.Join(dir, incrementalFile), doc)
}

// WriteText renders a plain-text report next to the JSON documents,
// one file per batch.
func (w *Writer) WriteText(bundle Bundle, mode feed.Mode, batchLabel string) (string, error) {
	now := w.now()
	dir := filepath.Join(w.baseDir, timeutil.DateFolder(now), reportDirName)

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, batchLabel+".txt")

	if err := atomicWrite(path, []byte(renderText(bundle, mode, now))); err != nil {
		return "", err
	}

	return path, nil
}

func renderText(bundle Bundle, mode feed.Mode, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s · %s %s\n\n", mode.ReportType(), timeutil.DateFolder(now), now.Format("15:04"))

	for _, group := range bundle.Groups {
		fmt.Fprintf(&b, "%s (共%d条, 占比 %.2f%%)\n", group.Word, group.Count, group.Percentage)

		for i, item := range group.Items {
			marker := ""
			if item.IsNew {
				marker = "🆕 "
			}

			fmt.Fprintf(&b, "  %d. %s[%s] %s", i+1, marker, item.SourceName, item.Title)

			if item.TimeDisplay != "" {
				fmt.Fprintf(&b, " %s", item.TimeDisplay)
			}

			if item.Count > 1 {
				fmt.Fprintf(&b, " (%d次)", item.Count)
			}

			b.WriteString("\n")
		}

		b.WriteString("\n")
	}

	for _, pn := range bundle.NewItems {
		fmt.Fprintf(&b, "🆕 %s 新增 %d 条\n", pn.SourceName, len(pn.Items))

		for _, item := range pn.Items {
			fmt.Fprintf(&b, "  - %s\n", item.Title)
		}
	}

	if len(bundle.FailedIDs) > 0 {
		fmt.Fprintf(&b, "\n⚠️ 以下平台请求失败: %s\n", strings.Join(bundle.FailedIDs, ", "))
	}

	return b.String()
}

// atomicWriteJSON marshals indented JSON and writes it via temp+rename
// so a crash can never leave a half-written document behind.
func atomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	return atomicWrite(path, data)
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpName, filePerm); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)

		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}

	return nil
}
