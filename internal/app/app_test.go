package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/trendwatch-io/trendwatch/internal/config"
	"github.com/trendwatch-io/trendwatch/internal/core/feed"
)

var testLogger = zerolog.Nop()

func testConfig(t *testing.T) (*config.Config, config.FileConfig) {
	t.Helper()

	dir := t.TempDir()

	cfg := &config.Config{
		OutputDir:          filepath.Join(dir, "output"),
		FrequencyWordsPath: filepath.Join(dir, "frequency_words.txt"),
		Timezone:           "UTC",
		RequestTimeout:     time.Second,
	}

	fileCfg := config.DefaultFileConfig()
	fileCfg.Crawler.Enabled = false
	fileCfg.Notification.Enabled = false

	return cfg, fileCfg
}

func writeSnapshot(t *testing.T, outputDir, label, content string) {
	t.Helper()

	day := time.Now().UTC().Format("2006-01-02")
	dir := filepath.Join(outputDir, day, "txt")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, label+".txt"), []byte(content), 0o644))
}

func TestRunOnceProducesReports(t *testing.T) {
	cfg, fileCfg := testConfig(t)

	writeSnapshot(t, cfg.OutputDir, "08-00", "zhihu | 知乎\n1. AI 芯片新进展\n2. 足球比赛结果\n")
	writeSnapshot(t, cfg.OutputDir, "12-00", "zhihu | 知乎\n1. AI 芯片新进展\n2. 新增话题\n")

	application, err := New(context.Background(), cfg, fileCfg, &testLogger)
	require.NoError(t, err)
	defer application.Close()

	require.NoError(t, application.RunOnce(context.Background(), feed.ModeDaily))

	day := time.Now().UTC().Format("2006-01-02")

	summaryPath := filepath.Join(cfg.OutputDir, day, "json", "summary.json")
	data, err := os.ReadFile(summaryPath)
	require.NoError(t, err)

	var summary struct {
		Metadata struct {
			TotalBatches int `json:"total_batches"`
		} `json:"metadata"`
		Batches []struct {
			BatchID string `json:"batch_id"`
		} `json:"batches"`
	}

	require.NoError(t, json.Unmarshal(data, &summary))
	require.Equal(t, 1, summary.Metadata.TotalBatches)
	require.Equal(t, "12-00", summary.Batches[0].BatchID)

	_, err = os.Stat(filepath.Join(cfg.OutputDir, day, "json", "incremental.json"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(cfg.OutputDir, day, "report", "12-00.txt"))
	require.NoError(t, err)
}

func TestRunOnceNoSnapshotsIsNoop(t *testing.T) {
	cfg, fileCfg := testConfig(t)

	application, err := New(context.Background(), cfg, fileCfg, &testLogger)
	require.NoError(t, err)
	defer application.Close()

	require.NoError(t, application.RunOnce(context.Background(), feed.ModeDaily))

	_, err = os.Stat(cfg.OutputDir)
	require.True(t, os.IsNotExist(err), "no output is created without snapshots")
}

func TestNewRejectsBadTimezone(t *testing.T) {
	cfg, fileCfg := testConfig(t)
	cfg.Timezone = "Not/AZone"

	_, err := New(context.Background(), cfg, fileCfg, &testLogger)
	require.Error(t, err)
}

func TestNewRejectsBadProxy(t *testing.T) {
	cfg, fileCfg := testConfig(t)
	cfg.ProxyURL = "ftp://127.0.0.1:1"

	_, err := New(context.Background(), cfg, fileCfg, &testLogger)
	require.Error(t, err)
}
