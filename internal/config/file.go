package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes YAML strings like "30s" or "15m". Bare numbers are
// taken as nanoseconds the way yaml would decode time.Duration itself.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}

		*d = Duration(parsed)

		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}

	*d = Duration(n)

	return nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// FileConfig is the YAML part of the configuration: platform lists and
// report behavior that operators edit without redeploying.
type FileConfig struct {
	Report       ReportConfig       `yaml:"report"`
	Weight       WeightConfig       `yaml:"weight"`
	Crawler      CrawlerConfig      `yaml:"crawler"`
	Notification NotificationConfig `yaml:"notification"`
	Platforms    []PlatformConfig   `yaml:"platforms"`
	Feeds        []FeedConfig       `yaml:"rss_feeds"`
}

type ReportConfig struct {
	Mode          string `yaml:"mode"`
	RankThreshold int    `yaml:"rank_threshold"`
}

type WeightConfig struct {
	Rank      float64 `yaml:"rank_weight"`
	Frequency float64 `yaml:"frequency_weight"`
	Hotness   float64 `yaml:"hotness_weight"`
}

type CrawlerConfig struct {
	Enabled         bool     `yaml:"enabled"`
	RequestInterval Duration `yaml:"request_interval"`
	RunInterval     Duration `yaml:"run_interval"`
	RSSMaxAge       Duration `yaml:"rss_max_age"`
}

type NotificationConfig struct {
	Enabled         bool         `yaml:"enabled"`
	MessageInterval Duration     `yaml:"message_interval"`
	Window          WindowConfig `yaml:"push_window"`
}

type WindowConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Start         string `yaml:"start"`
	End           string `yaml:"end"`
	OncePerDay    bool   `yaml:"once_per_day"`
	RetentionDays int    `yaml:"retention_days"`
}

type PlatformConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type FeedConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// DefaultFileConfig returns the stock settings used when no file
// exists.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Report: ReportConfig{Mode: "daily", RankThreshold: 10},
		Weight: WeightConfig{Rank: 0.6, Frequency: 0.3, Hotness: 0.1},
		Crawler: CrawlerConfig{
			Enabled:         true,
			RequestInterval: Duration(time.Second),
			RunInterval:     Duration(30 * time.Minute),
			RSSMaxAge:       Duration(24 * time.Hour),
		},
		Notification: NotificationConfig{
			Enabled:         true,
			MessageInterval: Duration(time.Second),
			Window: WindowConfig{
				RetentionDays: 7,
			},
		},
	}
}

// LoadFile reads the YAML configuration, returning the defaults when
// the file does not exist.
func LoadFile(path string) (FileConfig, error) {
	cfg := DefaultFileConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if cfg.Report.RankThreshold <= 0 {
		cfg.Report.RankThreshold = 10
	}

	return cfg, nil
}

// PlatformIDs lists the configured platform ids, in file order.
func (c FileConfig) PlatformIDs() []string {
	ids := make([]string, 0, len(c.Platforms)+len(c.Feeds))

	for _, p := range c.Platforms {
		ids = append(ids, p.ID)
	}

	for _, f := range c.Feeds {
		ids = append(ids, f.ID)
	}

	return ids
}
