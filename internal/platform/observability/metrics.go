package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlatformFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendwatch_platform_fetches_total",
		Help: "Platform fetch attempts by result",
	}, []string{"platform", "status"})

	TitlesMerged = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trendwatch_titles_merged",
		Help: "Distinct titles after merging the day's snapshots",
	})

	NewTitles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trendwatch_new_titles",
		Help: "Titles first seen in the latest batch",
	})

	ReportsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendwatch_reports_written_total",
		Help: "Report documents written by kind",
	}, []string{"kind"})

	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendwatch_messages_sent_total",
		Help: "Notification messages sent by channel and result",
	}, []string{"channel", "status"})

	RunDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trendwatch_run_duration_seconds",
		Help:    "Duration of one full pipeline run",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
	})
)
