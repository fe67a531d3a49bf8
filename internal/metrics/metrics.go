package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mention-monitor/mention-bot/internal/models"
)

// Run Metrics
var (
	// RunsTotal tracks completed runs by outcome
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentionbot_runs_total",
			Help: "Total runs by outcome (success/partial/failed)",
		},
		[]string{"outcome"},
	)

	// RunDuration tracks wall time of a run in seconds
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mentionbot_run_duration_seconds",
			Help:    "Run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// LastRunTimestamp records when the last run finished
	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mentionbot_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		},
	)
)

// Collection Metrics
var (
	// MentionsCollected tracks mentions returned by each collector
	MentionsCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentionbot_mentions_collected_total",
			Help: "Total mentions collected by platform",
		},
		[]string{"platform"},
	)

	// CollectorErrors tracks failed collector runs
	CollectorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentionbot_collector_errors_total",
			Help: "Total collector failures by platform",
		},
		[]string{"platform"},
	)

	// ScoringErrors tracks mentions that fell back to neutral sentiment
	ScoringErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mentionbot_scoring_errors_total",
			Help: "Total sentiment scoring failures",
		},
	)
)

// Report Metrics
var (
	// ReportMentions is the per-sentiment mention count of the last report
	ReportMentions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mentionbot_report_mentions",
			Help: "Mentions in the last report by sentiment label",
		},
		[]string{"sentiment"},
	)

	// AverageSentiment is the mean sentiment score of the last report
	AverageSentiment = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mentionbot_average_sentiment",
			Help: "Average sentiment score of the last report",
		},
	)

	// ExportFailures tracks failed JSON/CSV exports
	ExportFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentionbot_export_failures_total",
			Help: "Total export failures by format",
		},
		[]string{"format"},
	)

	// NotificationFailures tracks failed report deliveries
	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mentionbot_notification_failures_total",
			Help: "Total failed report notifications",
		},
	)
)

// RecordReport publishes the summary gauges of a finished report
func RecordReport(report *models.RunReport) {
	for _, label := range models.SentimentLabels {
		ReportMentions.WithLabelValues(string(label)).Set(float64(report.Summary.BySentiment[label]))
	}
	AverageSentiment.Set(report.Summary.AverageSentiment)
}
