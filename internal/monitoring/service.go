package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/mention-monitor/mention-bot/internal/aggregator"
	"github.com/mention-monitor/mention-bot/internal/metrics"
	"github.com/mention-monitor/mention-bot/internal/models"
	"github.com/mention-monitor/mention-bot/internal/notifications"
	"github.com/mention-monitor/mention-bot/internal/report"
	"github.com/mention-monitor/mention-bot/internal/sentiment"
	"github.com/mention-monitor/mention-bot/internal/sources"
)

// ErrRunInProgress is returned when a run is requested while another is active
var ErrRunInProgress = errors.New("a monitoring run is already in progress")

// ErrExportsDisabled is returned by the export accessors when no exporter is configured
var ErrExportsDisabled = errors.New("exports are not configured")

const defaultRunTimeout = 30 * time.Minute

// Options configures what a run searches for and how it ranks results
type Options struct {
	ProductName string
	Keywords    []string
	TopN        int
	RankBy      aggregator.RankKey
	RunTimeout  time.Duration
	// AlertOnNegative raises a notification alert when negative mentions
	// outnumber positive ones
	AlertOnNegative bool
	// KeepExports is the number of runs whose exports are kept; 0 keeps all
	KeepExports int
}

// RunOptions are the per-invocation parameters
type RunOptions struct {
	Hours int
	Save  bool
}

// RunResult is everything a run produced. Export and notification
// failures are reported here without failing the run.
type RunResult struct {
	Report    *models.RunReport
	Mentions  []models.Mention
	Rendered  string
	Files     []string
	ExportErr error
	NotifyErr error
}

// NegativeDominates reports whether negative mentions outnumber positive ones
func (r *RunResult) NegativeDominates() bool {
	summary := r.Report.Summary
	return summary.BySentiment[models.SentimentNegative] > summary.BySentiment[models.SentimentPositive]
}

// Status holds the outcome of the last run
type Status struct {
	RunID              string                        `json:"run_id"`
	LastRun            time.Time                     `json:"last_run"`
	LastRunDuration    string                        `json:"last_run_duration"`
	TotalMentions      int                           `json:"total_mentions"`
	SourceMetrics      map[models.Platform]int       `json:"source_metrics"`
	SentimentBreakdown map[models.SentimentLabel]int `json:"sentiment_breakdown"`
	ErrorCount         int                           `json:"error_count"`
	Files              []string                      `json:"files,omitempty"`
	Report             *models.RunReport             `json:"report,omitempty"`
}

// Service handles monitoring of mentions across the configured platforms
type Service struct {
	opts                Options
	sources             []sources.Source
	scorer              sentiment.Scorer
	exporter            *report.Exporter
	notificationService notifications.NotificationInterface
	clock               clockwork.Clock
	newID               func() string

	running sync.Mutex
	mu      sync.RWMutex
	status  *Status
}

// NewService creates a new monitoring service. exporter and
// notificationService may be nil.
func NewService(
	opts Options,
	srcs []sources.Source,
	scorer sentiment.Scorer,
	exporter *report.Exporter,
	notificationService notifications.NotificationInterface,
	clock clockwork.Clock,
) *Service {
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = defaultRunTimeout
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Service{
		opts:                opts,
		sources:             srcs,
		scorer:              scorer,
		exporter:            exporter,
		notificationService: notificationService,
		clock:               clock,
		newID:               uuid.NewString,
	}
}

type collected struct {
	mentions []models.Mention
	err      error
}

// RunOnce performs one collect, score, aggregate, render, export and notify
// cycle. When every enabled source failed, or none is enabled, the result is
// still returned together with models.ErrAllCollectorsFailed.
func (s *Service) RunOnce(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if !s.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()

	if opts.Hours <= 0 {
		return nil, fmt.Errorf("lookback window must be positive, got %d hours", opts.Hours)
	}

	start := s.clock.Now()
	until := start.UTC()
	since := until.Add(-time.Duration(opts.Hours) * time.Hour)
	runID := s.newID()

	logrus.WithField("run_id", runID).Infof("Starting monitoring run for the last %dh", opts.Hours)

	ctx, cancel := context.WithTimeout(ctx, s.opts.RunTimeout)
	defer cancel()

	enabled := s.enabledSources()
	results := s.collect(ctx, enabled, since)

	var all []models.Mention
	collectorErrors := make(map[models.Platform]string)
	failed := 0

	for i, res := range results {
		platform := models.Platform(enabled[i].GetName())
		if res.err != nil {
			failed++
			collectErr := &models.CollectorError{Platform: platform, Err: res.err}
			logrus.Errorf("Error fetching from %s: %v", platform, collectErr)
			collectorErrors[platform] = res.err.Error()
			metrics.CollectorErrors.WithLabelValues(string(platform)).Inc()
			continue
		}

		logrus.Infof("Found %d mentions from %s", len(res.mentions), platform)
		metrics.MentionsCollected.WithLabelValues(string(platform)).Add(float64(len(res.mentions)))
		all = append(all, res.mentions...)
	}

	logrus.Infof("Collected %d total mentions from %d sources", len(all), len(enabled))

	scored := s.score(all)

	runReport, unique := aggregator.Aggregate(scored, aggregator.Options{TopN: s.opts.TopN, RankBy: s.opts.RankBy})
	runReport.RunID = runID
	runReport.GeneratedAt = until
	runReport.ProductName = s.opts.ProductName
	runReport.Window = models.Window{Hours: opts.Hours, Since: since, Until: until}
	runReport.Keywords = s.opts.Keywords
	if len(collectorErrors) > 0 {
		runReport.CollectorErrors = collectorErrors
	}

	result := &RunResult{
		Report:   runReport,
		Mentions: unique,
		Rendered: report.RenderConsole(runReport),
	}

	if opts.Save {
		s.export(result, until)
	}

	s.notify(result)

	allFailed := failed == len(enabled)
	duration := s.clock.Since(start)
	s.recordRun(result, duration, failed, allFailed)

	logrus.WithField("run_id", runID).Infof("Monitoring run completed in %v", duration)

	if allFailed {
		return result, models.ErrAllCollectorsFailed
	}
	return result, nil
}

func (s *Service) enabledSources() []sources.Source {
	var enabled []sources.Source
	for _, src := range s.sources {
		if !src.IsEnabled() {
			logrus.Infof("Skipping %s: not configured", src.GetName())
			continue
		}
		enabled = append(enabled, src)
	}
	return enabled
}

// collect queries every source concurrently. Results are slotted by source
// index so the merged order does not depend on which request finishes first.
func (s *Service) collect(ctx context.Context, srcs []sources.Source, since time.Time) []collected {
	results := make([]collected, len(srcs))

	var wg sync.WaitGroup
	for i, src := range srcs {
		wg.Add(1)
		go func(i int, src sources.Source) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = collected{err: fmt.Errorf("collector panic: %v", r)}
				}
			}()

			logrus.Infof("Fetching mentions from %s since %s", src.GetName(), since.Format(time.RFC3339))
			mentions, err := src.FetchMentions(ctx, s.opts.Keywords, since)
			results[i] = collected{mentions: mentions, err: err}
		}(i, src)
	}
	wg.Wait()

	return results
}

func (s *Service) score(mentions []models.Mention) []models.Mention {
	scored := make([]models.Mention, 0, len(mentions))
	for _, mention := range mentions {
		m, err := sentiment.Apply(s.scorer, mention)
		if err != nil {
			logrus.Warnf("Sentiment scoring failed, using neutral: %v", err)
			metrics.ScoringErrors.Inc()
		}
		scored = append(scored, m)
	}
	return scored
}

func (s *Service) export(result *RunResult, at time.Time) {
	if s.exporter == nil {
		return
	}

	jsonName, csvName := report.FileNames(at)
	var errs []error

	if err := s.exporter.ExportJSON(result.Report, result.Mentions, jsonName); err != nil {
		logrus.Errorf("Failed to export JSON: %v", err)
		metrics.ExportFailures.WithLabelValues("json").Inc()
		errs = append(errs, err)
	} else {
		result.Files = append(result.Files, s.exporter.Location(jsonName))
	}

	if err := s.exporter.ExportCSV(result.Mentions, csvName); err != nil {
		logrus.Errorf("Failed to export CSV: %v", err)
		metrics.ExportFailures.WithLabelValues("csv").Inc()
		errs = append(errs, err)
	} else {
		result.Files = append(result.Files, s.exporter.Location(csvName))
	}

	result.ExportErr = errors.Join(errs...)

	removed, err := s.exporter.Prune(s.opts.KeepExports)
	if err != nil {
		logrus.Warnf("Failed to prune old exports: %v", err)
	}
	if len(removed) > 0 {
		logrus.Infof("Pruned %d old export files", len(removed))
	}
}

// Exports lists the export files written by previous runs
func (s *Service) Exports() ([]string, error) {
	if s.exporter == nil {
		return nil, ErrExportsDisabled
	}
	return s.exporter.Exports()
}

// ReadExport returns a previous export file
func (s *Service) ReadExport(name string) ([]byte, error) {
	if s.exporter == nil {
		return nil, ErrExportsDisabled
	}
	return s.exporter.Read(name)
}

func (s *Service) notify(result *RunResult) {
	if s.notificationService == nil || !s.notificationService.Enabled() {
		return
	}

	var errs []error
	if err := s.notificationService.SendReport(result.Report, result.Rendered); err != nil {
		errs = append(errs, err)
	}

	if s.opts.AlertOnNegative && result.NegativeDominates() {
		summary := result.Report.Summary
		alert := &notifications.Alert{
			Title: fmt.Sprintf("Negative sentiment for %s", s.opts.ProductName),
			Message: fmt.Sprintf("%d negative vs %d positive mentions in the last %dh",
				summary.BySentiment[models.SentimentNegative],
				summary.BySentiment[models.SentimentPositive],
				result.Report.Window.Hours),
			RunID: result.Report.RunID,
		}
		if err := s.notificationService.SendAlert(alert); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		result.NotifyErr = errors.Join(errs...)
		metrics.NotificationFailures.Inc()
		logrus.Errorf("Failed to send notifications: %v", result.NotifyErr)
	}
}

func (s *Service) recordRun(result *RunResult, duration time.Duration, failed int, allFailed bool) {
	outcome := "success"
	switch {
	case allFailed:
		outcome = "failed"
	case failed > 0 || result.ExportErr != nil:
		outcome = "partial"
	}

	metrics.RunsTotal.WithLabelValues(outcome).Inc()
	metrics.RunDuration.Observe(duration.Seconds())
	metrics.LastRunTimestamp.Set(float64(s.clock.Now().Unix()))
	metrics.RecordReport(result.Report)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = &Status{
		RunID:              result.Report.RunID,
		LastRun:            result.Report.GeneratedAt,
		LastRunDuration:    duration.String(),
		TotalMentions:      result.Report.Summary.Total,
		SourceMetrics:      result.Report.Summary.ByPlatform,
		SentimentBreakdown: result.Report.Summary.BySentiment,
		ErrorCount:         failed,
		Files:              result.Files,
		Report:             result.Report,
	}
}

// LastStatus returns the status of the last run, or nil before the first
func (s *Service) LastStatus() *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// GetMetrics returns the last run status as JSON
func (s *Service) GetMetrics() string {
	status := s.LastStatus()
	if status == nil {
		return `{"status":"no runs yet"}`
	}

	data, _ := json.MarshalIndent(status, "", "  ")
	return string(data)
}
