package notifications

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/mention-monitor/mention-bot/internal/models"
)

// Config selects and configures the delivery channels. Empty values
// disable the matching channel.
type Config struct {
	ProductName       string
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Service handles sending notifications via various channels
type Service struct {
	config Config
	client *resty.Client
	mailer mailSender
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	ActivityText  string      `json:"activityText,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg Config) *Service {
	s := &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
	if cfg.NotificationEmail != "" {
		s.mailer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	return s
}

// Enabled reports whether any channel is configured
func (s *Service) Enabled() bool {
	return s.config.TeamsWebhookURL != "" || s.config.NotificationEmail != ""
}

// SendReport sends a report via configured notification channels
func (s *Service) SendReport(report *models.RunReport, rendered string) error {
	var errs []error

	if s.config.TeamsWebhookURL != "" {
		if err := s.postTeams(s.buildTeamsMessage(report)); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errs = append(errs, fmt.Errorf("teams: %w", err))
		} else {
			logrus.Info("Successfully sent report to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report, rendered); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errs = append(errs, fmt.Errorf("email: %w", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	return errors.Join(errs...)
}

// SendAlert posts an alert card to Teams. Email is reserved for reports.
func (s *Service) SendAlert(alert *Alert) error {
	if s.config.TeamsWebhookURL == "" {
		logrus.Debugf("No Teams webhook configured, alert dropped: %s", alert.Title)
		return nil
	}

	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "D13438",
		Title:      alert.Title,
		Text:       alert.Message,
	}
	if alert.RunID != "" {
		message.Sections = []TeamsSection{{Facts: []TeamsFact{{Name: "Run", Value: alert.RunID}}}}
	}

	if err := s.postTeams(message); err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	return nil
}

func (s *Service) postTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) subject(report *models.RunReport) string {
	return fmt.Sprintf("%s Mentions Report - last %dh (%d mentions)",
		s.config.ProductName, report.Window.Hours, report.Summary.Total)
}

func (s *Service) buildTeamsMessage(report *models.RunReport) *TeamsMessage {
	summary := report.Summary
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   s.subject(report),
		Text:    fmt.Sprintf("Found %d mentions in the last %d hours", summary.Total, report.Window.Hours),
	}

	facts := []TeamsFact{
		{Name: "Total Mentions", Value: fmt.Sprintf("%d", summary.Total)},
		{Name: "Generated", Value: report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
	}
	for _, platform := range models.Platforms {
		facts = append(facts, TeamsFact{Name: string(platform), Value: fmt.Sprintf("%d", summary.ByPlatform[platform])})
	}
	facts = append(facts,
		TeamsFact{Name: "Positive", Value: fmt.Sprintf("%d (%.1f%%)", summary.BySentiment[models.SentimentPositive], summary.PositivePercentage)},
		TeamsFact{Name: "Negative", Value: fmt.Sprintf("%d (%.1f%%)", summary.BySentiment[models.SentimentNegative], summary.NegativePercentage)},
		TeamsFact{Name: "Neutral", Value: fmt.Sprintf("%d (%.1f%%)", summary.BySentiment[models.SentimentNeutral], summary.NeutralPercentage)},
		TeamsFact{Name: "Average Sentiment", Value: fmt.Sprintf("%.3f", summary.AverageSentiment)},
	)

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(report.TopMentions) > 0 {
		var text bytes.Buffer
		for i, mention := range report.TopMentions {
			if i > 0 {
				text.WriteString("\n\n")
			}
			fmt.Fprintf(&text, "**[%s](%s)** - %s, %d engagement (%s)",
				shorten(mention.DisplayTitle(), 80), mention.URL, mention.Platform,
				mention.EngagementScore, mention.SentimentLabel)
		}

		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Top Mentions",
			ActivityText:  text.String(),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) sendEmail(report *models.RunReport, rendered string) error {
	htmlBody, err := buildEmailHTML(report, s.config.ProductName)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", s.subject(report))
	m.SetBody("text/plain", rendered)
	m.AddAlternative("text/html", htmlBody)

	if err := s.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

var emailTemplate = template.Must(template.New("email").Funcs(template.FuncMap{
	"shorten": shorten,
	"pct":     func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Product}} Mentions Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .mention { border-left: 4px solid #605e5c; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .mention-meta { color: #666; font-size: 0.9em; }
        .positive { border-left-color: #107c10; }
        .negative { border-left-color: #d13438; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Product}} Mentions Report</h1>
        <p>Last {{.Report.Window.Hours}} hours, generated {{.Report.GeneratedAt.Format "January 2, 2006 at 3:04 PM MST"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Total Mentions:</strong> {{.Report.Summary.Total}}</p>
        <p><strong>Positive:</strong> {{pct .Report.Summary.PositivePercentage}}
           <strong>Negative:</strong> {{pct .Report.Summary.NegativePercentage}}
           <strong>Neutral:</strong> {{pct .Report.Summary.NeutralPercentage}}</p>
    </div>

    {{if .Report.TopMentions}}
    <h2>Top Mentions</h2>
    {{range .Report.TopMentions}}
        <div class="mention {{.SentimentLabel}}">
            <a href="{{.URL}}" target="_blank">{{shorten .DisplayTitle 120}}</a>
            <div class="mention-meta">
                {{.Author}} on {{.Platform}} | {{.Timestamp.Format "Jan 2, 2006"}} | Score: {{.EngagementScore}}
            </div>
        </div>
    {{end}}
    {{end}}
</body>
</html>
`))

func buildEmailHTML(report *models.RunReport, product string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Product string
		Report  *models.RunReport
	}{product, report}

	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func shorten(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length]) + "..."
}
