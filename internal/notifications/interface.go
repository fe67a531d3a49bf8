package notifications

import "github.com/mention-monitor/mention-bot/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	// SendReport delivers a finished run; rendered is the console text
	SendReport(report *models.RunReport, rendered string) error
	SendAlert(alert *Alert) error
	Enabled() bool
}

// Alert is an out-of-band warning raised by a run
type Alert struct {
	Title   string
	Message string
	RunID   string
}
