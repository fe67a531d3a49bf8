package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/mention-monitor/mention-bot/internal/models"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) DialAndSend(msgs ...*gomail.Message) error {
	args := m.Called(msgs)
	return args.Error(0)
}

func testReport() *models.RunReport {
	generated := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	return &models.RunReport{
		RunID:       "run-42",
		GeneratedAt: generated,
		Window:      models.Window{Hours: 24, Since: generated.Add(-24 * time.Hour), Until: generated},
		Summary: models.Summary{
			Total:              2,
			ByPlatform:         map[models.Platform]int{models.PlatformReddit: 2},
			BySentiment:        map[models.SentimentLabel]int{models.SentimentPositive: 1, models.SentimentNegative: 1},
			PositivePercentage: 50,
			NegativePercentage: 50,
		},
		TopMentions: []models.Mention{
			{
				Platform:        models.PlatformReddit,
				ID:              "t3_1",
				Title:           "Ansible upgrade went great",
				URL:             "https://reddit.com/r/ansible/1",
				EngagementScore: 12,
				SentimentLabel:  models.SentimentPositive,
				Timestamp:       generated,
			},
		},
	}
}

func teamsServer(t *testing.T, status int, received *TeamsMessage) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if received != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(received))
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestService_Enabled(t *testing.T) {
	assert.False(t, NewService(Config{}).Enabled())
	assert.True(t, NewService(Config{TeamsWebhookURL: "http://hook"}).Enabled())
	assert.True(t, NewService(Config{NotificationEmail: "team@example.com"}).Enabled())
}

func TestSendReport_NoChannels(t *testing.T) {
	assert.NoError(t, NewService(Config{}).SendReport(testReport(), "rendered"))
}

func TestSendReport_Teams(t *testing.T) {
	var received TeamsMessage
	server := teamsServer(t, http.StatusOK, &received)

	service := NewService(Config{ProductName: "Ansible", TeamsWebhookURL: server.URL})
	require.NoError(t, service.SendReport(testReport(), "rendered"))

	assert.Equal(t, "MessageCard", received.Type)
	assert.Equal(t, "Ansible Mentions Report - last 24h (2 mentions)", received.Title)
	require.Len(t, received.Sections, 2)
	assert.Contains(t, received.Sections[0].Facts, TeamsFact{Name: "reddit", Value: "2"})
	assert.Contains(t, received.Sections[0].Facts, TeamsFact{Name: "Positive", Value: "1 (50.0%)"})
	assert.Contains(t, received.Sections[1].ActivityText, "[Ansible upgrade went great](https://reddit.com/r/ansible/1)")
}

func TestSendReport_TeamsFailure(t *testing.T) {
	server := teamsServer(t, http.StatusBadRequest, nil)

	service := NewService(Config{TeamsWebhookURL: server.URL})
	err := service.SendReport(testReport(), "rendered")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestSendReport_Email(t *testing.T) {
	mailer := new(MockMailer)
	mailer.On("DialAndSend", mock.Anything).Return(nil)

	service := NewService(Config{ProductName: "Ansible", NotificationEmail: "team@example.com", SMTPUsername: "bot@example.com"})
	service.mailer = mailer

	require.NoError(t, service.SendReport(testReport(), "=== Ansible Mention Report ==="))
	mailer.AssertNumberOfCalls(t, "DialAndSend", 1)

	msgs := mailer.Calls[0].Arguments.Get(0).([]*gomail.Message)
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"team@example.com"}, msgs[0].GetHeader("To"))
	assert.Equal(t, []string{"Ansible Mentions Report - last 24h (2 mentions)"}, msgs[0].GetHeader("Subject"))
}

func TestSendReport_JoinsChannelErrors(t *testing.T) {
	server := teamsServer(t, http.StatusInternalServerError, nil)
	mailer := new(MockMailer)
	mailer.On("DialAndSend", mock.Anything).Return(errors.New("connection refused"))

	service := NewService(Config{TeamsWebhookURL: server.URL, NotificationEmail: "team@example.com"})
	service.mailer = mailer

	err := service.SendReport(testReport(), "rendered")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teams:")
	assert.Contains(t, err.Error(), "email:")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSendAlert(t *testing.T) {
	var received TeamsMessage
	server := teamsServer(t, http.StatusOK, &received)

	service := NewService(Config{TeamsWebhookURL: server.URL})
	require.NoError(t, service.SendAlert(&Alert{Title: "Negative sentiment", Message: "3 negative vs 1 positive", RunID: "run-42"}))

	assert.Equal(t, "Negative sentiment", received.Title)
	assert.Equal(t, "D13438", received.ThemeColor)
	require.Len(t, received.Sections, 1)
	assert.Equal(t, "run-42", received.Sections[0].Facts[0].Value)
}

func TestSendAlert_NoWebhook(t *testing.T) {
	assert.NoError(t, NewService(Config{}).SendAlert(&Alert{Title: "ignored"}))
}

func TestBuildEmailHTML(t *testing.T) {
	html, err := buildEmailHTML(testReport(), "Ansible")
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Ansible Mentions Report</h1>")
	assert.Contains(t, html, "Last 24 hours")
	assert.Contains(t, html, `class="mention positive"`)
	assert.True(t, strings.Contains(html, "Ansible upgrade went great"))
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "short", shorten("short", 10))
	assert.Equal(t, "abc...", shorten("abcdef", 3))
	assert.Equal(t, "日本...", shorten("日本語です", 2))
}
