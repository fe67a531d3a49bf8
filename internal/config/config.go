package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mention-monitor/mention-bot/internal/aggregator"
	"github.com/mention-monitor/mention-bot/internal/notifications"
	"github.com/mention-monitor/mention-bot/internal/sources"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration (watch mode)
	Port  string
	Debug bool

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
	LogFile   string

	// Run configuration
	ProductName   string
	Keywords      []string
	CheckInterval int // lookback window in hours
	TopN          int
	RankBy        aggregator.RankKey
	OutputDir     string
	KeepExports   int // runs whose exports are kept, 0 keeps all

	// Schedule configuration
	CheckSchedule string
	TimeZone      string
	scheduleSet   bool

	// Exit and alert policy
	TolerateCollectorFailure bool
	FailOnNegative           bool
	AlertOnNegative          bool

	// Azure Storage configuration
	StorageAccount   string
	StorageContainer string
	StoragePrefix    string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// API Keys and credentials
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
	Subreddits         []string
	TwitterBearerToken string
	TwitterMaxResults  int
	BlueskyUsername    string
	BlueskyPassword    string
	BlueskyServiceURL  string
	BlueskyMaxResults  int

	// HTTP behaviour shared by the collectors
	HTTPRetries       int
	RequestsPerSecond float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		Debug:     getBoolEnv("DEBUG", false),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogFile:   getEnv("LOG_FILE", ""),

		ProductName:   getEnv("PRODUCT_NAME", "Ansible"),
		Keywords:      getSliceEnv("KEYWORDS", []string{"ansible"}),
		CheckInterval: getIntEnv("CHECK_INTERVAL_HOURS", 24),
		TopN:          getIntEnv("TOP_N", aggregator.DefaultTopN),
		RankBy:        aggregator.RankKey(getEnv("RANK_BY", string(aggregator.RankByEngagement))),
		OutputDir:     getEnv("OUTPUT_DIR", "output"),
		KeepExports:   getIntEnv("KEEP_EXPORTS", 0),

		CheckSchedule: getEnv("CHECK_SCHEDULE", ""),
		TimeZone:      getEnv("TIMEZONE", "UTC"),

		TolerateCollectorFailure: getBoolEnv("TOLERATE_COLLECTOR_FAILURE", false),
		FailOnNegative:           getBoolEnv("FAIL_ON_NEGATIVE", false),
		AlertOnNegative:          getBoolEnv("ALERT_ON_NEGATIVE", false),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "mentions"),
		StoragePrefix:    getEnv("AZURE_STORAGE_PREFIX", "reports"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		RedditUserAgent:    getEnv("REDDIT_USER_AGENT", "mention-bot/1.0"),
		Subreddits:         getSliceEnv("SUBREDDITS", []string{"ansible", "devops"}),
		TwitterBearerToken: getEnv("TWITTER_BEARER_TOKEN", ""),
		TwitterMaxResults:  getIntEnv("TWITTER_MAX_RESULTS", 100),
		BlueskyUsername:    getEnv("BLUESKY_USERNAME", ""),
		BlueskyPassword:    getEnv("BLUESKY_PASSWORD", ""),
		BlueskyServiceURL:  getEnv("BLUESKY_SERVICE_URL", "https://bsky.social"),
		BlueskyMaxResults:  getIntEnv("BLUESKY_MAX_RESULTS", 100),

		HTTPRetries:       getIntEnv("HTTP_RETRIES", 3),
		RequestsPerSecond: getFloatEnv("REQUESTS_PER_SECOND", 1),
	}

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	cfg.scheduleSet = cfg.CheckSchedule != ""
	if !cfg.scheduleSet && cfg.CheckInterval > 0 {
		cfg.CheckSchedule = defaultSchedule(cfg.CheckInterval)
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Keywords) == 0 {
		return fmt.Errorf("KEYWORDS must list at least one keyword")
	}

	if c.CheckInterval <= 0 {
		return fmt.Errorf("CHECK_INTERVAL_HOURS must be positive, got %d", c.CheckInterval)
	}

	if c.KeepExports < 0 {
		return fmt.Errorf("KEEP_EXPORTS must not be negative, got %d", c.KeepExports)
	}

	if _, ok := aggregator.ParseRankKey(string(c.RankBy)); !ok {
		return fmt.Errorf("RANK_BY must be 'engagement' or 'comments'")
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json'")
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("TIMEZONE %q is not a valid location: %w", c.TimeZone, err)
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// SetWindow changes the lookback window. Unless CHECK_SCHEDULE was given
// explicitly, the schedule follows the window so consecutive runs cover it.
func (c *Config) SetWindow(hours int) {
	c.CheckInterval = hours
	if !c.scheduleSet {
		c.CheckSchedule = defaultSchedule(hours)
	}
}

func defaultSchedule(hours int) string {
	return fmt.Sprintf("@every %dh", hours)
}

// Location returns the schedule's time zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RedditConfig builds the Reddit collector configuration
func (c *Config) RedditConfig() sources.RedditConfig {
	return sources.RedditConfig{
		ClientID:          c.RedditClientID,
		ClientSecret:      c.RedditClientSecret,
		UserAgent:         c.RedditUserAgent,
		Subreddits:        c.Subreddits,
		Retries:           c.HTTPRetries,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}

// TwitterConfig builds the Twitter collector configuration
func (c *Config) TwitterConfig() sources.TwitterConfig {
	return sources.TwitterConfig{
		BearerToken:       c.TwitterBearerToken,
		MaxResults:        c.TwitterMaxResults,
		Retries:           c.HTTPRetries,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}

// BlueskyConfig builds the Bluesky collector configuration
func (c *Config) BlueskyConfig() sources.BlueskyConfig {
	return sources.BlueskyConfig{
		Identifier:        c.BlueskyUsername,
		Password:          c.BlueskyPassword,
		ServiceURL:        c.BlueskyServiceURL,
		MaxResults:        c.BlueskyMaxResults,
		Retries:           c.HTTPRetries,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}

// NotificationConfig builds the notifier configuration
func (c *Config) NotificationConfig() notifications.Config {
	return notifications.Config{
		ProductName:       c.ProductName,
		TeamsWebhookURL:   c.TeamsWebhookURL,
		NotificationEmail: c.NotificationEmail,
		SMTPHost:          c.SMTPHost,
		SMTPPort:          c.SMTPPort,
		SMTPUsername:      c.SMTPUsername,
		SMTPPassword:      c.SMTPPassword,
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getSliceEnv splits a comma-separated value, trimming blanks
func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
