package models

import "time"

// Platform identifies the social platform a mention came from
type Platform string

const (
	PlatformReddit  Platform = "reddit"
	PlatformTwitter Platform = "twitter"
	PlatformBluesky Platform = "bluesky"
)

// Platforms lists every supported platform in report order
var Platforms = []Platform{PlatformReddit, PlatformTwitter, PlatformBluesky}

// SentimentLabel is the categorical bucket for a sentiment score
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// SentimentLabels lists every label in report order
var SentimentLabels = []SentimentLabel{SentimentPositive, SentimentNeutral, SentimentNegative}

// Mention represents a single keyword mention found on a platform
type Mention struct {
	Platform        Platform       `json:"platform"`
	ID              string         `json:"id"`
	Kind            string         `json:"kind"` // "post", "comment", "tweet"
	Title           string         `json:"title"`
	Text            string         `json:"text"`
	Author          string         `json:"author"`
	URL             string         `json:"url"`
	Timestamp       time.Time      `json:"timestamp"`
	EngagementScore int            `json:"engagement_score"`
	CommentCount    int            `json:"comment_count"`
	Keyword         string         `json:"keyword"` // first tracked keyword that matched
	SentimentLabel  SentimentLabel `json:"sentiment_label"`
	SentimentScore  float64        `json:"sentiment_score"`
}

// Key returns the per-run deduplication key
func (m Mention) Key() string {
	return string(m.Platform) + ":" + m.ID
}

// DisplayTitle returns the title, falling back to the text
func (m Mention) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Text
}

// Summary holds the aggregate counters of a run
type Summary struct {
	Total              int                    `json:"total"`
	ByPlatform         map[Platform]int       `json:"by_platform"`
	BySentiment        map[SentimentLabel]int `json:"by_sentiment"`
	AverageSentiment   float64                `json:"average_sentiment"`
	PositivePercentage float64                `json:"positive_percentage"`
	NegativePercentage float64                `json:"negative_percentage"`
	NeutralPercentage  float64                `json:"neutral_percentage"`
}

// Window is the lookback window a run searched
type Window struct {
	Hours int       `json:"hours"`
	Since time.Time `json:"since"`
	Until time.Time `json:"until"`
}

// RunReport is the aggregate of one invocation
type RunReport struct {
	RunID           string              `json:"run_id"`
	GeneratedAt     time.Time           `json:"generated_at"`
	ProductName     string              `json:"product_name,omitempty"`
	Window          Window              `json:"window"`
	Keywords        []string            `json:"keywords"`
	RankedBy        string              `json:"ranked_by"`
	Summary         Summary             `json:"summary"`
	TopMentions     []Mention           `json:"top_mentions"`
	CollectorErrors map[Platform]string `json:"collector_errors,omitempty"`
}
