package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mention-monitor/mention-bot/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	twitterAPIURL      = "https://api.twitter.com/2"
	twitterPageMin     = 10
	twitterPageMax     = 100
	twitterDefaultMax  = 100
	twitterTweetFields = "created_at,author_id,public_metrics,lang,referenced_tweets"
)

// TwitterConfig configures the Twitter/X collector
type TwitterConfig struct {
	BearerToken       string
	MaxResults        int // total tweets per run
	BaseURL           string
	Retries           int
	RequestsPerSecond float64
}

// TwitterSource implements Twitter/X API v2 recent search
type TwitterSource struct {
	cfg     TwitterConfig
	client  *resty.Client
	limiter *rate.Limiter
}

// Ensure TwitterSource implements Source
var _ Source = (*TwitterSource)(nil)

type twitterSearchResponse struct {
	Data     []twitterTweet `json:"data"`
	Includes struct {
		Users []twitterUser `json:"users"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

type twitterUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type twitterTweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AuthorID      string `json:"author_id"`
	CreatedAt     string `json:"created_at"`
	PublicMetrics struct {
		RetweetCount int `json:"retweet_count"`
		LikeCount    int `json:"like_count"`
		ReplyCount   int `json:"reply_count"`
		QuoteCount   int `json:"quote_count"`
	} `json:"public_metrics"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
}

// NewTwitterSource creates a new Twitter source
func NewTwitterSource(cfg TwitterConfig) *TwitterSource {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = twitterDefaultMax
	}
	cfg.BaseURL = defaultString(cfg.BaseURL, twitterAPIURL)

	return &TwitterSource{
		cfg:     cfg,
		client:  newClient("", cfg.Retries),
		limiter: newLimiter(cfg.RequestsPerSecond),
	}
}

func (t *TwitterSource) GetName() string {
	return string(models.PlatformTwitter)
}

func (t *TwitterSource) IsEnabled() bool {
	return t.cfg.BearerToken != ""
}

func (t *TwitterSource) FetchMentions(ctx context.Context, keywords []string, since time.Time) ([]models.Mention, error) {
	if !t.IsEnabled() {
		logrus.Debug("Twitter source disabled - missing bearer token")
		return nil, nil
	}

	query := buildSearchQuery(keywords)
	if query == "" {
		return nil, nil
	}

	logrus.Infof("Searching Twitter with query: %s", query)

	var mentions []models.Mention
	nextToken := ""

	for fetched := 0; fetched < t.cfg.MaxResults; {
		pageSize := t.cfg.MaxResults - fetched
		if pageSize > twitterPageMax {
			pageSize = twitterPageMax
		}
		if pageSize < twitterPageMin {
			pageSize = twitterPageMin
		}

		page, err := t.searchPage(ctx, query, since, pageSize, nextToken)
		if err != nil {
			if len(mentions) > 0 {
				logrus.Warnf("Twitter pagination stopped early: %v", err)
				break
			}
			return nil, err
		}

		mentions = append(mentions, t.toMentions(page, keywords, since)...)
		fetched += len(page.Data)

		if page.Meta.NextToken == "" || len(page.Data) == 0 {
			break
		}
		nextToken = page.Meta.NextToken
	}

	if len(mentions) > t.cfg.MaxResults {
		mentions = mentions[:t.cfg.MaxResults]
	}

	logrus.Infof("Found %d Twitter mentions", len(mentions))
	return mentions, nil
}

func (t *TwitterSource) searchPage(ctx context.Context, query string, since time.Time, pageSize int, nextToken string) (*twitterSearchResponse, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := map[string]string{
		"query":        query,
		"start_time":   since.UTC().Format(time.RFC3339),
		"max_results":  strconv.Itoa(pageSize),
		"tweet.fields": twitterTweetFields,
		"expansions":   "author_id",
		"user.fields":  "username,name",
	}
	if nextToken != "" {
		params["next_token"] = nextToken
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetAuthToken(t.cfg.BearerToken).
		SetQueryParams(params).
		Get(t.cfg.BaseURL + "/tweets/search/recent")

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		resetTime := resp.Header().Get("x-rate-limit-reset")
		return nil, fmt.Errorf("twitter API rate limit exceeded (resets at %s)", defaultString(resetTime, "unknown"))
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("twitter API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var searchResp twitterSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse Twitter response: %w", err)
	}

	return &searchResp, nil
}

func (t *TwitterSource) toMentions(page *twitterSearchResponse, keywords []string, since time.Time) []models.Mention {
	users := make(map[string]twitterUser, len(page.Includes.Users))
	for _, user := range page.Includes.Users {
		users[user.ID] = user
	}

	var mentions []models.Mention

	for _, tweet := range page.Data {
		if isRetweet(tweet) {
			continue
		}

		keyword := matchKeyword(tweet.Text, keywords)
		if keyword == "" {
			continue
		}

		createdAt, err := time.Parse(time.RFC3339, tweet.CreatedAt)
		if err != nil {
			logrus.Errorf("Failed to parse Twitter timestamp %q: %v", tweet.CreatedAt, err)
			continue
		}
		if createdAt.Before(since) {
			continue
		}

		username := users[tweet.AuthorID].Username
		if username == "" {
			username = "user_" + tweet.AuthorID
		}

		mentions = append(mentions, models.Mention{
			Platform:        models.PlatformTwitter,
			ID:              tweet.ID,
			Kind:            "tweet",
			Title:           "Tweet by @" + username,
			Text:            tweet.Text,
			Author:          username,
			URL:             fmt.Sprintf("https://twitter.com/%s/status/%s", username, tweet.ID),
			Timestamp:       createdAt.UTC(),
			EngagementScore: tweet.PublicMetrics.LikeCount + tweet.PublicMetrics.RetweetCount,
			CommentCount:    tweet.PublicMetrics.ReplyCount,
			Keyword:         keyword,
		})
	}

	return mentions
}

// buildSearchQuery ORs the keywords together, quoting phrases, and excludes
// retweets and non-English tweets.
func buildSearchQuery(keywords []string) string {
	var parts []string
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		if strings.Contains(keyword, " ") {
			parts = append(parts, fmt.Sprintf("%q", keyword))
		} else {
			parts = append(parts, keyword)
		}
	}

	if len(parts) == 0 {
		return ""
	}

	return fmt.Sprintf("(%s) -is:retweet lang:en", strings.Join(parts, " OR "))
}

func isRetweet(tweet twitterTweet) bool {
	for _, ref := range tweet.ReferencedTweets {
		if ref.Type == "retweeted" {
			return true
		}
	}
	return false
}
