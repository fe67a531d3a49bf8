package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mention-monitor/mention-bot/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	redditAuthURL      = "https://www.reddit.com/api/v1/access_token"
	redditAPIURL       = "https://oauth.reddit.com"
	redditListingLimit = 100
)

// RedditConfig configures the Reddit collector
type RedditConfig struct {
	ClientID          string
	ClientSecret      string
	UserAgent         string
	Subreddits        []string
	Limit             int // listing size per subreddit, at most 100
	AuthURL           string
	BaseURL           string
	Retries           int
	RequestsPerSecond float64
}

// RedditSource scans recent posts and comments of configured subreddits
type RedditSource struct {
	cfg         RedditConfig
	client      *resty.Client
	limiter     *rate.Limiter
	accessToken string
}

// Ensure RedditSource implements Source
var _ Source = (*RedditSource)(nil)

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		} `json:"children"`
		After string `json:"after"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	Created     float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
}

type redditComment struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Body      string  `json:"body"`
	Author    string  `json:"author"`
	LinkTitle string  `json:"link_title"`
	Subreddit string  `json:"subreddit"`
	Permalink string  `json:"permalink"`
	Created   float64 `json:"created_utc"`
	Score     int     `json:"score"`
}

// NewRedditSource creates a new Reddit source
func NewRedditSource(cfg RedditConfig) *RedditSource {
	if cfg.Limit <= 0 || cfg.Limit > redditListingLimit {
		cfg.Limit = redditListingLimit
	}
	cfg.AuthURL = defaultString(cfg.AuthURL, redditAuthURL)
	cfg.BaseURL = defaultString(cfg.BaseURL, redditAPIURL)

	return &RedditSource{
		cfg:     cfg,
		client:  newClient(cfg.UserAgent, cfg.Retries),
		limiter: newLimiter(cfg.RequestsPerSecond),
	}
}

func (r *RedditSource) GetName() string {
	return string(models.PlatformReddit)
}

func (r *RedditSource) IsEnabled() bool {
	return r.cfg.ClientID != "" && r.cfg.ClientSecret != "" && len(r.cfg.Subreddits) > 0
}

func (r *RedditSource) FetchMentions(ctx context.Context, keywords []string, since time.Time) ([]models.Mention, error) {
	if !r.IsEnabled() {
		logrus.Debug("Reddit source disabled - missing credentials or subreddits")
		return nil, nil
	}

	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	var allMentions []models.Mention
	var errs []error

	for _, subreddit := range r.cfg.Subreddits {
		logrus.Infof("Searching r/%s", subreddit)

		posts, err := r.searchPosts(ctx, subreddit, keywords, since)
		if err != nil {
			logrus.Errorf("Failed to search posts in r/%s: %v", subreddit, err)
			errs = append(errs, err)
		}
		allMentions = append(allMentions, posts...)

		comments, err := r.searchComments(ctx, subreddit, keywords, since)
		if err != nil {
			logrus.Errorf("Failed to search comments in r/%s: %v", subreddit, err)
			errs = append(errs, err)
		}
		allMentions = append(allMentions, comments...)
	}

	// Every request failed: surface it so the platform is reported as down
	if len(errs) == 2*len(r.cfg.Subreddits) {
		return nil, errors.Join(errs...)
	}

	return allMentions, nil
}

func (r *RedditSource) authenticate(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetBasicAuth(r.cfg.ClientID, r.cfg.ClientSecret).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
		}).
		Post(r.cfg.AuthURL)

	if err != nil {
		return err
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("token endpoint returned status %d", resp.StatusCode())
	}

	var authResp redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &authResp); err != nil {
		return err
	}

	if authResp.AccessToken == "" {
		return fmt.Errorf("token endpoint returned no access token")
	}

	r.accessToken = authResp.AccessToken
	return nil
}

func (r *RedditSource) listing(ctx context.Context, path string) (*redditListing, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+r.accessToken).
		SetQueryParam("limit", strconv.Itoa(r.cfg.Limit)).
		Get(r.cfg.BaseURL + path)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	var listing redditListing
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return nil, fmt.Errorf("failed to parse Reddit listing: %w", err)
	}

	return &listing, nil
}

func (r *RedditSource) searchPosts(ctx context.Context, subreddit string, keywords []string, since time.Time) ([]models.Mention, error) {
	listing, err := r.listing(ctx, fmt.Sprintf("/r/%s/new", subreddit))
	if err != nil {
		return nil, err
	}

	var mentions []models.Mention

	for _, child := range listing.Data.Children {
		var post redditPost
		if err := json.Unmarshal(child.Data, &post); err != nil {
			logrus.Warnf("Skipping malformed Reddit post in r/%s: %v", subreddit, err)
			continue
		}

		createdAt := time.Unix(int64(post.Created), 0).UTC()
		if createdAt.Before(since) {
			continue
		}

		keyword := matchKeyword(post.Title+" "+post.Selftext, keywords)
		if keyword == "" {
			continue
		}

		mentions = append(mentions, models.Mention{
			Platform:        models.PlatformReddit,
			ID:              redditFullname("t3", post.Name, post.ID),
			Kind:            "post",
			Title:           post.Title,
			Text:            post.Selftext,
			Author:          redditAuthor(post.Author),
			URL:             "https://reddit.com" + post.Permalink,
			Timestamp:       createdAt,
			EngagementScore: post.Score + post.NumComments,
			CommentCount:    post.NumComments,
			Keyword:         keyword,
		})
	}

	return mentions, nil
}

func (r *RedditSource) searchComments(ctx context.Context, subreddit string, keywords []string, since time.Time) ([]models.Mention, error) {
	listing, err := r.listing(ctx, fmt.Sprintf("/r/%s/comments", subreddit))
	if err != nil {
		return nil, err
	}

	var mentions []models.Mention

	for _, child := range listing.Data.Children {
		var comment redditComment
		if err := json.Unmarshal(child.Data, &comment); err != nil {
			logrus.Warnf("Skipping malformed Reddit comment in r/%s: %v", subreddit, err)
			continue
		}

		createdAt := time.Unix(int64(comment.Created), 0).UTC()
		if createdAt.Before(since) {
			continue
		}

		keyword := matchKeyword(comment.Body, keywords)
		if keyword == "" {
			continue
		}

		mentions = append(mentions, models.Mention{
			Platform:        models.PlatformReddit,
			ID:              redditFullname("t1", comment.Name, comment.ID),
			Kind:            "comment",
			Title:           "Comment on: " + comment.LinkTitle,
			Text:            comment.Body,
			Author:          redditAuthor(comment.Author),
			URL:             "https://reddit.com" + comment.Permalink,
			Timestamp:       createdAt,
			EngagementScore: comment.Score,
			Keyword:         keyword,
		})
	}

	return mentions, nil
}

// redditFullname returns the type-prefixed id, unique across posts and comments
func redditFullname(prefix, name, id string) string {
	if name != "" {
		return name
	}
	return prefix + "_" + id
}

func redditAuthor(author string) string {
	if author == "" {
		return "[deleted]"
	}
	return author
}
