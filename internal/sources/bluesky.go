package sources

import (
	"context"
	"encoding/json"
	"errors"
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
	blueskyServiceURL = "https://bsky.social"
	blueskyPageMax    = 100
	blueskyDefaultMax = 100
	blueskyPostMarker = "app.bsky.feed.post/"
)

// BlueskyConfig configures the Bluesky collector
type BlueskyConfig struct {
	Identifier        string // handle or email
	Password          string // app password
	ServiceURL        string
	MaxResults        int // posts per keyword
	Retries           int
	RequestsPerSecond float64
}

// BlueskySource searches posts through the AT Protocol XRPC API
type BlueskySource struct {
	cfg         BlueskyConfig
	client      *resty.Client
	limiter     *rate.Limiter
	accessToken string
}

// Ensure BlueskySource implements Source
var _ Source = (*BlueskySource)(nil)

type blueskySession struct {
	AccessJwt string `json:"accessJwt"`
	Did       string `json:"did"`
	Handle    string `json:"handle"`
}

type blueskySearchResponse struct {
	Cursor string        `json:"cursor"`
	Posts  []blueskyPost `json:"posts"`
}

type blueskyPost struct {
	URI    string `json:"uri"`
	CID    string `json:"cid"`
	Author struct {
		Did         string `json:"did"`
		Handle      string `json:"handle"`
		DisplayName string `json:"displayName"`
	} `json:"author"`
	Record struct {
		Text      string `json:"text"`
		CreatedAt string `json:"createdAt"`
	} `json:"record"`
	ReplyCount  int    `json:"replyCount"`
	RepostCount int    `json:"repostCount"`
	LikeCount   int    `json:"likeCount"`
	IndexedAt   string `json:"indexedAt"`
}

// NewBlueskySource creates a new Bluesky source
func NewBlueskySource(cfg BlueskyConfig) *BlueskySource {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = blueskyDefaultMax
	}
	cfg.ServiceURL = strings.TrimRight(defaultString(cfg.ServiceURL, blueskyServiceURL), "/")

	return &BlueskySource{
		cfg:     cfg,
		client:  newClient("", cfg.Retries),
		limiter: newLimiter(cfg.RequestsPerSecond),
	}
}

func (b *BlueskySource) GetName() string {
	return string(models.PlatformBluesky)
}

func (b *BlueskySource) IsEnabled() bool {
	return b.cfg.Identifier != "" && b.cfg.Password != ""
}

func (b *BlueskySource) FetchMentions(ctx context.Context, keywords []string, since time.Time) ([]models.Mention, error) {
	if !b.IsEnabled() {
		logrus.Debug("Bluesky source disabled - missing credentials")
		return nil, nil
	}

	if err := b.createSession(ctx); err != nil {
		return nil, fmt.Errorf("bluesky login failed: %w", err)
	}

	var allMentions []models.Mention
	var errs []error
	searched := 0

	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		searched++

		logrus.Infof("Searching Bluesky for keyword: %s", keyword)
		mentions, err := b.searchKeyword(ctx, keyword, since)
		if err != nil {
			logrus.Errorf("Failed to search Bluesky for keyword '%s': %v", keyword, err)
			errs = append(errs, err)
			continue
		}

		logrus.Infof("Found %d Bluesky mentions for keyword '%s'", len(mentions), keyword)
		allMentions = append(allMentions, mentions...)
	}

	if searched > 0 && len(errs) == searched {
		return nil, errors.Join(errs...)
	}

	return allMentions, nil
}

func (b *BlueskySource) createSession(ctx context.Context) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"identifier": b.cfg.Identifier,
			"password":   b.cfg.Password,
		}).
		Post(b.cfg.ServiceURL + "/xrpc/com.atproto.server.createSession")

	if err != nil {
		return err
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("createSession returned status %d", resp.StatusCode())
	}

	var session blueskySession
	if err := json.Unmarshal(resp.Body(), &session); err != nil {
		return fmt.Errorf("failed to parse session: %w", err)
	}

	if session.AccessJwt == "" {
		return fmt.Errorf("createSession returned no access token")
	}

	b.accessToken = session.AccessJwt
	return nil
}

func (b *BlueskySource) searchKeyword(ctx context.Context, keyword string, since time.Time) ([]models.Mention, error) {
	var mentions []models.Mention
	cursor := ""

	for fetched := 0; fetched < b.cfg.MaxResults; {
		limit := b.cfg.MaxResults - fetched
		if limit > blueskyPageMax {
			limit = blueskyPageMax
		}

		page, err := b.searchPage(ctx, keyword, since, limit, cursor)
		if err != nil {
			if len(mentions) > 0 {
				logrus.Warnf("Bluesky pagination for '%s' stopped early: %v", keyword, err)
				break
			}
			return nil, err
		}

		for _, post := range page.Posts {
			if mention, ok := b.toMention(post, keyword, since); ok {
				mentions = append(mentions, mention)
			}
		}

		fetched += len(page.Posts)
		if page.Cursor == "" || len(page.Posts) == 0 {
			break
		}
		cursor = page.Cursor
	}

	return mentions, nil
}

func (b *BlueskySource) searchPage(ctx context.Context, keyword string, since time.Time, limit int, cursor string) (*blueskySearchResponse, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := map[string]string{
		"q":     keyword,
		"sort":  "latest",
		"since": since.UTC().Format(time.RFC3339),
		"limit": strconv.Itoa(limit),
	}
	if cursor != "" {
		params["cursor"] = cursor
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetAuthToken(b.accessToken).
		SetQueryParams(params).
		Get(b.cfg.ServiceURL + "/xrpc/app.bsky.feed.searchPosts")

	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("searchPosts returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var searchResp blueskySearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse Bluesky response: %w", err)
	}

	return &searchResp, nil
}

func (b *BlueskySource) toMention(post blueskyPost, keyword string, since time.Time) (models.Mention, bool) {
	createdAt, err := parseBlueskyTime(post.Record.CreatedAt, post.IndexedAt)
	if err != nil {
		logrus.Warnf("Skipping Bluesky post %s: %v", post.URI, err)
		return models.Mention{}, false
	}
	if createdAt.Before(since) {
		return models.Mention{}, false
	}

	if !strings.Contains(strings.ToLower(post.Record.Text), strings.ToLower(keyword)) {
		return models.Mention{}, false
	}

	handle := defaultString(post.Author.Handle, "unknown")

	return models.Mention{
		Platform:        models.PlatformBluesky,
		ID:              post.URI,
		Kind:            "post",
		Title:           "Post by @" + handle,
		Text:            post.Record.Text,
		Author:          handle,
		URL:             blueskyPostURL(handle, post.URI),
		Timestamp:       createdAt.UTC(),
		EngagementScore: post.LikeCount + post.RepostCount,
		CommentCount:    post.ReplyCount,
		Keyword:         keyword,
	}, true
}

func parseBlueskyTime(createdAt, indexedAt string) (time.Time, error) {
	for _, value := range []string{createdAt, indexedAt} {
		if value == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("no parseable timestamp (createdAt=%q)", createdAt)
}

// blueskyPostURL turns at://did/app.bsky.feed.post/rkey into a bsky.app link,
// falling back to the author's profile.
func blueskyPostURL(handle, uri string) string {
	if idx := strings.LastIndex(uri, blueskyPostMarker); idx >= 0 {
		rkey := uri[idx+len(blueskyPostMarker):]
		if rkey != "" {
			return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", handle, rkey)
		}
	}
	return fmt.Sprintf("https://bsky.app/profile/%s", handle)
}
