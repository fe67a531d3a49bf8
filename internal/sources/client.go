package sources

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	defaultUserAgent = "mention-bot/1.0"
	defaultTimeout   = 30 * time.Second
	maxRetryWait     = 10 * time.Second
)

// newClient builds the resty client shared by all collectors. Rate-limited
// and 5xx responses are retried with resty's backoff.
func newClient(userAgent string, retries int) *resty.Client {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(retries).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(maxRetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil {
				return err != nil
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})
}

// newLimiter paces requests to a platform; zero means unlimited
func newLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}

// matchKeyword returns the first keyword contained in text, case-insensitively
func matchKeyword(text string, keywords []string) string {
	content := strings.ToLower(text)
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		if strings.Contains(content, strings.ToLower(keyword)) {
			return keyword
		}
	}
	return ""
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
