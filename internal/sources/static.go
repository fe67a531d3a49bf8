package sources

import (
	"context"
	"time"

	"github.com/mention-monitor/mention-bot/internal/models"
)

// StaticSource serves a fixed set of mentions. It backs the offline sample
// report and lets the pipeline run without network access.
type StaticSource struct {
	name     string
	mentions []models.Mention
	err      error
}

// Ensure StaticSource implements Source
var _ Source = (*StaticSource)(nil)

// NewStaticSource creates a source named name returning mentions
func NewStaticSource(name string, mentions []models.Mention) *StaticSource {
	return &StaticSource{name: name, mentions: mentions}
}

// NewFailingSource creates a source whose every fetch fails with err
func NewFailingSource(name string, err error) *StaticSource {
	return &StaticSource{name: name, err: err}
}

func (s *StaticSource) GetName() string {
	return s.name
}

func (s *StaticSource) IsEnabled() bool {
	return true
}

// FetchMentions returns the mentions at or after since that match a keyword
func (s *StaticSource) FetchMentions(ctx context.Context, keywords []string, since time.Time) ([]models.Mention, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var mentions []models.Mention
	for _, m := range s.mentions {
		if m.Timestamp.Before(since) {
			continue
		}
		keyword := matchKeyword(m.Title+" "+m.Text, keywords)
		if keyword == "" {
			continue
		}
		m.Keyword = keyword
		mentions = append(mentions, m)
	}

	return mentions, nil
}
