package sources

import (
	"context"
	"time"

	"github.com/mention-monitor/mention-bot/internal/models"
)

// Source interface defines the contract for all platform collectors
type Source interface {
	GetName() string
	FetchMentions(ctx context.Context, keywords []string, since time.Time) ([]models.Mention, error)
	IsEnabled() bool
}
