// Package aggregator merges scored mentions into a run report.
//
// Everything here is pure: no I/O, no clocks. Callers stamp run metadata
// (run id, generation time, window) onto the returned report.
package aggregator

import (
	"sort"

	"github.com/mention-monitor/mention-bot/internal/models"
)

// DefaultTopN is used when Options.TopN is not positive
const DefaultTopN = 5

// RankKey selects the metric mentions are ranked by
type RankKey string

const (
	RankByEngagement RankKey = "engagement"
	RankByComments   RankKey = "comments"
)

// Options configures ranking
type Options struct {
	TopN   int
	RankBy RankKey
}

func (o Options) topN() int {
	if o.TopN <= 0 {
		return DefaultTopN
	}
	return o.TopN
}

func (o Options) rankKey() RankKey {
	if o.RankBy == "" {
		return RankByEngagement
	}
	return o.RankBy
}

func (o Options) metric(m models.Mention) int {
	if o.rankKey() == RankByComments {
		return m.CommentCount
	}
	return m.EngagementScore
}

// ParseRankKey converts a config value to a RankKey, defaulting to engagement
func ParseRankKey(value string) (RankKey, bool) {
	switch RankKey(value) {
	case "", RankByEngagement:
		return RankByEngagement, true
	case RankByComments:
		return RankByComments, true
	default:
		return RankByEngagement, false
	}
}

// Deduplicate removes mentions with a repeated (platform, id) key, keeping
// the first occurrence.
func Deduplicate(mentions []models.Mention) []models.Mention {
	seen := make(map[string]bool, len(mentions))
	unique := make([]models.Mention, 0, len(mentions))

	for _, mention := range mentions {
		key := mention.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, mention)
	}

	return unique
}

// Summarize counts mentions by platform and sentiment and averages the
// sentiment score. Every known platform and label appears in the maps.
func Summarize(mentions []models.Mention) models.Summary {
	summary := models.Summary{
		Total:       len(mentions),
		ByPlatform:  make(map[models.Platform]int, len(models.Platforms)),
		BySentiment: make(map[models.SentimentLabel]int, len(models.SentimentLabels)),
	}

	for _, platform := range models.Platforms {
		summary.ByPlatform[platform] = 0
	}
	for _, label := range models.SentimentLabels {
		summary.BySentiment[label] = 0
	}

	if len(mentions) == 0 {
		return summary
	}

	var total float64
	for _, mention := range mentions {
		summary.ByPlatform[mention.Platform]++
		label := mention.SentimentLabel
		if label == "" {
			label = models.SentimentNeutral
		}
		summary.BySentiment[label]++
		total += mention.SentimentScore
	}

	n := float64(len(mentions))
	summary.AverageSentiment = total / n
	summary.PositivePercentage = float64(summary.BySentiment[models.SentimentPositive]) / n * 100
	summary.NegativePercentage = float64(summary.BySentiment[models.SentimentNegative]) / n * 100
	summary.NeutralPercentage = float64(summary.BySentiment[models.SentimentNeutral]) / n * 100

	return summary
}

// Rank returns the top mentions ordered by the rank metric, descending.
// Ties go to the more recent mention. The input slice is not modified.
func Rank(mentions []models.Mention, opts Options) []models.Mention {
	ranked := make([]models.Mention, len(mentions))
	copy(ranked, mentions)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := opts.metric(ranked[i]), opts.metric(ranked[j])
		if a != b {
			return a > b
		}
		return ranked[i].Timestamp.After(ranked[j].Timestamp)
	})

	if n := opts.topN(); len(ranked) > n {
		ranked = ranked[:n]
	}

	return ranked
}

// Aggregate deduplicates, summarizes and ranks mentions. It returns the
// report and the deduplicated collection the report was built from.
func Aggregate(mentions []models.Mention, opts Options) (*models.RunReport, []models.Mention) {
	unique := Deduplicate(mentions)

	report := &models.RunReport{
		RankedBy:    string(opts.rankKey()),
		Summary:     Summarize(unique),
		TopMentions: Rank(unique, opts),
	}

	return report, unique
}
