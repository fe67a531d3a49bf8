package aggregator

import (
	"testing"
	"time"

	"github.com/mention-monitor/mention-bot/internal/models"
	"github.com/mention-monitor/mention-bot/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func mention(platform models.Platform, id string, engagement int, score float64) models.Mention {
	return models.Mention{
		Platform:        platform,
		ID:              id,
		Timestamp:       baseTime,
		EngagementScore: engagement,
		SentimentScore:  score,
		SentimentLabel:  sentiment.Label(score),
	}
}

func ids(mentions []models.Mention) []string {
	var out []string
	for _, m := range mentions {
		out = append(out, m.ID)
	}
	return out
}

func TestDeduplicate(t *testing.T) {
	mentions := []models.Mention{
		{Platform: models.PlatformReddit, ID: "1", Text: "first"},
		{Platform: models.PlatformReddit, ID: "2", Text: "second"},
		{Platform: models.PlatformReddit, ID: "1", Text: "duplicate"},
		{Platform: models.PlatformTwitter, ID: "1", Text: "same id, other platform"},
	}

	unique := Deduplicate(mentions)

	require.Len(t, unique, 3)
	assert.Equal(t, "first", unique[0].Text)
	assert.Equal(t, "second", unique[1].Text)
	assert.Equal(t, models.PlatformTwitter, unique[2].Platform)
}

func TestDeduplicate_Empty(t *testing.T) {
	assert.Empty(t, Deduplicate(nil))
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0.0, summary.AverageSentiment)
	assert.Equal(t, 0.0, summary.PositivePercentage)
	for _, platform := range models.Platforms {
		assert.Contains(t, summary.ByPlatform, platform)
	}
	for _, label := range models.SentimentLabels {
		assert.Contains(t, summary.BySentiment, label)
	}
}

func TestSummarize_Average(t *testing.T) {
	mentions := []models.Mention{
		mention(models.PlatformReddit, "a", 1, 0.5),
		mention(models.PlatformTwitter, "b", 1, -0.5),
		mention(models.PlatformBluesky, "c", 1, 0.2),
	}

	summary := Summarize(mentions)

	assert.Equal(t, 3, summary.Total)
	assert.InDelta(t, 0.0667, summary.AverageSentiment, 0.0001)
	assert.Equal(t, 2, summary.BySentiment[models.SentimentPositive])
	assert.Equal(t, 1, summary.BySentiment[models.SentimentNegative])
	assert.Equal(t, 0, summary.BySentiment[models.SentimentNeutral])
	assert.InDelta(t, 66.67, summary.PositivePercentage, 0.01)
	assert.InDelta(t, 33.33, summary.NegativePercentage, 0.01)
	assert.Equal(t, 1, summary.ByPlatform[models.PlatformReddit])
	assert.Equal(t, 1, summary.ByPlatform[models.PlatformTwitter])
	assert.Equal(t, 1, summary.ByPlatform[models.PlatformBluesky])
}

func TestSummarize_UnlabeledCountsAsNeutral(t *testing.T) {
	summary := Summarize([]models.Mention{{Platform: models.PlatformReddit, ID: "x"}})

	assert.Equal(t, 1, summary.BySentiment[models.SentimentNeutral])
	assert.InDelta(t, 100.0, summary.NeutralPercentage, 1e-9)
}

func TestRank_TieBreaksOnRecency(t *testing.T) {
	older := mention(models.PlatformReddit, "older", 10, 0)
	newer := mention(models.PlatformTwitter, "newer", 10, 0)
	newer.Timestamp = baseTime.Add(time.Minute)

	ranked := Rank([]models.Mention{older, newer}, Options{TopN: 5})

	assert.Equal(t, []string{"newer", "older"}, ids(ranked))
}

func TestRank_StableForFullTies(t *testing.T) {
	mentions := []models.Mention{
		mention(models.PlatformReddit, "a", 7, 0),
		mention(models.PlatformReddit, "b", 7, 0),
		mention(models.PlatformReddit, "c", 7, 0),
	}

	for i := 0; i < 10; i++ {
		assert.Equal(t, []string{"a", "b", "c"}, ids(Rank(mentions, Options{})))
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	mentions := []models.Mention{
		mention(models.PlatformReddit, "low", 1, 0),
		mention(models.PlatformReddit, "high", 9, 0),
	}

	Rank(mentions, Options{})

	assert.Equal(t, []string{"low", "high"}, ids(mentions))
}

func TestRank_DefaultTopN(t *testing.T) {
	var mentions []models.Mention
	for i := 0; i < 8; i++ {
		mentions = append(mentions, mention(models.PlatformBluesky, string(rune('a'+i)), i, 0))
	}

	assert.Len(t, Rank(mentions, Options{}), DefaultTopN)
	assert.Len(t, Rank(mentions, Options{TopN: -1}), DefaultTopN)
	assert.Len(t, Rank(mentions, Options{TopN: 20}), 8)
}

func TestRank_ByComments(t *testing.T) {
	popular := mention(models.PlatformReddit, "popular", 100, 0)
	popular.CommentCount = 1
	discussed := mention(models.PlatformReddit, "discussed", 5, 0)
	discussed.CommentCount = 40

	ranked := Rank([]models.Mention{popular, discussed}, Options{RankBy: RankByComments})

	assert.Equal(t, []string{"discussed", "popular"}, ids(ranked))
}

func TestAggregate_EndToEnd(t *testing.T) {
	mentions := []models.Mention{
		mention(models.PlatformReddit, "r1", 47, 0.3),
		mention(models.PlatformReddit, "r2", 12, 0),
		mention(models.PlatformReddit, "r3", 3, -0.4),
		mention(models.PlatformBluesky, "b1", 23, 0.5),
		mention(models.PlatformBluesky, "b2", 5, 0),
	}

	report, unique := Aggregate(mentions, Options{TopN: 3})

	require.Len(t, report.TopMentions, 3)
	assert.Equal(t, 47, report.TopMentions[0].EngagementScore)
	assert.Equal(t, 23, report.TopMentions[1].EngagementScore)
	assert.Equal(t, 12, report.TopMentions[2].EngagementScore)
	assert.Len(t, unique, 5)
	assert.Equal(t, 3, report.Summary.ByPlatform[models.PlatformReddit])
	assert.Equal(t, 2, report.Summary.ByPlatform[models.PlatformBluesky])
	assert.Equal(t, 0, report.Summary.ByPlatform[models.PlatformTwitter])
}

func TestAggregate_Properties(t *testing.T) {
	collections := map[string][]models.Mention{
		"empty": nil,
		"single": {
			mention(models.PlatformTwitter, "1", 3, 0.9),
		},
		"with duplicates": {
			mention(models.PlatformReddit, "1", 3, 0.9),
			mention(models.PlatformReddit, "1", 8, -0.9),
			mention(models.PlatformTwitter, "1", 1, 0),
			mention(models.PlatformBluesky, "2", 0, -0.05),
			mention(models.PlatformBluesky, "2", 0, -0.05),
		},
	}

	for name, mentions := range collections {
		t.Run(name, func(t *testing.T) {
			report, unique := Aggregate(mentions, Options{})

			assert.Equal(t, len(Deduplicate(mentions)), report.Summary.Total)
			assert.Len(t, unique, report.Summary.Total)

			sentimentTotal := 0
			for _, count := range report.Summary.BySentiment {
				sentimentTotal += count
			}
			assert.Equal(t, report.Summary.Total, sentimentTotal)

			platformTotal := 0
			for _, count := range report.Summary.ByPlatform {
				platformTotal += count
			}
			assert.Equal(t, report.Summary.Total, platformTotal)
		})
	}
}

func TestAggregate_DuplicatesCollapse(t *testing.T) {
	first := mention(models.PlatformReddit, "dup", 10, 0.5)
	second := mention(models.PlatformReddit, "dup", 99, -0.5)

	report, unique := Aggregate([]models.Mention{first, second}, Options{})

	require.Len(t, unique, 1)
	assert.Equal(t, 1, report.Summary.Total)
	assert.Equal(t, 10, report.TopMentions[0].EngagementScore)
}

func TestParseRankKey(t *testing.T) {
	key, ok := ParseRankKey("")
	assert.True(t, ok)
	assert.Equal(t, RankByEngagement, key)

	key, ok = ParseRankKey("comments")
	assert.True(t, ok)
	assert.Equal(t, RankByComments, key)

	key, ok = ParseRankKey("likes")
	assert.False(t, ok)
	assert.Equal(t, RankByEngagement, key)
}

func TestAggregate_RecordsRankKey(t *testing.T) {
	report, _ := Aggregate(nil, Options{})
	assert.Equal(t, "engagement", report.RankedBy)

	report, _ = Aggregate(nil, Options{RankBy: RankByComments})
	assert.Equal(t, "comments", report.RankedBy)
}
