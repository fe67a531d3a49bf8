// Package report renders run reports for the console and exports them as
// JSON and CSV snapshots.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mention-monitor/mention-bot/internal/models"
)

const (
	titleWidth = 60
	timeLayout = "2006-01-02 15:04:05 MST"
)

var platformTags = map[models.Platform]string{
	models.PlatformReddit:  "[reddit]",
	models.PlatformTwitter: "[twitter]",
	models.PlatformBluesky: "[bluesky]",
}

// RenderConsole renders a human-readable multi-section summary
func RenderConsole(report *models.RunReport) string {
	var b strings.Builder

	product := report.ProductName
	if product == "" {
		product = "Keyword"
	}

	fmt.Fprintf(&b, "=== %s Mention Report ===\n", product)
	fmt.Fprintf(&b, "Generated: %s\n", report.GeneratedAt.Format(timeLayout))
	if report.Window.Hours > 0 {
		fmt.Fprintf(&b, "Window: last %dh (%s to %s)\n",
			report.Window.Hours, report.Window.Since.Format(timeLayout), report.Window.Until.Format(timeLayout))
	}
	if report.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", report.RunID)
	}
	if len(report.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(report.Keywords, ", "))
	}

	if len(report.CollectorErrors) > 0 {
		b.WriteString("\nUNAVAILABLE PLATFORMS:\n")
		for _, platform := range sortedPlatforms(report.CollectorErrors) {
			fmt.Fprintf(&b, "  %s: %s\n", platform, report.CollectorErrors[platform])
		}
	}

	summary := report.Summary
	if summary.Total == 0 {
		b.WriteString("\nNo mentions found in the specified time period.\n")
		return b.String()
	}

	b.WriteString("\nSUMMARY:\n")
	fmt.Fprintf(&b, "Total Mentions: %d\n", summary.Total)

	platformCounts := make([]string, 0, len(models.Platforms))
	for _, platform := range models.Platforms {
		platformCounts = append(platformCounts, fmt.Sprintf("%s: %d", platform, summary.ByPlatform[platform]))
	}
	fmt.Fprintf(&b, "Platforms: %s\n", strings.Join(platformCounts, ", "))

	b.WriteString("\nSENTIMENT ANALYSIS:\n")
	fmt.Fprintf(&b, "Positive: %d (%.1f%%)\n", summary.BySentiment[models.SentimentPositive], summary.PositivePercentage)
	fmt.Fprintf(&b, "Negative: %d (%.1f%%)\n", summary.BySentiment[models.SentimentNegative], summary.NegativePercentage)
	fmt.Fprintf(&b, "Neutral: %d (%.1f%%)\n", summary.BySentiment[models.SentimentNeutral], summary.NeutralPercentage)
	fmt.Fprintf(&b, "Average Sentiment Score: %.3f\n", summary.AverageSentiment)

	rankedBy := report.RankedBy
	if rankedBy == "" {
		rankedBy = "engagement"
	}
	fmt.Fprintf(&b, "\nTOP MENTIONS (by %s):\n", rankedBy)

	for i, mention := range report.TopMentions {
		tag, ok := platformTags[mention.Platform]
		if !ok {
			tag = "[" + string(mention.Platform) + "]"
		}
		fmt.Fprintf(&b, "\n%d. %s %s\n", i+1, tag, Truncate(mention.DisplayTitle(), titleWidth))
		fmt.Fprintf(&b, "   Author: %s | Score: %d | Sentiment: %s (%.2f)\n",
			mention.Author, mention.EngagementScore, mention.SentimentLabel, mention.SentimentScore)
		fmt.Fprintf(&b, "   URL: %s\n", mention.URL)
	}

	return b.String()
}

// Truncate shortens text to at most width runes plus an ellipsis, on one line
func Truncate(text string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width]) + "..."
}

func sortedPlatforms(m map[models.Platform]string) []models.Platform {
	platforms := make([]models.Platform, 0, len(m))
	for platform := range m {
		platforms = append(platforms, platform)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}
