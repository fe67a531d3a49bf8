package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mention-monitor/mention-bot/internal/models"
	"github.com/mention-monitor/mention-bot/internal/monitoring"
	"github.com/mention-monitor/mention-bot/internal/report"
	"github.com/mention-monitor/mention-bot/internal/sentiment"
	"github.com/mention-monitor/mention-bot/internal/sources"
	"github.com/mention-monitor/mention-bot/internal/storage"
)

func main() {
	outputDir := flag.String("output-dir", "test_output", "directory for the sample exports")
	flag.Parse()

	logrus.SetLevel(logrus.WarnLevel)

	now := time.Now().UTC()
	srcs := []sources.Source{
		sources.NewStaticSource(string(models.PlatformReddit), sampleReddit(now)),
		sources.NewStaticSource(string(models.PlatformTwitter), sampleTwitter(now)),
		sources.NewStaticSource(string(models.PlatformBluesky), sampleBluesky(now)),
	}

	service := monitoring.NewService(
		monitoring.Options{ProductName: "Ansible", Keywords: []string{"ansible", "ansible-playbook"}, TopN: 5},
		srcs,
		sentiment.NewLexiconScorer(),
		report.NewExporter(storage.NewFileStorage(*outputDir)),
		nil,
		nil,
	)

	result, err := service.RunOnce(context.Background(), monitoring.RunOptions{Hours: 24, Save: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sample run failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(result.Rendered)
	if result.ExportErr != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", result.ExportErr)
		os.Exit(1)
	}
	for _, file := range result.Files {
		fmt.Printf("Saved %s\n", file)
	}
}

func sampleReddit(now time.Time) []models.Mention {
	return []models.Mention{
		{
			Platform: models.PlatformReddit, ID: "t3_sample1", Kind: "post",
			Title:  "Ansible collections are working great after the upgrade",
			Text:   "Playbooks run quickly and the new defaults are excellent.",
			Author: "infra_admin", URL: "https://reddit.com/r/ansible/comments/sample1",
			Timestamp: now.Add(-2 * time.Hour), EngagementScore: 47, CommentCount: 18,
		},
		{
			Platform: models.PlatformReddit, ID: "t1_sample2", Kind: "comment",
			Title:  "Re: Config management comparison",
			Text:   "We moved to Ansible last year, the learning curve is fine but support was slow.",
			Author: "cloud_ops", URL: "https://reddit.com/r/devops/comments/sample2",
			Timestamp: now.Add(-5 * time.Hour), EngagementScore: 12,
		},
		{
			Platform: models.PlatformReddit, ID: "t3_sample3", Kind: "post",
			Title:  "ansible-playbook upgrade broke our inventory",
			Text:   "Terrible experience, the upgrade failed twice.",
			Author: "frustrated_dev", URL: "https://reddit.com/r/ansible/comments/sample3",
			Timestamp: now.Add(-9 * time.Hour), EngagementScore: 3, CommentCount: 7,
		},
	}
}

func sampleTwitter(now time.Time) []models.Mention {
	return []models.Mention{
		{
			Platform: models.PlatformTwitter, ID: "1850000000000000001", Kind: "tweet",
			Title:  "Tweet by @automation_fan",
			Text:   "Loving the new Ansible execution environments, setup took minutes #devops",
			Author: "automation_fan", URL: "https://twitter.com/automation_fan/status/1850000000000000001",
			Timestamp: now.Add(-3 * time.Hour), EngagementScore: 31, CommentCount: 4,
		},
	}
}

func sampleBluesky(now time.Time) []models.Mention {
	return []models.Mention{
		{
			Platform: models.PlatformBluesky, ID: "at://did:plc:sample/app.bsky.feed.post/3k1", Kind: "post",
			Title:  "Post by @devrel.bsky.social",
			Text:   "The Ansible docs are really helpful for network automation",
			Author: "devrel.bsky.social", URL: "https://bsky.app/profile/devrel.bsky.social/post/3k1",
			Timestamp: now.Add(-1 * time.Hour), EngagementScore: 23, CommentCount: 2,
		},
		{
			Platform: models.PlatformBluesky, ID: "at://did:plc:sample/app.bsky.feed.post/3k2", Kind: "post",
			Title:  "Post by @sre.bsky.social",
			Text:   "Running Ansible across three regions now",
			Author: "sre.bsky.social", URL: "https://bsky.app/profile/sre.bsky.social/post/3k2",
			Timestamp: now.Add(-7 * time.Hour), EngagementScore: 5,
		},
	}
}
