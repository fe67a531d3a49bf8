package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mention-monitor/mention-bot/internal/models"
	"github.com/mention-monitor/mention-bot/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedAt = time.Date(2026, 10, 19, 9, 30, 15, 0, time.UTC)

type failingStorage struct {
	storage.FileStorage
}

func (f *failingStorage) Store(filename string, data []byte) error {
	return errors.New("disk full")
}

func (f *failingStorage) Location(filename string) string {
	return "/readonly/" + filename
}

func sampleMentions() []models.Mention {
	return []models.Mention{
		{
			Platform:        models.PlatformReddit,
			ID:              "t3_abc",
			Title:           "Loving the new cluster autoscaler, it is really fast and reliable in production",
			Text:            "body",
			Author:          "kube_fan",
			URL:             "https://reddit.com/r/ansible/comments/abc",
			Timestamp:       generatedAt.Add(-2 * time.Hour),
			EngagementScore: 47,
			SentimentLabel:  models.SentimentPositive,
			SentimentScore:  0.45,
		},
		{
			Platform:        models.PlatformBluesky,
			ID:              "at://did:plc:xyz/app.bsky.feed.post/1",
			Text:            "upgrade broke\nour nodes, \"again\"",
			Author:          "ops.bsky.social",
			URL:             "https://bsky.app/profile/ops.bsky.social/post/1",
			Timestamp:       generatedAt.Add(-time.Hour),
			EngagementScore: 5,
			SentimentLabel:  models.SentimentNegative,
			SentimentScore:  -0.35,
		},
	}
}

func sampleReport() *models.RunReport {
	mentions := sampleMentions()
	return &models.RunReport{
		RunID:       "run-1",
		GeneratedAt: generatedAt,
		ProductName: "Ansible",
		Window: models.Window{
			Hours: 24,
			Since: generatedAt.Add(-24 * time.Hour),
			Until: generatedAt,
		},
		Keywords: []string{"Ansible"},
		RankedBy: "engagement",
		Summary: models.Summary{
			Total:              2,
			ByPlatform:         map[models.Platform]int{models.PlatformReddit: 1, models.PlatformTwitter: 0, models.PlatformBluesky: 1},
			BySentiment:        map[models.SentimentLabel]int{models.SentimentPositive: 1, models.SentimentNeutral: 0, models.SentimentNegative: 1},
			AverageSentiment:   0.05,
			PositivePercentage: 50,
			NegativePercentage: 50,
		},
		TopMentions: mentions,
	}
}

func TestRenderConsole(t *testing.T) {
	out := RenderConsole(sampleReport())

	assert.Contains(t, out, "=== Ansible Mention Report ===")
	assert.Contains(t, out, "Generated: 2026-10-19 09:30:15 UTC")
	assert.Contains(t, out, "Window: last 24h")
	assert.Contains(t, out, "Total Mentions: 2")
	assert.Contains(t, out, "Platforms: reddit: 1, twitter: 0, bluesky: 1")
	assert.Contains(t, out, "Positive: 1 (50.0%)")
	assert.Contains(t, out, "Negative: 1 (50.0%)")
	assert.Contains(t, out, "Neutral: 0 (0.0%)")
	assert.Contains(t, out, "Average Sentiment Score: 0.050")
	assert.Contains(t, out, "TOP MENTIONS (by engagement):")
	assert.Contains(t, out, "1. [reddit] Loving the new cluster autoscaler, it is really fast and rel...")
	assert.Contains(t, out, "Author: kube_fan | Score: 47 | Sentiment: positive (0.45)")
	assert.Contains(t, out, "2. [bluesky] upgrade broke our nodes, \"again\"")
	assert.Contains(t, out, "URL: https://bsky.app/profile/ops.bsky.social/post/1")
	assert.NotContains(t, out, "UNAVAILABLE PLATFORMS")
}

func TestRenderConsole_Empty(t *testing.T) {
	report := &models.RunReport{GeneratedAt: generatedAt, ProductName: "Ansible"}

	out := RenderConsole(report)

	assert.Contains(t, out, "No mentions found in the specified time period.")
	assert.NotContains(t, out, "TOP MENTIONS")
}

func TestRenderConsole_CollectorErrors(t *testing.T) {
	report := sampleReport()
	report.CollectorErrors = map[models.Platform]string{
		models.PlatformTwitter: "rate limit exceeded",
	}

	out := RenderConsole(report)

	assert.Contains(t, out, "UNAVAILABLE PLATFORMS:")
	assert.Contains(t, out, "twitter: rate limit exceeded")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		width    int
		expected string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "abcde", 5, "abcde"},
		{"long", "abcdefgh", 5, "abcde..."},
		{"multibyte", "ééééééé", 3, "ééé..."},
		{"newlines", "one\ntwo\n\nthree", 60, "one two three"},
		{"empty", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Truncate(tt.text, tt.width))
		})
	}
}

func TestFileNames(t *testing.T) {
	jsonName, csvName := FileNames(generatedAt)

	assert.Equal(t, "mentions_20261019_093015.json", jsonName)
	assert.Equal(t, "mentions_20261019_093015.csv", csvName)
}

func TestExportJSON(t *testing.T) {
	store := storage.NewFileStorage(t.TempDir())
	exporter := NewExporter(store)
	mentions := sampleMentions()

	require.NoError(t, exporter.ExportJSON(sampleReport(), mentions, "mentions_test.json"))

	data, err := store.Retrieve("mentions_test.json")
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "run-1", doc["run_id"])
	assert.Equal(t, "2026-10-19T09:30:15Z", doc["generated_at"])
	assert.Contains(t, doc, "window")
	assert.Contains(t, doc, "summary")
	assert.Len(t, doc["mentions"], 2)
}

func TestExportJSON_NilMentions(t *testing.T) {
	data, err := EncodeJSON(&models.RunReport{}, nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mentions": []`)
}

func TestExportCSV(t *testing.T) {
	store := storage.NewFileStorage(t.TempDir())
	exporter := NewExporter(store)

	require.NoError(t, exporter.ExportCSV(sampleMentions(), "mentions_test.csv"))

	data, err := store.Retrieve("mentions_test.csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, CSVColumns, records[0])
	assert.Equal(t, []string{
		"reddit", "t3_abc", "kube_fan", "body",
		"https://reddit.com/r/ansible/comments/abc",
		"2026-10-19T07:30:15Z", "47", "positive", "0.45",
	}, records[1])
	assert.Equal(t, "upgrade broke\nour nodes, \"again\"", records[2][3])
	assert.Equal(t, "-0.35", records[2][8])
}

func TestExportCSV_HeaderOnlyWhenEmpty(t *testing.T) {
	data, err := EncodeCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(CSVColumns, ",")+"\n", string(data))
}

func TestExport_StoreFailure(t *testing.T) {
	exporter := NewExporter(&failingStorage{})

	err := exporter.ExportCSV(sampleMentions(), "mentions_test.csv")
	require.Error(t, err)

	var exportErr *models.ExportError
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, "/readonly/mentions_test.csv", exportErr.Path)

	err = exporter.ExportJSON(sampleReport(), sampleMentions(), "mentions_test.json")
	require.True(t, errors.As(err, &exportErr))
	assert.Contains(t, err.Error(), "disk full")
}

func TestIsExportName(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"mentions_20261019_093015.json", true},
		{"mentions_20261019_093015.csv", true},
		{"mentions_20261019_093015.txt", false},
		{"report.json", false},
		{"mentions_../secrets.json", false},
		{`mentions_..\secrets.csv`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsExportName(tt.name))
		})
	}
}

func TestExporter_ExportsAndRead(t *testing.T) {
	store := storage.NewFileStorage(t.TempDir())
	exporter := NewExporter(store)

	require.NoError(t, store.Store("notes.txt", []byte("ignored")))
	require.NoError(t, exporter.ExportCSV(sampleMentions(), "mentions_20261019_093015.csv"))
	require.NoError(t, exporter.ExportJSON(sampleReport(), sampleMentions(), "mentions_20261019_093015.json"))

	files, err := exporter.Exports()
	require.NoError(t, err)
	assert.Equal(t, []string{"mentions_20261019_093015.csv", "mentions_20261019_093015.json"}, files)

	data, err := exporter.Read("mentions_20261019_093015.csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "platform,id,"))

	_, err = exporter.Read("notes.txt")
	assert.Error(t, err)
}

func TestExporter_Prune(t *testing.T) {
	tests := []struct {
		name      string
		keep      int
		removed   []string
		remaining int
	}{
		{"keep all", 0, nil, 6},
		{"keep more than exist", 5, nil, 6},
		{
			"keep newest two runs", 2,
			[]string{"mentions_20261017_120000.csv", "mentions_20261017_120000.json"},
			4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewFileStorage(t.TempDir())
			exporter := NewExporter(store)
			for _, stamp := range []string{"20261017_120000", "20261018_120000", "20261019_120000"} {
				require.NoError(t, store.Store("mentions_"+stamp+".json", []byte("{}")))
				require.NoError(t, store.Store("mentions_"+stamp+".csv", []byte("platform")))
			}

			removed, err := exporter.Prune(tt.keep)
			require.NoError(t, err)
			assert.Equal(t, tt.removed, removed)

			files, err := exporter.Exports()
			require.NoError(t, err)
			assert.Len(t, files, tt.remaining)
		})
	}
}
