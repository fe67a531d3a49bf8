package sentiment

import (
	"errors"
	"math"
	"testing"

	"github.com/mention-monitor/mention-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scorerFunc func(text string) (float64, error)

func (f scorerFunc) Score(text string) (float64, error) {
	return f(text)
}

func TestLabel_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		expected models.SentimentLabel
	}{
		{name: "Exactly positive threshold", score: 0.1, expected: models.SentimentNeutral},
		{name: "Just above positive threshold", score: 0.1000001, expected: models.SentimentPositive},
		{name: "Exactly negative threshold", score: -0.1, expected: models.SentimentNeutral},
		{name: "Just below negative threshold", score: -0.1000001, expected: models.SentimentNegative},
		{name: "Zero", score: 0, expected: models.SentimentNeutral},
		{name: "Maximum", score: 1, expected: models.SentimentPositive},
		{name: "Minimum", score: -1, expected: models.SentimentNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Label(tt.score))
		})
	}
}

func TestLexiconScorer_Score(t *testing.T) {
	scorer := NewLexiconScorer()

	tests := []struct {
		name     string
		text     string
		expected float64
	}{
		{name: "Single positive word", text: "Ansible is great", expected: 0.8},
		{name: "Intensified", text: "This playbook is really good", expected: 0.91},
		{name: "Negated", text: "This is not good", expected: -0.35},
		{name: "Mixed negative words", text: "terrible and broken, hate it", expected: -2.2 / 3},
		{name: "Balanced", text: "good and bad", expected: 0},
		{name: "No lexicon words", text: "Released version 2.0 today", expected: 0},
		{name: "Empty", text: "", expected: 0},
		{name: "Whitespace", text: "   \n\t", expected: 0},
		{name: "Non-textual", text: "12345 !!! 42", expected: 0},
		{name: "Clamped", text: "extremely excellent", expected: 1},
		{name: "Curly apostrophe negator", text: "it doesn’t work, it’s not helpful", expected: -0.25},
		{name: "Exclamation boost", text: "this is good!", expected: 0.735},
		{name: "Exclamation boost capped", text: "this is good!!!!!", expected: 0.805},
		{name: "Exclamation boosts negative", text: "this is bad!!", expected: -0.77},
		{name: "Exclamation clamped", text: "extremely excellent!!!", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := scorer.Score(tt.text)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, score, 1e-9)
		})
	}
}

func TestLexiconScorer_IgnoresURLsAndHandles(t *testing.T) {
	scorer := NewLexiconScorer()

	score, err := scorer.Score("see https://great.example.com/best @awesomeuser #wonderful")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestLexiconScorer_InvalidUTF8(t *testing.T) {
	scorer := NewLexiconScorer()

	_, err := scorer.Score("good \xff\xfe")
	assert.Error(t, err)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "URL removed", input: "read http://example.com/x now", expected: "read now"},
		{name: "www URL removed", input: "see www.example.com", expected: "see"},
		{name: "Handle removed", input: "@alice.bsky.social thanks", expected: "thanks"},
		{name: "Hashtag unwrapped", input: "#Ansible rocks", expected: "Ansible rocks"},
		{name: "Whitespace collapsed", input: "  a   b  ", expected: "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}

func TestApply(t *testing.T) {
	mention := models.Mention{Platform: models.PlatformTwitter, ID: "1", Text: "Ansible is great"}

	scored, err := Apply(NewLexiconScorer(), mention)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, scored.SentimentScore, 1e-9)
	assert.Equal(t, models.SentimentPositive, scored.SentimentLabel)
	assert.Empty(t, mention.SentimentLabel, "input must not be mutated")
}

func TestApply_RedditPostIncludesTitle(t *testing.T) {
	mention := models.Mention{
		Platform: models.PlatformReddit,
		ID:       "t3_abc",
		Kind:     "post",
		Title:    "Terrible upgrade",
		Text:     "",
	}

	scored, err := Apply(NewLexiconScorer(), mention)
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, scored.SentimentLabel)
}

func TestApply_ErrorFallsBackToNeutral(t *testing.T) {
	failing := scorerFunc(func(string) (float64, error) {
		return 0.9, errors.New("model unavailable")
	})
	mention := models.Mention{Platform: models.PlatformBluesky, ID: "at://x", Text: "great"}

	scored, err := Apply(failing, mention)

	var scoringErr *models.ScoringError
	require.ErrorAs(t, err, &scoringErr)
	assert.Equal(t, "at://x", scoringErr.ID)
	assert.Equal(t, models.SentimentNeutral, scored.SentimentLabel)
	assert.Zero(t, scored.SentimentScore)
	assert.Equal(t, mention.ID, scored.ID)
}

func TestApply_PanicFallsBackToNeutral(t *testing.T) {
	panicking := scorerFunc(func(string) (float64, error) {
		panic("boom")
	})
	mention := models.Mention{Platform: models.PlatformReddit, ID: "t1_x", Text: "hello"}

	scored, err := Apply(panicking, mention)

	var scoringErr *models.ScoringError
	require.ErrorAs(t, err, &scoringErr)
	assert.Equal(t, models.SentimentNeutral, scored.SentimentLabel)
	assert.Equal(t, "t1_x", scored.ID)
}

func TestApply_ClampsOutOfRangeScores(t *testing.T) {
	loud := scorerFunc(func(string) (float64, error) {
		return 3.5, nil
	})

	scored, err := Apply(loud, models.Mention{ID: "1"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, scored.SentimentScore)
	assert.Equal(t, models.SentimentPositive, scored.SentimentLabel)
}

func TestApply_NaNFallsBackToNeutral(t *testing.T) {
	broken := scorerFunc(func(string) (float64, error) {
		return math.NaN(), nil
	})
	mention := models.Mention{Platform: models.PlatformTwitter, ID: "42", Text: "hello"}

	scored, err := Apply(broken, mention)

	var scoringErr *models.ScoringError
	require.ErrorAs(t, err, &scoringErr)
	assert.Equal(t, "42", scoringErr.ID)
	assert.Zero(t, scored.SentimentScore)
	assert.Equal(t, models.SentimentNeutral, scored.SentimentLabel)
}
