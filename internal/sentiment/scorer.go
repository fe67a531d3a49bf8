// Package sentiment assigns polarity scores and labels to mention text.
package sentiment

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mention-monitor/mention-bot/internal/models"
)

const (
	// PositiveThreshold and NegativeThreshold are strict bounds
	PositiveThreshold = 0.1
	NegativeThreshold = -0.1

	negationFactor = -0.5

	// each "!" scales the mean magnitude by exclamationBoost, up to maxExclamations
	exclamationBoost = 0.05
	maxExclamations  = 3
)

var errInvalidText = errors.New("text is not valid UTF-8")

var (
	urlPattern     = regexp.MustCompile(`(?i)(https?://|www\.)\S+`)
	handlePattern  = regexp.MustCompile(`@[\w.-]+`)
	hashtagPattern = regexp.MustCompile(`#(\w+)`)
)

// Scorer computes a polarity score in [-1, 1] for a piece of text
type Scorer interface {
	Score(text string) (float64, error)
}

// LexiconScorer scores text by averaging the polarity of known words
type LexiconScorer struct {
	lexicon      map[string]float64
	negators     map[string]bool
	intensifiers map[string]float64
}

// Ensure LexiconScorer implements Scorer
var _ Scorer = (*LexiconScorer)(nil)

// NewLexiconScorer creates a scorer with the built-in English lexicon
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{
		lexicon:      defaultLexicon,
		negators:     defaultNegators,
		intensifiers: defaultIntensifiers,
	}
}

// Score returns the mean polarity of the lexicon words found in text,
// boosted slightly by exclamation marks. Text without any letters scores 0.
func (s *LexiconScorer) Score(text string) (float64, error) {
	if !utf8.ValidString(text) {
		return 0, errInvalidText
	}

	cleaned := CleanText(text)
	tokens := tokenize(cleaned)
	if len(tokens) == 0 {
		return 0, nil
	}

	var sum float64
	var count int

	for i, token := range tokens {
		polarity, ok := s.lexicon[token]
		if !ok {
			continue
		}

		if i > 0 {
			if factor, ok := s.intensifiers[tokens[i-1]]; ok {
				polarity *= factor
			}
		}

		if s.negated(tokens, i) {
			polarity *= negationFactor
		}

		sum += polarity
		count++
	}

	if count == 0 {
		return 0, nil
	}

	mean := sum / float64(count)
	if marks := strings.Count(cleaned, "!"); marks > 0 {
		mean *= 1 + exclamationBoost*float64(min(marks, maxExclamations))
	}

	return clamp(mean), nil
}

// negated reports whether one of the two tokens before i is a negator
func (s *LexiconScorer) negated(tokens []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-2; j-- {
		if s.negators[tokens[j]] {
			return true
		}
	}
	return false
}

// Label maps a score to its categorical bucket
func Label(score float64) models.SentimentLabel {
	switch {
	case score > PositiveThreshold:
		return models.SentimentPositive
	case score < NegativeThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// CleanText strips URLs and handles and unwraps hashtags
func CleanText(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = handlePattern.ReplaceAllString(text, "")
	text = hashtagPattern.ReplaceAllString(text, "$1")
	return strings.Join(strings.Fields(text), " ")
}

// ScoringText returns the text of a mention that should be scored.
// Reddit posts are scored on title and body together.
func ScoringText(m models.Mention) string {
	if m.Platform == models.PlatformReddit && m.Kind == "post" && m.Title != "" {
		return strings.TrimSpace(m.Title + " " + m.Text)
	}
	return m.Text
}

// Apply scores a mention and returns the scored copy. It never drops a
// mention: on failure the copy is neutral with a zero score and the
// returned error is a *models.ScoringError.
func Apply(scorer Scorer, m models.Mention) (scored models.Mention, err error) {
	scored = m
	scored.SentimentScore = 0
	scored.SentimentLabel = models.SentimentNeutral

	defer func() {
		if r := recover(); r != nil {
			scored.SentimentScore = 0
			scored.SentimentLabel = models.SentimentNeutral
			err = &models.ScoringError{Platform: m.Platform, ID: m.ID, Err: fmt.Errorf("scorer panic: %v", r)}
		}
	}()

	score, scoreErr := scorer.Score(ScoringText(m))
	if scoreErr != nil {
		return scored, &models.ScoringError{Platform: m.Platform, ID: m.ID, Err: scoreErr}
	}

	if math.IsNaN(score) {
		return scored, &models.ScoringError{Platform: m.Platform, ID: m.ID, Err: errors.New("scorer returned NaN")}
	}

	scored.SentimentScore = clamp(score)
	scored.SentimentLabel = Label(scored.SentimentScore)
	return scored, nil
}

func tokenize(text string) []string {
	text = strings.ReplaceAll(strings.ToLower(text), "’", "'")

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
