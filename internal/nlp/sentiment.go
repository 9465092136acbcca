package nlp

import (
	"strings"

	"github.com/spherical-ai/asha/internal/lexicon"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// SentimentResult counts matched positive and negative keywords.
// Score is Positive minus Negative.
type SentimentResult struct {
	Sentiment Sentiment `json:"sentiment"`
	Score     int       `json:"score"`
	Positive  int       `json:"positive"`
	Negative  int       `json:"negative"`
}

type SentimentAnalyzer struct {
	positive []string
	negative []string
}

func NewSentimentAnalyzer(lx *lexicon.Lexicon) *SentimentAnalyzer {
	return &SentimentAnalyzer{
		positive: lowerAll(lx.Sentiment.Positive),
		negative: lowerAll(lx.Sentiment.Negative),
	}
}

func (a *SentimentAnalyzer) Analyze(text string) SentimentResult {
	res := SentimentResult{Sentiment: SentimentNeutral}
	if text == "" {
		return res
	}
	lower := strings.ToLower(text)
	for _, kw := range a.positive {
		if strings.Contains(lower, kw) {
			res.Positive++
		}
	}
	for _, kw := range a.negative {
		if strings.Contains(lower, kw) {
			res.Negative++
		}
	}
	res.Score = res.Positive - res.Negative
	switch {
	case res.Score > 0:
		res.Sentiment = SentimentPositive
	case res.Score < 0:
		res.Sentiment = SentimentNegative
	}
	return res
}
