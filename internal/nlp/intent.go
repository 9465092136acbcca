// Package nlp implements the keyword-based language helpers of the assistant:
// intent classification, entity extraction, sentiment and conversation
// heuristics. Everything here is deterministic and safe for concurrent use.
package nlp

import (
	"strings"
	"unicode/utf8"

	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/lexicon"
)

const (
	// Keywords found within the first positionWindow characters count double.
	positionWindow = 10
	positionFactor = 2.0

	// Keywords longer than specificLength characters weigh 1.5x.
	specificLength    = 6
	specificityFactor = 1.5
)

// IntentScore is the raw score of one category for a message.
type IntentScore struct {
	Intent domain.Intent `json:"intent"`
	Score  float64       `json:"score"`
}

type intentCategory struct {
	intent   domain.Intent
	keywords []string
}

// IntentClassifier assigns one of the fixed intent categories to a message.
type IntentClassifier struct {
	categories []intentCategory
	boosts     []lexicon.Boost
}

// NewIntentClassifier builds a classifier over the lexicon's intent tables.
func NewIntentClassifier(lx *lexicon.Lexicon) *IntentClassifier {
	c := &IntentClassifier{
		categories: make([]intentCategory, 0, len(lx.Intents)),
		boosts:     make([]lexicon.Boost, 0, len(lx.Boosts)),
	}
	for _, ik := range lx.Intents {
		c.categories = append(c.categories, intentCategory{
			intent:   ik.Category,
			keywords: lowerAll(ik.Keywords),
		})
	}
	for _, b := range lx.Boosts {
		groups := make([][]string, len(b.AllOf))
		for i, g := range b.AllOf {
			groups[i] = lowerAll(g)
		}
		c.boosts = append(c.boosts, lexicon.Boost{Category: b.Category, Boost: b.Boost, AllOf: groups})
	}
	return c
}

// Classify returns the highest scoring category. The first category to reach
// the maximum wins ties. A message with no signal is classified as help.
func (c *IntentClassifier) Classify(text string) domain.Intent {
	best := domain.IntentHelp
	maxScore := 0.0
	for _, s := range c.Scores(text) {
		if s.Score > maxScore {
			maxScore = s.Score
			best = s.Intent
		}
	}
	return best
}

// Scores returns the score of every category in table order.
func (c *IntentClassifier) Scores(text string) []IntentScore {
	scores := make([]IntentScore, len(c.categories))
	lower := strings.ToLower(text)

	for i, cat := range c.categories {
		scores[i].Intent = cat.intent
		if lower == "" {
			continue
		}
		for _, kw := range cat.keywords {
			scores[i].Score += keywordScore(lower, kw)
		}
	}

	if lower == "" {
		return scores
	}

	for _, b := range c.boosts {
		if !allGroupsMatch(lower, b.AllOf) {
			continue
		}
		for i := range scores {
			if scores[i].Intent == b.Category {
				scores[i].Score += b.Boost
			}
		}
	}
	return scores
}

func keywordScore(lower, kw string) float64 {
	idx := strings.Index(lower, kw)
	if idx < 0 {
		return 0
	}
	score := 1.0
	if utf8.RuneCountInString(lower[:idx]) < positionWindow {
		score *= positionFactor
	}
	if utf8.RuneCountInString(kw) > specificLength {
		score *= specificityFactor
	}
	return score
}

func allGroupsMatch(lower string, groups [][]string) bool {
	for _, g := range groups {
		if !containsAny(lower, g) {
			return false
		}
	}
	return true
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
