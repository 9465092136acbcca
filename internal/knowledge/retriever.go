// Package knowledge implements keyword retrieval over the static knowledge
// base and assembles the context handed to a downstream generator.
package knowledge

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/lexicon"
)

// DefaultLimit is the number of chunks returned when no limit is given.
const DefaultLimit = 3

const (
	topicInQueryWeight  = 10
	relevanceWeight     = 5
	topicInIntentWeight = 15
	contentWordWeight   = 2
	minQueryWordLength  = 4
)

type indexedChunk struct {
	chunk     domain.KnowledgeChunk
	relevance []string
	words     map[string]struct{}
}

// Retriever scores knowledge chunks against a query. It is immutable and safe
// for concurrent use.
type Retriever struct {
	chunks []indexedChunk
}

func NewRetriever(lx *lexicon.Lexicon) *Retriever {
	r := &Retriever{chunks: make([]indexedChunk, 0, len(lx.Knowledge))}
	for _, c := range lx.Knowledge {
		// Content words keep their punctuation: "programs," is not "programs".
		words := make(map[string]struct{})
		for _, w := range strings.Split(strings.ToLower(c.Content), " ") {
			words[w] = struct{}{}
		}
		relevance := make([]string, len(c.Relevance))
		for i, kw := range c.Relevance {
			relevance[i] = strings.ToLower(kw)
		}
		r.chunks = append(r.chunks, indexedChunk{chunk: c, relevance: relevance, words: words})
	}
	return r
}

// Retrieve returns up to limit chunks with a positive score, best first.
// Equal scores keep knowledge base order.
func (r *Retriever) Retrieve(query string, intent domain.Intent, limit int) []domain.ScoredResult[domain.KnowledgeChunk] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	lower := strings.ToLower(query)
	queryWords := strings.Split(lower, " ")

	scored := make([]domain.ScoredResult[domain.KnowledgeChunk], 0, len(r.chunks))
	for _, ic := range r.chunks {
		score := r.score(ic, lower, queryWords, string(intent))
		if score > 0 {
			scored = append(scored, domain.ScoredResult[domain.KnowledgeChunk]{Item: ic.chunk, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func (r *Retriever) score(ic indexedChunk, lowerQuery string, queryWords []string, intent string) float64 {
	var score float64
	if strings.Contains(lowerQuery, ic.chunk.Topic) {
		score += topicInQueryWeight
	}
	for _, kw := range ic.relevance {
		if strings.Contains(lowerQuery, kw) {
			score += relevanceWeight
		}
	}
	if strings.Contains(intent, ic.chunk.Topic) {
		score += topicInIntentWeight
	}
	// repeated query words count each time
	for _, w := range queryWords {
		if utf8.RuneCountInString(w) < minQueryWordLength {
			continue
		}
		if _, ok := ic.words[w]; ok {
			score += contentWordWeight
		}
	}
	return score
}

// Chunks returns the knowledge base in table order.
func (r *Retriever) Chunks() []domain.KnowledgeChunk {
	out := make([]domain.KnowledgeChunk, len(r.chunks))
	for i, ic := range r.chunks {
		out[i] = ic.chunk
	}
	return out
}

// ValidateChunk checks a proposed chunk without storing it.
func ValidateChunk(c domain.KnowledgeChunk) error {
	return lexicon.ValidateChunk(c)
}

// Submit validates a proposed chunk. The knowledge base is fixed at startup,
// so a valid chunk is still rejected with a read-only error.
func (r *Retriever) Submit(c domain.KnowledgeChunk) error {
	if err := ValidateChunk(c); err != nil {
		return err
	}
	return domain.ReadOnlyError("knowledge base is read-only", nil)
}
