// Package search ranks jobs, events and mentorship programs against a query
// using field-weighted keyword overlap.
package search

import (
	"sort"
	"strings"

	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/lexicon"
)

// DefaultLimit is the number of results returned when no limit is given.
const DefaultLimit = 3

// Rank scores every item, drops non-positive scores and returns the best
// limit items. Items with equal scores keep their input order. The first
// item that fails validation aborts ranking with its
// *domain.MalformedCandidateError.
func Rank[T domain.Candidate](query string, items []T, scorer Scorer[T], entities domain.EntitySets, limit int) ([]domain.ScoredResult[T], error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := strings.ToLower(query)
	if strings.TrimSpace(q) == "" {
		q = ""
	}

	results := make([]domain.ScoredResult[T], 0, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		if score := scorer.Score(q, entities, item); score > 0 {
			results = append(results, domain.ScoredResult[T]{Item: item, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Ranker bundles the per-variant scorers configured from a lexicon.
type Ranker struct {
	jobs        JobScorer
	events      EventScorer
	mentorships MentorshipScorer
}

func NewRanker(lx *lexicon.Lexicon) *Ranker {
	terms := make([]string, len(lx.EventTimeTerms))
	for i, t := range lx.EventTimeTerms {
		terms[i] = strings.ToLower(t)
	}
	return &Ranker{events: EventScorer{TimeTerms: terms}}
}

func (r *Ranker) RankJobs(query string, jobs []*domain.Job, entities domain.EntitySets, limit int) ([]domain.ScoredResult[*domain.Job], error) {
	return Rank[*domain.Job](query, jobs, r.jobs, entities, limit)
}

func (r *Ranker) RankEvents(query string, events []*domain.Event, entities domain.EntitySets, limit int) ([]domain.ScoredResult[*domain.Event], error) {
	return Rank[*domain.Event](query, events, r.events, entities, limit)
}

func (r *Ranker) RankMentorships(query string, programs []*domain.Mentorship, entities domain.EntitySets, limit int) ([]domain.ScoredResult[*domain.Mentorship], error) {
	return Rank[*domain.Mentorship](query, programs, r.mentorships, entities, limit)
}

// RankCandidates ranks a homogeneous collection of the declared variant. An
// item of another variant is reported as malformed.
func (r *Ranker) RankCandidates(query string, variant domain.Variant, items []domain.Candidate, entities domain.EntitySets, limit int) ([]domain.ScoredResult[domain.Candidate], error) {
	for _, c := range items {
		if err := checkVariant(c, variant); err != nil {
			return nil, err
		}
	}
	return Rank[domain.Candidate](query, items, candidateScorer{ranker: r}, entities, limit)
}

func checkVariant(c domain.Candidate, want domain.Variant) error {
	if c == nil {
		return &domain.MalformedCandidateError{Variant: want, Field: "id"}
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if got := c.Variant(); got != want {
		return &domain.MalformedCandidateError{Variant: want, ID: c.CandidateID(), Field: "variant (got " + string(got) + ")"}
	}
	return nil
}

type candidateScorer struct {
	ranker *Ranker
}

func (s candidateScorer) Score(q string, entities domain.EntitySets, c domain.Candidate) float64 {
	switch v := c.(type) {
	case *domain.Job:
		return s.ranker.jobs.Score(q, entities, v)
	case *domain.Event:
		return s.ranker.events.Score(q, entities, v)
	case *domain.Mentorship:
		return s.ranker.mentorships.Score(q, entities, v)
	default:
		return 0
	}
}
