package nlp

import (
	"strings"

	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/lexicon"
)

type vocabulary struct {
	terms []string
	lower []string
}

func newVocabulary(terms []string) vocabulary {
	return vocabulary{terms: terms, lower: lowerAll(terms)}
}

// match returns, in vocabulary order, every term contained in lower.
// Matching is plain substring containment, so "it" matches inside "with".
func (v vocabulary) match(lower string) []string {
	found := []string{}
	for i, term := range v.lower {
		if strings.Contains(lower, term) {
			found = append(found, v.terms[i])
		}
	}
	return found
}

// EntityExtractor finds vocabulary keywords in a message.
type EntityExtractor struct {
	skills     vocabulary
	locations  vocabulary
	times      vocabulary
	roles      vocabulary
	industries vocabulary
	jobTypes   vocabulary
}

func NewEntityExtractor(lx *lexicon.Lexicon) *EntityExtractor {
	return &EntityExtractor{
		skills:     newVocabulary(lx.Entities.Skills),
		locations:  newVocabulary(lx.Entities.Locations),
		times:      newVocabulary(lx.Entities.Times),
		roles:      newVocabulary(lx.Entities.Roles),
		industries: newVocabulary(lx.Entities.Industries),
		jobTypes:   newVocabulary(lx.Entities.JobTypes),
	}
}

// Extract returns the matched terms per category. Categories that match
// nothing are empty, never nil.
func (e *EntityExtractor) Extract(text string) domain.EntitySets {
	if text == "" {
		return domain.NewEntitySets()
	}
	lower := strings.ToLower(text)
	return domain.EntitySets{
		Skills:     e.skills.match(lower),
		Locations:  e.locations.match(lower),
		Times:      e.times.match(lower),
		Roles:      e.roles.match(lower),
		Industries: e.industries.match(lower),
		JobTypes:   e.jobTypes.match(lower),
	}
}
