package search

import (
	"strings"

	"github.com/spherical-ai/asha/internal/domain"
)

// Scorer computes the relevance of one candidate. lowerQuery is already
// lowercased; an empty query never matches a field.
type Scorer[T domain.Candidate] interface {
	Score(lowerQuery string, entities domain.EntitySets, item T) float64
}

// Job weights. Location, type, skills and experience level match when the
// query contains the field, the reverse of the other fields.
const (
	jobTitleWeight      = 10
	jobCompanyWeight    = 5
	jobDescWeight       = 3
	jobLocationWeight   = 8
	jobTypeWeight       = 8
	jobSkillWeight      = 7
	jobExperienceWeight = 5
	jobEntityBoost      = 10
)

type JobScorer struct{}

func (JobScorer) Score(q string, entities domain.EntitySets, j *domain.Job) float64 {
	var score float64
	if fieldContains(j.Title, q) {
		score += jobTitleWeight
	}
	if fieldContains(j.Company, q) {
		score += jobCompanyWeight
	}
	if fieldContains(j.Description, q) {
		score += jobDescWeight
	}
	if queryContains(q, j.Location) {
		score += jobLocationWeight
	}
	if queryContains(q, j.Type) {
		score += jobTypeWeight
	}
	for _, skill := range j.Skills {
		if queryContains(q, skill) {
			score += jobSkillWeight
		}
	}
	if queryContains(q, j.ExperienceLevel) {
		score += jobExperienceWeight
	}

	if anyContainedIn(entities.JobTypes, j.Type) {
		score += jobEntityBoost
	}
	for _, skill := range j.Skills {
		if anyContainedIn(entities.Skills, skill) {
			score += jobEntityBoost
			break
		}
	}
	if anyContainedIn(entities.Industries, j.Industry) {
		score += jobEntityBoost
	}
	return score
}

const (
	eventTitleWeight    = 10
	eventDescWeight     = 5
	eventCategoryWeight = 8
	eventSpeakerWeight  = 6
	eventTimeWeight     = 4
)

// EventScorer adds a flat bonus per time term in the query. The term is not
// checked against the event date.
type EventScorer struct {
	TimeTerms []string
}

func (s EventScorer) Score(q string, _ domain.EntitySets, e *domain.Event) float64 {
	var score float64
	if fieldContains(e.Title, q) {
		score += eventTitleWeight
	}
	if fieldContains(e.Description, q) {
		score += eventDescWeight
	}
	if fieldContains(e.Category, q) {
		score += eventCategoryWeight
	}
	for _, sp := range e.Speakers {
		if queryContains(q, sp.Name) {
			score += eventSpeakerWeight
		}
	}
	for _, term := range s.TimeTerms {
		if queryContains(q, term) {
			score += eventTimeWeight
		}
	}
	return score
}

const (
	mentorshipTitleWeight    = 10
	mentorshipMentorWeight   = 8
	mentorshipFocusWeight    = 9
	mentorshipDescWeight     = 5
	mentorshipIndustryWeight = 7
)

type MentorshipScorer struct{}

func (MentorshipScorer) Score(q string, _ domain.EntitySets, m *domain.Mentorship) float64 {
	var score float64
	if fieldContains(m.Title, q) {
		score += mentorshipTitleWeight
	}
	if fieldContains(m.Mentor, q) {
		score += mentorshipMentorWeight
	}
	if fieldContains(m.Focus, q) {
		score += mentorshipFocusWeight
	}
	if fieldContains(m.Description, q) {
		score += mentorshipDescWeight
	}
	if fieldContains(m.Industry, q) {
		score += mentorshipIndustryWeight
	}
	return score
}

// fieldContains reports whether the lowercased field contains the query.
func fieldContains(field, lowerQuery string) bool {
	return lowerQuery != "" && field != "" && strings.Contains(strings.ToLower(field), lowerQuery)
}

// queryContains reports whether the query contains the lowercased field.
func queryContains(lowerQuery, field string) bool {
	return field != "" && strings.Contains(lowerQuery, strings.ToLower(field))
}

// anyContainedIn reports whether the lowercased field contains any of terms.
func anyContainedIn(terms []string, field string) bool {
	if field == "" {
		return false
	}
	lower := strings.ToLower(field)
	for _, t := range terms {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
