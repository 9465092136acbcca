// Package catalog supplies the job, event and mentorship collections the
// assistant ranks against, plus filtered listings for the outer surfaces.
package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/search"
)

// ErrNotFound is wrapped by every lookup miss.
var ErrNotFound = errors.New("not found")

// JobFilter narrows a job listing. Empty fields are ignored.
type JobFilter struct {
	Search          string `json:"search,omitempty"`
	Location        string `json:"location,omitempty"`
	Type            string `json:"type,omitempty"`
	ExperienceLevel string `json:"experienceLevel,omitempty"`
}

// EventFilter narrows an event listing. Zero times leave that end of the
// range open.
type EventFilter struct {
	Search   string    `json:"search,omitempty"`
	Category string    `json:"category,omitempty"`
	Virtual  *bool     `json:"virtual,omitempty"`
	Start    time.Time `json:"start,omitempty"`
	End      time.Time `json:"end,omitempty"`
}

type MentorshipFilter struct {
	Search   string `json:"search,omitempty"`
	Industry string `json:"industry,omitempty"`
	Focus    string `json:"focus,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// Provider is the source of candidate collections.
type Provider interface {
	Jobs(ctx context.Context, f JobFilter) ([]*domain.Job, error)
	Events(ctx context.Context, f EventFilter) ([]*domain.Event, error)
	Mentorships(ctx context.Context, f MentorshipFilter) ([]*domain.Mentorship, error)

	Job(ctx context.Context, id string) (*domain.Job, error)
	Event(ctx context.Context, id string) (*domain.Event, error)
	Mentorship(ctx context.Context, id string) (*domain.Mentorship, error)
}

//go:embed seed.yaml
var seedYAML []byte

type seedEvent struct {
	domain.Event `yaml:",inline"`
	DaysFromNow  int `yaml:"days_from_now"`
}

type seedDocument struct {
	Jobs        []*domain.Job        `yaml:"jobs"`
	Events      []seedEvent          `yaml:"events"`
	Mentorships []*domain.Mentorship `yaml:"mentorships"`
}

// StaticCatalog serves an in-memory collection. It is safe for concurrent
// use; callers must not mutate the returned items.
type StaticCatalog struct {
	jobs        []*domain.Job
	events      []*domain.Event
	mentorships []*domain.Mentorship
}

// NewStaticCatalog decodes the built-in demonstration catalog with event
// dates placed relative to now.
func NewStaticCatalog(now time.Time) (*StaticCatalog, error) {
	return ParseStaticCatalog(seedYAML, now)
}

// ParseStaticCatalog decodes a catalog document in the seed schema. Every
// candidate must pass validation.
func ParseStaticCatalog(data []byte, now time.Time) (*StaticCatalog, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, domain.ConfigError("parse catalog", err)
	}

	c := &StaticCatalog{
		jobs:        doc.Jobs,
		events:      make([]*domain.Event, 0, len(doc.Events)),
		mentorships: doc.Mentorships,
	}
	for i := range doc.Events {
		e := doc.Events[i].Event
		if e.Date.IsZero() {
			e.Date = now.Add(time.Duration(doc.Events[i].DaysFromNow) * 24 * time.Hour)
		}
		c.events = append(c.events, &e)
	}

	var errs []error
	for _, j := range c.jobs {
		errs = append(errs, j.Validate())
	}
	for _, e := range c.events {
		errs = append(errs, e.Validate())
	}
	for _, m := range c.mentorships {
		errs = append(errs, m.Validate())
	}
	if err := errors.Join(errs...); err != nil {
		return nil, domain.ConfigError("validate catalog", err)
	}
	return c, nil
}

func (c *StaticCatalog) Jobs(_ context.Context, f JobFilter) ([]*domain.Job, error) {
	out := search.SearchByText(c.jobs, f.Search, jobTitle, jobCompany, jobDescription)
	out = search.Filter(out,
		search.ContainsFold(jobLocation, f.Location),
		search.EqualFold(jobType, f.Type),
		search.EqualFold(jobExperience, f.ExperienceLevel),
	)
	return clone(out), nil
}

// Events returns matching events ordered by date, soonest first.
func (c *StaticCatalog) Events(_ context.Context, f EventFilter) ([]*domain.Event, error) {
	out := search.SearchByText(c.events, f.Search, eventTitle, eventDescription)
	preds := []search.Predicate[*domain.Event]{search.EqualFold(eventCategory, f.Category)}
	if f.Virtual != nil {
		want := *f.Virtual
		preds = append(preds, func(e *domain.Event) bool { return e.Virtual == want })
	}
	if !f.Start.IsZero() {
		preds = append(preds, func(e *domain.Event) bool { return !e.Date.Before(f.Start) })
	}
	if !f.End.IsZero() {
		preds = append(preds, func(e *domain.Event) bool { return !e.Date.After(f.End) })
	}
	out = clone(search.Filter(out, preds...))
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (c *StaticCatalog) Mentorships(_ context.Context, f MentorshipFilter) ([]*domain.Mentorship, error) {
	out := search.SearchByText(c.mentorships, f.Search, mentorshipTitle, mentorshipDescription, mentorshipMentor, mentorshipFocus)
	out = search.Filter(out,
		search.ContainsFold(mentorshipIndustry, f.Industry),
		search.ContainsFold(mentorshipFocus, f.Focus),
		search.ContainsFold(mentorshipDuration, f.Duration),
	)
	return clone(out), nil
}

func (c *StaticCatalog) Job(_ context.Context, id string) (*domain.Job, error) {
	return find(c.jobs, domain.VariantJob, id)
}

func (c *StaticCatalog) Event(_ context.Context, id string) (*domain.Event, error) {
	return find(c.events, domain.VariantEvent, id)
}

func (c *StaticCatalog) Mentorship(_ context.Context, id string) (*domain.Mentorship, error) {
	return find(c.mentorships, domain.VariantMentorship, id)
}

func find[T domain.Candidate](items []T, variant domain.Variant, id string) (T, error) {
	for _, item := range items {
		if item.CandidateID() == id {
			return item, nil
		}
	}
	var zero T
	return zero, notFound(variant, id)
}

func notFound(variant domain.Variant, id string) error {
	return domain.NotFoundError(fmt.Sprintf("%s %q", variant, id), ErrNotFound)
}

// clone copies the slice so filtering and sorting never reorder the backing
// collection.
func clone[T any](items []T) []T {
	return append(make([]T, 0, len(items)), items...)
}

func jobTitle(j *domain.Job) string       { return j.Title }
func jobCompany(j *domain.Job) string     { return j.Company }
func jobDescription(j *domain.Job) string { return j.Description }
func jobLocation(j *domain.Job) string    { return j.Location }
func jobType(j *domain.Job) string        { return j.Type }
func jobExperience(j *domain.Job) string  { return j.ExperienceLevel }

func eventTitle(e *domain.Event) string       { return e.Title }
func eventDescription(e *domain.Event) string { return e.Description }
func eventCategory(e *domain.Event) string    { return e.Category }

func mentorshipTitle(m *domain.Mentorship) string       { return m.Title }
func mentorshipDescription(m *domain.Mentorship) string { return m.Description }
func mentorshipMentor(m *domain.Mentorship) string      { return m.Mentor }
func mentorshipFocus(m *domain.Mentorship) string       { return m.Focus }
func mentorshipIndustry(m *domain.Mentorship) string    { return m.Industry }
func mentorshipDuration(m *domain.Mentorship) string    { return m.Duration }
