package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Intent is the coarse category of what a user message asks about.
type Intent string

const (
	IntentJobSearch        Intent = "job_search"
	IntentEventInfo        Intent = "event_info"
	IntentMentorship       Intent = "mentorship"
	IntentSkillDevelopment Intent = "skill_development"
	IntentCareerAdvice     Intent = "career_advice"
	IntentCompanyInfo      Intent = "company_info"
	IntentHelp             Intent = "help"
)

// Intents lists every category in classifier iteration order. Ties are won
// by the category that appears first here.
var Intents = []Intent{
	IntentJobSearch,
	IntentEventInfo,
	IntentMentorship,
	IntentSkillDevelopment,
	IntentCareerAdvice,
	IntentCompanyInfo,
	IntentHelp,
}

// Valid reports whether i is one of the known categories.
func (i Intent) Valid() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}
	return false
}

// EntitySets holds the vocabulary keywords found in a message, per category.
type EntitySets struct {
	Skills     []string `json:"skills"`
	Locations  []string `json:"locations"`
	Times      []string `json:"times"`
	Roles      []string `json:"roles"`
	Industries []string `json:"industries"`
	JobTypes   []string `json:"jobTypes"`
}

// NewEntitySets returns an EntitySets with every category empty but non-nil.
func NewEntitySets() EntitySets {
	return EntitySets{
		Skills:     []string{},
		Locations:  []string{},
		Times:      []string{},
		Roles:      []string{},
		Industries: []string{},
		JobTypes:   []string{},
	}
}

// IsEmpty reports whether no category matched.
func (e EntitySets) IsEmpty() bool {
	return len(e.Skills)+len(e.Locations)+len(e.Times)+len(e.Roles)+len(e.Industries)+len(e.JobTypes) == 0
}

// KnowledgeChunk is a static, citation-backed snippet of reference prose.
type KnowledgeChunk struct {
	ID        string   `json:"id" yaml:"id"`
	Topic     string   `json:"topic" yaml:"topic"`
	Content   string   `json:"content" yaml:"content"`
	Source    string   `json:"source" yaml:"source"`
	Relevance []string `json:"relevance" yaml:"relevance"`
}

// ScoredResult pairs a ranked item with its non-negative score.
type ScoredResult[T any] struct {
	Item  T       `json:"item"`
	Score float64 `json:"score"`
}

// Variant tags the kind of a ranked candidate.
type Variant string

const (
	VariantJob        Variant = "job"
	VariantEvent      Variant = "event"
	VariantMentorship Variant = "mentorship"
)

// ParseVariant accepts the singular and plural forms ("job", "jobs", ...).
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "job", "jobs":
		return VariantJob, nil
	case "event", "events":
		return VariantEvent, nil
	case "mentorship", "mentorships":
		return VariantMentorship, nil
	default:
		return "", ValidationError(fmt.Sprintf("unknown candidate type %q", s), nil)
	}
}

// Job is a job listing candidate.
type Job struct {
	ID              string    `json:"id" yaml:"id"`
	Title           string    `json:"title" yaml:"title"`
	Company         string    `json:"company" yaml:"company"`
	Location        string    `json:"location" yaml:"location"`
	Type            string    `json:"type" yaml:"type"`
	Salary          string    `json:"salary,omitempty" yaml:"salary"`
	Description     string    `json:"description" yaml:"description"`
	PostedDate      time.Time `json:"postedDate" yaml:"posted_date"`
	ApplyURL        string    `json:"applyUrl,omitempty" yaml:"apply_url"`
	Skills          []string  `json:"skills" yaml:"skills"`
	ExperienceLevel string    `json:"experienceLevel" yaml:"experience_level"`
	Industry        string    `json:"industry" yaml:"industry"`
}

func (j *Job) CandidateID() string { return j.ID }
func (j *Job) Variant() Variant    { return VariantJob }

// Validate checks the fields the ranker reads unconditionally.
func (j *Job) Validate() error {
	if j == nil {
		return &MalformedCandidateError{Variant: VariantJob, Field: "id"}
	}
	return requireFields(VariantJob, j.ID, map[string]string{
		"id":          j.ID,
		"title":       j.Title,
		"company":     j.Company,
		"description": j.Description,
	}, "id", "title", "company", "description")
}

// Speaker presents at an event.
type Speaker struct {
	Name string `json:"name" yaml:"name"`
	Role string `json:"role" yaml:"role"`
}

// AgendaItem is one slot of an event agenda.
type AgendaItem struct {
	Time  string `json:"time" yaml:"time"`
	Title string `json:"title" yaml:"title"`
}

// Event is a community event candidate.
type Event struct {
	ID              string       `json:"id" yaml:"id"`
	Title           string       `json:"title" yaml:"title"`
	Description     string       `json:"description" yaml:"description"`
	Date            time.Time    `json:"date" yaml:"date,omitempty"`
	Location        string       `json:"location" yaml:"location"`
	Virtual         bool         `json:"virtual" yaml:"virtual"`
	Category        string       `json:"category" yaml:"category"`
	RegistrationURL string       `json:"registrationUrl,omitempty" yaml:"registration_url"`
	Price           string       `json:"price,omitempty" yaml:"price"`
	Speakers        []Speaker    `json:"speakers" yaml:"speakers"`
	Agenda          []AgendaItem `json:"agenda,omitempty" yaml:"agenda"`
}

func (e *Event) CandidateID() string { return e.ID }
func (e *Event) Variant() Variant    { return VariantEvent }

func (e *Event) Validate() error {
	if e == nil {
		return &MalformedCandidateError{Variant: VariantEvent, Field: "id"}
	}
	return requireFields(VariantEvent, e.ID, map[string]string{
		"id":          e.ID,
		"title":       e.Title,
		"description": e.Description,
	}, "id", "title", "description")
}

// Testimonial is a quote from a former mentee.
type Testimonial struct {
	Name  string `json:"name" yaml:"name"`
	Role  string `json:"role" yaml:"role"`
	Quote string `json:"quote" yaml:"quote"`
}

// Mentorship is a mentorship program candidate.
type Mentorship struct {
	ID              string        `json:"id" yaml:"id"`
	Title           string        `json:"title" yaml:"title"`
	Mentor          string        `json:"mentor" yaml:"mentor"`
	MentorTitle     string        `json:"mentorTitle" yaml:"mentor_title"`
	Focus           string        `json:"focus" yaml:"focus"`
	Duration        string        `json:"duration" yaml:"duration"`
	Format          string        `json:"format" yaml:"format"`
	Description     string        `json:"description" yaml:"description"`
	Industry        string        `json:"industry" yaml:"industry"`
	StartDate       string        `json:"startDate" yaml:"start_date"`
	CommitmentHours string        `json:"commitmentHours" yaml:"commitment_hours"`
	ApplicationURL  string        `json:"applicationUrl,omitempty" yaml:"application_url"`
	Testimonials    []Testimonial `json:"testimonials,omitempty" yaml:"testimonials"`
	Topics          []string      `json:"topics" yaml:"topics"`
}

func (m *Mentorship) CandidateID() string { return m.ID }
func (m *Mentorship) Variant() Variant    { return VariantMentorship }

func (m *Mentorship) Validate() error {
	if m == nil {
		return &MalformedCandidateError{Variant: VariantMentorship, Field: "id"}
	}
	return requireFields(VariantMentorship, m.ID, map[string]string{
		"id":          m.ID,
		"title":       m.Title,
		"mentor":      m.Mentor,
		"focus":       m.Focus,
		"description": m.Description,
	}, "id", "title", "mentor", "focus", "description")
}

func requireFields(variant Variant, id string, values map[string]string, order ...string) error {
	for _, field := range order {
		if strings.TrimSpace(values[field]) == "" {
			return &MalformedCandidateError{Variant: variant, ID: id, Field: field}
		}
	}
	return nil
}

// Attachment is the structured candidate a reply refers to.
type Attachment struct {
	Type Variant   `json:"type"`
	Data Candidate `json:"data"`
}

// UnmarshalJSON decodes Data into the concrete type named by Type.
func (a *Attachment) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type Variant         `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var data Candidate
	switch raw.Type {
	case VariantJob:
		data = &Job{}
	case VariantEvent:
		data = &Event{}
	case VariantMentorship:
		data = &Mentorship{}
	default:
		return fmt.Errorf("unknown attachment type %q", raw.Type)
	}
	if len(raw.Data) > 0 && string(raw.Data) != "null" {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			return err
		}
	}
	a.Type, a.Data = raw.Type, data
	return nil
}

// Sender identifies who produced a conversation turn.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// ConversationTurn is one message of a chat session.
type ConversationTurn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Feedback is a user rating of an assistant reply.
type Feedback struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Favorite is a candidate a session saved for later.
type Favorite struct {
	SessionID string    `json:"sessionId"`
	Variant   Variant   `json:"type"`
	ItemID    string    `json:"itemId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Application is a job or mentorship application, or an event registration.
type Application struct {
	ID          string    `json:"id"`
	Variant     Variant   `json:"type"`
	ItemID      string    `json:"itemId"`
	SessionID   string    `json:"sessionId,omitempty"`
	Name        string    `json:"name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Resume      string    `json:"resume,omitempty"`
	CoverLetter string    `json:"coverLetter,omitempty"`
	Motivation  string    `json:"motivation,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate enforces the per-variant required fields.
func (a *Application) Validate() error {
	switch a.Variant {
	case VariantJob:
		if strings.TrimSpace(a.Resume) == "" {
			return ValidationError("resume is required", nil)
		}
	case VariantEvent:
		if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Email) == "" {
			return ValidationError("name and email are required", nil)
		}
	case VariantMentorship:
		if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Email) == "" || strings.TrimSpace(a.Motivation) == "" {
			return ValidationError("name, email, and motivation statement are required", nil)
		}
	default:
		return ValidationError(fmt.Sprintf("unknown application type %q", a.Variant), nil)
	}
	if strings.TrimSpace(a.ItemID) == "" {
		return ValidationError("item id is required", nil)
	}
	return nil
}

// IDPrefix is the prefix used for generated application ids.
func (a *Application) IDPrefix() string {
	switch a.Variant {
	case VariantEvent:
		return "reg-"
	case VariantMentorship:
		return "app-m-"
	default:
		return "app-"
	}
}
