package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/asha/internal/domain"
)

var testNow = time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC)

func newTestCatalog(t *testing.T) *StaticCatalog {
	t.Helper()
	c, err := NewStaticCatalog(testNow)
	require.NoError(t, err)
	return c
}

func candidateIDs[T domain.Candidate](items []T) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.CandidateID()
	}
	return out
}

func TestStaticCatalog_Seed(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	jobs, err := c.Jobs(ctx, JobFilter{})
	require.NoError(t, err)
	assert.Len(t, jobs, 10)
	assert.Equal(t, "Senior Software Engineer", jobs[0].Title)
	assert.Equal(t, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), jobs[0].PostedDate.UTC())
	assert.Equal(t, []string{"JavaScript", "React", "Node.js", "AWS"}, jobs[0].Skills)

	events, err := c.Events(ctx, EventFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 8)

	programs, err := c.Mentorships(ctx, MentorshipFilter{})
	require.NoError(t, err)
	assert.Len(t, programs, 8)
	assert.Equal(t, "Dr. Nandita Sharma", programs[0].Mentor)
}

func TestStaticCatalog_JobFilters(t *testing.T) {
	c := newTestCatalog(t)

	tests := []struct {
		name     string
		filter   JobFilter
		expected []string
	}{
		{"location contains", JobFilter{Location: "remote"}, []string{"1", "4", "7", "9"}},
		{"type equals", JobFilter{Type: "contract"}, []string{"10"}},
		{"combined", JobFilter{Location: "bangalore", Type: "Full-time"}, []string{"2", "6"}},
		{"search", JobFilter{Search: "Marketing"}, []string{"2", "5", "7"}},
		{"experience level", JobFilter{ExperienceLevel: "entry level"}, []string{"4", "7", "9", "10"}},
		{"no match", JobFilter{Location: "Pune"}, []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.Jobs(context.Background(), tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, candidateIDs(got))
		})
	}
}

func TestStaticCatalog_EventFilters(t *testing.T) {
	c := newTestCatalog(t)
	virtual := true

	tests := []struct {
		name     string
		filter   EventFilter
		expected []string
	}{
		{"sorted by date", EventFilter{}, []string{"3", "7", "2", "8", "5", "1", "4", "6"}},
		{"category", EventFilter{Category: "WORKSHOP"}, []string{"2", "8", "5"}},
		{"virtual", EventFilter{Virtual: &virtual}, []string{"3", "7", "2"}},
		{
			name: "date range is inclusive",
			filter: EventFilter{
				Start: testNow.Add(2 * 24 * time.Hour),
				End:   testNow.Add(5 * 24 * time.Hour),
			},
			expected: []string{"7", "2", "8", "5"},
		},
		{"search", EventFilter{Search: "negotiation"}, []string{"8"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.Events(context.Background(), tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, candidateIDs(got))
		})
	}
}

func TestStaticCatalog_EventDatesRelativeToClock(t *testing.T) {
	c := newTestCatalog(t)

	e, err := c.Event(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(24*time.Hour), e.Date)
	assert.True(t, e.Virtual)
	assert.Equal(t, "Neha Singh", e.Speakers[0].Name)
}

func TestStaticCatalog_MentorshipFilters(t *testing.T) {
	c := newTestCatalog(t)

	tests := []struct {
		name     string
		filter   MentorshipFilter
		expected []string
	}{
		{"industry contains", MentorshipFilter{Industry: "technology"}, []string{"1", "2"}},
		{"duration", MentorshipFilter{Duration: "6 months"}, []string{"1", "3", "6", "8"}},
		{"focus", MentorshipFilter{Focus: "leadership"}, []string{"1", "8"}},
		{"search", MentorshipFilter{Search: "leadership"}, []string{"1", "3", "5", "6", "7", "8"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.Mentorships(context.Background(), tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, candidateIDs(got))
		})
	}
}

func TestStaticCatalog_NotFound(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	_, err := c.Job(ctx, "99")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, domain.IsType(err, domain.ErrorTypeNotFound))

	_, err = c.Event(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)

	m, err := c.Mentorship(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, "Career Relaunch Program", m.Title)
}

func TestStaticCatalog_ListingDoesNotReorderBacking(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	_, err := c.Events(ctx, EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, "1", c.events[0].ID)
}

func TestParseStaticCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed yaml", "jobs: ["},
		{"missing company", "jobs:\n  - id: x\n    title: Engineer\n    description: Build\n"},
		{"missing mentor", "mentorships:\n  - id: m\n    title: T\n    focus: F\n    description: D\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseStaticCatalog([]byte(tc.doc), testNow)
			require.Error(t, err)
			assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
		})
	}
}

func TestCheckApplication(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		app     *domain.Application
		errType domain.ErrorType
	}{
		{"job with resume", &domain.Application{Variant: domain.VariantJob, ItemID: "1", Resume: "cv.pdf"}, ""},
		{"job without resume", &domain.Application{Variant: domain.VariantJob, ItemID: "1"}, domain.ErrorTypeValidation},
		{"unknown job", &domain.Application{Variant: domain.VariantJob, ItemID: "42", Resume: "cv.pdf"}, domain.ErrorTypeNotFound},
		{"event registration", &domain.Application{Variant: domain.VariantEvent, ItemID: "2", Name: "Asha", Email: "a@example.com"}, ""},
		{"event without email", &domain.Application{Variant: domain.VariantEvent, ItemID: "2", Name: "Asha"}, domain.ErrorTypeValidation},
		{"mentorship without motivation", &domain.Application{Variant: domain.VariantMentorship, ItemID: "1", Name: "Asha", Email: "a@example.com"}, domain.ErrorTypeValidation},
		{"mentorship", &domain.Application{Variant: domain.VariantMentorship, ItemID: "1", Name: "Asha", Email: "a@example.com", Motivation: "grow"}, ""},
		{"nil", nil, domain.ErrorTypeValidation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckApplication(ctx, c, tc.app)
			if tc.errType == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, domain.IsType(err, tc.errType), "got %v", err)
		})
	}
}
