package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/spherical-ai/asha/internal/catalog"
	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/observability"
)

var testNow = time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC)

type memoryHistory struct {
	mu    sync.Mutex
	turns []domain.ConversationTurn
	err   error
}

func (h *memoryHistory) Append(_ context.Context, turn *domain.ConversationTurn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.turns = append(h.turns, *turn)
	return nil
}

func (h *memoryHistory) Recent(_ context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	var out []domain.ConversationTurn
	for _, t := range h.turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type recordingTracker struct {
	events []string
	props  []map[string]interface{}
}

func (r *recordingTracker) Track(_ context.Context, name string, props map[string]interface{}) {
	r.events = append(r.events, name)
	r.props = append(r.props, props)
}

type failingProvider struct {
	catalog.Provider
	err error
}

func (p failingProvider) Jobs(context.Context, catalog.JobFilter) ([]*domain.Job, error) {
	return nil, p.err
}

type malformedProvider struct {
	catalog.Provider
}

func (malformedProvider) Jobs(context.Context, catalog.JobFilter) ([]*domain.Job, error) {
	return []*domain.Job{{ID: "1", Title: "Engineer", Description: "Builds"}}, nil
}

func newTestAssistant(t *testing.T, provider catalog.Provider, opts ...Option) *Assistant {
	t.Helper()
	if provider == nil {
		static, err := catalog.NewStaticCatalog(testNow)
		require.NoError(t, err)
		provider = static
	}
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewAssistant(NewPipeline(nil, nil), provider, Config{}, opts...)
}

func TestAssistant_Process_Attachments(t *testing.T) {
	a := newTestAssistant(t, nil)

	tests := []struct {
		name         string
		text         string
		intent       domain.Intent
		attachmentID string
		reply        string
	}{
		{
			name:         "job listing",
			text:         "Find remote work in Bangalore",
			intent:       domain.IntentJobSearch,
			attachmentID: "1",
			reply:        "I found a job opportunity that might interest you: Senior Software Engineer at TechCorp Solutions. This Full-time position is located in Remote. Would you like me to find more similar opportunities?",
		},
		{
			name:         "soonest event wins the time-term tie",
			text:         "Any upcoming workshop?",
			intent:       domain.IntentEventInfo,
			attachmentID: "3",
			reply:        `I found an upcoming event you might be interested in: "Financial Planning for Career Transitions" on 4/16/2024. It will be held virtually. Would you like more details about this event?`,
		},
		{
			name:         "mentorship program",
			text:         "mentorship",
			intent:       domain.IntentMentorship,
			attachmentID: "5",
			reply:        `I found a mentorship program that might be a good fit: "Marketing Excellence Mentorship" led by Vikram Seth. This program focuses on Marketing Career Development and runs for 4 months. Would you like to learn more about how to apply?`,
		},
		{
			name:   "nothing scores",
			text:   "Show me recent job listings",
			intent: domain.IntentJobSearch,
			reply:  jobPromptText,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := a.Process(context.Background(), Message{SessionID: "s1", Text: tc.text})
			require.NoError(t, err)
			assert.Equal(t, tc.intent, resp.Intent)
			assert.Equal(t, tc.reply, resp.Reply.Text)
			if tc.attachmentID == "" {
				assert.Nil(t, resp.Reply.Attachment)
				return
			}
			require.NotNil(t, resp.Reply.Attachment)
			assert.Equal(t, tc.attachmentID, resp.Reply.Attachment.Data.CandidateID())
			assert.Empty(t, resp.Warnings)
		})
	}
}

func TestAssistant_Process_Response(t *testing.T) {
	a := newTestAssistant(t, nil)

	resp, err := a.Process(context.Background(), Message{Text: "Find remote work in Bangalore"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID)
	assert.NotEmpty(t, resp.MessageID)
	assert.Equal(t, []string{"remote", "bangalore"}, resp.Entities.Locations)
	assert.Equal(t, []string{"remote"}, resp.Entities.JobTypes)
	assert.False(t, resp.Bias.HasBias)
	assert.Empty(t, resp.MitigationInstructions)
	assert.Contains(t, resp.AIContext.SystemInstructions, "You are Asha")
	assert.Empty(t, resp.AIContext.RecentConversation)
	assert.Equal(t, resp.KnowledgeContext, resp.Reply.KnowledgeContext)
	assert.Equal(t, resp.KnowledgeContext, resp.AIContext.KnowledgeContext)
	assert.False(t, resp.SensitiveInfo.HasSensitiveInfo)
}

func TestAssistant_Process_GreetingFirst(t *testing.T) {
	a := newTestAssistant(t, nil)

	resp, err := a.Process(context.Background(), Message{Text: "Hello, can you find me remote work?"})
	require.NoError(t, err)
	assert.Equal(t, domain.IntentJobSearch, resp.Intent)
	assert.Equal(t, welcomeText, resp.Reply.Text)
}

func TestAssistant_Process_Bias(t *testing.T) {
	a := newTestAssistant(t, nil)

	resp, err := a.Process(context.Background(), Message{Text: "The chairman will lead the workshop"})
	require.NoError(t, err)
	assert.True(t, resp.Bias.HasBias)
	assert.Contains(t, resp.Bias.CorrectedText, "chairperson")
	assert.NotEmpty(t, resp.MitigationInstructions)
	assert.False(t, resp.ReplyBias.HasBias)
}

func TestAssistant_Process_ProviderFailureDegrades(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newTestAssistant(t, failingProvider{err: errors.New("upstream timeout")},
		WithMetrics(observability.NewMetrics(reg)))

	resp, err := a.Process(context.Background(), Message{Text: "Find remote work in Bangalore"})
	require.NoError(t, err)
	assert.Nil(t, resp.Reply.Attachment)
	assert.Equal(t, jobPromptText, resp.Reply.Text)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "job listings are unavailable")

	count, err := testutil.GatherAndCount(reg, "asha_provider_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAssistant_Process_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newTestAssistant(t, failingProvider{err: context.Canceled})
	_, err := a.Process(ctx, Message{Text: "Find remote work in Bangalore"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssistant_Process_CancelledBeforeAnalysis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tracker := &recordingTracker{}
	a := newTestAssistant(t, nil, WithTracker(tracker))
	resp, err := a.Process(ctx, Message{Text: "Hi"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, resp)
	assert.Empty(t, tracker.events)
}

func TestAssistant_Process_MalformedCandidateAborts(t *testing.T) {
	a := newTestAssistant(t, malformedProvider{})

	_, err := a.Process(context.Background(), Message{Text: "Find remote work in Bangalore"})
	require.Error(t, err)

	var mc *domain.MalformedCandidateError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, "company", mc.Field)
}

func TestAssistant_Process_MessageTooLong(t *testing.T) {
	a := newTestAssistant(t, nil)

	_, err := a.Process(context.Background(), Message{Text: strings.Repeat("a", 2001)})
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))

	_, err = a.Process(context.Background(), Message{Text: strings.Repeat("a", 2000)})
	assert.NoError(t, err)
}

func TestAssistant_MaxMessageLength(t *testing.T) {
	static, err := catalog.NewStaticCatalog(testNow)
	require.NoError(t, err)

	tests := []struct {
		name    string
		limit   int
		text    string
		wantErr bool
	}{
		{"zero uses default", 0, strings.Repeat("a", 2001), true},
		{"negative uses default", -1, strings.Repeat("a", 2000), false},
		{"custom limit", 10, strings.Repeat("a", 11), true},
		{"counts runes", 10, strings.Repeat("é", 10), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAssistant(NewPipeline(nil, nil), static, Config{MaxMessageLength: tc.limit},
				WithClock(func() time.Time { return testNow }))
			_, err := a.Process(context.Background(), Message{Text: tc.text})
			if tc.wantErr {
				assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAssistant_Process_History(t *testing.T) {
	store := &memoryHistory{}
	tracker := &recordingTracker{}
	a := newTestAssistant(t, nil, WithHistory(store), WithTracker(tracker))
	ctx := context.Background()

	_, err := a.Process(ctx, Message{SessionID: "s1", Text: "Hi"})
	require.NoError(t, err)
	require.Len(t, store.turns, 2)
	assert.Equal(t, domain.SenderUser, store.turns[0].Sender)
	assert.Equal(t, "Hi", store.turns[0].Text)
	assert.Equal(t, domain.SenderAssistant, store.turns[1].Sender)
	assert.Equal(t, welcomeText, store.turns[1].Text)

	resp, err := a.Process(ctx, Message{SessionID: "s1", Text: "I need a mentor"})
	require.NoError(t, err)
	assert.Len(t, resp.AIContext.RecentConversation, 2)
	assert.Equal(t, resp.MessageID, store.turns[3].ID)

	// explicit history is used as given
	given := []domain.ConversationTurn{{SessionID: "s1", Sender: domain.SenderUser, Text: "earlier"}}
	resp, err = a.Process(ctx, Message{SessionID: "s1", Text: "thanks", History: given})
	require.NoError(t, err)
	assert.Equal(t, given, resp.AIContext.RecentConversation)

	assert.Equal(t, []string{IntentEvent, IntentEvent, IntentEvent}, tracker.events)
	assert.Equal(t, "help", tracker.props[0]["intent"])
}

func TestAssistant_Process_HistoryFailureWarns(t *testing.T) {
	store := &memoryHistory{err: errors.New("database is locked")}
	a := newTestAssistant(t, nil, WithHistory(store))

	resp, err := a.Process(context.Background(), Message{SessionID: "s1", Text: "I need a mentor"})
	require.NoError(t, err)
	assert.Equal(t, []string{"conversation history unavailable", "conversation history was not saved"}, resp.Warnings)
}

func TestAssistant_Process_Spans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	a := newTestAssistant(t, nil, WithTracer(tp.Tracer("test")), WithHistory(&memoryHistory{}))
	_, err := a.Process(context.Background(), Message{SessionID: "s1", Text: "mentorship"})
	require.NoError(t, err)

	var names []string
	for _, s := range exporter.GetSpans() {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{
		"chat.Assistant.loadHistory",
		"chat.Assistant.rank",
		"chat.Assistant.persist",
		"chat.Assistant.Process",
	}, names)
}
