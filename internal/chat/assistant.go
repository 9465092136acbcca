package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/spherical-ai/asha/internal/bias"
	"github.com/spherical-ai/asha/internal/catalog"
	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/knowledge"
	"github.com/spherical-ai/asha/internal/nlp"
	"github.com/spherical-ai/asha/internal/observability"
)

// IntentEvent is the analytics event recorded for every processed message.
const IntentEvent = "user_intent_detected"

// Config tunes the assistant. Zero values select the defaults.
type Config struct {
	KnowledgeLimit int
	CandidateLimit int
	HistoryWindow  int
	// MaxMessageLength rejects longer messages, counted in runes.
	MaxMessageLength int
}

// DefaultConfig returns the limits used when none are configured.
func DefaultConfig() Config {
	return Config{
		KnowledgeLimit:   knowledge.DefaultLimit,
		CandidateLimit:   3,
		HistoryWindow:    nlp.DefaultHistoryLimit,
		MaxMessageLength: 2000,
	}
}

// Message is one user turn handed to the assistant.
type Message struct {
	SessionID string
	Text      string
	// History is the prior conversation. When empty and a history store is
	// configured, the recent turns of the session are loaded from it.
	History []domain.ConversationTurn
}

// Response is everything the assistant derived from a message.
type Response struct {
	SessionID              string                                        `json:"sessionId"`
	MessageID              string                                        `json:"messageId"`
	Intent                 domain.Intent                                 `json:"intent"`
	Entities               domain.EntitySets                             `json:"entities"`
	Bias                   bias.Result                                   `json:"bias"`
	MitigationInstructions string                                        `json:"mitigationInstructions,omitempty"`
	Knowledge              []domain.ScoredResult[domain.KnowledgeChunk] `json:"knowledge"`
	KnowledgeContext       string                                        `json:"knowledgeContext"`
	AIContext              knowledge.AIContext                           `json:"aiContext"`
	Sentiment              nlp.SentimentResult                           `json:"sentiment"`
	SensitiveInfo          nlp.SensitiveInfo                             `json:"sensitiveInfo"`
	Reply                  Reply                                         `json:"reply"`
	ReplyBias              bias.Result                                   `json:"replyBias"`
	Warnings               []string                                      `json:"warnings,omitempty"`
}

// Option customises an Assistant.
type Option func(*Assistant)

// WithHistory persists turns to store and loads history from it.
func WithHistory(store domain.HistoryStore) Option {
	return func(a *Assistant) { a.history = store }
}

func WithTracker(t domain.EventTracker) Option {
	return func(a *Assistant) { a.tracker = t }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(a *Assistant) { a.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(a *Assistant) { a.tracer = observability.OrNoopTracer(t) }
}

func WithLogger(l *observability.Logger) Option {
	return func(a *Assistant) { a.logger = observability.OrNop(l) }
}

// WithClock overrides the time source used for turn timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) { a.now = now }
}

// Assistant runs the full message pipeline around a candidate provider.
type Assistant struct {
	pipeline *Pipeline
	provider catalog.Provider
	cfg      Config

	history domain.HistoryStore
	tracker domain.EventTracker
	metrics *observability.Metrics
	tracer  trace.Tracer
	logger  *observability.Logger
	now     func() time.Time
}

func NewAssistant(pipeline *Pipeline, provider catalog.Provider, cfg Config, opts ...Option) *Assistant {
	def := DefaultConfig()
	if cfg.KnowledgeLimit <= 0 {
		cfg.KnowledgeLimit = def.KnowledgeLimit
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = def.CandidateLimit
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = def.HistoryWindow
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = def.MaxMessageLength
	}

	a := &Assistant{
		pipeline: pipeline,
		provider: provider,
		cfg:      cfg,
		tracer:   observability.OrNoopTracer(nil),
		logger:   observability.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the limits in effect, defaults applied.
func (a *Assistant) Config() Config { return a.cfg }

// Pipeline exposes the stateless stages.
func (a *Assistant) Pipeline() *Pipeline { return a.pipeline }

// Process answers one message. Provider failures degrade to a reply without
// an attachment plus a warning; a malformed candidate aborts the message.
func (a *Assistant) Process(ctx context.Context, msg Message) (*Response, error) {
	start := a.now()
	if utf8.RuneCountInString(msg.Text) > a.cfg.MaxMessageLength {
		return nil, domain.ValidationError(fmt.Sprintf("message exceeds %d characters", a.cfg.MaxMessageLength), nil)
	}
	if msg.SessionID == "" {
		msg.SessionID = uuid.NewString()
	}

	ctx, span := a.tracer.Start(ctx, "chat.Assistant.Process",
		trace.WithAttributes(attribute.String("session.id", msg.SessionID)))
	defer span.End()

	logger := a.logger.WithContext(ctx).WithSession(msg.SessionID)
	p := a.pipeline
	resp := &Response{SessionID: msg.SessionID, MessageID: uuid.NewString()}

	history, err := a.loadHistory(ctx, msg)
	if err != nil {
		logger.Warn().Err(err).Msg("load conversation history")
		resp.Warnings = append(resp.Warnings, "conversation history unavailable")
	}

	resp.Intent = p.ClassifyIntent(msg.Text)
	span.SetAttributes(attribute.String("intent", string(resp.Intent)))

	// Entity extraction and bias detection are independent of each other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		resp.Entities = p.ExtractEntities(msg.Text)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		resp.Bias = p.DetectBias(msg.Text)
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	resp.MitigationInstructions = bias.MitigationInstructions(resp.Bias.Details)

	resp.Knowledge = p.RetrieveKnowledge(msg.Text, resp.Intent, a.cfg.KnowledgeLimit)
	resp.KnowledgeContext = p.FormatKnowledgeContext(resp.Knowledge)

	attachment, warning, err := a.attach(ctx, msg.Text, resp.Intent, resp.Entities)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).Str("intent", string(resp.Intent)).Msg("rank candidates")
		return nil, err
	}
	if warning != "" {
		resp.Warnings = append(resp.Warnings, warning)
	}

	resp.Reply = p.Composer.Compose(msg.Text, resp.Intent, attachment, resp.KnowledgeContext)
	resp.ReplyBias = p.Bias.AnalyzeResponse(ctx, resp.Reply.Text)
	resp.AIContext = knowledge.BuildAIContext(msg.Text, history, resp.Knowledge)
	resp.Sentiment = p.Sentiment.Analyze(msg.Text)
	resp.SensitiveInfo = nlp.DetectSensitiveInfo(msg.Text)

	if a.tracker != nil {
		a.tracker.Track(ctx, IntentEvent, map[string]interface{}{
			"intent":    string(resp.Intent),
			"sessionId": msg.SessionID,
		})
	}

	if err := a.persist(ctx, msg, resp, start); err != nil {
		logger.Warn().Err(err).Msg("persist conversation turns")
		resp.Warnings = append(resp.Warnings, "conversation history was not saved")
	}

	for _, d := range resp.Bias.Details {
		a.metrics.RecordBias(string(d.Type))
	}
	elapsed := a.now().Sub(start)
	a.metrics.RecordMessage(string(resp.Intent), elapsed)

	logger.Info().
		Str("intent", string(resp.Intent)).
		Bool("has_bias", resp.Bias.HasBias).
		Bool("attachment", attachment != nil).
		Int("knowledge_hits", len(resp.Knowledge)).
		Dur("elapsed", elapsed).
		Msg("message processed")
	return resp, nil
}

func (a *Assistant) loadHistory(ctx context.Context, msg Message) ([]domain.ConversationTurn, error) {
	if len(msg.History) > 0 || a.history == nil {
		return msg.History, nil
	}
	ctx, span := a.tracer.Start(ctx, "chat.Assistant.loadHistory")
	defer span.End()

	turns, err := a.history.Recent(ctx, msg.SessionID, a.cfg.HistoryWindow)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return turns, nil
}

// VariantFor maps an intent to the candidate variant it attaches, if any.
func VariantFor(intent domain.Intent) (domain.Variant, bool) {
	name := string(intent)
	switch {
	case strings.Contains(name, "job"):
		return domain.VariantJob, true
	case strings.Contains(name, "event"):
		return domain.VariantEvent, true
	case strings.Contains(name, "mentor"):
		return domain.VariantMentorship, true
	default:
		return "", false
	}
}

// attach fetches and ranks the collection for intent and wraps the best
// candidate. A provider failure yields a warning instead of an error.
func (a *Assistant) attach(ctx context.Context, text string, intent domain.Intent, entities domain.EntitySets) (*domain.Attachment, string, error) {
	variant, ok := VariantFor(intent)
	if !ok || a.provider == nil {
		return nil, "", nil
	}

	ctx, span := a.tracer.Start(ctx, "chat.Assistant.rank",
		trace.WithAttributes(attribute.String("variant", string(variant))))
	defer span.End()

	best, err := a.rank(ctx, text, variant, entities)
	if err == nil {
		return AttachmentFor(best), "", nil
	}
	if domain.IsType(err, domain.ErrorTypeMalformedCandidate) {
		return nil, "", err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, "", ctxErr
	}

	span.RecordError(err)
	a.metrics.RecordProviderError(string(variant))
	a.logger.WithContext(ctx).Warn().Err(err).Str("variant", string(variant)).Msg("candidate provider failed")
	return nil, fmt.Sprintf("%s listings are unavailable right now", variant), nil
}

// rank returns the top candidate or nil when nothing scored. Provider errors
// are wrapped as provider errors; ranking errors are returned unchanged.
func (a *Assistant) rank(ctx context.Context, text string, variant domain.Variant, entities domain.EntitySets) (domain.Candidate, error) {
	r := a.pipeline.Ranker
	limit := a.cfg.CandidateLimit

	switch variant {
	case domain.VariantJob:
		jobs, err := a.provider.Jobs(ctx, catalog.JobFilter{})
		if err != nil {
			return nil, providerError(err)
		}
		ranked, err := r.RankJobs(text, jobs, entities, limit)
		if err != nil || len(ranked) == 0 {
			return nil, err
		}
		return ranked[0].Item, nil
	case domain.VariantEvent:
		events, err := a.provider.Events(ctx, catalog.EventFilter{})
		if err != nil {
			return nil, providerError(err)
		}
		ranked, err := r.RankEvents(text, events, entities, limit)
		if err != nil || len(ranked) == 0 {
			return nil, err
		}
		return ranked[0].Item, nil
	default:
		programs, err := a.provider.Mentorships(ctx, catalog.MentorshipFilter{})
		if err != nil {
			return nil, providerError(err)
		}
		ranked, err := r.RankMentorships(text, programs, entities, limit)
		if err != nil || len(ranked) == 0 {
			return nil, err
		}
		return ranked[0].Item, nil
	}
}

func providerError(err error) error {
	if domain.IsType(err, domain.ErrorTypeMalformedCandidate) {
		return err
	}
	return domain.ProviderError("fetch candidates", err)
}

func (a *Assistant) persist(ctx context.Context, msg Message, resp *Response, received time.Time) error {
	if a.history == nil {
		return nil
	}
	ctx, span := a.tracer.Start(ctx, "chat.Assistant.persist")
	defer span.End()

	turns := []*domain.ConversationTurn{
		{ID: uuid.NewString(), SessionID: msg.SessionID, Sender: domain.SenderUser, Text: msg.Text, Timestamp: received},
		{ID: resp.MessageID, SessionID: msg.SessionID, Sender: domain.SenderAssistant, Text: resp.Reply.Text, Timestamp: a.now()},
	}
	for _, t := range turns {
		if err := a.history.Append(ctx, t); err != nil {
			span.RecordError(err)
			return err
		}
	}
	return nil
}
