package chat

import (
	"github.com/spherical-ai/asha/internal/bias"
	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/knowledge"
	"github.com/spherical-ai/asha/internal/lexicon"
	"github.com/spherical-ai/asha/internal/nlp"
	"github.com/spherical-ai/asha/internal/observability"
	"github.com/spherical-ai/asha/internal/search"
)

// Pipeline holds every stateless stage built from one lexicon. Its methods
// are the synchronous surface offered to embedding applications and are
// safe for concurrent use.
type Pipeline struct {
	Lexicon      *lexicon.Lexicon
	Classifier   *nlp.IntentClassifier
	Extractor    *nlp.EntityExtractor
	Sentiment    *nlp.SentimentAnalyzer
	Conversation *nlp.Conversation
	Bias         *bias.Detector
	Retriever    *knowledge.Retriever
	Ranker       *search.Ranker
	Composer     *Composer
}

// NewPipeline builds the stages from lx. A nil lexicon selects the defaults.
func NewPipeline(lx *lexicon.Lexicon, logger *observability.Logger) *Pipeline {
	if lx == nil {
		lx = lexicon.Default()
	}
	conv := nlp.NewConversation(lx)
	return &Pipeline{
		Lexicon:      lx,
		Classifier:   nlp.NewIntentClassifier(lx),
		Extractor:    nlp.NewEntityExtractor(lx),
		Sentiment:    nlp.NewSentimentAnalyzer(lx),
		Conversation: conv,
		Bias:         bias.NewDetector(lx, logger),
		Retriever:    knowledge.NewRetriever(lx),
		Ranker:       search.NewRanker(lx),
		Composer:     NewComposer(conv),
	}
}

func (p *Pipeline) ClassifyIntent(text string) domain.Intent {
	return p.Classifier.Classify(text)
}

func (p *Pipeline) ExtractEntities(text string) domain.EntitySets {
	return p.Extractor.Extract(text)
}

func (p *Pipeline) DetectBias(text string) bias.Result {
	return p.Bias.Detect(text)
}

func (p *Pipeline) RetrieveKnowledge(query string, intent domain.Intent, limit int) []domain.ScoredResult[domain.KnowledgeChunk] {
	return p.Retriever.Retrieve(query, intent, limit)
}

func (p *Pipeline) FormatKnowledgeContext(results []domain.ScoredResult[domain.KnowledgeChunk]) string {
	return knowledge.FormatContext(results)
}

// RankCandidates scores a homogeneous collection against query using the
// entities extracted from it.
func (p *Pipeline) RankCandidates(query string, items []domain.Candidate, variant domain.Variant, entities domain.EntitySets, limit int) ([]domain.ScoredResult[domain.Candidate], error) {
	return p.Ranker.RankCandidates(query, variant, items, entities, limit)
}

// ComposeResponse picks the reply template for message. The attachment is
// built from candidate when one is given.
func (p *Pipeline) ComposeResponse(message string, intent domain.Intent, candidate domain.Candidate, knowledgeContext string) Reply {
	return p.Composer.Compose(message, intent, AttachmentFor(candidate), knowledgeContext)
}

// AttachmentFor wraps c, or returns nil for a nil candidate.
func AttachmentFor(c domain.Candidate) *domain.Attachment {
	if c == nil {
		return nil
	}
	return &domain.Attachment{Type: c.Variant(), Data: c}
}
