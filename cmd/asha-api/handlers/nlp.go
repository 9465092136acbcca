package handlers

import (
	"net/http"

	"github.com/spherical-ai/asha/internal/bias"
	"github.com/spherical-ai/asha/internal/chat"
	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/knowledge"
	"github.com/spherical-ai/asha/internal/nlp"
)

// NLPHandler exposes the individual pipeline stages.
type NLPHandler struct {
	pipeline *chat.Pipeline
}

func NewNLPHandler(pipeline *chat.Pipeline) *NLPHandler {
	return &NLPHandler{pipeline: pipeline}
}

// TextRequestDTO is the body shared by every single-text endpoint.
type TextRequestDTO struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type IntentResponseDTO struct {
	Intent domain.Intent     `json:"intent"`
	Scores []nlp.IntentScore `json:"scores,omitempty"`
}

type BiasResponseDTO struct {
	bias.Result
	MitigationInstructions string `json:"mitigationInstructions,omitempty"`
}

// KnowledgeSearchDTO represents a knowledge retrieval request.
type KnowledgeSearchDTO struct {
	Query  string `json:"query" validate:"required,max=2000"`
	Intent string `json:"intent"`
	Limit  int    `json:"limit" validate:"gte=0,lte=20"`
}

type KnowledgeSearchResponseDTO struct {
	Results []domain.ScoredResult[domain.KnowledgeChunk] `json:"results"`
	Context string                                       `json:"context"`
}

// Intent handles POST /nlp/intent. ?explain=true adds per-category scores.
func (h *NLPHandler) Intent(w http.ResponseWriter, r *http.Request) {
	var req TextRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}
	resp := IntentResponseDTO{Intent: h.pipeline.ClassifyIntent(req.Text)}
	if r.URL.Query().Get("explain") == "true" {
		resp.Scores = h.pipeline.Classifier.Scores(req.Text)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Entities handles POST /nlp/entities.
func (h *NLPHandler) Entities(w http.ResponseWriter, r *http.Request) {
	var req TextRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.pipeline.ExtractEntities(req.Text))
}

// Sentiment handles POST /nlp/sentiment.
func (h *NLPHandler) Sentiment(w http.ResponseWriter, r *http.Request) {
	var req TextRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.pipeline.Sentiment.Analyze(req.Text))
}

// DetectBias handles POST /bias/detect.
func (h *NLPHandler) DetectBias(w http.ResponseWriter, r *http.Request) {
	var req TextRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}
	res := h.pipeline.DetectBias(req.Text)
	writeJSON(w, http.StatusOK, BiasResponseDTO{
		Result:                 res,
		MitigationInstructions: bias.MitigationInstructions(res.Details),
	})
}

// SearchKnowledge handles POST /knowledge/search.
func (h *NLPHandler) SearchKnowledge(w http.ResponseWriter, r *http.Request) {
	var req KnowledgeSearchDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}
	results := h.pipeline.RetrieveKnowledge(req.Query, domain.Intent(req.Intent), req.Limit)
	if results == nil {
		results = []domain.ScoredResult[domain.KnowledgeChunk]{}
	}
	writeJSON(w, http.StatusOK, KnowledgeSearchResponseDTO{
		Results: results,
		Context: knowledge.FormatContext(results),
	})
}

// SubmitKnowledge handles POST /knowledge. The knowledge base is fixed, so a
// valid chunk is answered with 409.
func (h *NLPHandler) SubmitKnowledge(w http.ResponseWriter, r *http.Request) {
	var chunk domain.KnowledgeChunk
	if !decodeAndValidate(w, r, &chunk) {
		return
	}
	writeDomainError(w, h.pipeline.Retriever.Submit(chunk))
}
