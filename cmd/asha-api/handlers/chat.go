package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/spherical-ai/asha/internal/chat"
	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/observability"
)

// ChatHandler serves the conversational endpoints.
type ChatHandler struct {
	logger    *observability.Logger
	assistant *chat.Assistant
	history   domain.HistoryStore
}

// NewChatHandler creates a chat handler. history may be nil.
func NewChatHandler(logger *observability.Logger, assistant *chat.Assistant, history domain.HistoryStore) *ChatHandler {
	return &ChatHandler{
		logger:    observability.OrNop(logger),
		assistant: assistant,
		history:   history,
	}
}

// ChatRequestDTO represents the API request for one chat message.
type ChatRequestDTO struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text" validate:"required"`
}

// HistoryResponseDTO lists a session's recent turns, oldest first.
type HistoryResponseDTO struct {
	SessionID string                    `json:"sessionId"`
	Turns     []domain.ConversationTurn `json:"turns"`
}

// PostMessage handles POST /chat/messages.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req ChatRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if limit := h.assistant.Config().MaxMessageLength; validate.Var(req.Text, "max="+strconv.Itoa(limit)) != nil {
		writeError(w, http.StatusBadRequest, "validation failed", fmt.Sprintf("text must be at most %d characters", limit))
		return
	}

	resp, err := h.assistant.Process(r.Context(), chat.Message{SessionID: req.SessionID, Text: req.Text})
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("Chat message failed")
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// History handles GET /sessions/{sessionId}/history.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history storage is not configured", "")
		return
	}

	sessionID := chi.URLParam(r, "sessionId")
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 200", "")
			return
		}
		limit = n
	}

	turns, err := h.history.Recent(r.Context(), sessionID, limit)
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Str("session_id", sessionID).Msg("Load history failed")
		writeDomainError(w, err)
		return
	}
	if turns == nil {
		turns = []domain.ConversationTurn{}
	}
	writeJSON(w, http.StatusOK, HistoryResponseDTO{SessionID: sessionID, Turns: turns})
}
