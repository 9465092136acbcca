package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spherical-ai/asha/internal/catalog"
	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/observability"
)

// FavoriteStore persists bookmarked candidates.
type FavoriteStore interface {
	Save(ctx context.Context, sessionID string, variant domain.Variant, itemID string) error
	List(ctx context.Context, sessionID string, variant domain.Variant) ([]domain.Favorite, error)
	Remove(ctx context.Context, sessionID string, variant domain.Variant, itemID string) error
}

// FeedbackStore persists reply ratings.
type FeedbackStore interface {
	Create(ctx context.Context, fb *domain.Feedback) error
}

// EngagementHandler serves favorites and feedback.
type EngagementHandler struct {
	logger    *observability.Logger
	provider  catalog.Provider
	favorites FavoriteStore
	feedback  FeedbackStore
	tracker   domain.EventTracker
}

func NewEngagementHandler(logger *observability.Logger, provider catalog.Provider, favorites FavoriteStore, feedback FeedbackStore, tracker domain.EventTracker) *EngagementHandler {
	return &EngagementHandler{
		logger:    observability.OrNop(logger),
		provider:  provider,
		favorites: favorites,
		feedback:  feedback,
		tracker:   tracker,
	}
}

// FavoriteRequestDTO bookmarks one candidate.
type FavoriteRequestDTO struct {
	SessionID string `json:"sessionId" validate:"required"`
	Type      string `json:"type" validate:"required,oneof=job event mentorship"`
	ItemID    string `json:"itemId" validate:"required"`
}

type FavoritesResponseDTO struct {
	SessionID string            `json:"sessionId"`
	Favorites []domain.Favorite `json:"favorites"`
}

// FeedbackRequestDTO rates an assistant reply.
type FeedbackRequestDTO struct {
	SessionID string `json:"sessionId"`
	MessageID string `json:"messageId"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// SaveFavorite handles POST /favorites. The item must exist in the catalog.
func (h *EngagementHandler) SaveFavorite(w http.ResponseWriter, r *http.Request) {
	if h.favorites == nil {
		writeError(w, http.StatusServiceUnavailable, "favorite storage is not configured", "")
		return
	}
	var req FavoriteRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}
	variant := domain.Variant(req.Type)
	if err := h.exists(r.Context(), variant, req.ItemID); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.favorites.Save(r.Context(), req.SessionID, variant, req.ItemID); err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("Save favorite failed")
		writeDomainError(w, err)
		return
	}
	h.track(r.Context(), "favorite_saved", map[string]interface{}{"type": req.Type, "itemId": req.ItemID})
	writeJSON(w, http.StatusCreated, req)
}

// ListFavorites handles GET /favorites?sessionId=&type=.
func (h *EngagementHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	if h.favorites == nil {
		writeError(w, http.StatusServiceUnavailable, "favorite storage is not configured", "")
		return
	}
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required", "")
		return
	}
	var variant domain.Variant
	if t := r.URL.Query().Get("type"); t != "" {
		v, err := domain.ParseVariant(t)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		variant = v
	}

	favs, err := h.favorites.List(r.Context(), sessionID, variant)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FavoritesResponseDTO{SessionID: sessionID, Favorites: nonNil(favs)})
}

// RemoveFavorite handles DELETE /favorites/{type}/{itemId}?sessionId=.
func (h *EngagementHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if h.favorites == nil {
		writeError(w, http.StatusServiceUnavailable, "favorite storage is not configured", "")
		return
	}
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required", "")
		return
	}
	variant, err := domain.ParseVariant(chi.URLParam(r, "type"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.favorites.Remove(r.Context(), sessionID, variant, chi.URLParam(r, "itemId")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitFeedback handles POST /feedback.
func (h *EngagementHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	if h.feedback == nil {
		writeError(w, http.StatusServiceUnavailable, "feedback storage is not configured", "")
		return
	}
	var req FeedbackRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}
	fb := &domain.Feedback{SessionID: req.SessionID, MessageID: req.MessageID, Rating: req.Rating, Comment: req.Comment}
	if err := h.feedback.Create(r.Context(), fb); err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("Store feedback failed")
		writeDomainError(w, err)
		return
	}
	h.track(r.Context(), "feedback_submitted", map[string]interface{}{"rating": req.Rating})
	writeJSON(w, http.StatusCreated, fb)
}

func (h *EngagementHandler) exists(ctx context.Context, variant domain.Variant, id string) error {
	var err error
	switch variant {
	case domain.VariantJob:
		_, err = h.provider.Job(ctx, id)
	case domain.VariantEvent:
		_, err = h.provider.Event(ctx, id)
	case domain.VariantMentorship:
		_, err = h.provider.Mentorship(ctx, id)
	}
	return err
}

func (h *EngagementHandler) track(ctx context.Context, name string, props map[string]interface{}) {
	if h.tracker != nil {
		h.tracker.Track(ctx, name, props)
	}
}
