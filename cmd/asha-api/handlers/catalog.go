package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/spherical-ai/asha/internal/catalog"
	"github.com/spherical-ai/asha/internal/domain"
	"github.com/spherical-ai/asha/internal/observability"
)

// ApplicationStore persists applications and registrations.
type ApplicationStore interface {
	Create(ctx context.Context, app *domain.Application) error
}

// CatalogHandler serves the job, event and mentorship listings.
type CatalogHandler struct {
	logger       *observability.Logger
	provider     catalog.Provider
	applications ApplicationStore
}

// NewCatalogHandler creates a catalog handler. applications may be nil, in
// which case submissions answer 503.
func NewCatalogHandler(logger *observability.Logger, provider catalog.Provider, applications ApplicationStore) *CatalogHandler {
	return &CatalogHandler{
		logger:       observability.OrNop(logger),
		provider:     provider,
		applications: applications,
	}
}

// ListResponseDTO wraps a listing.
type ListResponseDTO[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// ApplicationRequestDTO carries every field any variant may require.
type ApplicationRequestDTO struct {
	SessionID   string `json:"sessionId"`
	Name        string `json:"name" validate:"max=200"`
	Email       string `json:"email" validate:"omitempty,email"`
	Resume      string `json:"resume"`
	CoverLetter string `json:"coverLetter"`
	Motivation  string `json:"motivation"`
}

// ApplicationResponseDTO confirms a stored submission.
type ApplicationResponseDTO struct {
	ID      string         `json:"id"`
	Type    domain.Variant `json:"type"`
	ItemID  string         `json:"itemId"`
	Message string         `json:"message"`
}

// ListJobs handles GET /jobs?search=&location=&type=&experience=.
func (h *CatalogHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jobs, err := h.provider.Jobs(r.Context(), catalog.JobFilter{
		Search:          q.Get("search"),
		Location:        q.Get("location"),
		Type:            q.Get("type"),
		ExperienceLevel: q.Get("experience"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponseDTO[*domain.Job]{Items: nonNil(jobs), Total: len(jobs)})
}

// ListEvents handles GET /events?search=&category=&virtual=&start=&end=.
// Dates use the 2006-01-02 layout.
func (h *CatalogHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.EventFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
	}
	if v := q.Get("virtual"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "virtual must be true or false", "")
			return
		}
		filter.Virtual = &b
	}
	var err error
	if filter.Start, err = parseDate(q.Get("start")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date", err.Error())
		return
	}
	if filter.End, err = parseDate(q.Get("end")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date", err.Error())
		return
	}
	if !filter.End.IsZero() {
		// inclusive of the whole end day
		filter.End = filter.End.Add(24*time.Hour - time.Nanosecond)
	}

	events, err := h.provider.Events(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponseDTO[*domain.Event]{Items: nonNil(events), Total: len(events)})
}

// ListMentorships handles GET /mentorships?search=&industry=&focus=&duration=.
func (h *CatalogHandler) ListMentorships(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	programs, err := h.provider.Mentorships(r.Context(), catalog.MentorshipFilter{
		Search:   q.Get("search"),
		Industry: q.Get("industry"),
		Focus:    q.Get("focus"),
		Duration: q.Get("duration"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponseDTO[*domain.Mentorship]{Items: nonNil(programs), Total: len(programs)})
}

func (h *CatalogHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.provider.Job(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *CatalogHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.provider.Event(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *CatalogHandler) GetMentorship(w http.ResponseWriter, r *http.Request) {
	m, err := h.provider.Mentorship(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ApplyJob handles POST /jobs/{id}/apply.
func (h *CatalogHandler) ApplyJob(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, domain.VariantJob, "Application submitted successfully")
}

// RegisterEvent handles POST /events/{id}/register.
func (h *CatalogHandler) RegisterEvent(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, domain.VariantEvent, "Registration successful")
}

// ApplyMentorship handles POST /mentorships/{id}/apply.
func (h *CatalogHandler) ApplyMentorship(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, domain.VariantMentorship, "Application submitted successfully")
}

func (h *CatalogHandler) submit(w http.ResponseWriter, r *http.Request, variant domain.Variant, message string) {
	if h.applications == nil {
		writeError(w, http.StatusServiceUnavailable, "application storage is not configured", "")
		return
	}
	var req ApplicationRequestDTO
	if !decodeAndValidate(w, r, &req) {
		return
	}

	app := &domain.Application{
		Variant:     variant,
		ItemID:      chi.URLParam(r, "id"),
		SessionID:   req.SessionID,
		Name:        req.Name,
		Email:       req.Email,
		Resume:      req.Resume,
		CoverLetter: req.CoverLetter,
		Motivation:  req.Motivation,
	}
	if err := catalog.CheckApplication(r.Context(), h.provider, app); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.applications.Create(r.Context(), app); err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.WithContext(r.Context()).Info().
		Str("application_id", app.ID).
		Str("type", string(variant)).
		Str("item_id", app.ItemID).
		Msg("Application stored")
	writeJSON(w, http.StatusCreated, ApplicationResponseDTO{ID: app.ID, Type: variant, ItemID: app.ItemID, Message: message})
}

func (h *CatalogHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !domain.IsType(err, domain.ErrorTypeNotFound) && !domain.IsType(err, domain.ErrorTypeValidation) {
		h.logger.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Catalog request failed")
	}
	writeDomainError(w, err)
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", v)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
