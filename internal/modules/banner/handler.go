package banner

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/cardshop-backend/internal/modules/audit"
	"github.com/georgemunganga/cardshop-backend/internal/modules/auth"
)

// Handler exposes banner HTTP endpoints.
type Handler struct {
	service Service
	audit   audit.Service
	logger  *log.Logger
}

func NewHandler(service Service, auditService audit.Service, logger *log.Logger) *Handler {
	return &Handler{service: service, audit: auditService, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/banners", h.listEnabled) // GET /api/banners
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/banners", h.listAll)        // GET    /api/admin/banners
	r.Post("/banners", h.create)        // POST   /api/admin/banners
	r.Put("/banners/{id}", h.update)    // PUT    /api/admin/banners/{id}
	r.Delete("/banners/{id}", h.delete) // DELETE /api/admin/banners/{id}
}

func (h *Handler) listEnabled(w http.ResponseWriter, r *http.Request) {
	banners, err := h.service.ListEnabled(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, banners)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	banners, err := h.service.ListAll(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, banners)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req BannerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	b, err := h.service.Create(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	h.record(r, audit.ActionCreateBanner, b.ID+" "+b.Title)
	respond(w, http.StatusCreated, b)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req BannerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	b, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	h.record(r, audit.ActionUpdateBanner, id)
	respond(w, http.StatusOK, b)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	h.record(r, audit.ActionDeleteBanner, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) record(r *http.Request, action, detail string) {
	if err := h.audit.Record(r.Context(), auth.ActorFromContext(r.Context()), action, detail); err != nil {
		h.logger.Printf("audit %s failed: %v", action, err)
	}
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBannerNotFound):
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInvalidBanner):
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
