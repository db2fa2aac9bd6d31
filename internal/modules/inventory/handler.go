package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/cardshop-backend/internal/modules/audit"
	"github.com/georgemunganga/cardshop-backend/internal/modules/auth"
	"github.com/georgemunganga/cardshop-backend/internal/modules/catalog"
)

// Handler exposes the operator stock endpoints.
type Handler struct {
	service Service
	audit   audit.Service
	logger  *log.Logger
}

func NewHandler(service Service, auditService audit.Service, logger *log.Logger) *Handler {
	return &Handler{service: service, audit: auditService, logger: logger}
}

// RegisterAdminRoutes mounts on the authenticated /api/admin group.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/inventory", h.stockLevels)                // GET  /api/admin/inventory
	r.Post("/inventory/{product_id}/keys", h.restock) // POST /api/admin/inventory/{product_id}/keys
}

func (h *Handler) stockLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.service.StockLevels(r.Context())
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"inventory": levels})
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")
	var req struct {
		Keys []string `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	added, count, err := h.service.Restock(r.Context(), productID, req.Keys)
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, ErrNoKeys):
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case err != nil:
		h.logger.Printf("restock %s failed: %v", productID, err)
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	actor := auth.ActorFromContext(r.Context())
	if err := h.audit.Record(r.Context(), actor, audit.ActionRestock, fmt.Sprintf("%s +%d (now %d)", productID, added, count)); err != nil {
		h.logger.Printf("audit restock failed: %v", err)
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"product_id": productID,
		"added":      added,
		"count":      count,
	})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
