package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/cardshop-backend/internal/modules/audit"
	"github.com/georgemunganga/cardshop-backend/internal/modules/auth"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct {
	service Service
	audit   audit.Service
	logger  *log.Logger
}

func NewHandler(service Service, auditService audit.Service, logger *log.Logger) *Handler {
	return &Handler{service: service, audit: auditService, logger: logger}
}

// RegisterRoutes mounts the public storefront routes on the /api group.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)    // GET /api/products?region=USA
	r.Get("/products/{id}", h.getProduct) // GET /api/products/{id}
}

// RegisterAdminRoutes mounts operator routes on the authenticated /api/admin group.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/products", h.listAllProducts)             // GET    /api/admin/products
	r.Post("/products", h.createProduct)              // POST   /api/admin/products
	r.Put("/products/{id}", h.updateProduct)          // PUT    /api/admin/products/{id}
	r.Patch("/products/{id}/price", h.setPrice)       // PATCH  /api/admin/products/{id}/price
	r.Patch("/products/{id}/discount", h.setDiscount) // PATCH  /api/admin/products/{id}/discount
	r.Delete("/products/{id}", h.archiveProduct)      // DELETE /api/admin/products/{id}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	region := Region(r.URL.Query().Get("region"))
	if region != "" && !region.Valid() {
		respond(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown region %q", region)})
		return
	}
	products, err := h.service.ListProducts(r.Context(), region)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, views(products))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, NewProductView(p))
}

func (h *Handler) listAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListAll(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, views(products))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	h.record(r, audit.ActionCreateProduct, fmt.Sprintf("%s price=%d", p.ID, p.Price))
	respond(w, http.StatusCreated, NewProductView(p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	h.record(r, audit.ActionUpdateProduct, id)
	respond(w, http.StatusOK, NewProductView(p))
}

func (h *Handler) setPrice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Price int64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.SetPrice(r.Context(), id, req.Price)
	if err != nil {
		respondError(w, err)
		return
	}
	h.record(r, audit.ActionSetPrice, fmt.Sprintf("%s price=%d", id, p.Price))
	respond(w, http.StatusOK, NewProductView(p))
}

func (h *Handler) setDiscount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Discount int `json:"discount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.SetDiscount(r.Context(), id, req.Discount)
	if err != nil {
		respondError(w, err)
		return
	}
	h.record(r, audit.ActionSetDiscount, fmt.Sprintf("%s discount=%d", id, p.Discount))
	respond(w, http.StatusOK, NewProductView(p))
}

func (h *Handler) archiveProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.ArchiveProduct(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	h.record(r, audit.ActionArchiveProduct, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) record(r *http.Request, action, detail string) {
	if err := h.audit.Record(r.Context(), auth.ActorFromContext(r.Context()), action, detail); err != nil {
		h.logger.Printf("audit %s failed: %v", action, err)
	}
}

func views(products []*Product) []ProductView {
	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductView(p))
	}
	return out
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInvalidProduct):
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
