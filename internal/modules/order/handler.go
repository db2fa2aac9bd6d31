package order

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/cardshop-backend/internal/modules/inventory"
)

// Handler exposes order HTTP endpoints.
type Handler struct {
	service Service
	logger  *log.Logger
}

func NewHandler(service Service, logger *log.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the checkout and order history routes on the /api group.
// placeOrderLimit wraps POST /order only; pass nil for none.
func (h *Handler) RegisterRoutes(r chi.Router, placeOrderLimit func(http.Handler) http.Handler) {
	if placeOrderLimit != nil {
		r.With(placeOrderLimit).Post("/order", h.placeOrder) // POST /api/order
	} else {
		r.Post("/order", h.placeOrder)
	}
	r.Get("/orders", h.ordersByEmail) // GET /api/orders?email=
}

// RegisterAdminRoutes mounts on the authenticated /api/admin group.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders", h.listOrders) // GET /api/admin/orders
	r.Get("/stats", h.stats)       // GET /api/admin/stats
}

type placeOrderResponse struct {
	Success  bool     `json:"success"`
	OrderID  string   `json:"order_id,omitempty"`
	Number   string   `json:"order_number,omitempty"`
	Keys     []Key    `json:"keys,omitempty"`
	Total    int64    `json:"total,omitempty"`
	Currency string   `json:"currency,omitempty"`
	Delivery Delivery `json:"delivery,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, placeOrderResponse{Error: "malformed request body"})
		return
	}

	res, err := h.service.PlaceOrder(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidOrder), errors.Is(err, inventory.ErrInsufficientInventory):
			respond(w, http.StatusBadRequest, placeOrderResponse{Error: err.Error()})
		default:
			h.logger.Printf("place order failed: %v", err)
			respond(w, http.StatusInternalServerError, placeOrderResponse{Error: "internal error, please try again or contact support"})
		}
		return
	}

	o := res.Order
	respond(w, http.StatusOK, placeOrderResponse{
		Success:  true,
		OrderID:  o.ID,
		Number:   o.Number,
		Keys:     o.Keys,
		Total:    o.Total,
		Currency: o.Currency,
		Delivery: res.Delivery,
	})
}

func (h *Handler) ordersByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		respond(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}
	orders, err := h.service.OrdersByEmail(r.Context(), email)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, st)
}

func respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidOrder) {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
