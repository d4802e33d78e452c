package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PaymentMethodHandler handles payment method endpoints.
type PaymentMethodHandler struct {
	svc CatalogServicer
	hub Broadcaster
}

// NewPaymentMethodHandler creates a new PaymentMethodHandler.
func NewPaymentMethodHandler(svc CatalogServicer, hub Broadcaster) *PaymentMethodHandler {
	return &PaymentMethodHandler{svc: svc, hub: hub}
}

// RegisterRoutes registers payment method endpoints on the given Chi router.
func (h *PaymentMethodHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Disable)
}

// --- Request / Response types ---

type paymentMethodRequest struct {
	Name     string `json:"name"`
	FeeType  string `json:"fee_type"`
	FeeValue string `json:"fee_value"`
}

type paymentMethodResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	FeeType   string    `json:"fee_type"`
	FeeValue  string    `json:"fee_value"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toPaymentMethodResponse(pm database.PaymentMethod) paymentMethodResponse {
	return paymentMethodResponse{
		ID:        pm.ID,
		Name:      pm.Name,
		FeeType:   string(pm.FeeType),
		FeeValue:  numericToString(pm.FeeValue),
		IsActive:  pm.IsActive,
		CreatedAt: pm.CreatedAt,
	}
}

// --- Handlers ---

// List handles GET /payment-methods.
func (h *PaymentMethodHandler) List(w http.ResponseWriter, r *http.Request) {
	methods, err := h.svc.ListPaymentMethods(r.Context())
	if err != nil {
		writeCatalogError(w, err, "list payment methods")
		return
	}

	resp := make([]paymentMethodResponse, len(methods))
	for i, pm := range methods {
		resp[i] = toPaymentMethodResponse(pm)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /payment-methods.
func (h *PaymentMethodHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	pm, err := h.svc.CreatePaymentMethod(r.Context(), service.PaymentMethodInput{
		Name:     req.Name,
		FeeType:  req.FeeType,
		FeeValue: req.FeeValue,
	})
	if err != nil {
		writeCatalogError(w, err, "create payment method")
		return
	}

	h.broadcastMenu("payment_method.created")
	writeJSON(w, http.StatusCreated, toPaymentMethodResponse(pm))
}

// Update handles PUT /payment-methods/{id}. Fee changes apply to future
// orders only; captured fees on existing orders are untouched.
func (h *PaymentMethodHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment method ID"})
		return
	}

	var req paymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	pm, err := h.svc.UpdatePaymentMethod(r.Context(), id, service.PaymentMethodInput{
		Name:     req.Name,
		FeeType:  req.FeeType,
		FeeValue: req.FeeValue,
	})
	if err != nil {
		writeCatalogError(w, err, "update payment method")
		return
	}

	h.broadcastMenu("payment_method.updated")
	writeJSON(w, http.StatusOK, toPaymentMethodResponse(pm))
}

// Disable handles DELETE /payment-methods/{id}. Methods are soft-disabled;
// existing orders keep their reference.
func (h *PaymentMethodHandler) Disable(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment method ID"})
		return
	}

	if err := h.svc.DisablePaymentMethod(r.Context(), id); err != nil {
		writeCatalogError(w, err, "disable payment method")
		return
	}

	h.broadcastMenu("payment_method.disabled")
	w.WriteHeader(http.StatusNoContent)
}

func (h *PaymentMethodHandler) broadcastMenu(eventType string) {
	h.hub.Broadcast(ws.TopicMenu, ws.Event{Type: eventType, Payload: json.RawMessage(`{}`)})
}
