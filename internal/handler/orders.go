package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/middleware"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next enum.OrderStatus) (database.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (database.Order, error)
	SetPaid(ctx context.Context, orderID uuid.UUID, paid bool) (database.Order, error)
}

// OrderReadStore defines the database reads used by order handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderReadStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// Broadcaster pushes invalidation events to connected clients.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(topic string, event ws.Event)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderReadStore
	hub   Broadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderReadStore, hub Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/paid", h.SetPaid)
	r.Delete("/{id}", h.Cancel)
}

// --- Request / Response types ---

type createOrderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
	Note       string `json:"note"`
}

type createOrderRequest struct {
	Origin          string                   `json:"origin"`
	TableID         string                   `json:"table_id"`
	CustomerName    string                   `json:"customer_name"`
	CustomerPhone   string                   `json:"customer_phone"`
	CustomerAddress string                   `json:"customer_address"`
	DeliveryFee     string                   `json:"delivery_fee"`
	PaymentMethodID string                   `json:"payment_method_id"`
	Note            string                   `json:"note"`
	Items           []createOrderItemRequest `json:"items"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

type setOrderPaidRequest struct {
	Paid bool `json:"paid"`
}

type orderItemResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	ItemName   string    `json:"item_name"`
	UnitPrice  string    `json:"unit_price"`
	Quantity   int32     `json:"quantity"`
	Note       *string   `json:"note"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Origin          string              `json:"origin"`
	Status          string              `json:"status"`
	TableID         *string             `json:"table_id"`
	StaffID         uuid.UUID           `json:"staff_id"`
	CustomerName    *string             `json:"customer_name"`
	CustomerPhone   *string             `json:"customer_phone"`
	CustomerAddress *string             `json:"customer_address"`
	Subtotal        string              `json:"subtotal"`
	DeliveryFee     string              `json:"delivery_fee"`
	PaymentFee      string              `json:"payment_fee"`
	Total           string              `json:"total"`
	PaymentMethodID *string             `json:"payment_method_id"`
	Paid            bool                `json:"paid"`
	Note            *string             `json:"note"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Items           []orderItemResponse `json:"items,omitempty"`
}

func toOrderItemResponse(it database.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:         it.ID,
		MenuItemID: it.MenuItemID,
		ItemName:   it.ItemName,
		UnitPrice:  numericToString(it.UnitPrice),
		Quantity:   it.Quantity,
		Note:       textPtr(it.Note),
	}
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Origin:          string(o.Origin),
		Status:          string(o.Status),
		TableID:         uuidPtr(o.TableID),
		StaffID:         o.StaffID,
		CustomerName:    textPtr(o.CustomerName),
		CustomerPhone:   textPtr(o.CustomerPhone),
		CustomerAddress: textPtr(o.CustomerAddress),
		Subtotal:        numericToString(o.Subtotal),
		DeliveryFee:     numericToString(o.DeliveryFee),
		PaymentFee:      numericToString(o.PaymentFee),
		Total:           numericToString(o.Total),
		PaymentMethodID: uuidPtr(o.PaymentMethodID),
		Paid:            o.Paid,
		Note:            textPtr(o.Note),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, toOrderItemResponse(it))
	}
	return resp
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	svcReq := service.CreateOrderRequest{
		Origin:          req.Origin,
		StaffID:         claims.StaffID,
		TableID:         req.TableID,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		DeliveryFee:     req.DeliveryFee,
		PaymentMethodID: req.PaymentMethodID,
		Note:            req.Note,
	}
	for _, it := range req.Items {
		svcReq.Items = append(svcReq.Items, service.CreateOrderLineRequest{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Note:       it.Note,
		})
	}

	result, err := h.svc.CreateOrder(r.Context(), svcReq)
	if err != nil {
		h.writeOrderError(w, err, "create order")
		return
	}

	h.broadcastOrderEvent("order.created", result.Order)
	if result.Table != nil {
		h.broadcastTableEvent("table.updated", *result.Table)
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order, result.Items))
}

// List handles GET /orders with optional status, origin, start_date and
// end_date filters plus limit/offset pagination.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := database.ListOrdersParams{
		Limit:  defaultListLimit,
		Offset: 0,
	}

	if s := q.Get("status"); s != "" {
		if !enum.OrderStatus(s).Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if o := q.Get("origin"); o != "" {
		if !enum.OrderOrigin(o).Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid origin filter"})
			return
		}
		params.Origin = pgtype.Text{String: o, Valid: true}
	}
	if d := q.Get("start_date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if d := q.Get("end_date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_date must be YYYY-MM-DD"})
			return
		}
		// end_date is inclusive; the query uses a half-open window
		params.EndDate = pgtype.Timestamptz{Time: t.AddDate(0, 0, 1), Valid: true}
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		params.Limit = int32(n)
	}
	if o := q.Get("offset"); o != "" {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
			return
		}
		params.Offset = int32(n)
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /orders/{id}, returning the order with its lines.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItems(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	next := enum.OrderStatus(req.Status)
	if !next.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), id, next)
	if err != nil {
		h.writeOrderError(w, err, "update order status")
		return
	}

	h.broadcastOrderEvent("order.status_updated", order)
	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

// Cancel handles DELETE /orders/{id}.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		h.writeOrderError(w, err, "cancel order")
		return
	}

	h.broadcastOrderEvent("order.cancelled", order)
	if order.TableID.Valid {
		// The table may have been released; clients refetch table state.
		h.hub.Broadcast(ws.TopicTables, ws.Event{Type: "table.updated", Payload: mustPayload(map[string]string{
			"id": uuid.UUID(order.TableID.Bytes).String(),
		})})
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

// SetPaid handles PATCH /orders/{id}/paid.
func (h *OrderHandler) SetPaid(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req setOrderPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.SetPaid(r.Context(), id, req.Paid)
	if err != nil {
		h.writeOrderError(w, err, "set order paid")
		return
	}

	h.broadcastOrderEvent("order.paid", order)
	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

// --- Helpers ---

// writeOrderError maps service errors onto HTTP statuses: validation errors
// are 400, lifecycle and CAS conflicts are 409, missing orders are 404.
func (h *OrderHandler) writeOrderError(w http.ResponseWriter, err error, op string) {
	switch {
	case service.IsOrderValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case service.IsConflict(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func (h *OrderHandler) broadcastOrderEvent(eventType string, o database.Order) {
	h.hub.Broadcast(ws.TopicOrders, ws.Event{Type: eventType, Payload: mustPayload(map[string]string{
		"id":           o.ID.String(),
		"order_number": o.OrderNumber,
		"status":       string(o.Status),
	})})
}

func (h *OrderHandler) broadcastTableEvent(eventType string, t database.RestaurantTable) {
	h.hub.Broadcast(ws.TopicTables, ws.Event{Type: eventType, Payload: mustPayload(map[string]string{
		"id":     t.ID.String(),
		"status": string(t.Status),
	})})
}

func mustPayload(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(b)
}
