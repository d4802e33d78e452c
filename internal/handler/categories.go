package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// CatalogServicer defines the service methods needed by catalog handlers.
// Satisfied by *service.CatalogService.
type CatalogServicer interface {
	ListCategories(ctx context.Context) ([]database.Category, error)
	CreateCategory(ctx context.Context, name string, sortOrder int32) (database.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name string, sortOrder int32) (database.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListMenuItems(ctx context.Context, categoryID string) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, in service.MenuItemInput) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id uuid.UUID, in service.MenuItemInput) (database.MenuItem, error)
	DisableMenuItem(ctx context.Context, id uuid.UUID) error

	ListPaymentMethods(ctx context.Context) ([]database.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, in service.PaymentMethodInput) (database.PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, id uuid.UUID, in service.PaymentMethodInput) (database.PaymentMethod, error)
	DisablePaymentMethod(ctx context.Context, id uuid.UUID) error
}

// CategoryHandler handles menu category endpoints.
type CategoryHandler struct {
	svc CatalogServicer
	hub Broadcaster
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(svc CatalogServicer, hub Broadcaster) *CategoryHandler {
	return &CategoryHandler{svc: svc, hub: hub}
}

// RegisterRoutes registers category endpoints on the given Chi router.
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type categoryRequest struct {
	Name      string `json:"name"`
	SortOrder int32  `json:"sort_order"`
}

type categoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int32     `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

func toCategoryResponse(c database.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		SortOrder: c.SortOrder,
		CreatedAt: c.CreatedAt,
	}
}

// --- Handlers ---

// List handles GET /categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = toCategoryResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	category, err := h.svc.CreateCategory(r.Context(), req.Name, req.SortOrder)
	if err != nil {
		writeCatalogError(w, err, "create category")
		return
	}

	h.broadcastMenu("category.created")
	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

// Update handles PUT /categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	category, err := h.svc.UpdateCategory(r.Context(), id, req.Name, req.SortOrder)
	if err != nil {
		writeCatalogError(w, err, "update category")
		return
	}

	h.broadcastMenu("category.updated")
	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

// Delete handles DELETE /categories/{id}. A category still referenced by
// menu items cannot be deleted.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	if err := h.svc.DeleteCategory(r.Context(), id); err != nil {
		writeCatalogError(w, err, "delete category")
		return
	}

	h.broadcastMenu("category.deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (h *CategoryHandler) broadcastMenu(eventType string) {
	h.hub.Broadcast(ws.TopicMenu, ws.Event{Type: eventType, Payload: json.RawMessage(`{}`)})
}

// writeCatalogError maps catalog service errors onto HTTP statuses. Shared
// by the category, menu item, and payment method handlers.
func writeCatalogError(w http.ResponseWriter, err error, op string) {
	switch {
	case service.IsCatalogValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case service.IsConflict(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
