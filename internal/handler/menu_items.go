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

// MenuItemHandler handles menu item endpoints.
type MenuItemHandler struct {
	svc CatalogServicer
	hub Broadcaster
}

// NewMenuItemHandler creates a new MenuItemHandler.
func NewMenuItemHandler(svc CatalogServicer, hub Broadcaster) *MenuItemHandler {
	return &MenuItemHandler{svc: svc, hub: hub}
}

// RegisterRoutes registers menu item endpoints on the given Chi router.
func (h *MenuItemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Disable)
}

// --- Request / Response types ---

type menuItemRequest struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

type menuItemResponse struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:          m.ID,
		CategoryID:  m.CategoryID,
		Name:        m.Name,
		Description: textPtr(m.Description),
		Price:       numericToString(m.Price),
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// --- Handlers ---

// List handles GET /menu-items with an optional category_id filter.
func (h *MenuItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListMenuItems(r.Context(), r.URL.Query().Get("category_id"))
	if err != nil {
		writeCatalogError(w, err, "list menu items")
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /menu-items/{id}.
func (h *MenuItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	item, err := h.svc.GetMenuItem(r.Context(), id)
	if err != nil {
		writeCatalogError(w, err, "get menu item")
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Create handles POST /menu-items.
func (h *MenuItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	item, err := h.svc.CreateMenuItem(r.Context(), service.MenuItemInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		writeCatalogError(w, err, "create menu item")
		return
	}

	h.broadcastMenu("menu_item.created")
	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update handles PUT /menu-items/{id}.
func (h *MenuItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	item, err := h.svc.UpdateMenuItem(r.Context(), id, service.MenuItemInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		writeCatalogError(w, err, "update menu item")
		return
	}

	h.broadcastMenu("menu_item.updated")
	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Disable handles DELETE /menu-items/{id}. Items are soft-disabled; order
// lines keep their name and price snapshots.
func (h *MenuItemHandler) Disable(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	if err := h.svc.DisableMenuItem(r.Context(), id); err != nil {
		writeCatalogError(w, err, "disable menu item")
		return
	}

	h.broadcastMenu("menu_item.disabled")
	w.WriteHeader(http.StatusNoContent)
}

func (h *MenuItemHandler) broadcastMenu(eventType string) {
	h.hub.Broadcast(ws.TopicMenu, ws.Event{Type: eventType, Payload: json.RawMessage(`{}`)})
}
