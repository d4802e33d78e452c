package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/middleware"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// TableServicer defines the service methods needed by table handlers.
// Satisfied by *service.TableService.
type TableServicer interface {
	List(ctx context.Context) ([]database.RestaurantTable, error)
	Get(ctx context.Context, id uuid.UUID) (database.RestaurantTable, error)
	Create(ctx context.Context, number int32) (database.RestaurantTable, error)
	Transition(ctx context.Context, tableID uuid.UUID, next enum.TableStatus, staffID uuid.UUID) (database.RestaurantTable, error)
	UpdateNote(ctx context.Context, tableID uuid.UUID, note string) (database.RestaurantTable, error)
}

// TableHandler handles table endpoints.
type TableHandler struct {
	svc TableServicer
	hub Broadcaster
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(svc TableServicer, hub Broadcaster) *TableHandler {
	return &TableHandler{svc: svc, hub: hub}
}

// RegisterRoutes registers table endpoints on the given Chi router.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/note", h.UpdateNote)
}

// --- Request / Response types ---

type createTableRequest struct {
	Number int32 `json:"number"`
}

type updateTableStatusRequest struct {
	Status  string `json:"status"`
	StaffID string `json:"staff_id"`
}

type updateTableNoteRequest struct {
	Note string `json:"note"`
}

type tableResponse struct {
	ID        uuid.UUID `json:"id"`
	Number    int32     `json:"number"`
	Status    string    `json:"status"`
	StaffID   *string   `json:"staff_id"`
	OpenedAt  *string   `json:"opened_at"`
	ClosedAt  *string   `json:"closed_at"`
	Note      *string   `json:"note"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toTableResponse(t database.RestaurantTable) tableResponse {
	return tableResponse{
		ID:        t.ID,
		Number:    t.Number,
		Status:    string(t.Status),
		StaffID:   uuidPtr(t.StaffID),
		OpenedAt:  timePtr(t.OpenedAt),
		ClosedAt:  timePtr(t.ClosedAt),
		Note:      textPtr(t.Note),
		UpdatedAt: t.UpdatedAt,
	}
}

// --- Handlers ---

// List handles GET /tables.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.svc.List(r.Context())
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /tables/{id}.
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	table, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeTableError(w, err, "get table")
		return
	}
	writeJSON(w, http.StatusOK, toTableResponse(table))
}

// Create handles POST /tables.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	table, err := h.svc.Create(r.Context(), req.Number)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTableNumber) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "table number already exists"})
			return
		}
		log.Printf("ERROR: create table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.broadcastTable("table.created", table)
	writeJSON(w, http.StatusCreated, toTableResponse(table))
}

// UpdateStatus handles PATCH /tables/{id}/status. The optional staff_id in
// the body names the serving staff; it defaults to the caller.
func (h *TableHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	var req updateTableStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	staffID := claims.StaffID
	if req.StaffID != "" {
		staffID, err = uuid.Parse(req.StaffID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid staff_id"})
			return
		}
	}

	table, err := h.svc.Transition(r.Context(), id, enum.TableStatus(req.Status), staffID)
	if err != nil {
		h.writeTableError(w, err, "update table status")
		return
	}

	h.broadcastTable("table.updated", table)
	writeJSON(w, http.StatusOK, toTableResponse(table))
}

// UpdateNote handles PATCH /tables/{id}/note. An empty note clears it.
func (h *TableHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	var req updateTableNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	table, err := h.svc.UpdateNote(r.Context(), id, req.Note)
	if err != nil {
		h.writeTableError(w, err, "update table note")
		return
	}

	h.broadcastTable("table.updated", table)
	writeJSON(w, http.StatusOK, toTableResponse(table))
}

// --- Helpers ---

func (h *TableHandler) writeTableError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrInvalidTableStatus):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case service.IsConflict(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func (h *TableHandler) broadcastTable(eventType string, t database.RestaurantTable) {
	h.hub.Broadcast(ws.TopicTables, ws.Event{Type: eventType, Payload: mustPayload(map[string]string{
		"id":     t.ID.String(),
		"status": string(t.Status),
	})})
}
