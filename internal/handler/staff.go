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
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"
)

// StaffStore defines the database methods needed by staff handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type StaffStore interface {
	ListStaff(ctx context.Context) ([]database.Staff, error)
	GetStaff(ctx context.Context, id uuid.UUID) (database.Staff, error)
	CreateStaff(ctx context.Context, arg database.CreateStaffParams) (database.Staff, error)
	UpdateStaff(ctx context.Context, arg database.UpdateStaffParams) (database.Staff, error)
	DisableStaff(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	GetStaffStats(ctx context.Context, staffID uuid.UUID) (database.GetStaffStatsRow, error)
}

// StaffHandler handles staff management endpoints.
type StaffHandler struct {
	store StaffStore
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(store StaffStore) *StaffHandler {
	return &StaffHandler{store: store}
}

// RegisterRoutes registers staff endpoints on the given Chi router.
func (h *StaffHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Disable)
	r.Get("/{id}/stats", h.Stats)
}

// --- Request / Response types ---

type createStaffRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	JobRole     string `json:"job_role"`
	AccessLevel string `json:"access_level"`
	Password    string `json:"password"`
}

type updateStaffRequest struct {
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	JobRole     string `json:"job_role"`
	AccessLevel string `json:"access_level"`
}

type staffResponse struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone"`
	JobRole     *string   `json:"job_role"`
	AccessLevel string    `json:"access_level"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type staffStatsResponse struct {
	StaffID         uuid.UUID `json:"staff_id"`
	OrdersProcessed int64     `json:"orders_processed"`
	TablesServed    int64     `json:"tables_served"`
}

func toStaffResponse(s database.Staff) staffResponse {
	return staffResponse{
		ID:          s.ID,
		FullName:    s.FullName,
		Email:       s.Email,
		Phone:       textPtr(s.Phone),
		JobRole:     textPtr(s.JobRole),
		AccessLevel: string(s.AccessLevel),
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
	}
}

// --- Handlers ---

// List handles GET /staff.
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.ListStaff(r.Context())
	if err != nil {
		log.Printf("ERROR: list staff: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]staffResponse, len(members))
	for i, s := range members {
		resp[i] = toStaffResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /staff/{id}.
func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid staff ID"})
		return
	}

	member, err := h.store.GetStaff(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff not found"})
			return
		}
		log.Printf("ERROR: get staff: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toStaffResponse(member))
}

// Create handles POST /staff.
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.FullName == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "full_name, email and password are required"})
		return
	}
	level := enum.AccessLevel(req.AccessLevel)
	if !level.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "access_level must be ADMIN or STAFF"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: hash password: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	member, err := h.store.CreateStaff(r.Context(), database.CreateStaffParams{
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          optionalText(req.Phone),
		JobRole:        optionalText(req.JobRole),
		AccessLevel:    level,
		HashedPassword: string(hashed),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already registered"})
			return
		}
		log.Printf("ERROR: create staff: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toStaffResponse(member))
}

// Update handles PUT /staff/{id}.
func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid staff ID"})
		return
	}

	var req updateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.FullName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "full_name is required"})
		return
	}
	level := enum.AccessLevel(req.AccessLevel)
	if !level.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "access_level must be ADMIN or STAFF"})
		return
	}

	member, err := h.store.UpdateStaff(r.Context(), database.UpdateStaffParams{
		ID:          id,
		FullName:    req.FullName,
		Phone:       optionalText(req.Phone),
		JobRole:     optionalText(req.JobRole),
		AccessLevel: level,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff not found"})
			return
		}
		log.Printf("ERROR: update staff: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toStaffResponse(member))
}

// Disable handles DELETE /staff/{id}. Staff rows are soft-disabled so order
// history keeps its author.
func (h *StaffHandler) Disable(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid staff ID"})
		return
	}

	if _, err := h.store.DisableStaff(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff not found"})
			return
		}
		log.Printf("ERROR: disable staff: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /staff/{id}/stats.
func (h *StaffHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid staff ID"})
		return
	}

	if _, err := h.store.GetStaff(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff not found"})
			return
		}
		log.Printf("ERROR: get staff: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	stats, err := h.store.GetStaffStats(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: get staff stats: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, staffStatsResponse{
		StaffID:         id,
		OrdersProcessed: stats.OrdersProcessed,
		TablesServed:    stats.TablesServed,
	})
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
