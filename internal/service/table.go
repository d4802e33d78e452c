package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Validation errors returned by the table service.
var (
	ErrInvalidTableStatus = errors.New("invalid table status")
	ErrInvalidTableNumber = errors.New("table number must be > 0")
)

// TableStore defines the DB methods needed by the table service.
// Satisfied by *database.Queries.
type TableStore interface {
	ListTables(ctx context.Context) ([]database.RestaurantTable, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.RestaurantTable, error)
	CreateTable(ctx context.Context, number int32) (database.RestaurantTable, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.RestaurantTable, error)
	UpdateTableNote(ctx context.Context, arg database.UpdateTableNoteParams) (database.RestaurantTable, error)
	CountOpenOrdersOnTable(ctx context.Context, tableID uuid.UUID) (int64, error)
}

// TableService owns the table lifecycle.
type TableService struct {
	store TableStore
}

func NewTableService(store TableStore) *TableService {
	return &TableService{store: store}
}

func (s *TableService) List(ctx context.Context) ([]database.RestaurantTable, error) {
	return s.store.ListTables(ctx)
}

func (s *TableService) Get(ctx context.Context, id uuid.UUID) (database.RestaurantTable, error) {
	t, err := s.store.GetTable(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.RestaurantTable{}, ErrNotFound
		}
		return database.RestaurantTable{}, fmt.Errorf("get table: %w", err)
	}
	return t, nil
}

func (s *TableService) Create(ctx context.Context, number int32) (database.RestaurantTable, error) {
	if number <= 0 {
		return database.RestaurantTable{}, ErrInvalidTableNumber
	}
	t, err := s.store.CreateTable(ctx, number)
	if err != nil {
		return database.RestaurantTable{}, fmt.Errorf("create table: %w", err)
	}
	return t, nil
}

// Transition moves a table along the lifecycle graph with a CAS write.
// staffID is the member driving the change; when seating a table it becomes
// the serving staff unless the caller names someone else. Re-requesting the
// current status is a no-op.
func (s *TableService) Transition(ctx context.Context, tableID uuid.UUID, next enum.TableStatus, staffID uuid.UUID) (database.RestaurantTable, error) {
	if !next.Valid() {
		return database.RestaurantTable{}, ErrInvalidTableStatus
	}

	current, err := s.store.GetTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.RestaurantTable{}, ErrNotFound
		}
		return database.RestaurantTable{}, fmt.Errorf("get table: %w", err)
	}

	if current.Status == next {
		return current, nil
	}
	if err := ValidateTableTransition(current.Status, next); err != nil {
		return database.RestaurantTable{}, err
	}

	arg := database.UpdateTableStatusParams{
		ID:             tableID,
		Status:         next,
		StaffID:        current.StaffID,
		OpenedAt:       current.OpenedAt,
		ClosedAt:       current.ClosedAt,
		ExpectedStatus: current.Status,
	}

	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	switch next {
	case enum.TableStatusOccupied:
		// Seating: FREE or RESERVED becomes a live session.
		arg.StaffID = pgtype.UUID{Bytes: staffID, Valid: true}
		arg.OpenedAt = now
		arg.ClosedAt = pgtype.Timestamptz{}
	case enum.TableStatusReserved:
		arg.StaffID = pgtype.UUID{Bytes: staffID, Valid: true}
	case enum.TableStatusCleaning:
		// Session is over; the table just isn't seatable yet.
		arg.ClosedAt = now
	case enum.TableStatusFree:
		if current.Status == enum.TableStatusOccupied {
			open, err := s.store.CountOpenOrdersOnTable(ctx, tableID)
			if err != nil {
				return database.RestaurantTable{}, fmt.Errorf("count open orders: %w", err)
			}
			if open > 0 {
				return database.RestaurantTable{}, &ConflictError{
					Entity: "table",
					Reason: fmt.Sprintf("%d open order(s) remain", open),
				}
			}
			arg.ClosedAt = now
		}
		arg.StaffID = pgtype.UUID{}
	}

	updated, err := s.store.UpdateTableStatus(ctx, arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.RestaurantTable{}, &ConflictError{Entity: "table", Reason: "status changed, please retry"}
		}
		return database.RestaurantTable{}, fmt.Errorf("update table status: %w", err)
	}
	return updated, nil
}

// UpdateNote replaces the table's note; an empty note clears it.
func (s *TableService) UpdateNote(ctx context.Context, tableID uuid.UUID, note string) (database.RestaurantTable, error) {
	t, err := s.store.UpdateTableNote(ctx, database.UpdateTableNoteParams{
		ID:   tableID,
		Note: textOrNull(note),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.RestaurantTable{}, ErrNotFound
		}
		return database.RestaurantTable{}, fmt.Errorf("update table note: %w", err)
	}
	return t, nil
}
