package database

import (
	"context"

	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableColumns = `id, number, status, staff_id, opened_at, closed_at, note, updated_at`

func scanTable(row interface{ Scan(dest ...any) error }) (RestaurantTable, error) {
	var t RestaurantTable
	err := row.Scan(&t.ID, &t.Number, &t.Status, &t.StaffID,
		&t.OpenedAt, &t.ClosedAt, &t.Note, &t.UpdatedAt)
	return t, err
}

const listTables = `
SELECT ` + tableColumns + `
FROM restaurant_tables
ORDER BY number
`

func (q *Queries) ListTables(ctx context.Context) ([]RestaurantTable, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tables []RestaurantTable
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

const getTable = `
SELECT ` + tableColumns + `
FROM restaurant_tables
WHERE id = $1
`

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (RestaurantTable, error) {
	return scanTable(q.db.QueryRow(ctx, getTable, id))
}

const createTable = `
INSERT INTO restaurant_tables (number)
VALUES ($1)
RETURNING ` + tableColumns + `
`

func (q *Queries) CreateTable(ctx context.Context, number int32) (RestaurantTable, error) {
	return scanTable(q.db.QueryRow(ctx, createTable, number))
}

// UpdateTableStatus is a compare-and-swap write: the row only changes when
// its status still equals ExpectedStatus. A concurrent writer that got there
// first makes this return pgx.ErrNoRows; the caller must re-read and retry.
const updateTableStatus = `
UPDATE restaurant_tables
SET status = $2, staff_id = $3, opened_at = $4, closed_at = $5, updated_at = now()
WHERE id = $1 AND status = $6
RETURNING ` + tableColumns + `
`

type UpdateTableStatusParams struct {
	ID             uuid.UUID
	Status         enum.TableStatus
	StaffID        pgtype.UUID
	OpenedAt       pgtype.Timestamptz
	ClosedAt       pgtype.Timestamptz
	ExpectedStatus enum.TableStatus
}

func (q *Queries) UpdateTableStatus(ctx context.Context, arg UpdateTableStatusParams) (RestaurantTable, error) {
	return scanTable(q.db.QueryRow(ctx, updateTableStatus,
		arg.ID, arg.Status, arg.StaffID, arg.OpenedAt, arg.ClosedAt, arg.ExpectedStatus))
}

const updateTableNote = `
UPDATE restaurant_tables
SET note = $2, updated_at = now()
WHERE id = $1
RETURNING ` + tableColumns + `
`

type UpdateTableNoteParams struct {
	ID   uuid.UUID
	Note pgtype.Text
}

func (q *Queries) UpdateTableNote(ctx context.Context, arg UpdateTableNoteParams) (RestaurantTable, error) {
	return scanTable(q.db.QueryRow(ctx, updateTableNote, arg.ID, arg.Note))
}

// CountOpenOrdersOnTable counts orders on the table that are still in a
// non-terminal status.
const countOpenOrdersOnTable = `
SELECT COUNT(*)
FROM orders
WHERE table_id = $1
  AND status IN ('PENDING', 'PREPARING', 'READY')
`

func (q *Queries) CountOpenOrdersOnTable(ctx context.Context, tableID uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countOpenOrdersOnTable, tableID).Scan(&count)
	return count, err
}
