package database

import (
	"context"

	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const staffColumns = `id, full_name, email, phone, job_role, access_level, hashed_password, is_active, created_at`

func scanStaff(row interface{ Scan(dest ...any) error }) (Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.FullName, &s.Email, &s.Phone, &s.JobRole,
		&s.AccessLevel, &s.HashedPassword, &s.IsActive, &s.CreatedAt)
	return s, err
}

const getStaff = `
SELECT ` + staffColumns + `
FROM staff
WHERE id = $1
`

func (q *Queries) GetStaff(ctx context.Context, id uuid.UUID) (Staff, error) {
	return scanStaff(q.db.QueryRow(ctx, getStaff, id))
}

const getStaffByEmail = `
SELECT ` + staffColumns + `
FROM staff
WHERE email = $1 AND is_active = TRUE
`

func (q *Queries) GetStaffByEmail(ctx context.Context, email string) (Staff, error) {
	return scanStaff(q.db.QueryRow(ctx, getStaffByEmail, email))
}

const listStaff = `
SELECT ` + staffColumns + `
FROM staff
WHERE is_active = TRUE
ORDER BY full_name
`

func (q *Queries) ListStaff(ctx context.Context) ([]Staff, error) {
	rows, err := q.db.Query(ctx, listStaff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, s)
	}
	return members, rows.Err()
}

const createStaff = `
INSERT INTO staff (full_name, email, phone, job_role, access_level, hashed_password)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + staffColumns + `
`

type CreateStaffParams struct {
	FullName       string
	Email          string
	Phone          pgtype.Text
	JobRole        pgtype.Text
	AccessLevel    enum.AccessLevel
	HashedPassword string
}

func (q *Queries) CreateStaff(ctx context.Context, arg CreateStaffParams) (Staff, error) {
	return scanStaff(q.db.QueryRow(ctx, createStaff,
		arg.FullName, arg.Email, arg.Phone, arg.JobRole, arg.AccessLevel, arg.HashedPassword))
}

const updateStaff = `
UPDATE staff
SET full_name = $2, phone = $3, job_role = $4, access_level = $5
WHERE id = $1 AND is_active = TRUE
RETURNING ` + staffColumns + `
`

type UpdateStaffParams struct {
	ID          uuid.UUID
	FullName    string
	Phone       pgtype.Text
	JobRole     pgtype.Text
	AccessLevel enum.AccessLevel
}

func (q *Queries) UpdateStaff(ctx context.Context, arg UpdateStaffParams) (Staff, error) {
	return scanStaff(q.db.QueryRow(ctx, updateStaff,
		arg.ID, arg.FullName, arg.Phone, arg.JobRole, arg.AccessLevel))
}

const disableStaff = `
UPDATE staff
SET is_active = FALSE
WHERE id = $1 AND is_active = TRUE
RETURNING id
`

func (q *Queries) DisableStaff(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var disabled uuid.UUID
	err := q.db.QueryRow(ctx, disableStaff, id).Scan(&disabled)
	return disabled, err
}

// GetStaffStats derives the informational counters from order history
// instead of keeping mutable fields on the staff row.
const getStaffStats = `
SELECT
    COUNT(*) FILTER (WHERE status <> 'CANCELLED') AS orders_processed,
    COUNT(DISTINCT table_id) FILTER (WHERE table_id IS NOT NULL AND status <> 'CANCELLED') AS tables_served
FROM orders
WHERE staff_id = $1
`

type GetStaffStatsRow struct {
	OrdersProcessed int64
	TablesServed    int64
}

func (q *Queries) GetStaffStats(ctx context.Context, staffID uuid.UUID) (GetStaffStatsRow, error) {
	var r GetStaffStatsRow
	err := q.db.QueryRow(ctx, getStaffStats, staffID).Scan(&r.OrdersProcessed, &r.TablesServed)
	return r, err
}
