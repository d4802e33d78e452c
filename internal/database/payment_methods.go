package database

import (
	"context"

	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const paymentMethodColumns = `id, name, fee_type, fee_value, is_active, created_at`

func scanPaymentMethod(row interface{ Scan(dest ...any) error }) (PaymentMethod, error) {
	var p PaymentMethod
	err := row.Scan(&p.ID, &p.Name, &p.FeeType, &p.FeeValue, &p.IsActive, &p.CreatedAt)
	return p, err
}

const listPaymentMethods = `
SELECT ` + paymentMethodColumns + `
FROM payment_methods
WHERE is_active = TRUE
ORDER BY name
`

func (q *Queries) ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	rows, err := q.db.Query(ctx, listPaymentMethods)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var methods []PaymentMethod
	for rows.Next() {
		p, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, err
		}
		methods = append(methods, p)
	}
	return methods, rows.Err()
}

const getActivePaymentMethod = `
SELECT ` + paymentMethodColumns + `
FROM payment_methods
WHERE id = $1 AND is_active = TRUE
`

func (q *Queries) GetActivePaymentMethod(ctx context.Context, id uuid.UUID) (PaymentMethod, error) {
	return scanPaymentMethod(q.db.QueryRow(ctx, getActivePaymentMethod, id))
}

const createPaymentMethod = `
INSERT INTO payment_methods (name, fee_type, fee_value)
VALUES ($1, $2, $3)
RETURNING ` + paymentMethodColumns + `
`

type CreatePaymentMethodParams struct {
	Name     string
	FeeType  enum.FeeType
	FeeValue pgtype.Numeric
}

func (q *Queries) CreatePaymentMethod(ctx context.Context, arg CreatePaymentMethodParams) (PaymentMethod, error) {
	return scanPaymentMethod(q.db.QueryRow(ctx, createPaymentMethod,
		arg.Name, arg.FeeType, arg.FeeValue))
}

const updatePaymentMethod = `
UPDATE payment_methods
SET name = $2, fee_type = $3, fee_value = $4
WHERE id = $1 AND is_active = TRUE
RETURNING ` + paymentMethodColumns + `
`

type UpdatePaymentMethodParams struct {
	ID       uuid.UUID
	Name     string
	FeeType  enum.FeeType
	FeeValue pgtype.Numeric
}

func (q *Queries) UpdatePaymentMethod(ctx context.Context, arg UpdatePaymentMethodParams) (PaymentMethod, error) {
	return scanPaymentMethod(q.db.QueryRow(ctx, updatePaymentMethod,
		arg.ID, arg.Name, arg.FeeType, arg.FeeValue))
}

const disablePaymentMethod = `
UPDATE payment_methods
SET is_active = FALSE
WHERE id = $1 AND is_active = TRUE
RETURNING id
`

func (q *Queries) DisablePaymentMethod(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var disabled uuid.UUID
	err := q.db.QueryRow(ctx, disablePaymentMethod, id).Scan(&disabled)
	return disabled, err
}
