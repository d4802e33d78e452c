package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, category_id, name, description, price, is_active, created_at, updated_at`

func scanMenuItem(row interface{ Scan(dest ...any) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.CategoryID, &m.Name, &m.Description, &m.Price,
		&m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

const listActiveMenuItems = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE is_active = TRUE
  AND ($1::uuid IS NULL OR category_id = $1)
ORDER BY name
`

// ListActiveMenuItems returns active items, optionally filtered by category.
func (q *Queries) ListActiveMenuItems(ctx context.Context, categoryID pgtype.UUID) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listActiveMenuItems, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const getMenuItem = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE id = $1
`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, id))
}

const getActiveMenuItem = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE id = $1 AND is_active = TRUE
`

// GetActiveMenuItem is used at order time: disabled items cannot be ordered.
func (q *Queries) GetActiveMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getActiveMenuItem, id))
}

const createMenuItem = `
INSERT INTO menu_items (category_id, name, description, price)
VALUES ($1, $2, $3, $4)
RETURNING ` + menuItemColumns + `
`

type CreateMenuItemParams struct {
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, createMenuItem,
		arg.CategoryID, arg.Name, arg.Description, arg.Price))
}

const updateMenuItem = `
UPDATE menu_items
SET category_id = $2, name = $3, description = $4, price = $5, updated_at = now()
WHERE id = $1 AND is_active = TRUE
RETURNING ` + menuItemColumns + `
`

type UpdateMenuItemParams struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, updateMenuItem,
		arg.ID, arg.CategoryID, arg.Name, arg.Description, arg.Price))
}

// Items are soft-disabled, never deleted: historical order lines keep a
// valid menu_item_id reference.
const disableMenuItem = `
UPDATE menu_items
SET is_active = FALSE, updated_at = now()
WHERE id = $1 AND is_active = TRUE
RETURNING id
`

func (q *Queries) DisableMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var disabled uuid.UUID
	err := q.db.QueryRow(ctx, disableMenuItem, id).Scan(&disabled)
	return disabled, err
}
