package database

import (
	"context"

	"github.com/google/uuid"
)

const listCategories = `
SELECT id, name, sort_order, is_active, created_at
FROM categories
WHERE is_active = TRUE
ORDER BY sort_order, name
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.SortOrder, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const createCategory = `
INSERT INTO categories (name, sort_order)
VALUES ($1, $2)
RETURNING id, name, sort_order, is_active, created_at
`

type CreateCategoryParams struct {
	Name      string
	SortOrder int32
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, createCategory, arg.Name, arg.SortOrder).
		Scan(&c.ID, &c.Name, &c.SortOrder, &c.IsActive, &c.CreatedAt)
	return c, err
}

const updateCategory = `
UPDATE categories
SET name = $2, sort_order = $3
WHERE id = $1 AND is_active = TRUE
RETURNING id, name, sort_order, is_active, created_at
`

type UpdateCategoryParams struct {
	ID        uuid.UUID
	Name      string
	SortOrder int32
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, updateCategory, arg.ID, arg.Name, arg.SortOrder).
		Scan(&c.ID, &c.Name, &c.SortOrder, &c.IsActive, &c.CreatedAt)
	return c, err
}

const deleteCategory = `
DELETE FROM categories
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, deleteCategory, id).Scan(&deleted)
	return deleted, err
}

// CountMenuItemsByCategory counts every item referencing the category,
// disabled ones included, so historical references still block deletion.
const countMenuItemsByCategory = `
SELECT COUNT(*)
FROM menu_items
WHERE category_id = $1
`

func (q *Queries) CountMenuItemsByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countMenuItemsByCategory, categoryID).Scan(&count)
	return count, err
}
