package database

import (
	"context"
	"time"

	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, origin, status, table_id, staff_id,
customer_name, customer_phone, customer_address,
subtotal, delivery_fee, payment_fee, total,
payment_method_id, paid, note, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.Origin, &o.Status, &o.TableID, &o.StaffID,
		&o.CustomerName, &o.CustomerPhone, &o.CustomerAddress,
		&o.Subtotal, &o.DeliveryFee, &o.PaymentFee, &o.Total,
		&o.PaymentMethodID, &o.Paid, &o.Note, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// GetNextOrderNumber derives the next sequence value from the highest
// number issued so far. Two concurrent transactions can read the same MAX;
// the unique constraint on order_number catches that and the service
// retries with a fresh number.
const getNextOrderNumber = `
SELECT COALESCE(MAX(CAST(SUBSTRING(order_number FROM 5) AS INTEGER)), 0) + 1
FROM orders
`

func (q *Queries) GetNextOrderNumber(ctx context.Context) (int32, error) {
	var next int32
	err := q.db.QueryRow(ctx, getNextOrderNumber).Scan(&next)
	return next, err
}

const createOrder = `
INSERT INTO orders (
    order_number, origin, table_id, staff_id,
    customer_name, customer_phone, customer_address,
    subtotal, delivery_fee, payment_fee, total,
    payment_method_id, note
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + orderColumns + `
`

type CreateOrderParams struct {
	OrderNumber     string
	Origin          enum.OrderOrigin
	TableID         pgtype.UUID
	StaffID         uuid.UUID
	CustomerName    pgtype.Text
	CustomerPhone   pgtype.Text
	CustomerAddress pgtype.Text
	Subtotal        pgtype.Numeric
	DeliveryFee     pgtype.Numeric
	PaymentFee      pgtype.Numeric
	Total           pgtype.Numeric
	PaymentMethodID pgtype.UUID
	Note            pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber, arg.Origin, arg.TableID, arg.StaffID,
		arg.CustomerName, arg.CustomerPhone, arg.CustomerAddress,
		arg.Subtotal, arg.DeliveryFee, arg.PaymentFee, arg.Total,
		arg.PaymentMethodID, arg.Note))
}

const createOrderItem = `
INSERT INTO order_items (order_id, menu_item_id, item_name, unit_price, quantity, note)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, menu_item_id, item_name, unit_price, quantity, note
`

type CreateOrderItemParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	ItemName   string
	UnitPrice  pgtype.Numeric
	Quantity   int32
	Note       pgtype.Text
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var it OrderItem
	err := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.MenuItemID, arg.ItemName, arg.UnitPrice, arg.Quantity, arg.Note).
		Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.ItemName, &it.UnitPrice, &it.Quantity, &it.Note)
	return it, err
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const listOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::text IS NULL OR origin = $2)
  AND ($3::timestamptz IS NULL OR created_at >= $3)
  AND ($4::timestamptz IS NULL OR created_at < $4)
ORDER BY created_at DESC
LIMIT $5 OFFSET $6
`

type ListOrdersParams struct {
	Status    pgtype.Text
	Origin    pgtype.Text
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.Status, arg.Origin, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrderItems = `
SELECT id, order_id, menu_item_id, item_name, unit_price, quantity, note
FROM order_items
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.ItemName,
			&it.UnitPrice, &it.Quantity, &it.Note); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateOrderStatus is a compare-and-swap write; pgx.ErrNoRows means the
// status changed between the caller's read and this write. Reaching
// DELIVERED marks the order paid in the same statement.
const updateOrderStatus = `
UPDATE orders
SET status = $2,
    paid = CASE WHEN $2 = 'DELIVERED' THEN TRUE ELSE paid END,
    updated_at = now()
WHERE id = $1 AND status = $3
RETURNING ` + orderColumns + `
`

type UpdateOrderStatusParams struct {
	ID             uuid.UUID
	Status         enum.OrderStatus
	ExpectedStatus enum.OrderStatus
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.ExpectedStatus))
}

// CancelOrder enforces its precondition atomically: only a non-terminal
// order can be cancelled.
const cancelOrder = `
UPDATE orders
SET status = 'CANCELLED', updated_at = now()
WHERE id = $1 AND status IN ('PENDING', 'PREPARING', 'READY')
RETURNING ` + orderColumns + `
`

func (q *Queries) CancelOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, cancelOrder, id))
}

const setOrderPaid = `
UPDATE orders
SET paid = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns + `
`

type SetOrderPaidParams struct {
	ID   uuid.UUID
	Paid bool
}

func (q *Queries) SetOrderPaid(ctx context.Context, arg SetOrderPaidParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, setOrderPaid, arg.ID, arg.Paid))
}

// --- Rollup reads: the aggregation itself happens in the service layer ---

const listOrdersInWindow = `
SELECT ` + orderColumns + `
FROM orders
WHERE created_at >= $1 AND created_at < $2
ORDER BY created_at, id
`

type ListOrdersInWindowParams struct {
	Start time.Time
	End   time.Time
}

func (q *Queries) ListOrdersInWindow(ctx context.Context, arg ListOrdersInWindowParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersInWindow, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListItemSalesInWindow returns one row per order line from non-cancelled
// orders in [start, end), in a stable order so downstream aggregation is
// deterministic.
const listItemSalesInWindow = `
SELECT oi.item_name, oi.unit_price, oi.quantity
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.created_at >= $1 AND o.created_at < $2
  AND o.status <> 'CANCELLED'
ORDER BY o.created_at, o.id, oi.id
`

type ItemSaleRow struct {
	ItemName  string
	UnitPrice pgtype.Numeric
	Quantity  int32
}

func (q *Queries) ListItemSalesInWindow(ctx context.Context, arg ListOrdersInWindowParams) ([]ItemSaleRow, error) {
	rows, err := q.db.Query(ctx, listItemSalesInWindow, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sales []ItemSaleRow
	for rows.Next() {
		var r ItemSaleRow
		if err := rows.Scan(&r.ItemName, &r.UnitPrice, &r.Quantity); err != nil {
			return nil, err
		}
		sales = append(sales, r)
	}
	return sales, rows.Err()
}

// GetPaymentSummary breaks paid, non-cancelled orders down by payment method.
const getPaymentSummary = `
SELECT pm.name, COUNT(o.id), COALESCE(SUM(o.total), 0)
FROM orders o
JOIN payment_methods pm ON pm.id = o.payment_method_id
WHERE o.created_at >= $1 AND o.created_at < $2
  AND o.status <> 'CANCELLED'
  AND o.paid = TRUE
GROUP BY pm.name
ORDER BY pm.name
`

type PaymentSummaryRow struct {
	MethodName string
	OrderCount int64
	Total      pgtype.Numeric
}

func (q *Queries) GetPaymentSummary(ctx context.Context, arg ListOrdersInWindowParams) ([]PaymentSummaryRow, error) {
	rows, err := q.db.Query(ctx, getPaymentSummary, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var summary []PaymentSummaryRow
	for rows.Next() {
		var r PaymentSummaryRow
		if err := rows.Scan(&r.MethodName, &r.OrderCount, &r.Total); err != nil {
			return nil, err
		}
		summary = append(summary, r)
	}
	return summary, rows.Err()
}
