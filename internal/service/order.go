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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// Validation errors returned by the order service.
var (
	ErrEmptyItems              = errors.New("items are required")
	ErrInvalidOrigin           = errors.New("invalid origin")
	ErrInvalidQuantity         = errors.New("quantity must be > 0")
	ErrInvalidMenuItemID       = errors.New("invalid menu_item_id")
	ErrMenuItemNotFound        = errors.New("menu item not found or disabled")
	ErrTableRequired           = errors.New("table_id is required for TABLE orders")
	ErrInvalidTableID          = errors.New("invalid table_id")
	ErrTableNotFound           = errors.New("table not found")
	ErrCustomerNameRequired    = errors.New("customer_name is required for DELIVERY orders")
	ErrCustomerPhoneRequired   = errors.New("customer_phone is required for DELIVERY orders")
	ErrCustomerAddressRequired = errors.New("customer_address is required for DELIVERY orders")
	ErrInvalidDeliveryFee      = errors.New("invalid delivery_fee")
	ErrInvalidPaymentMethodID  = errors.New("invalid payment_method_id")
	ErrPaymentMethodNotFound   = errors.New("payment method not found or disabled")
)

// IsOrderValidationError reports whether err is one of the order service's
// validation errors; handlers map these to 400.
func IsOrderValidationError(err error) bool {
	return errors.Is(err, ErrEmptyItems) ||
		errors.Is(err, ErrInvalidOrigin) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidMenuItemID) ||
		errors.Is(err, ErrMenuItemNotFound) ||
		errors.Is(err, ErrTableRequired) ||
		errors.Is(err, ErrInvalidTableID) ||
		errors.Is(err, ErrTableNotFound) ||
		errors.Is(err, ErrCustomerNameRequired) ||
		errors.Is(err, ErrCustomerPhoneRequired) ||
		errors.Is(err, ErrCustomerAddressRequired) ||
		errors.Is(err, ErrInvalidDeliveryFee) ||
		errors.Is(err, ErrInvalidPaymentMethodID) ||
		errors.Is(err, ErrPaymentMethodNotFound)
}

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetNextOrderNumber(ctx context.Context) (int32, error)
	GetActiveMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	GetActivePaymentMethod(ctx context.Context, id uuid.UUID) (database.PaymentMethod, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.RestaurantTable, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.RestaurantTable, error)
	CountOpenOrdersOnTable(ctx context.Context, tableID uuid.UUID) (int64, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	SetOrderPaid(ctx context.Context, arg database.SetOrderPaidParams) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx), letting the
// service bind store instances to transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	Origin          string
	StaffID         uuid.UUID
	TableID         string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	DeliveryFee     string
	PaymentMethodID string
	Note            string
	Items           []CreateOrderLineRequest
}

// CreateOrderLineRequest is a single line in the order.
type CreateOrderLineRequest struct {
	MenuItemID string
	Quantity   int32
	Note       string
}

// CreateOrderResult is the created order with its lines and, for TABLE
// orders that occupied a free table, the updated table.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
	Table *database.RestaurantTable
}

// OrderService owns the order lifecycle and its coupling to table state.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService. store runs single-statement
// operations against the pool; newStore binds stores to transactions.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore}
}

// preparedLine holds a line ready to insert, with the price snapshot taken.
type preparedLine struct {
	menuItemID uuid.UUID
	itemName   string
	unitPrice  decimal.Decimal
	quantity   int32
	note       string
}

// CreateOrder validates, snapshots prices, computes totals, and creates the
// order atomically. A TABLE order on a FREE table occupies it in the same
// transaction: both writes commit or neither does. Retries up to
// maxOrderNumberRetries times on order_number unique violations.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	origin := enum.OrderOrigin(req.Origin)
	if !origin.Valid() {
		return nil, ErrInvalidOrigin
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	switch origin {
	case enum.OriginTable:
		if req.TableID == "" {
			return nil, ErrTableRequired
		}
	case enum.OriginDelivery:
		if req.CustomerName == "" {
			return nil, ErrCustomerNameRequired
		}
		if req.CustomerPhone == "" {
			return nil, ErrCustomerPhoneRequired
		}
		if req.CustomerAddress == "" {
			return nil, ErrCustomerAddressRequired
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req, origin)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderNumberConflict checks for a unique violation (pgconn code 23505)
// on the order number.
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest, origin enum.OrderOrigin) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	nextNum, err := store.GetNextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("CMD-%03d", nextNum)

	// --- Resolve lines, snapshotting name and price at order time ---
	subtotal := decimal.Zero
	var lines []preparedLine
	for i, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		itemID, err := uuid.Parse(line.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidMenuItemID)
		}
		item, err := store.GetActiveMenuItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get menu item: %w", i, err)
		}
		unitPrice := NumericToDecimal(item.Price)
		subtotal = subtotal.Add(unitPrice.Mul(decimal.NewFromInt32(line.Quantity)))
		lines = append(lines, preparedLine{
			menuItemID: itemID,
			itemName:   item.Name,
			unitPrice:  unitPrice,
			quantity:   line.Quantity,
			note:       line.Note,
		})
	}

	// --- Delivery fee (DELIVERY origin only) ---
	deliveryFee := decimal.Zero
	if origin == enum.OriginDelivery && req.DeliveryFee != "" {
		deliveryFee, err = decimal.NewFromString(req.DeliveryFee)
		if err != nil || deliveryFee.IsNegative() {
			return nil, ErrInvalidDeliveryFee
		}
	}

	// --- Payment fee, captured from the method's current configuration.
	// Later fee edits never touch this order. ---
	paymentFee := decimal.Zero
	paymentMethodID := pgtype.UUID{}
	if req.PaymentMethodID != "" {
		pmID, err := uuid.Parse(req.PaymentMethodID)
		if err != nil {
			return nil, ErrInvalidPaymentMethodID
		}
		pm, err := store.GetActivePaymentMethod(ctx, pmID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrPaymentMethodNotFound
			}
			return nil, fmt.Errorf("get payment method: %w", err)
		}
		paymentFee = computePaymentFee(subtotal, pm.FeeType, NumericToDecimal(pm.FeeValue))
		paymentMethodID = pgtype.UUID{Bytes: pmID, Valid: true}
	}

	total := subtotal.Add(deliveryFee).Add(paymentFee)

	// --- TABLE coupling: occupy a FREE table in this same transaction ---
	tableID := pgtype.UUID{}
	var occupied *database.RestaurantTable
	if origin == enum.OriginTable {
		tid, err := uuid.Parse(req.TableID)
		if err != nil {
			return nil, ErrInvalidTableID
		}
		table, err := store.GetTable(ctx, tid)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTableNotFound
			}
			return nil, fmt.Errorf("get table: %w", err)
		}
		switch table.Status {
		case enum.TableStatusOccupied:
			// Another round for a seated table.
		case enum.TableStatusFree:
			now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
			t, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
				ID:             tid,
				Status:         enum.TableStatusOccupied,
				StaffID:        pgtype.UUID{Bytes: req.StaffID, Valid: true},
				OpenedAt:       now,
				ClosedAt:       pgtype.Timestamptz{},
				ExpectedStatus: enum.TableStatusFree,
			})
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, &ConflictError{Entity: "table", Reason: "status changed, please retry"}
				}
				return nil, fmt.Errorf("occupy table: %w", err)
			}
			occupied = &t
		default:
			// RESERVED and CLEANING tables must be seated or cleared
			// explicitly; order creation never takes that edge for them.
			return nil, &InvalidTransitionError{Entity: "table", From: string(table.Status), To: string(enum.TableStatusOccupied)}
		}
		tableID = pgtype.UUID{Bytes: tid, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber:     orderNumber,
		Origin:          origin,
		TableID:         tableID,
		StaffID:         req.StaffID,
		CustomerName:    textOrNull(req.CustomerName),
		CustomerPhone:   textOrNull(req.CustomerPhone),
		CustomerAddress: textOrNull(req.CustomerAddress),
		Subtotal:        DecimalToNumeric(subtotal),
		DeliveryFee:     DecimalToNumeric(deliveryFee),
		PaymentFee:      DecimalToNumeric(paymentFee),
		Total:           DecimalToNumeric(total),
		PaymentMethodID: paymentMethodID,
		Note:            textOrNull(req.Note),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var items []database.OrderItem
	for _, line := range lines {
		it, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:    order.ID,
			MenuItemID: line.menuItemID,
			ItemName:   line.itemName,
			UnitPrice:  DecimalToNumeric(line.unitPrice),
			Quantity:   line.quantity,
			Note:       textOrNull(line.note),
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, it)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: items, Table: occupied}, nil
}

// computePaymentFee applies the method's surcharge to the subtotal.
// PERCENTAGE fees are rounded half-up to 2 decimal places here, once.
func computePaymentFee(subtotal decimal.Decimal, feeType enum.FeeType, feeValue decimal.Decimal) decimal.Decimal {
	if feeType == enum.FeeTypePercentage {
		return subtotal.Mul(feeValue).Div(decimal.NewFromInt(100)).Round(2)
	}
	return feeValue
}

// UpdateStatus moves an order along the lifecycle graph with a CAS write.
// Re-requesting the current status is a no-op. CANCELLED goes through
// Cancel so the table-release policy applies.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, next enum.OrderStatus) (database.Order, error) {
	current, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	if current.Status == next {
		return current, nil
	}
	if next == enum.OrderStatusCancelled {
		return s.Cancel(ctx, orderID)
	}
	if err := ValidateOrderTransition(current.Status, next); err != nil {
		return database.Order{}, err
	}

	updated, err := s.store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:             orderID,
		Status:         next,
		ExpectedStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, &ConflictError{Entity: "order", Reason: "status changed, please retry"}
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}
	return updated, nil
}

// Cancel moves an order to CANCELLED. Policy: when the cancelled order was
// the last open order on an OCCUPIED table, the table is released to FREE
// in the same transaction. Cancelling an already-cancelled order is a no-op.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	cancelled, err := store.CancelOrder(ctx, orderID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, fmt.Errorf("cancel order: %w", err)
		}
		// No rows: missing, or already terminal. Fetch to tell them apart.
		current, fetchErr := store.GetOrder(ctx, orderID)
		if fetchErr != nil {
			if errors.Is(fetchErr, pgx.ErrNoRows) {
				return database.Order{}, ErrNotFound
			}
			return database.Order{}, fmt.Errorf("get order: %w", fetchErr)
		}
		if current.Status == enum.OrderStatusCancelled {
			return current, nil
		}
		return database.Order{}, &InvalidTransitionError{
			Entity: "order",
			From:   string(current.Status),
			To:     string(enum.OrderStatusCancelled),
		}
	}

	if cancelled.TableID.Valid {
		tableID := uuid.UUID(cancelled.TableID.Bytes)
		open, err := store.CountOpenOrdersOnTable(ctx, tableID)
		if err != nil {
			return database.Order{}, fmt.Errorf("count open orders: %w", err)
		}
		if open == 0 {
			table, err := store.GetTable(ctx, tableID)
			if err != nil {
				return database.Order{}, fmt.Errorf("get table: %w", err)
			}
			if table.Status == enum.TableStatusOccupied {
				_, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
					ID:             tableID,
					Status:         enum.TableStatusFree,
					StaffID:        pgtype.UUID{},
					OpenedAt:       table.OpenedAt,
					ClosedAt:       pgtype.Timestamptz{Time: time.Now(), Valid: true},
					ExpectedStatus: enum.TableStatusOccupied,
				})
				if err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						return database.Order{}, &ConflictError{Entity: "table", Reason: "status changed, please retry"}
					}
					return database.Order{}, fmt.Errorf("release table: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return cancelled, nil
}

// SetPaid sets the paid flag manually, in either direction. Independent of
// status except for the DELIVERED side effect handled by UpdateStatus.
func (s *OrderService) SetPaid(ctx context.Context, orderID uuid.UUID, paid bool) (database.Order, error) {
	order, err := s.store.SetOrderPaid(ctx, database.SetOrderPaidParams{ID: orderID, Paid: paid})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrNotFound
		}
		return database.Order{}, fmt.Errorf("set order paid: %w", err)
	}
	return order, nil
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
