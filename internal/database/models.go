package database

import (
	"time"

	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Category struct {
	ID        uuid.UUID
	Name      string
	SortOrder int32
	IsActive  bool
	CreatedAt time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type RestaurantTable struct {
	ID        uuid.UUID
	Number    int32
	Status    enum.TableStatus
	StaffID   pgtype.UUID
	OpenedAt  pgtype.Timestamptz
	ClosedAt  pgtype.Timestamptz
	Note      pgtype.Text
	UpdatedAt time.Time
}

type Staff struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	Phone          pgtype.Text
	JobRole        pgtype.Text
	AccessLevel    enum.AccessLevel
	HashedPassword string
	IsActive       bool
	CreatedAt      time.Time
}

type PaymentMethod struct {
	ID        uuid.UUID
	Name      string
	FeeType   enum.FeeType
	FeeValue  pgtype.Numeric
	IsActive  bool
	CreatedAt time.Time
}

type Order struct {
	ID              uuid.UUID
	OrderNumber     string
	Origin          enum.OrderOrigin
	Status          enum.OrderStatus
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
	Paid            bool
	Note            pgtype.Text
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	ItemName   string
	UnitPrice  pgtype.Numeric
	Quantity   int32
	Note       pgtype.Text
}
