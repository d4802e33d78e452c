// Package enum defines the closed value sets used across the API.
// Each set is a named string type so transition code can switch over it
// exhaustively; raw strings from the wire are checked with Valid before use.
package enum

// OrderStatus is the order lifecycle state (CHECK constrained in DB).
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// TableStatus is the seating state of a table (CHECK constrained in DB).
type TableStatus string

const (
	TableStatusFree     TableStatus = "FREE"
	TableStatusOccupied TableStatus = "OCCUPIED"
	TableStatusReserved TableStatus = "RESERVED"
	TableStatusCleaning TableStatus = "CLEANING"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableStatusFree, TableStatusOccupied, TableStatusReserved, TableStatusCleaning:
		return true
	}
	return false
}

// OrderOrigin is the channel an order was placed through.
type OrderOrigin string

const (
	OriginTable    OrderOrigin = "TABLE"
	OriginDelivery OrderOrigin = "DELIVERY"
	OriginCounter  OrderOrigin = "COUNTER"
)

func (o OrderOrigin) Valid() bool {
	switch o {
	case OriginTable, OriginDelivery, OriginCounter:
		return true
	}
	return false
}

// FeeType is how a payment method's surcharge is computed.
type FeeType string

const (
	FeeTypeFixed      FeeType = "FIXED"
	FeeTypePercentage FeeType = "PERCENTAGE"
)

func (f FeeType) Valid() bool {
	return f == FeeTypeFixed || f == FeeTypePercentage
}

// AccessLevel is a staff member's permission tier.
type AccessLevel string

const (
	AccessLevelAdmin AccessLevel = "ADMIN"
	AccessLevelStaff AccessLevel = "STAFF"
)

func (a AccessLevel) Valid() bool {
	return a == AccessLevelAdmin || a == AccessLevelStaff
}
