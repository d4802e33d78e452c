package service

import "github.com/comanda-pos/api/internal/enum"

// orderTransitions defines the legal order status graph. Key is the current
// status, value is the set of statuses it may move to. DELIVERED and
// CANCELLED are terminal and have no entry.
var orderTransitions = map[enum.OrderStatus][]enum.OrderStatus{
	enum.OrderStatusPending:   {enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, enum.OrderStatusCancelled},
	enum.OrderStatusReady:     {enum.OrderStatusDelivered, enum.OrderStatusCancelled},
}

// tableTransitions defines the legal table status graph. RESERVED→OCCUPIED
// is listed here because seating a reservation is an explicit operation;
// order creation never takes that edge implicitly.
var tableTransitions = map[enum.TableStatus][]enum.TableStatus{
	enum.TableStatusFree:     {enum.TableStatusOccupied, enum.TableStatusReserved},
	enum.TableStatusOccupied: {enum.TableStatusFree, enum.TableStatusCleaning},
	enum.TableStatusReserved: {enum.TableStatusOccupied, enum.TableStatusFree},
	enum.TableStatusCleaning: {enum.TableStatusFree},
}

// ValidateOrderTransition returns nil when current→next is a legal edge.
// Re-requesting the current status is the caller's no-op case, not an error
// here, so callers must check equality before calling.
func ValidateOrderTransition(current, next enum.OrderStatus) error {
	for _, s := range orderTransitions[current] {
		if s == next {
			return nil
		}
	}
	return &InvalidTransitionError{Entity: "order", From: string(current), To: string(next)}
}

// ValidateTableTransition returns nil when current→next is a legal edge.
func ValidateTableTransition(current, next enum.TableStatus) error {
	for _, s := range tableTransitions[current] {
		if s == next {
			return nil
		}
	}
	return &InvalidTransitionError{Entity: "table", From: string(current), To: string(next)}
}
