package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
)

// mockRollupStore implements RollupStore over fixed row sets.
type mockRollupStore struct {
	orders  []database.Order
	sales   []database.ItemSaleRow
	summary []database.PaymentSummaryRow

	capturedWindow database.ListOrdersInWindowParams
}

func (m *mockRollupStore) ListOrdersInWindow(ctx context.Context, arg database.ListOrdersInWindowParams) ([]database.Order, error) {
	m.capturedWindow = arg
	return m.orders, nil
}
func (m *mockRollupStore) ListItemSalesInWindow(ctx context.Context, arg database.ListOrdersInWindowParams) ([]database.ItemSaleRow, error) {
	m.capturedWindow = arg
	return m.sales, nil
}
func (m *mockRollupStore) GetPaymentSummary(ctx context.Context, arg database.ListOrdersInWindowParams) ([]database.PaymentSummaryRow, error) {
	m.capturedWindow = arg
	return m.summary, nil
}

func rollupOrder(status enum.OrderStatus, origin enum.OrderOrigin, total string, paid bool, createdAt time.Time) database.Order {
	return database.Order{
		ID:        uuid.New(),
		Status:    status,
		Origin:    origin,
		Total:     makeNumeric(total),
		Paid:      paid,
		CreatedAt: createdAt,
	}
}

func TestDailySales_EmptyWindow(t *testing.T) {
	svc := NewRollupService(&mockRollupStore{})

	days, err := svc.DailySales(context.Background(), time.Now().Add(-24*time.Hour), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 0 {
		t.Errorf("expected no day rows, got %d", len(days))
	}
}

func TestDailySales_ExcludesCancelled(t *testing.T) {
	at := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	store := &mockRollupStore{
		orders: []database.Order{
			rollupOrder(enum.OrderStatusDelivered, enum.OriginTable, "30.00", true, at),
			rollupOrder(enum.OrderStatusCancelled, enum.OriginTable, "99.00", false, at),
			rollupOrder(enum.OrderStatusPending, enum.OriginDelivery, "20.00", false, at),
			rollupOrder(enum.OrderStatusDelivered, enum.OriginCounter, "10.00", true, at),
		},
	}
	svc := NewRollupService(store)

	days, err := svc.DailySales(context.Background(), at.Truncate(24*time.Hour), at.Truncate(24*time.Hour).AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("expected 1 day row, got %d", len(days))
	}
	day := days[0]
	if day.Day != "2026-08-27" {
		t.Errorf("day: got %s, want 2026-08-27", day.Day)
	}
	if day.OrderCount != 3 {
		t.Errorf("order count: got %d, want 3", day.OrderCount)
	}
	if day.CancelledCount != 1 {
		t.Errorf("cancelled count: got %d, want 1", day.CancelledCount)
	}
	// Paid 30 + 10; cancelled 99 and unpaid 20 excluded
	if day.GrossSales.StringFixed(2) != "40.00" {
		t.Errorf("gross sales: got %v, want 40.00", day.GrossSales)
	}
	// 40 / 3 non-cancelled orders
	if day.AverageTicket.StringFixed(2) != "13.33" {
		t.Errorf("average ticket: got %v, want 13.33", day.AverageTicket)
	}
	if day.ByOrigin["TABLE"] != 1 || day.ByOrigin["DELIVERY"] != 1 || day.ByOrigin["COUNTER"] != 1 {
		t.Errorf("by_origin: got %v", day.ByOrigin)
	}
}

func TestDailySales_UnpaidOrderHasNoRevenue(t *testing.T) {
	at := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	store := &mockRollupStore{
		orders: []database.Order{
			rollupOrder(enum.OrderStatusDelivered, enum.OriginCounter, "30.00", true, at),
			rollupOrder(enum.OrderStatusPending, enum.OriginCounter, "20.00", false, at),
		},
	}
	svc := NewRollupService(store)

	days, err := svc.DailySales(context.Background(), at.Truncate(24*time.Hour), at.Truncate(24*time.Hour).AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("expected 1 day row, got %d", len(days))
	}
	if days[0].GrossSales.StringFixed(2) != "30.00" {
		t.Errorf("gross sales: got %v, want 30.00 (pending order is not revenue yet)", days[0].GrossSales)
	}
	if days[0].OrderCount != 2 {
		t.Errorf("order count: got %d, want 2", days[0].OrderCount)
	}
}

func TestDailySales_GroupsByCalendarDay(t *testing.T) {
	day1 := time.Date(2026, 8, 26, 23, 50, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 27, 0, 10, 0, 0, time.UTC)
	store := &mockRollupStore{
		orders: []database.Order{
			rollupOrder(enum.OrderStatusDelivered, enum.OriginCounter, "10.00", true, day1),
			rollupOrder(enum.OrderStatusDelivered, enum.OriginCounter, "20.00", true, day2),
			rollupOrder(enum.OrderStatusCancelled, enum.OriginTable, "5.00", false, day2),
		},
	}
	svc := NewRollupService(store)

	days, err := svc.DailySales(context.Background(),
		time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 day rows, got %d", len(days))
	}
	if days[0].Day != "2026-08-26" || days[1].Day != "2026-08-27" {
		t.Errorf("day order: got [%s, %s], want chronological", days[0].Day, days[1].Day)
	}
	if days[0].GrossSales.StringFixed(2) != "10.00" {
		t.Errorf("day 1 gross sales: got %v, want 10.00", days[0].GrossSales)
	}
	if days[1].GrossSales.StringFixed(2) != "20.00" {
		t.Errorf("day 2 gross sales: got %v, want 20.00", days[1].GrossSales)
	}
	if days[1].CancelledCount != 1 {
		t.Errorf("day 2 cancelled count: got %d, want 1", days[1].CancelledCount)
	}
}

func TestDailySales_AverageRounding(t *testing.T) {
	at := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	store := &mockRollupStore{
		orders: []database.Order{
			rollupOrder(enum.OrderStatusDelivered, enum.OriginCounter, "10.00", true, at),
			rollupOrder(enum.OrderStatusDelivered, enum.OriginCounter, "10.00", true, at),
			rollupOrder(enum.OrderStatusDelivered, enum.OriginCounter, "10.01", true, at),
		},
	}
	svc := NewRollupService(store)

	days, err := svc.DailySales(context.Background(), at.Truncate(24*time.Hour), at.Truncate(24*time.Hour).AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("expected 1 day row, got %d", len(days))
	}
	// 30.01 / 3 = 10.003333... rounds half-up to 10.00
	if days[0].AverageTicket.StringFixed(2) != "10.00" {
		t.Errorf("average ticket: got %v, want 10.00", days[0].AverageTicket)
	}
}

func TestDailySales_WindowPassedThrough(t *testing.T) {
	store := &mockRollupStore{}
	svc := NewRollupService(store)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	if _, err := svc.DailySales(context.Background(), start, end); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.capturedWindow.Start.Equal(start) || !store.capturedWindow.End.Equal(end) {
		t.Errorf("window: got [%v, %v), want [%v, %v)",
			store.capturedWindow.Start, store.capturedWindow.End, start, end)
	}
}

func TestTopProducts_AggregatesByName(t *testing.T) {
	store := &mockRollupStore{
		sales: []database.ItemSaleRow{
			{ItemName: "Moqueca", UnitPrice: makeNumeric("18.00"), Quantity: 2},
			{ItemName: "Caipirinha", UnitPrice: makeNumeric("10.00"), Quantity: 1},
			{ItemName: "Moqueca", UnitPrice: makeNumeric("18.00"), Quantity: 3},
		},
	}
	svc := NewRollupService(store)

	products, err := svc.TopProducts(context.Background(), time.Now().Add(-24*time.Hour), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].ItemName != "Moqueca" || products[0].Quantity != 5 {
		t.Errorf("top product: got %s x%d, want Moqueca x5", products[0].ItemName, products[0].Quantity)
	}
	if products[0].Revenue.StringFixed(2) != "90.00" {
		t.Errorf("top revenue: got %v, want 90.00", products[0].Revenue)
	}
}

func TestTopProducts_TiesKeepFirstSeenOrder(t *testing.T) {
	store := &mockRollupStore{
		sales: []database.ItemSaleRow{
			{ItemName: "Pastel", UnitPrice: makeNumeric("8.00"), Quantity: 2},
			{ItemName: "Coxinha", UnitPrice: makeNumeric("6.00"), Quantity: 2},
		},
	}
	svc := NewRollupService(store)

	products, err := svc.TopProducts(context.Background(), time.Now().Add(-24*time.Hour), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if products[0].ItemName != "Pastel" || products[1].ItemName != "Coxinha" {
		t.Errorf("tie order: got [%s, %s], want [Pastel, Coxinha]",
			products[0].ItemName, products[1].ItemName)
	}
}

func TestTopProducts_CapsAtTen(t *testing.T) {
	var sales []database.ItemSaleRow
	for i := 0; i < 15; i++ {
		sales = append(sales, database.ItemSaleRow{
			ItemName:  fmt.Sprintf("Item %02d", i),
			UnitPrice: makeNumeric("5.00"),
			Quantity:  int32(15 - i),
		})
	}
	svc := NewRollupService(&mockRollupStore{sales: sales})

	products, err := svc.TopProducts(context.Background(), time.Now().Add(-24*time.Hour), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 10 {
		t.Fatalf("expected 10 products, got %d", len(products))
	}
	if products[0].ItemName != "Item 00" || products[0].Quantity != 15 {
		t.Errorf("top product: got %s x%d, want Item 00 x15", products[0].ItemName, products[0].Quantity)
	}
}

func TestPaymentSummary(t *testing.T) {
	store := &mockRollupStore{
		summary: []database.PaymentSummaryRow{
			{MethodName: "Cash", OrderCount: 2, Total: makeNumeric("45.00")},
			{MethodName: "Credit", OrderCount: 1, Total: makeNumeric("52.61")},
		},
	}
	svc := NewRollupService(store)

	lines, err := svc.PaymentSummary(context.Background(), time.Now().Add(-24*time.Hour), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].MethodName != "Cash" || lines[0].OrderCount != 2 {
		t.Errorf("line 0: got %+v", lines[0])
	}
	if lines[1].Total.StringFixed(2) != "52.61" {
		t.Errorf("credit total: got %v, want 52.61", lines[1].Total)
	}
}

func TestPaymentSummary_Empty(t *testing.T) {
	svc := NewRollupService(&mockRollupStore{})
	lines, err := svc.PaymentSummary(context.Background(), time.Now().Add(-24*time.Hour), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected empty summary, got %d lines", len(lines))
	}
}
