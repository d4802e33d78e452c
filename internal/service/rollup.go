package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

const topProductsLimit = 10

// RollupStore defines the DB methods needed by the rollup service.
// Satisfied by *database.Queries.
type RollupStore interface {
	ListOrdersInWindow(ctx context.Context, arg database.ListOrdersInWindowParams) ([]database.Order, error)
	ListItemSalesInWindow(ctx context.Context, arg database.ListOrdersInWindowParams) ([]database.ItemSaleRow, error)
	GetPaymentSummary(ctx context.Context, arg database.ListOrdersInWindowParams) ([]database.PaymentSummaryRow, error)
}

// RollupService computes sales reports over a half-open time window
// [start, end). The store returns rows in a stable order and the
// aggregation here is deterministic, so the same window always yields the
// same report.
type RollupService struct {
	store RollupStore
}

func NewRollupService(store RollupStore) *RollupService {
	return &RollupService{store: store}
}

// DaySales is one calendar day's sales rollup. Cancelled orders count
// toward CancelledCount only; GrossSales sums total over paid orders, and
// AverageTicket divides it by the non-cancelled order count.
type DaySales struct {
	Day            string          `json:"day"`
	OrderCount     int             `json:"order_count"`
	CancelledCount int             `json:"cancelled_count"`
	GrossSales     decimal.Decimal `json:"gross_sales"`
	AverageTicket  decimal.Decimal `json:"average_ticket"`
	ByOrigin       map[string]int  `json:"by_origin"`
}

// TopProduct is one row of the best-sellers report.
type TopProduct struct {
	ItemName string          `json:"item_name"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// PaymentSummaryLine is one payment method's share of paid orders.
type PaymentSummaryLine struct {
	MethodName string          `json:"method_name"`
	OrderCount int64           `json:"order_count"`
	Total      decimal.Decimal `json:"total"`
}

// DailySales aggregates the orders created in [start, end), one row per
// calendar day in the window's location, in chronological order. Days
// without orders produce no row; an empty window yields an empty slice,
// not an error.
func (s *RollupService) DailySales(ctx context.Context, start, end time.Time) ([]DaySales, error) {
	orders, err := s.store.ListOrdersInWindow(ctx, database.ListOrdersInWindowParams{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	// The store returns rows ordered by created_at, so first-seen day
	// order is chronological.
	byDay := map[string]int{}
	var days []DaySales
	for _, o := range orders {
		key := o.CreatedAt.In(start.Location()).Format("2006-01-02")
		idx, ok := byDay[key]
		if !ok {
			idx = len(days)
			byDay[key] = idx
			days = append(days, DaySales{
				Day:           key,
				GrossSales:    decimal.Zero,
				AverageTicket: decimal.Zero,
				ByOrigin:      map[string]int{},
			})
		}
		day := &days[idx]
		if o.Status == enum.OrderStatusCancelled {
			day.CancelledCount++
			continue
		}
		day.OrderCount++
		day.ByOrigin[string(o.Origin)]++
		if o.Paid {
			day.GrossSales = day.GrossSales.Add(NumericToDecimal(o.Total))
		}
	}
	for i := range days {
		if days[i].OrderCount > 0 {
			days[i].AverageTicket = days[i].GrossSales.
				Div(decimal.NewFromInt(int64(days[i].OrderCount))).Round(2)
		}
	}
	return days, nil
}

// TopProducts returns the ten best-selling items in [start, end) by
// quantity. The sort is stable over the store's first-seen order, so ties
// keep the order the items first sold in.
func (s *RollupService) TopProducts(ctx context.Context, start, end time.Time) ([]TopProduct, error) {
	sales, err := s.store.ListItemSalesInWindow(ctx, database.ListOrdersInWindowParams{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("list item sales: %w", err)
	}

	byName := map[string]int{}
	var products []TopProduct
	for _, row := range sales {
		revenue := NumericToDecimal(row.UnitPrice).Mul(decimal.NewFromInt32(row.Quantity))
		if idx, ok := byName[row.ItemName]; ok {
			products[idx].Quantity += int64(row.Quantity)
			products[idx].Revenue = products[idx].Revenue.Add(revenue)
			continue
		}
		byName[row.ItemName] = len(products)
		products = append(products, TopProduct{
			ItemName: row.ItemName,
			Quantity: int64(row.Quantity),
			Revenue:  revenue,
		})
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Quantity > products[j].Quantity
	})
	if len(products) > topProductsLimit {
		products = products[:topProductsLimit]
	}
	return products, nil
}

// PaymentSummary breaks paid, non-cancelled orders in [start, end) down by
// payment method.
func (s *RollupService) PaymentSummary(ctx context.Context, start, end time.Time) ([]PaymentSummaryLine, error) {
	rows, err := s.store.GetPaymentSummary(ctx, database.ListOrdersInWindowParams{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("get payment summary: %w", err)
	}
	lines := make([]PaymentSummaryLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, PaymentSummaryLine{
			MethodName: r.MethodName,
			OrderCount: r.OrderCount,
			Total:      NumericToDecimal(r.Total),
		})
	}
	return lines, nil
}
