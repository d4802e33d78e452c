package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/comanda-pos/api/internal/service"
	"github.com/go-chi/chi/v5"
)

// ReportServicer defines the service methods needed by report handlers.
// Satisfied by *service.RollupService.
type ReportServicer interface {
	DailySales(ctx context.Context, start, end time.Time) ([]service.DaySales, error)
	TopProducts(ctx context.Context, start, end time.Time) ([]service.TopProduct, error)
	PaymentSummary(ctx context.Context, start, end time.Time) ([]service.PaymentSummaryLine, error)
}

// ReportHandler handles sales report endpoints.
type ReportHandler struct {
	svc ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(svc ReportServicer) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily-sales", h.DailySales)
	r.Get("/top-products", h.TopProducts)
	r.Get("/payment-summary", h.PaymentSummary)
}

// reportWindow resolves the date / start_date / end_date query params into a
// half-open [start, end) window. date takes a single day; start_date and
// end_date take an inclusive range; no params default to today.
func reportWindow(r *http.Request) (time.Time, time.Time, bool) {
	q := r.URL.Query()

	if d := q.Get("date"); d != "" {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		return day, day.AddDate(0, 0, 1), true
	}

	// Default to today's midnight in the server's location, not UTC
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	if d := q.Get("start_date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		start = t
	}
	if d := q.Get("end_date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		end = t.AddDate(0, 0, 1)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// DailySales handles GET /reports/daily-sales.
func (h *ReportHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	start, end, ok := reportWindow(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date range"})
		return
	}

	days, err := h.svc.DailySales(r.Context(), start, end)
	if err != nil {
		log.Printf("ERROR: daily sales report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if days == nil {
		days = []service.DaySales{}
	}
	writeJSON(w, http.StatusOK, days)
}

// TopProducts handles GET /reports/top-products.
func (h *ReportHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	start, end, ok := reportWindow(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date range"})
		return
	}

	products, err := h.svc.TopProducts(r.Context(), start, end)
	if err != nil {
		log.Printf("ERROR: top products report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if products == nil {
		products = []service.TopProduct{}
	}
	writeJSON(w, http.StatusOK, products)
}

// PaymentSummary handles GET /reports/payment-summary.
func (h *ReportHandler) PaymentSummary(w http.ResponseWriter, r *http.Request) {
	start, end, ok := reportWindow(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date range"})
		return
	}

	summary, err := h.svc.PaymentSummary(r.Context(), start, end)
	if err != nil {
		log.Printf("ERROR: payment summary report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
