package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/handler"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type mockCatalogService struct {
	listCategoriesFn func(ctx context.Context) ([]database.Category, error)
	createCategoryFn func(ctx context.Context, name string, sortOrder int32) (database.Category, error)
	updateCategoryFn func(ctx context.Context, id uuid.UUID, name string, sortOrder int32) (database.Category, error)
	deleteCategoryFn func(ctx context.Context, id uuid.UUID) error

	listMenuItemsFn   func(ctx context.Context, categoryID string) ([]database.MenuItem, error)
	getMenuItemFn     func(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	createMenuItemFn  func(ctx context.Context, in service.MenuItemInput) (database.MenuItem, error)
	updateMenuItemFn  func(ctx context.Context, id uuid.UUID, in service.MenuItemInput) (database.MenuItem, error)
	disableMenuItemFn func(ctx context.Context, id uuid.UUID) error

	listPaymentMethodsFn   func(ctx context.Context) ([]database.PaymentMethod, error)
	createPaymentMethodFn  func(ctx context.Context, in service.PaymentMethodInput) (database.PaymentMethod, error)
	updatePaymentMethodFn  func(ctx context.Context, id uuid.UUID, in service.PaymentMethodInput) (database.PaymentMethod, error)
	disablePaymentMethodFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockCatalogService) ListCategories(ctx context.Context) ([]database.Category, error) {
	return m.listCategoriesFn(ctx)
}

func (m *mockCatalogService) CreateCategory(ctx context.Context, name string, sortOrder int32) (database.Category, error) {
	return m.createCategoryFn(ctx, name, sortOrder)
}

func (m *mockCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name string, sortOrder int32) (database.Category, error) {
	return m.updateCategoryFn(ctx, id, name, sortOrder)
}

func (m *mockCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return m.deleteCategoryFn(ctx, id)
}

func (m *mockCatalogService) ListMenuItems(ctx context.Context, categoryID string) ([]database.MenuItem, error) {
	return m.listMenuItemsFn(ctx, categoryID)
}

func (m *mockCatalogService) GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	return m.getMenuItemFn(ctx, id)
}

func (m *mockCatalogService) CreateMenuItem(ctx context.Context, in service.MenuItemInput) (database.MenuItem, error) {
	return m.createMenuItemFn(ctx, in)
}

func (m *mockCatalogService) UpdateMenuItem(ctx context.Context, id uuid.UUID, in service.MenuItemInput) (database.MenuItem, error) {
	return m.updateMenuItemFn(ctx, id, in)
}

func (m *mockCatalogService) DisableMenuItem(ctx context.Context, id uuid.UUID) error {
	return m.disableMenuItemFn(ctx, id)
}

func (m *mockCatalogService) ListPaymentMethods(ctx context.Context) ([]database.PaymentMethod, error) {
	return m.listPaymentMethodsFn(ctx)
}

func (m *mockCatalogService) CreatePaymentMethod(ctx context.Context, in service.PaymentMethodInput) (database.PaymentMethod, error) {
	return m.createPaymentMethodFn(ctx, in)
}

func (m *mockCatalogService) UpdatePaymentMethod(ctx context.Context, id uuid.UUID, in service.PaymentMethodInput) (database.PaymentMethod, error) {
	return m.updatePaymentMethodFn(ctx, id, in)
}

func (m *mockCatalogService) DisablePaymentMethod(ctx context.Context, id uuid.UUID) error {
	return m.disablePaymentMethodFn(ctx, id)
}

func newCatalogServer(svc handler.CatalogServicer, hub *mockHub) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/categories", handler.NewCategoryHandler(svc, hub).RegisterRoutes)
	r.Route("/menu-items", handler.NewMenuItemHandler(svc, hub).RegisterRoutes)
	r.Route("/payment-methods", handler.NewPaymentMethodHandler(svc, hub).RegisterRoutes)
	return r
}

func TestDeleteCategoryReferenced(t *testing.T) {
	svc := &mockCatalogService{
		deleteCategoryFn: func(ctx context.Context, id uuid.UUID) error {
			return &service.ReferentialError{Entity: "category", Reason: "3 menu item(s) still reference it"}
		},
	}
	hub := &mockHub{}

	req := httptest.NewRequest(http.MethodDelete, "/categories/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()
	newCatalogServer(svc, hub).ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(hub.events) != 0 {
		t.Errorf("no broadcast expected on failure, got %+v", hub.events)
	}
}

func TestDeleteCategoryEmpty(t *testing.T) {
	svc := &mockCatalogService{
		deleteCategoryFn: func(ctx context.Context, id uuid.UUID) error {
			return nil
		},
	}
	hub := &mockHub{}

	req := httptest.NewRequest(http.MethodDelete, "/categories/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()
	newCatalogServer(svc, hub).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(hub.events) != 1 || hub.events[0].topic != ws.TopicMenu {
		t.Errorf("unexpected broadcasts: %+v", hub.events)
	}
}

func TestCreateMenuItemEndpoint(t *testing.T) {
	categoryID := uuid.New()
	hub := &mockHub{}
	svc := &mockCatalogService{
		createMenuItemFn: func(ctx context.Context, in service.MenuItemInput) (database.MenuItem, error) {
			if in.Price != "25.00" {
				t.Errorf("price passed through = %s, want 25.00", in.Price)
			}
			return database.MenuItem{
				ID:         uuid.New(),
				CategoryID: categoryID,
				Name:       in.Name,
				Price:      makeNumeric(t, in.Price),
				IsActive:   true,
			}, nil
		},
	}

	body, _ := json.Marshal(map[string]string{
		"category_id": categoryID.String(),
		"name":        "Feijoada",
		"price":       "25.00",
	})
	req := httptest.NewRequest(http.MethodPost, "/menu-items", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newCatalogServer(svc, hub).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Name  string `json:"name"`
		Price string `json:"price"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Price != "25.00" {
		t.Errorf("price = %s, want 25.00", resp.Price)
	}
	if len(hub.events) != 1 || hub.events[0].event.Type != "menu_item.created" {
		t.Errorf("unexpected broadcasts: %+v", hub.events)
	}
}

func TestCreateMenuItemUnknownCategory(t *testing.T) {
	svc := &mockCatalogService{
		createMenuItemFn: func(ctx context.Context, in service.MenuItemInput) (database.MenuItem, error) {
			return database.MenuItem{}, service.ErrCategoryNotFound
		},
	}

	body, _ := json.Marshal(map[string]string{
		"category_id": uuid.New().String(),
		"name":        "Feijoada",
		"price":       "25.00",
	})
	req := httptest.NewRequest(http.MethodPost, "/menu-items", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newCatalogServer(svc, &mockHub{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListMenuItemsByCategory(t *testing.T) {
	categoryID := uuid.New()
	var gotFilter string
	svc := &mockCatalogService{
		listMenuItemsFn: func(ctx context.Context, cid string) ([]database.MenuItem, error) {
			gotFilter = cid
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/menu-items?category_id="+categoryID.String(), nil)
	rec := httptest.NewRecorder()
	newCatalogServer(svc, &mockHub{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotFilter != categoryID.String() {
		t.Errorf("filter = %s, want %s", gotFilter, categoryID)
	}
}

func TestDisableMenuItemNotFound(t *testing.T) {
	svc := &mockCatalogService{
		disableMenuItemFn: func(ctx context.Context, id uuid.UUID) error {
			return service.ErrNotFound
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/menu-items/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()
	newCatalogServer(svc, &mockHub{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreatePaymentMethodEndpoint(t *testing.T) {
	hub := &mockHub{}
	svc := &mockCatalogService{
		createPaymentMethodFn: func(ctx context.Context, in service.PaymentMethodInput) (database.PaymentMethod, error) {
			return database.PaymentMethod{
				ID:       uuid.New(),
				Name:     in.Name,
				FeeType:  "PERCENTAGE",
				FeeValue: makeNumeric(t, "3.50"),
				IsActive: true,
			}, nil
		},
	}

	body, _ := json.Marshal(map[string]string{
		"name":      "Credit Card",
		"fee_type":  "PERCENTAGE",
		"fee_value": "3.50",
	})
	req := httptest.NewRequest(http.MethodPost, "/payment-methods", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newCatalogServer(svc, hub).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		FeeType  string `json:"fee_type"`
		FeeValue string `json:"fee_value"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.FeeType != "PERCENTAGE" || resp.FeeValue != "3.50" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCreatePaymentMethodInvalidFeeType(t *testing.T) {
	svc := &mockCatalogService{
		createPaymentMethodFn: func(ctx context.Context, in service.PaymentMethodInput) (database.PaymentMethod, error) {
			return database.PaymentMethod{}, service.ErrInvalidFeeType
		},
	}

	body, _ := json.Marshal(map[string]string{
		"name":      "Credit Card",
		"fee_type":  "SURCHARGE",
		"fee_value": "3.50",
	})
	req := httptest.NewRequest(http.MethodPost, "/payment-methods", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newCatalogServer(svc, &mockHub{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
