package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Validation errors returned by the catalog service.
var (
	ErrNameRequired      = errors.New("name is required")
	ErrInvalidPrice      = errors.New("price must be a non-negative amount")
	ErrInvalidCategoryID = errors.New("invalid category_id")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrInvalidFeeType    = errors.New("fee_type must be FIXED or PERCENTAGE")
	ErrInvalidFeeValue   = errors.New("fee_value must be a non-negative amount")
)

// CatalogStore defines the DB methods needed by the catalog service.
// Satisfied by *database.Queries.
type CatalogStore interface {
	ListCategories(ctx context.Context) ([]database.Category, error)
	CreateCategory(ctx context.Context, arg database.CreateCategoryParams) (database.Category, error)
	UpdateCategory(ctx context.Context, arg database.UpdateCategoryParams) (database.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	CountMenuItemsByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	ListActiveMenuItems(ctx context.Context, categoryID pgtype.UUID) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	DisableMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	ListPaymentMethods(ctx context.Context) ([]database.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, arg database.CreatePaymentMethodParams) (database.PaymentMethod, error)
	UpdatePaymentMethod(ctx context.Context, arg database.UpdatePaymentMethodParams) (database.PaymentMethod, error)
	DisablePaymentMethod(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// CatalogService owns categories, menu items, and payment method
// configuration, including their referential integrity rules.
type CatalogService struct {
	store CatalogStore
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

// --- Categories ---

func (s *CatalogService) ListCategories(ctx context.Context) ([]database.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string, sortOrder int32) (database.Category, error) {
	if name == "" {
		return database.Category{}, ErrNameRequired
	}
	c, err := s.store.CreateCategory(ctx, database.CreateCategoryParams{Name: name, SortOrder: sortOrder})
	if err != nil {
		return database.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name string, sortOrder int32) (database.Category, error) {
	if name == "" {
		return database.Category{}, ErrNameRequired
	}
	c, err := s.store.UpdateCategory(ctx, database.UpdateCategoryParams{ID: id, Name: name, SortOrder: sortOrder})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Category{}, ErrNotFound
		}
		return database.Category{}, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes a category outright. A category that any menu item
// references, disabled items included, cannot be deleted.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	count, err := s.store.CountMenuItemsByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count menu items: %w", err)
	}
	if count > 0 {
		return &ReferentialError{
			Entity: "category",
			Reason: fmt.Sprintf("%d menu item(s) still reference it", count),
		}
	}
	if _, err := s.store.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// --- Menu items ---

// MenuItemInput is the validated input for creating or updating a menu item.
type MenuItemInput struct {
	CategoryID  string
	Name        string
	Description string
	Price       string
}

func (s *CatalogService) parseMenuItemInput(in MenuItemInput) (uuid.UUID, decimal.Decimal, error) {
	if in.Name == "" {
		return uuid.Nil, decimal.Zero, ErrNameRequired
	}
	categoryID, err := uuid.Parse(in.CategoryID)
	if err != nil {
		return uuid.Nil, decimal.Zero, ErrInvalidCategoryID
	}
	price, err := decimal.NewFromString(in.Price)
	if err != nil || price.IsNegative() {
		return uuid.Nil, decimal.Zero, ErrInvalidPrice
	}
	return categoryID, price, nil
}

func (s *CatalogService) ListMenuItems(ctx context.Context, categoryID string) ([]database.MenuItem, error) {
	filter := pgtype.UUID{}
	if categoryID != "" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			return nil, ErrInvalidCategoryID
		}
		filter = pgtype.UUID{Bytes: id, Valid: true}
	}
	return s.store.ListActiveMenuItems(ctx, filter)
}

func (s *CatalogService) GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error) {
	m, err := s.store.GetMenuItem(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.MenuItem{}, ErrNotFound
		}
		return database.MenuItem{}, fmt.Errorf("get menu item: %w", err)
	}
	return m, nil
}

func (s *CatalogService) CreateMenuItem(ctx context.Context, in MenuItemInput) (database.MenuItem, error) {
	categoryID, price, err := s.parseMenuItemInput(in)
	if err != nil {
		return database.MenuItem{}, err
	}
	m, err := s.store.CreateMenuItem(ctx, database.CreateMenuItemParams{
		CategoryID:  categoryID,
		Name:        in.Name,
		Description: textOrNull(in.Description),
		Price:       DecimalToNumeric(price),
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return database.MenuItem{}, ErrCategoryNotFound
		}
		return database.MenuItem{}, fmt.Errorf("create menu item: %w", err)
	}
	return m, nil
}

func (s *CatalogService) UpdateMenuItem(ctx context.Context, id uuid.UUID, in MenuItemInput) (database.MenuItem, error) {
	categoryID, price, err := s.parseMenuItemInput(in)
	if err != nil {
		return database.MenuItem{}, err
	}
	m, err := s.store.UpdateMenuItem(ctx, database.UpdateMenuItemParams{
		ID:          id,
		CategoryID:  categoryID,
		Name:        in.Name,
		Description: textOrNull(in.Description),
		Price:       DecimalToNumeric(price),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.MenuItem{}, ErrNotFound
		}
		if isForeignKeyViolation(err) {
			return database.MenuItem{}, ErrCategoryNotFound
		}
		return database.MenuItem{}, fmt.Errorf("update menu item: %w", err)
	}
	return m, nil
}

// DisableMenuItem soft-disables an item. Order lines that already snapshot
// its name and price are unaffected.
func (s *CatalogService) DisableMenuItem(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.DisableMenuItem(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("disable menu item: %w", err)
	}
	return nil
}

// --- Payment methods ---

// PaymentMethodInput is the validated input for creating or updating a
// payment method.
type PaymentMethodInput struct {
	Name     string
	FeeType  string
	FeeValue string
}

func (s *CatalogService) parsePaymentMethodInput(in PaymentMethodInput) (enum.FeeType, decimal.Decimal, error) {
	if in.Name == "" {
		return "", decimal.Zero, ErrNameRequired
	}
	feeType := enum.FeeType(in.FeeType)
	if !feeType.Valid() {
		return "", decimal.Zero, ErrInvalidFeeType
	}
	feeValue, err := decimal.NewFromString(in.FeeValue)
	if err != nil || feeValue.IsNegative() {
		return "", decimal.Zero, ErrInvalidFeeValue
	}
	return feeType, feeValue, nil
}

func (s *CatalogService) ListPaymentMethods(ctx context.Context) ([]database.PaymentMethod, error) {
	return s.store.ListPaymentMethods(ctx)
}

func (s *CatalogService) CreatePaymentMethod(ctx context.Context, in PaymentMethodInput) (database.PaymentMethod, error) {
	feeType, feeValue, err := s.parsePaymentMethodInput(in)
	if err != nil {
		return database.PaymentMethod{}, err
	}
	pm, err := s.store.CreatePaymentMethod(ctx, database.CreatePaymentMethodParams{
		Name:     in.Name,
		FeeType:  feeType,
		FeeValue: DecimalToNumeric(feeValue),
	})
	if err != nil {
		return database.PaymentMethod{}, fmt.Errorf("create payment method: %w", err)
	}
	return pm, nil
}

// UpdatePaymentMethod changes the fee configuration for future orders only;
// fees already captured on existing orders keep their value.
func (s *CatalogService) UpdatePaymentMethod(ctx context.Context, id uuid.UUID, in PaymentMethodInput) (database.PaymentMethod, error) {
	feeType, feeValue, err := s.parsePaymentMethodInput(in)
	if err != nil {
		return database.PaymentMethod{}, err
	}
	pm, err := s.store.UpdatePaymentMethod(ctx, database.UpdatePaymentMethodParams{
		ID:       id,
		Name:     in.Name,
		FeeType:  feeType,
		FeeValue: DecimalToNumeric(feeValue),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.PaymentMethod{}, ErrNotFound
		}
		return database.PaymentMethod{}, fmt.Errorf("update payment method: %w", err)
	}
	return pm, nil
}

func (s *CatalogService) DisablePaymentMethod(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.DisablePaymentMethod(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("disable payment method: %w", err)
	}
	return nil
}

// isForeignKeyViolation checks for a pg foreign key violation (code 23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// IsCatalogValidationError reports whether err is one of the catalog
// service's validation errors; handlers map these to 400.
func IsCatalogValidationError(err error) bool {
	return errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrInvalidCategoryID) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrInvalidFeeType) ||
		errors.Is(err, ErrInvalidFeeValue)
}
