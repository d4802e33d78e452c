package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/comanda-pos/api/internal/auth"
	"github.com/comanda-pos/api/internal/database"
	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type mockAuthStore struct {
	getStaffByEmailFn func(ctx context.Context, email string) (database.Staff, error)
	getStaffFn        func(ctx context.Context, id uuid.UUID) (database.Staff, error)
}

func (m *mockAuthStore) GetStaffByEmail(ctx context.Context, email string) (database.Staff, error) {
	return m.getStaffByEmailFn(ctx, email)
}

func (m *mockAuthStore) GetStaff(ctx context.Context, id uuid.UUID) (database.Staff, error) {
	return m.getStaffFn(ctx, id)
}

func testStaff(t *testing.T, password string) database.Staff {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return database.Staff{
		ID:             uuid.New(),
		FullName:       "Ana Souza",
		Email:          "ana@example.com",
		AccessLevel:    enum.AccessLevelStaff,
		HashedPassword: string(hashed),
		IsActive:       true,
	}
}

func newAuthServer(store *mockAuthStore) *chi.Mux {
	r := chi.NewRouter()
	handler.NewAuthHandler(store, testSecret).RegisterRoutes(r)
	return r
}

func TestLoginSuccess(t *testing.T) {
	member := testStaff(t, "secret123")
	store := &mockAuthStore{
		getStaffByEmailFn: func(ctx context.Context, email string) (database.Staff, error) {
			if email != member.Email {
				return database.Staff{}, pgx.ErrNoRows
			}
			return member, nil
		},
	}

	body, _ := json.Marshal(map[string]string{"email": member.Email, "password": "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newAuthServer(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		Staff        struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"staff"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens in response")
	}
	if resp.Staff.ID != member.ID.String() {
		t.Errorf("staff id = %s, want %s", resp.Staff.ID, member.ID)
	}

	claims, err := auth.ValidateToken(testSecret, resp.AccessToken)
	if err != nil {
		t.Fatalf("access token does not validate: %v", err)
	}
	if claims.StaffID != member.ID {
		t.Errorf("claims staff id = %s, want %s", claims.StaffID, member.ID)
	}
	if claims.Role != string(enum.AccessLevelStaff) {
		t.Errorf("claims role = %s, want STAFF", claims.Role)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	member := testStaff(t, "secret123")
	store := &mockAuthStore{
		getStaffByEmailFn: func(ctx context.Context, email string) (database.Staff, error) {
			return member, nil
		},
	}

	body, _ := json.Marshal(map[string]string{"email": member.Email, "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newAuthServer(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	store := &mockAuthStore{
		getStaffByEmailFn: func(ctx context.Context, email string) (database.Staff, error) {
			return database.Staff{}, pgx.ErrNoRows
		},
	}

	body, _ := json.Marshal(map[string]string{"email": "nobody@example.com", "password": "x"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newAuthServer(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginMissingFields(t *testing.T) {
	store := &mockAuthStore{}

	body, _ := json.Marshal(map[string]string{"email": "ana@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newAuthServer(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRefreshSuccess(t *testing.T) {
	member := testStaff(t, "secret123")
	store := &mockAuthStore{
		getStaffFn: func(ctx context.Context, id uuid.UUID) (database.Staff, error) {
			if id != member.ID {
				return database.Staff{}, pgx.ErrNoRows
			}
			return member, nil
		},
	}

	refreshToken, err := auth.GenerateRefreshToken(testSecret, member.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"refresh_token": refreshToken})
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newAuthServer(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	store := &mockAuthStore{}

	body, _ := json.Marshal(map[string]string{"refresh_token": "not-a-token"})
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newAuthServer(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRefreshDisabledStaff(t *testing.T) {
	member := testStaff(t, "secret123")
	member.IsActive = false
	store := &mockAuthStore{
		getStaffFn: func(ctx context.Context, id uuid.UUID) (database.Staff, error) {
			return member, nil
		},
	}

	refreshToken, err := auth.GenerateRefreshToken(testSecret, member.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"refresh_token": refreshToken})
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newAuthServer(store).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
