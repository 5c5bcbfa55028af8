package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/inamate/shapedraw/backend-go/internal/db"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := db.OpenSQLite(db.MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	s := NewService(store, "test-secret")
	s.bcryptCost = bcrypt.MinCost
	return s
}

func TestRegisterLoginValidate(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	reg, err := s.Register(ctx, "ada@example.com", "correct horse", "Ada")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !strings.HasPrefix(reg.User.ID, "user_") {
		t.Errorf("expected user_ prefixed id, got %s", reg.User.ID)
	}

	userID, err := s.ValidateToken(reg.Token)
	if err != nil || userID != reg.User.ID {
		t.Fatalf("ValidateToken = %q, %v", userID, err)
	}

	login, err := s.Login(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.User.ID != reg.User.ID {
		t.Errorf("login returned a different user %+v", login.User)
	}

	if _, err := s.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := s.Login(ctx, "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if _, err := s.Register(ctx, "ada@example.com", "another pass", "Ada 2"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := s.GetUser(ctx, "user_missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	s := newTestService(t)
	other := NewService(nil, "other-secret")
	token, err := other.issueToken("user_123")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ValidateToken(token); err == nil {
		t.Fatal("token signed with another secret must not validate")
	}
}

func TestHandlers(t *testing.T) {
	s := newTestService(t)
	h := NewHandler(s)

	post := func(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec
	}

	rec := post(h.Register, `{"email":"bo@example.com","password":"longenough","displayName":"Bo"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var result AuthResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Token == "" {
		t.Error("expected token")
	}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    string
		want    int
	}{
		{"short password", h.Register, `{"email":"x@example.com","password":"short","displayName":"X"}`, http.StatusBadRequest},
		{"missing fields", h.Register, `{"email":"x@example.com"}`, http.StatusBadRequest},
		{"duplicate", h.Register, `{"email":"bo@example.com","password":"longenough","displayName":"Bo"}`, http.StatusConflict},
		{"bad json", h.Login, `{`, http.StatusBadRequest},
		{"wrong password", h.Login, `{"email":"bo@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"login ok", h.Login, `{"email":"bo@example.com","password":"longenough"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := post(tt.handler, tt.body); rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestService(t)
	token, err := s.issueToken("user_42")
	if err != nil {
		t.Fatal(err)
	}

	var seen string
	protected := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nonsense", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/drawings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if tt.want != http.StatusUnauthorized {
				return
			}
			if rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected a WWW-Authenticate challenge")
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] != "unauthorized" {
				t.Errorf("unexpected body %v, %v", body, err)
			}
		})
	}
	if seen != "user_42" {
		t.Errorf("expected user_42 in context, got %q", seen)
	}
}

func TestMeAndEmailNormalization(t *testing.T) {
	s := newTestService(t)
	h := NewHandler(s)

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"  Cy@Example.COM ","password":"longenough","displayName":"Cy"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var result AuthResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.User.Email != "cy@example.com" {
		t.Errorf("expected normalized email, got %q", result.User.Email)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+result.Token)
	rec = httptest.NewRecorder()
	s.AuthMiddleware(http.HandlerFunc(h.Me)).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var me User
	if err := json.NewDecoder(rec.Body).Decode(&me); err != nil {
		t.Fatal(err)
	}
	if me.ID != result.User.ID {
		t.Errorf("expected %s, got %s", result.User.ID, me.ID)
	}
}
