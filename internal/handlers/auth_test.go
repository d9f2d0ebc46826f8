package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"foodgram/internal/db/dbtest"
	"foodgram/internal/media"
	"foodgram/models"
)

func withTestSessionManager(t *testing.T) (*scs.SessionManager, func()) {
	t.Helper()
	original := sessionManager
	sm := scs.New()
	sessionManager = sm
	return sm, func() {
		sessionManager = original
	}
}

// withTestEnvironment configures the handlers against a fresh sqlite
// database, a session manager and a temporary media store.
func withTestEnvironment(t *testing.T) (*scs.SessionManager, *gorm.DB) {
	t.Helper()
	originalSM, originalDB := sessionManager, database
	originalWriter, originalMemberships, originalShopping, originalAdmin := recipeWriter, memberships, shoppingList, adminQueries

	sm := scs.New()
	db := dbtest.Open(t)
	Configure(sm, db, media.NewStore(t.TempDir()))

	t.Cleanup(func() {
		sessionManager, database = originalSM, originalDB
		recipeWriter, memberships, shoppingList, adminQueries = originalWriter, originalMemberships, originalShopping, originalAdmin
	})
	return sm, db
}

func loadSession(t *testing.T, sm *scs.SessionManager, req *http.Request) *http.Request {
	t.Helper()
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	return req.WithContext(ctx)
}

func authenticateRequest(t *testing.T, sm *scs.SessionManager, req *http.Request, userID uint) *http.Request {
	t.Helper()
	req = loadSession(t, sm, req)
	sm.Put(req.Context(), sessionAuthenticatedKey, true)
	sm.Put(req.Context(), sessionUserIDKey, int(userID))
	return req
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func newJSONRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestActiveSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if ActiveSession(req) {
		t.Fatal("expected inactive session when manager is nil")
	}

	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req = loadSession(t, sm, req)
	sm.Put(req.Context(), sessionAuthenticatedKey, true)
	sm.Put(req.Context(), sessionUserIDKey, 42)

	if !ActiveSession(req) {
		t.Fatal("expected active session when flags are set")
	}
}

func TestCurrentUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := currentUserID(req); ok {
		t.Fatal("expected currentUserID to fail without session manager")
	}

	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req = loadSession(t, sm, req)
	if _, ok := currentUserID(req); ok {
		t.Fatal("expected false when user id not set")
	}

	sm.Put(req.Context(), sessionUserIDKey, 7)
	id, ok := currentUserID(req)
	if !ok || id != 7 {
		t.Fatalf("expected user id 7, got %d (ok=%t)", id, ok)
	}
}

func TestEstablishSession(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req := loadSession(t, sm, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

	user := &models.User{ID: 3, Email: "user@example.com", Username: "cook"}
	if err := establishSession(req, user); err != nil {
		t.Fatalf("establishSession returned error: %v", err)
	}

	if !sm.GetBool(req.Context(), sessionAuthenticatedKey) {
		t.Fatal("expected session authenticated flag to be true")
	}
	if got := sm.GetInt(req.Context(), sessionUserIDKey); got != 3 {
		t.Fatalf("expected session user id 3, got %d", got)
	}
	if got := sm.GetString(req.Context(), sessionUserEmailKey); got != "user@example.com" {
		t.Fatalf("unexpected email %q", got)
	}
	if got := sm.GetString(req.Context(), sessionUserNameKey); got != "cook" {
		t.Fatalf("unexpected name %q", got)
	}
}

func TestEstablishSessionWithoutManager(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	if err := establishSession(req, &models.User{}); err == nil {
		t.Fatal("expected error when session manager is nil")
	}
}

func TestCreateUser(t *testing.T) {
	_, db := withTestEnvironment(t)

	req := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	user, err := createUser(req, "Example@Email.com", "  cook  ", " Ann ", "Lee", "password123")
	if err != nil {
		t.Fatalf("createUser returned error: %v", err)
	}
	if user.Email != "example@email.com" {
		t.Fatalf("expected email to be lowercased, got %q", user.Email)
	}
	if user.Username != "cook" || user.FirstName != "Ann" {
		t.Fatalf("expected trimmed names, got %+v", user)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")); err != nil {
		t.Fatalf("password hash does not match original: %v", err)
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", "example@email.com").Count(&count).Error; err != nil || count != 1 {
		t.Fatalf("expected user persisted, count=%d err=%v", count, err)
	}
}

func TestCreateUserWithoutDatabase(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	if _, err := createUser(req, "test@example.com", "cook", "A", "B", "password"); !errors.Is(err, gorm.ErrInvalidDB) {
		t.Fatalf("expected ErrInvalidDB, got %v", err)
	}
}

func TestFindUserByEmail(t *testing.T) {
	withTestEnvironment(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := findUserByEmail(req, "missing@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for missing user, got %v", err)
	}

	if _, err := createUser(req, "user@example.com", "cook", "A", "B", "password123"); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	user, err := findUserByEmail(req, "USER@example.com")
	if err != nil {
		t.Fatalf("findUserByEmail returned error: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Fatalf("expected lowercase email, got %q", user.Email)
	}
}

func TestLogin(t *testing.T) {
	sm, _ := withTestEnvironment(t)

	seed := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	user, err := createUser(seed, "user@example.com", "cook", "A", "B", "password123")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	tests := []struct {
		name     string
		payload  map[string]string
		wantCode int
		wantAuth bool
	}{
		{"valid credentials", map[string]string{"email": "USER@example.com", "password": "password123"}, http.StatusOK, true},
		{"wrong password", map[string]string{"email": "user@example.com", "password": "nope"}, http.StatusBadRequest, false},
		{"unknown email", map[string]string{"email": "other@example.com", "password": "password123"}, http.StatusBadRequest, false},
		{"missing password", map[string]string{"email": "user@example.com"}, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		req := loadSession(t, sm, newJSONRequest(t, http.MethodPost, "/api/auth/login", tt.payload))
		w := httptest.NewRecorder()
		Login(w, req)

		if w.Code != tt.wantCode {
			t.Fatalf("%s: expected status %d, got %d (%s)", tt.name, tt.wantCode, w.Code, w.Body.String())
		}
		if got := ActiveSession(req); got != tt.wantAuth {
			t.Fatalf("%s: expected active session %t, got %t", tt.name, tt.wantAuth, got)
		}
		if tt.wantAuth {
			body := decodeBody[map[string]any](t, w)
			if body["id"] != float64(user.ID) {
				t.Fatalf("%s: expected user id in response, got %v", tt.name, body)
			}
		}
	}
}

func TestLogout(t *testing.T) {
	sm, _ := withTestEnvironment(t)

	req := authenticateRequest(t, sm, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), 1)
	w := httptest.NewRecorder()
	Logout(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if ActiveSession(req) {
		t.Fatal("expected session to be destroyed")
	}
}

func TestRequireAuthentication(t *testing.T) {
	sm, _ := withTestEnvironment(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := RequireAuthentication(next)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, loadSession(t, sm, httptest.NewRequest(http.MethodGet, "/api/users/me", nil)))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous request, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, authenticateRequest(t, sm, httptest.NewRequest(http.MethodGet, "/api/users/me", nil), 5))
	if w.Code != http.StatusTeapot {
		t.Fatalf("expected wrapped handler to run, got %d", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	sm, db := withTestEnvironment(t)

	member := dbtest.User(t, db, "member")
	root := dbtest.User(t, db, "root")
	if err := db.Model(root).Update("is_admin", true).Error; err != nil {
		t.Fatalf("promote admin: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := RequireAdmin(next)

	tests := []struct {
		name   string
		userID uint
		want   int
	}{
		{"anonymous", 0, http.StatusUnauthorized},
		{"member", member.ID, http.StatusForbidden},
		{"admin", root.ID, http.StatusTeapot},
		{"stale session", 9999, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := loadSession(t, sm, httptest.NewRequest(http.MethodGet, "/admin/recipes", nil))
		if tt.userID != 0 {
			req = authenticateRequest(t, sm, req, tt.userID)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, w.Code)
		}
	}
}
