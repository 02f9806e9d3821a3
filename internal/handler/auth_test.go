package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/terminal/internal/api"
	"github.com/kiwari-pos/terminal/internal/handler"
	"github.com/kiwari-pos/terminal/internal/store"
)

// --- Mock authenticator ---

type mockAuthenticator struct {
	loginErr   error
	refreshErr error
}

func (m *mockAuthenticator) Login(_ context.Context, email, password string) (*api.TokenResponse, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return &api.TokenResponse{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		User:         api.User{ID: "u1", Email: email, Role: "CASHIER"},
	}, nil
}

func (m *mockAuthenticator) Refresh(_ context.Context) (*api.TokenResponse, error) {
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return &api.TokenResponse{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
}

// --- Helpers ---

func setupAuthRouter(upstream *mockAuthenticator, st store.Store) (*chi.Mux, *handler.AuthHandler) {
	h := handler.NewAuthHandler(upstream, st)
	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	h.RegisterRoutes(r)
	return r, h
}

// --- Login tests ---

func TestLogin_Success(t *testing.T) {
	router, _ := setupAuthRouter(&mockAuthenticator{}, store.NewMemoryStore())

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    "cashier@example.com",
		"password": "secret",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["access_token"] != "access-1" {
		t.Errorf("unexpected access token: %v", resp["access_token"])
	}
}

func TestLogin_MissingFields(t *testing.T) {
	router, _ := setupAuthRouter(&mockAuthenticator{}, store.NewMemoryStore())

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{"email": "x@y.z"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	upstream := &mockAuthenticator{loginErr: api.ErrUnauthorized}
	router, _ := setupAuthRouter(upstream, store.NewMemoryStore())

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    "cashier@example.com",
		"password": "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLogin_UpstreamDown(t *testing.T) {
	upstream := &mockAuthenticator{loginErr: errors.New("connection refused")}
	router, _ := setupAuthRouter(upstream, store.NewMemoryStore())

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    "cashier@example.com",
		"password": "secret",
	})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadGateway)
	}
}

// --- Lock screen tests ---

func TestLockFlow(t *testing.T) {
	router, h := setupAuthRouter(&mockAuthenticator{}, store.NewMemoryStore())

	if h.Locked() {
		t.Fatal("terminal should start unlocked without a stored pin")
	}

	// Locking without a pin is rejected.
	rr := doRequest(t, router, "POST", "/auth/lock", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("lock without pin: got %d, want %d", rr.Code, http.StatusConflict)
	}

	rr = doRequest(t, router, "POST", "/auth/pin", map[string]string{"pin": "4321"})
	if rr.Code != http.StatusOK {
		t.Fatalf("set pin: got %d, body: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, router, "POST", "/auth/lock", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("lock: got %d", rr.Code)
	}
	if !h.Locked() {
		t.Fatal("expected terminal locked")
	}

	rr = doRequest(t, router, "POST", "/auth/unlock", map[string]string{"pin": "0000"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong pin: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if !h.Locked() {
		t.Fatal("terminal must stay locked after a wrong pin")
	}

	rr = doRequest(t, router, "POST", "/auth/unlock", map[string]string{"pin": "4321"})
	if rr.Code != http.StatusOK {
		t.Fatalf("unlock: got %d", rr.Code)
	}
	if h.Locked() {
		t.Fatal("expected terminal unlocked")
	}
}

func TestSetPin_TooShort(t *testing.T) {
	router, _ := setupAuthRouter(&mockAuthenticator{}, store.NewMemoryStore())

	rr := doRequest(t, router, "POST", "/auth/pin", map[string]string{"pin": "12"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestStartsLockedWithStoredPin(t *testing.T) {
	st := store.NewMemoryStore()
	router, _ := setupAuthRouter(&mockAuthenticator{}, st)

	rr := doRequest(t, router, "POST", "/auth/pin", map[string]string{"pin": "4321"})
	if rr.Code != http.StatusOK {
		t.Fatalf("set pin: got %d", rr.Code)
	}

	// A fresh handler over the same store simulates a terminal restart.
	_, h := setupAuthRouter(&mockAuthenticator{}, st)
	if !h.Locked() {
		t.Fatal("expected terminal to start locked when a pin survives restart")
	}
}
