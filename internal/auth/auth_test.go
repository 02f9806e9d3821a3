package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// --- PIN tests ---

func TestHashAndVerifyPin(t *testing.T) {
	hash, err := HashPin("4321")
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	if hash == "4321" {
		t.Fatal("pin must not be stored in the clear")
	}

	if err := VerifyPin(hash, "4321"); err != nil {
		t.Fatalf("verify correct pin: %v", err)
	}
	if err := VerifyPin(hash, "0000"); !errors.Is(err, ErrPinMismatch) {
		t.Fatalf("expected ErrPinMismatch, got: %v", err)
	}
}

func TestHashPin_TooShort(t *testing.T) {
	if _, err := HashPin("123"); !errors.Is(err, ErrPinTooShort) {
		t.Fatalf("expected ErrPinTooShort, got: %v", err)
	}
}

// --- Token tests ---

func signedToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestParseClaims(t *testing.T) {
	userID := uuid.New()
	restaurantID := uuid.New()
	tokenStr := signedToken(t, &Claims{
		UserID:       userID,
		RestaurantID: restaurantID,
		Role:         "CASHIER",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := ParseClaims(tokenStr)
	if err != nil {
		t.Fatalf("parse claims: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("user id: got %s, want %s", claims.UserID, userID)
	}
	if claims.RestaurantID != restaurantID {
		t.Errorf("restaurant id: got %s, want %s", claims.RestaurantID, restaurantID)
	}
	if claims.Role != "CASHIER" {
		t.Errorf("role: got %s", claims.Role)
	}
}

func TestParseClaims_Garbage(t *testing.T) {
	if _, err := ParseClaims("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestClaimsExpired(t *testing.T) {
	fresh := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	if fresh.Expired(time.Minute) {
		t.Fatal("fresh token reported expired")
	}

	// Within the skew window the token counts as expired so it gets
	// refreshed before dying mid-request.
	closeToExpiry := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(10 * time.Second)),
	}}
	if !closeToExpiry.Expired(time.Minute) {
		t.Fatal("token inside skew window should count as expired")
	}

	noExpiry := &Claims{}
	if noExpiry.Expired(time.Minute) {
		t.Fatal("token without expiry should never expire")
	}
}
