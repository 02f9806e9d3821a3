package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Errors returned by PIN handling.
var (
	ErrPinTooShort = errors.New("pin must be at least 4 digits")
	ErrPinMismatch = errors.New("incorrect pin")
)

const minPinLength = 4

// HashPin hashes a lock-screen PIN for storage in the local store.
func HashPin(pin string) (string, error) {
	if len(pin) < minPinLength {
		return "", ErrPinTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(hash), nil
}

// VerifyPin checks a PIN against its stored hash.
func VerifyPin(hash, pin string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		return ErrPinMismatch
	}
	return nil
}
