package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// Verification failure modes. Handlers map these onto the HTTP error
// taxonomy; anything else is a persistence failure.
var (
	ErrNotFound    = errors.New("no pending verification for this user")
	ErrExpired     = errors.New("verification code has expired")
	ErrInvalidCode = errors.New("verification code does not match")
	ErrExhausted   = errors.New("too many failed verification attempts")
	ErrEmailTaken  = errors.New("user is already registered in the system. Please proceed to Log In")
)

const codeDigits = 6

var codeMax = big.NewInt(1000000)

// GenerateCode returns a fixed-length numeric verification code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeMax)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
