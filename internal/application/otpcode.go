package application

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
)

// codeSpan is the number of distinct codes in [OTPCodeMin, OTPCodeMax].
var codeSpan = big.NewInt(model.OTPCodeMax - model.OTPCodeMin + 1)

// GenerateOTPCode returns a 6-digit code drawn uniformly from
// [OTPCodeMin, OTPCodeMax] using crypto/rand.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", fmt.Errorf("generate otp code: %w", err)
	}
	return strconv.FormatInt(model.OTPCodeMin+n.Int64(), 10), nil
}

// HashOTPCode returns the salted bcrypt hash of code.
func HashOTPCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), model.OTPHashCost)
	if err != nil {
		return "", fmt.Errorf("hash otp code: %w", err)
	}
	return string(hash), nil
}

// OTPCodeMatches reports whether code matches the stored hash. A malformed
// hash never matches.
func OTPCodeMatches(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
