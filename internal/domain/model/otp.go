package model

import "time"

const (
	// OTPTTL is the fixed validity window of an issued code.
	OTPTTL = 10 * time.Minute

	// OTPCodeMin and OTPCodeMax bound the 6-digit numeric code (inclusive).
	OTPCodeMin = 100000
	OTPCodeMax = 999999

	// OTPHashCost is the bcrypt cost used to hash issued codes.
	OTPHashCost = 10
)

// OTPEntry is the single outstanding one-time code for an email. Only the
// hash of the code is stored. Entries are replaced, never updated in place.
type OTPEntry struct {
	Email     string
	CodeHash  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the entry is past its expiry at the given instant.
// An entry is still valid at exactly ExpiresAt.
func (e OTPEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
