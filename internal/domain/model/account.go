package model

import "time"

// Account is a patient account keyed by email. Accounts are created on a
// successful sign-up verification or on a first federated login and are never
// mutated by the authentication flow afterwards.
type Account struct {
	ID          string
	Email       string
	DisplayName string
	VerifiedAt  time.Time
	CreatedAt   time.Time
}

// IsVerified reports whether the account's email ownership has been proven.
func (a Account) IsVerified() bool {
	return !a.VerifiedAt.IsZero()
}
