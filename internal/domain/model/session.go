package model

import "time"

// Session is an authenticated session for an Account. It is carried by a
// signed token and is never persisted.
type Session struct {
	Token     string
	AccountID string
	Email     string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
