// Package token implements the SessionSigner port with HS256 JSON Web Tokens.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SessionSigner = (*Signer)(nil)

// Claims are the JWT claims carried by a session token. The account ID is the
// registered subject.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Signer issues and validates HS256 session tokens.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a Signer. The secret must be kept private; anyone holding
// it can mint sessions.
func NewSigner(secret []byte, issuer string, ttl time.Duration) *Signer {
	return &Signer{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating tokens.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

// TTL returns how long issued sessions stay valid.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed session for the account.
func (s *Signer) Issue(_ context.Context, account model.Account) (*model.Session, error) {
	issuedAt := s.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   account.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: account.Email,
		Name:  account.DisplayName,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session for %q: %w", account.ID, err)
	}

	return &model.Session{
		Token:     signed,
		AccountID: account.ID,
		Email:     account.Email,
		Name:      account.DisplayName,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Parse validates the token signature, issuer, and expiry and returns the
// session it carries. All validation failures wrap driven.ErrInvalidSession.
func (s *Signer) Parse(_ context.Context, tokenString string) (*model.Session, error) {
	claims := &Claims{}

	tok, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", driven.ErrInvalidSession, err)
	}
	if !tok.Valid || claims.Subject == "" {
		return nil, driven.ErrInvalidSession
	}

	session := &model.Session{
		Token:     tokenString,
		AccountID: claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}

	return session, nil
}

// IsExpired reports whether err was caused by an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
