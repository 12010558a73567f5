package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// OTPRequest asks for a code to be sent to Email. IsSignUp selects the
// account-existence precondition: sign-up requires no account, login requires one.
type OTPRequest struct {
	Email       string
	DisplayName string
	IsSignUp    bool
}

// IssuanceService generates, stores, and delivers one-time codes.
type IssuanceService struct {
	accounts driven.AccountStore
	ledger   driven.OTPLedger
	notifier driven.Notifier
	now      func() time.Time
	generate func() (string, error)
}

// NewIssuanceService creates a new IssuanceService with the required dependencies.
func NewIssuanceService(accounts driven.AccountStore, ledger driven.OTPLedger, notifier driven.Notifier) *IssuanceService {
	return &IssuanceService{
		accounts: accounts,
		ledger:   ledger,
		notifier: notifier,
		now:      time.Now,
		generate: GenerateOTPCode,
	}
}

// WithClock replaces the time source used to compute expiry.
func (s *IssuanceService) WithClock(now func() time.Time) *IssuanceService {
	s.now = now
	return s
}

// RequestOTP checks the sign-up/login precondition, replaces any outstanding
// code for the email with a fresh one, and delivers it out of band.
func (s *IssuanceService) RequestOTP(ctx context.Context, req OTPRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return ErrEmailRequired
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("look up account: %w", err)
	}

	switch {
	case req.IsSignUp && account != nil:
		return ErrAccountExists
	case !req.IsSignUp && account == nil:
		return ErrAccountNotFound
	}

	code, err := s.generate()
	if err != nil {
		return err
	}

	hash, err := HashOTPCode(code)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	entry := model.OTPEntry{
		Email:     email,
		CodeHash:  hash,
		ExpiresAt: now.Add(model.OTPTTL),
		CreatedAt: now,
	}
	if err := s.ledger.Put(ctx, entry); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.notifier.Send(ctx, email, code); err != nil {
		return fmt.Errorf("deliver otp to %q: %w", email, err)
	}

	slog.Info("otp issued", "email", email, "sign_up", req.IsSignUp, "expires_at", entry.ExpiresAt)
	return nil
}
