package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// VerificationService checks submitted one-time codes and issues sessions.
//
// Delete policy: an entry is removed only by a successful match (single use)
// or once it has expired. A wrong code leaves the entry in place so the user
// can retry until expiry.
type VerificationService struct {
	accounts driven.AccountStore
	ledger   driven.OTPLedger
	signer   driven.SessionSigner
	now      func() time.Time
}

// NewVerificationService creates a new VerificationService with the required dependencies.
func NewVerificationService(accounts driven.AccountStore, ledger driven.OTPLedger, signer driven.SessionSigner) *VerificationService {
	return &VerificationService{
		accounts: accounts,
		ledger:   ledger,
		signer:   signer,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for expiry checks.
func (s *VerificationService) WithClock(now func() time.Time) *VerificationService {
	s.now = now
	return s
}

// VerifyOTP validates the code for the email, consumes it, resolves or
// provisions the account, and issues a session.
func (s *VerificationService) VerifyOTP(ctx context.Context, cred model.OTPCredential) (*model.Session, error) {
	email := strings.TrimSpace(cred.Email)
	code := strings.TrimSpace(cred.Code)
	if email == "" || code == "" {
		return nil, ErrCredentialsRequired
	}

	entry, err := s.ledger.Get(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load otp: %w", err)
	}

	now := s.now().UTC()
	if entry == nil {
		return nil, ErrOTPExpiredOrInvalid
	}
	if entry.Expired(now) {
		if err := s.ledger.Delete(ctx, email); err != nil {
			slog.Warn("failed to purge expired otp", "email", email, "error", err)
		}
		return nil, ErrOTPExpiredOrInvalid
	}

	if !OTPCodeMatches(entry.CodeHash, code) {
		return nil, ErrOTPInvalid
	}

	// Only the caller whose conditional delete succeeds may proceed.
	consumed, err := s.ledger.Consume(ctx, email, entry.CodeHash)
	if err != nil {
		return nil, fmt.Errorf("consume otp: %w", err)
	}
	if !consumed {
		return nil, ErrOTPExpiredOrInvalid
	}

	account, err := s.resolveAccount(ctx, email, cred, now)
	if err != nil {
		return nil, err
	}

	session, err := s.signer.Issue(ctx, *account)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	slog.Info("otp verified", "account_id", account.ID, "sign_up", cred.IsSignUp)
	return session, nil
}

func (s *VerificationService) resolveAccount(ctx context.Context, email string, cred model.OTPCredential, now time.Time) (*model.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up account: %w", err)
	}
	if account != nil {
		return account, nil
	}
	if !cred.IsSignUp {
		return nil, ErrAccountNotFound
	}

	created, err := s.accounts.Create(ctx, model.Account{
		Email:       email,
		DisplayName: strings.TrimSpace(cred.DisplayName),
		VerifiedAt:  now,
		CreatedAt:   now,
	})
	if errors.Is(err, driven.ErrAccountAlreadyExists) {
		// Lost a race with a concurrent sign-up for the same email.
		account, err = s.accounts.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("look up account: %w", err)
		}
		if account == nil {
			return nil, fmt.Errorf("account %q vanished after conflict", email)
		}
		return account, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	return &created, nil
}
