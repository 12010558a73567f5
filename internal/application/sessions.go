package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// SessionService resolves session tokens back to accounts.
type SessionService struct {
	signer   driven.SessionSigner
	accounts driven.AccountStore
}

// NewSessionService creates a new SessionService with the required dependencies.
func NewSessionService(signer driven.SessionSigner, accounts driven.AccountStore) *SessionService {
	return &SessionService{signer: signer, accounts: accounts}
}

// Resolve validates token and loads its account. Invalid or expired tokens and
// tokens for accounts that no longer exist are ErrUnauthorized.
func (s *SessionService) Resolve(ctx context.Context, token string) (*model.Account, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	session, err := s.signer.Parse(ctx, token)
	if err != nil {
		slog.Debug("session rejected", "error", err)
		return nil, ErrUnauthorized
	}

	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		return nil, fmt.Errorf("load session account: %w", err)
	}
	if account == nil {
		return nil, ErrUnauthorized
	}

	return account, nil
}
