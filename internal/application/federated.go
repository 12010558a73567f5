package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// FederatedService signs users in through external OAuth providers. A
// provider-attested email is proof of ownership, so the account is created on
// first login without an OTP step.
type FederatedService struct {
	providers map[string]driven.IdentityProvider
	accounts  driven.AccountStore
	links     driven.ProviderLinkStore
	signer    driven.SessionSigner
	now       func() time.Time
}

// NewFederatedService creates a FederatedService for the given providers.
func NewFederatedService(
	accounts driven.AccountStore,
	links driven.ProviderLinkStore,
	signer driven.SessionSigner,
	providers ...driven.IdentityProvider,
) *FederatedService {
	byName := make(map[string]driven.IdentityProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	return &FederatedService{
		providers: byName,
		accounts:  accounts,
		links:     links,
		signer:    signer,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for account and link timestamps.
func (s *FederatedService) WithClock(now func() time.Time) *FederatedService {
	s.now = now
	return s
}

// Providers returns the names of the configured providers, sorted.
func (s *FederatedService) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AuthCodeURL returns the provider consent URL carrying state.
func (s *FederatedService) AuthCodeURL(provider, state string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	return p.AuthCodeURL(state), nil
}

// Authenticate exchanges the authorization code, resolves or creates the
// account for the attested email, records the provider link, and issues a
// session. Every provider-side failure is reported as ErrAuthProvider.
func (s *FederatedService) Authenticate(ctx context.Context, cred model.FederatedCredential) (*model.Session, error) {
	p, ok := s.providers[cred.Provider]
	if !ok {
		return nil, ErrUnknownProvider
	}
	if cred.Code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", ErrAuthProvider)
	}

	identity, err := p.Exchange(ctx, cred.Code)
	if err != nil {
		slog.Warn("federated exchange failed", "provider", cred.Provider, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrAuthProvider, err)
	}

	email := strings.TrimSpace(identity.Email)
	if email == "" || !identity.EmailVerified {
		slog.Warn("federated identity has no verified email", "provider", cred.Provider, "subject", identity.Subject)
		return nil, fmt.Errorf("%w: no verified email", ErrAuthProvider)
	}

	now := s.now().UTC()

	account, err := s.findOrCreate(ctx, email, identity.DisplayName, now)
	if err != nil {
		return nil, err
	}

	link := model.ProviderLink{
		AccountID:   account.ID,
		Provider:    identity.Provider,
		Subject:     identity.Subject,
		AccessToken: identity.AccessToken,
		UpdatedAt:   now,
	}
	if err := s.links.Upsert(ctx, link); err != nil {
		return nil, fmt.Errorf("record provider link: %w", err)
	}

	session, err := s.signer.Issue(ctx, *account)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	slog.Info("federated login", "provider", identity.Provider, "account_id", account.ID)
	return session, nil
}

func (s *FederatedService) findOrCreate(ctx context.Context, email, displayName string, now time.Time) (*model.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up account: %w", err)
	}
	if account != nil {
		return account, nil
	}

	created, err := s.accounts.Create(ctx, model.Account{
		Email:       email,
		DisplayName: displayName,
		VerifiedAt:  now,
		CreatedAt:   now,
	})
	if errors.Is(err, driven.ErrAccountAlreadyExists) {
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
