package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by the token encryption helpers when
// CLINICAUTH_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set CLINICAUTH_SECRET_KEY")

// ProviderLinkStore defines the driven port for federated identity links.
// The adapter layer encrypts access tokens at rest when it holds a key and
// drops them otherwise; this interface operates on plaintext values.
type ProviderLinkStore interface {
	// Upsert stores or replaces the link for (Provider, Subject).
	Upsert(ctx context.Context, link model.ProviderLink) error

	// Get returns the link for the provider identity, or (nil, nil) if none exists.
	Get(ctx context.Context, provider, subject string) (*model.ProviderLink, error)
}
