package driven

import (
	"context"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
)

// IdentityProvider is an external OAuth provider that attests to a user's
// identity after an authorization-code exchange.
type IdentityProvider interface {
	// Name returns the provider key used in routes and links ("google", "github").
	Name() string

	// AuthCodeURL returns the consent page URL the browser is redirected to.
	AuthCodeURL(state string) string

	// Exchange trades the authorization code for a token and resolves the
	// identity behind it.
	Exchange(ctx context.Context, code string) (*model.FederatedIdentity, error)
}
