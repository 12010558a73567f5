package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
)

// Authenticator routes a credential to the verifier for its variant.
type Authenticator struct {
	otp       *VerificationService
	federated *FederatedService
}

// NewAuthenticator creates an Authenticator over the two credential paths.
func NewAuthenticator(otp *VerificationService, federated *FederatedService) *Authenticator {
	return &Authenticator{otp: otp, federated: federated}
}

// Authenticate verifies cred and returns the issued session.
func (a *Authenticator) Authenticate(ctx context.Context, cred model.Credential) (*model.Session, error) {
	switch c := cred.(type) {
	case model.OTPCredential:
		return a.otp.VerifyOTP(ctx, c)
	case *model.OTPCredential:
		return a.otp.VerifyOTP(ctx, *c)
	case model.FederatedCredential:
		return a.federated.Authenticate(ctx, c)
	case *model.FederatedCredential:
		return a.federated.Authenticate(ctx, *c)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedCredential, cred)
	}
}
