package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
)

// ErrInvalidSession is returned by Parse for a malformed, forged, or expired token.
var ErrInvalidSession = errors.New("invalid session token")

// SessionSigner issues and validates signed session tokens.
type SessionSigner interface {
	// Issue creates a signed session for the account.
	Issue(ctx context.Context, account model.Account) (*model.Session, error)

	// Parse validates a token and returns the session it carries.
	Parse(ctx context.Context, token string) (*model.Session, error)
}
