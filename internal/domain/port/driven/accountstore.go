package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
)

// ErrAccountAlreadyExists indicates an account with the same email already exists.
var ErrAccountAlreadyExists = errors.New("account already exists")

// AccountStore defines the driven port for account persistence.
// GetByEmail and GetByID return (nil, nil) when no account matches.
// Create never overwrites: it returns ErrAccountAlreadyExists when the email is taken.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
	Create(ctx context.Context, account model.Account) (model.Account, error)
}
