package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
)

// OTPLedger defines the driven port for outstanding one-time codes. There is at
// most one entry per email.
type OTPLedger interface {
	// Put stores the entry, replacing any existing entry for the same email.
	Put(ctx context.Context, entry model.OTPEntry) error

	// Get returns the entry for the email, or (nil, nil) if there is none.
	// Expired entries are returned as-is; callers decide what expiry means.
	Get(ctx context.Context, email string) (*model.OTPEntry, error)

	// Delete removes the entry for the email. Deleting a missing entry is not an error.
	Delete(ctx context.Context, email string) error

	// Consume atomically removes the entry for the email only if it still holds
	// codeHash. It reports whether an entry was removed.
	Consume(ctx context.Context, email, codeHash string) (bool, error)

	// PurgeExpired removes every entry whose expiry is before now and
	// returns how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
