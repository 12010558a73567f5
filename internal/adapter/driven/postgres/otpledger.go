package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.OTPLedger = (*OTPLedger)(nil)

// OTPLedger is the PostgreSQL implementation of the OTPLedger port interface.
type OTPLedger struct {
	db *DB
}

// NewOTPLedger creates a new OTPLedger backed by the given DB.
func NewOTPLedger(db *DB) *OTPLedger {
	return &OTPLedger{db: db}
}

// Put stores the entry, replacing any existing entry for the same email.
func (l *OTPLedger) Put(ctx context.Context, entry model.OTPEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := l.db.Pool.Exec(ctx, `
		insert into otp_entries (email, code_hash, expires_at, created_at)
		values ($1, $2, $3, $4)
		on conflict (email) do update
		set code_hash = excluded.code_hash,
		    expires_at = excluded.expires_at,
		    created_at = excluded.created_at
	`, entry.Email, entry.CodeHash, entry.ExpiresAt, createdAt)
	if err != nil {
		return fmt.Errorf("put otp entry %q: %w", entry.Email, err)
	}

	return nil
}

// Get returns the entry for the email. Returns nil, nil if there is none.
func (l *OTPLedger) Get(ctx context.Context, email string) (*model.OTPEntry, error) {
	var entry model.OTPEntry
	err := l.db.Pool.QueryRow(ctx, `
		select email, code_hash, expires_at, created_at
		from otp_entries
		where email = $1
	`, email).Scan(&entry.Email, &entry.CodeHash, &entry.ExpiresAt, &entry.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get otp entry %q: %w", email, err)
	}

	entry.ExpiresAt = entry.ExpiresAt.UTC()
	entry.CreatedAt = entry.CreatedAt.UTC()

	return &entry, nil
}

// Delete removes the entry for the email. A missing entry is not an error.
func (l *OTPLedger) Delete(ctx context.Context, email string) error {
	if _, err := l.db.Pool.Exec(ctx, `delete from otp_entries where email = $1`, email); err != nil {
		return fmt.Errorf("delete otp entry %q: %w", email, err)
	}
	return nil
}

// Consume removes the entry only if it still carries codeHash.
func (l *OTPLedger) Consume(ctx context.Context, email, codeHash string) (bool, error) {
	var consumed string
	err := l.db.Pool.QueryRow(ctx, `
		delete from otp_entries
		where email = $1
		  and code_hash = $2
		returning email
	`, email, codeHash).Scan(&consumed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume otp entry %q: %w", email, err)
	}

	return true, nil
}

// PurgeExpired removes every entry with expires_at before now.
func (l *OTPLedger) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := l.db.Pool.Exec(ctx, `delete from otp_entries where expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge expired otp entries: %w", err)
	}
	return tag.RowsAffected(), nil
}
