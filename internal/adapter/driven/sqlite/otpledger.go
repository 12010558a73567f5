package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.OTPLedger = (*OTPLedger)(nil)

// OTPLedger is the SQLite implementation of the OTPLedger port interface.
// All reads go through the writer connection: a Put followed by a Get in the
// same request must observe the write.
type OTPLedger struct {
	db *DB
}

// NewOTPLedger creates a new OTPLedger backed by the given DB.
func NewOTPLedger(db *DB) *OTPLedger {
	return &OTPLedger{db: db}
}

// Put stores the entry, replacing any existing entry for the same email.
func (l *OTPLedger) Put(ctx context.Context, entry model.OTPEntry) error {
	const query = `INSERT OR REPLACE INTO otp_entries (email, code_hash, expires_at, created_at) VALUES (?, ?, ?, ?)`

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := l.db.Writer.ExecContext(ctx, query,
		entry.Email,
		entry.CodeHash,
		formatTime(entry.ExpiresAt),
		formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("put otp entry %q: %w", entry.Email, err)
	}

	return nil
}

// Get returns the entry for the email. Returns nil, nil if there is none.
func (l *OTPLedger) Get(ctx context.Context, email string) (*model.OTPEntry, error) {
	const query = `SELECT email, code_hash, expires_at, created_at FROM otp_entries WHERE email = ?`

	var entry model.OTPEntry
	var expiresAt, createdAt string

	err := l.db.Writer.QueryRowContext(ctx, query, email).Scan(&entry.Email, &entry.CodeHash, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get otp entry %q: %w", email, err)
	}

	entry.ExpiresAt, err = parseTime(expiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	entry.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &entry, nil
}

// Delete removes the entry for the email. A missing entry is not an error.
func (l *OTPLedger) Delete(ctx context.Context, email string) error {
	const query = `DELETE FROM otp_entries WHERE email = ?`

	if _, err := l.db.Writer.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("delete otp entry %q: %w", email, err)
	}

	return nil
}

// Consume removes the entry only if it still carries codeHash. The single
// conditional DELETE makes check-and-remove atomic.
func (l *OTPLedger) Consume(ctx context.Context, email, codeHash string) (bool, error) {
	const query = `DELETE FROM otp_entries WHERE email = ? AND code_hash = ?`

	result, err := l.db.Writer.ExecContext(ctx, query, email, codeHash)
	if err != nil {
		return false, fmt.Errorf("consume otp entry %q: %w", email, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}

	return rows == 1, nil
}

// PurgeExpired removes every entry with expires_at before now.
func (l *OTPLedger) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM otp_entries WHERE expires_at < ?`

	result, err := l.db.Writer.ExecContext(ctx, query, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("purge expired otp entries: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}

	return rows, nil
}
