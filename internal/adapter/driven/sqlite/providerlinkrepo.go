package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
	"github.com/ericfisherdev/clinicauth/internal/adapter/driven/sealbox"
)

// Compile-time interface satisfaction check.
var _ driven.ProviderLinkStore = (*ProviderLinkRepo)(nil)

// ProviderLinkRepo is the SQLite implementation of the ProviderLinkStore port.
// Access tokens are sealed with AES-256-GCM before write and opened after read.
// Without a key the token column stays empty.
type ProviderLinkRepo struct {
	db  *DB
	box *sealbox.Box
}

// NewProviderLinkRepo creates a new ProviderLinkRepo. box may be nil to disable
// token storage.
func NewProviderLinkRepo(db *DB, box *sealbox.Box) *ProviderLinkRepo {
	return &ProviderLinkRepo{db: db, box: box}
}

// Upsert stores or replaces the link for (Provider, Subject).
func (r *ProviderLinkRepo) Upsert(ctx context.Context, link model.ProviderLink) error {
	sealed, err := r.box.SealOptional(link.AccessToken)
	if err != nil {
		return fmt.Errorf("seal token for %s/%s: %w", link.Provider, link.Subject, err)
	}

	updatedAt := link.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	const query = `INSERT OR REPLACE INTO provider_links (provider, subject, account_id, access_token, updated_at) VALUES (?, ?, ?, ?, ?)`
	_, err = r.db.Writer.ExecContext(ctx, query, link.Provider, link.Subject, link.AccountID, sealed, formatTime(updatedAt))
	if err != nil {
		return fmt.Errorf("upsert provider link %s/%s: %w", link.Provider, link.Subject, err)
	}
	return nil
}

// Get retrieves the link for the provider identity. Returns nil, nil if none exists.
func (r *ProviderLinkRepo) Get(ctx context.Context, provider, subject string) (*model.ProviderLink, error) {
	const query = `SELECT provider, subject, account_id, access_token, updated_at FROM provider_links WHERE provider = ? AND subject = ?`

	var link model.ProviderLink
	var sealed, updatedAt string
	err := r.db.Reader.QueryRowContext(ctx, query, provider, subject).
		Scan(&link.Provider, &link.Subject, &link.AccountID, &sealed, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get provider link %s/%s: %w", provider, subject, err)
	}

	link.AccessToken, err = r.box.OpenOptional(sealed)
	if err != nil {
		return nil, fmt.Errorf("open token for %s/%s: %w", provider, subject, err)
	}

	link.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &link, nil
}
