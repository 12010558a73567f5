package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ericfisherdev/clinicauth/internal/adapter/driven/sealbox"
	"github.com/ericfisherdev/clinicauth/internal/domain/model"
	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProviderLinkStore = (*ProviderLinkRepo)(nil)

// ProviderLinkRepo is the PostgreSQL implementation of the ProviderLinkStore port.
type ProviderLinkRepo struct {
	db  *DB
	box *sealbox.Box
}

// NewProviderLinkRepo creates a new ProviderLinkRepo. box may be nil to disable token storage.
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

	_, err = r.db.Pool.Exec(ctx, `
		insert into provider_links (provider, subject, account_id, access_token, updated_at)
		values ($1, $2, $3::uuid, $4, $5)
		on conflict (provider, subject) do update
		set account_id = excluded.account_id,
		    access_token = excluded.access_token,
		    updated_at = excluded.updated_at
	`, link.Provider, link.Subject, link.AccountID, sealed, updatedAt)
	if err != nil {
		return fmt.Errorf("upsert provider link %s/%s: %w", link.Provider, link.Subject, err)
	}
	return nil
}

// Get retrieves the link for the provider identity. Returns nil, nil if none exists.
func (r *ProviderLinkRepo) Get(ctx context.Context, provider, subject string) (*model.ProviderLink, error) {
	var link model.ProviderLink
	var sealed string

	err := r.db.Pool.QueryRow(ctx, `
		select provider, subject, account_id::text, access_token, updated_at
		from provider_links
		where provider = $1 and subject = $2
	`, provider, subject).Scan(&link.Provider, &link.Subject, &link.AccountID, &sealed, &link.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get provider link %s/%s: %w", provider, subject, err)
	}

	link.AccessToken, err = r.box.OpenOptional(sealed)
	if err != nil {
		return nil, fmt.Errorf("open token for %s/%s: %w", provider, subject, err)
	}
	link.UpdatedAt = link.UpdatedAt.UTC()

	return &link, nil
}
