package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccountStore = (*AccountRepo)(nil)

// AccountRepo is the PostgreSQL implementation of the AccountStore port interface.
type AccountRepo struct {
	db *DB
}

// NewAccountRepo creates a new AccountRepo backed by the given DB.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

const accountColumns = `id::text, email, display_name, verified_at, created_at`

// Create inserts a new account. Returns ErrAccountAlreadyExists if the email is taken.
func (r *AccountRepo) Create(ctx context.Context, account model.Account) (model.Account, error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	var verifiedAt *time.Time
	if !account.VerifiedAt.IsZero() {
		verifiedAt = &account.VerifiedAt
	}

	row := r.db.Pool.QueryRow(ctx, `
		insert into accounts (id, email, display_name, verified_at, created_at)
		values ($1::uuid, $2, $3, $4, $5)
		returning `+accountColumns,
		account.ID, account.Email, account.DisplayName, verifiedAt, account.CreatedAt,
	)

	created, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, fmt.Errorf("create account %q: %w", account.Email, driven.ErrAccountAlreadyExists)
		}
		return model.Account{}, fmt.Errorf("create account %q: %w", account.Email, err)
	}

	return *created, nil
}

// GetByEmail retrieves an account by exact email. Returns nil, nil if absent.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := r.db.Pool.QueryRow(ctx, `select `+accountColumns+` from accounts where email = $1`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account %q: %w", email, err)
	}

	return account, nil
}

// GetByID retrieves an account by ID. Returns nil, nil if absent or if id is not a UUID.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	row := r.db.Pool.QueryRow(ctx, `select `+accountColumns+` from accounts where id = $1::uuid`, id)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by id %q: %w", id, err)
	}

	return account, nil
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var account model.Account
	var verifiedAt *time.Time

	if err := row.Scan(&account.ID, &account.Email, &account.DisplayName, &verifiedAt, &account.CreatedAt); err != nil {
		return nil, err
	}

	if verifiedAt != nil {
		account.VerifiedAt = verifiedAt.UTC()
	}
	account.CreatedAt = account.CreatedAt.UTC()

	return &account, nil
}
