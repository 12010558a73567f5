package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/clinicauth/internal/domain/model"
	"github.com/ericfisherdev/clinicauth/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccountStore = (*AccountRepo)(nil)

// AccountRepo is the SQLite implementation of the AccountStore port interface.
type AccountRepo struct {
	db *DB
}

// NewAccountRepo creates a new AccountRepo backed by the given DB.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

const accountColumns = `id, email, display_name, verified_at, created_at`

// Create inserts a new account. ID and CreatedAt are generated when unset.
// Returns ErrAccountAlreadyExists if the email is already registered.
func (r *AccountRepo) Create(ctx context.Context, account model.Account) (model.Account, error) {
	const query = `INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?)`

	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.DisplayName,
		formatTime(account.VerifiedAt),
		formatTime(account.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return model.Account{}, fmt.Errorf("create account %q: %w", account.Email, driven.ErrAccountAlreadyExists)
		}
		return model.Account{}, fmt.Errorf("create account %q: %w", account.Email, err)
	}

	return account, nil
}

// GetByEmail retrieves an account by exact email. Returns nil, nil if the
// account does not exist.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`

	account, err := scanAccount(r.db.Reader.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account %q: %w", email, err)
	}

	return account, nil
}

// GetByID retrieves an account by ID. Returns nil, nil if the account does not exist.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

	account, err := scanAccount(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by id %q: %w", id, err)
	}

	return account, nil
}

func scanAccount(s scanner) (*model.Account, error) {
	var account model.Account
	var verifiedAt, createdAt string

	err := s.Scan(&account.ID, &account.Email, &account.DisplayName, &verifiedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	account.VerifiedAt, err = parseTime(verifiedAt)
	if err != nil {
		return nil, fmt.Errorf("parse verified_at: %w", err)
	}
	account.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &account, nil
}
