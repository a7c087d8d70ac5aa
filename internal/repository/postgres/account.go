package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type accountRepository struct {
	BaseRepository
}

func NewAccountRepository(base BaseRepository) repository.AccountRepository {
	return &accountRepository{base}
}

const insertAccount = `
	INSERT INTO accounts (id, email, password_hash, role, created_at, updated_at)
	VALUES (:id, :email, :password_hash, :role, :created_at, :updated_at)
`

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	stampAccount(account)
	_, err := r.db.NamedExecContext(ctx, insertAccount, account)
	return mapError("failed to create account", err)
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	var account model.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, mapError("failed to get account", err)
	}
	return &account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `
		SELECT id, email, password_hash, role, created_at, updated_at
		FROM accounts
		WHERE lower(email) = lower($1)
	`
	var account model.Account
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		return nil, mapError("failed to get account by email", err)
	}
	return &account, nil
}

func stampAccount(account *model.Account) {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
}
