package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/pkg/models"
)

// PostgresAccountStore is a PostgreSQL implementation of AccountStore.
type PostgresAccountStore struct {
	db *pgxpool.Pool
}

func (s *PostgresAccountStore) Get(ctx context.Context, id string) (*models.Account, error) {
	var a models.Account
	err := s.db.QueryRow(ctx,
		"SELECT id, amount, removed, created_at FROM accounts WHERE id = $1",
		id).Scan(&a.ID, &a.Amount, &a.Removed, &a.CreatedAt)
	if err != nil {
		return nil, readErr(err, "account")
	}
	return &a, nil
}

func (s *PostgresAccountStore) Create(ctx context.Context, account *models.Account) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO accounts (id, amount, removed) VALUES ($1, $2, $3)",
		account.ID, account.Amount, account.Removed)
	if err != nil {
		return saveErr(err, "account")
	}
	return nil
}

func (s *PostgresAccountStore) SetAmount(ctx context.Context, id string, amount int64) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE accounts SET amount = $2 WHERE id = $1 AND NOT removed",
		id, amount)
	if err != nil {
		return updateErr(err, "account balance")
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.EntityNotUpdated, "account balance not written")
	}
	return nil
}
