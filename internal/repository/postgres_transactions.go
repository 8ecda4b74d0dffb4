package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/pkg/models"
)

// PostgresTransactionStore is a PostgreSQL implementation of TransactionStore.
type PostgresTransactionStore struct {
	db *pgxpool.Pool
}

func (s *PostgresTransactionStore) Get(ctx context.Context, id string) (*models.PaymentTransaction, error) {
	var t models.PaymentTransaction
	err := s.db.QueryRow(ctx,
		"SELECT id, account_id, workty_id, message, created_at FROM payment_transactions WHERE id = $1",
		id).Scan(&t.ID, &t.AccountID, &t.WorktyID, &t.Message, &t.CreatedAt)
	if err != nil {
		return nil, readErr(err, "payment transaction")
	}
	return &t, nil
}

func (s *PostgresTransactionStore) Create(ctx context.Context, tx *models.PaymentTransaction) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO payment_transactions (id, account_id, workty_id, message) VALUES ($1, $2, $3, $4)",
		tx.ID, tx.AccountID, tx.WorktyID, tx.Message)
	if err != nil {
		return saveErr(err, "payment transaction")
	}
	return nil
}

func (s *PostgresTransactionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM payment_transactions WHERE id = $1", id)
	if err != nil {
		return deleteErr(err, "payment transaction")
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.EntityNotDeleted, "payment transaction not deleted")
	}
	return nil
}

func (s *PostgresTransactionStore) UpdateMessage(ctx context.Context, id, message string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE payment_transactions SET message = $2 WHERE id = $1", id, message)
	if err != nil {
		return updateErr(err, "payment transaction")
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.EntityNotUpdated, "payment transaction not updated")
	}
	return nil
}

func (s *PostgresTransactionStore) List(ctx context.Context, accountID string, opts models.ListOptions) ([]*models.PaymentTransaction, error) {
	opts = opts.Normalize()

	query := "SELECT id, account_id, workty_id, message, created_at FROM payment_transactions WHERE TRUE"
	args := []any{}
	if accountID != "" {
		args = append(args, accountID)
		query += fmt.Sprintf(" AND account_id = $%d", len(args))
	}
	query += " ORDER BY created_at"
	if opts.Desc {
		query += " DESC"
	}
	args = append(args, opts.PerPage, opts.Offset())
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, readErr(err, "payment transactions")
	}
	defer rows.Close()

	var txs []*models.PaymentTransaction
	for rows.Next() {
		var t models.PaymentTransaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.WorktyID, &t.Message, &t.CreatedAt); err != nil {
			return nil, readErr(err, "payment transactions")
		}
		txs = append(txs, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(err, "payment transactions")
	}
	return txs, nil
}
