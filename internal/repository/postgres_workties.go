package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/pkg/models"
)

// PostgresWorktyStore is a PostgreSQL implementation of WorktyStore.
type PostgresWorktyStore struct {
	db *pgxpool.Pool
}

const worktyColumns = "id, COALESCE(owner_account_id::text, ''), template, price, discount_percent, name, category, language_type, validation_state, entry_point, code, property_ids, created_at"

func scanWorkty(row interface{ Scan(...any) error }) (*models.Workty, error) {
	var w models.Workty
	err := row.Scan(&w.ID, &w.OwnerAccountID, &w.Template, &w.Price, &w.DiscountPercent,
		&w.Name, &w.Category, &w.LanguageType, &w.ValidationState, &w.EntryPoint,
		&w.Code, &w.PropertyIDs, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *PostgresWorktyStore) Get(ctx context.Context, id string) (*models.Workty, error) {
	row := s.db.QueryRow(ctx, "SELECT "+worktyColumns+" FROM workties WHERE id = $1", id)
	w, err := scanWorkty(row)
	if err != nil {
		return nil, readErr(err, "workty")
	}
	return w, nil
}

func (s *PostgresWorktyStore) Create(ctx context.Context, workty *models.Workty) error {
	props := workty.PropertyIDs
	if props == nil {
		props = []string{}
	}
	var owner any
	if workty.OwnerAccountID != "" {
		owner = workty.OwnerAccountID
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO workties (id, owner_account_id, template, price, discount_percent,
			name, category, language_type, validation_state, entry_point, code, property_ids)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		workty.ID, owner, workty.Template, workty.Price, workty.DiscountPercent,
		workty.Name, workty.Category, workty.LanguageType, workty.ValidationState,
		workty.EntryPoint, workty.Code, props)
	if err != nil {
		return saveErr(err, "workty")
	}
	return nil
}

func (s *PostgresWorktyStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM workties WHERE id = $1", id)
	if err != nil {
		return deleteErr(err, "workty")
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.EntityNotDeleted, "workty not deleted")
	}
	return nil
}

// worktySortColumns whitelists sortable fields.
var worktySortColumns = map[string]string{
	"name":     "name",
	"category": "category",
	"price":    "price",
	"created":  "created_at",
}

func (s *PostgresWorktyStore) List(ctx context.Context, filter WorktyFilter, opts models.ListOptions) ([]*models.Workty, error) {
	opts = opts.Normalize()

	query := "SELECT " + worktyColumns + " FROM workties WHERE TRUE"
	args := []any{}
	if filter.Template != nil {
		args = append(args, *filter.Template)
		query += fmt.Sprintf(" AND template = $%d", len(args))
	}
	if filter.OwnerAccountID != "" {
		args = append(args, filter.OwnerAccountID)
		query += fmt.Sprintf(" AND owner_account_id = $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	query += orderClause(worktySortColumns, opts, "created_at")
	args = append(args, opts.PerPage, opts.Offset())
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, readErr(err, "workties")
	}
	defer rows.Close()

	var workties []*models.Workty
	for rows.Next() {
		w, err := scanWorkty(rows)
		if err != nil {
			return nil, readErr(err, "workties")
		}
		workties = append(workties, w)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(err, "workties")
	}
	return workties, nil
}

// orderClause builds an ORDER BY from a whitelisted sort key. Unknown keys
// fall back to the default column.
func orderClause(columns map[string]string, opts models.ListOptions, def string) string {
	col := def
	if c, ok := columns[opts.Sort]; ok {
		col = c
	}
	dir := " ASC"
	if opts.Desc {
		dir = " DESC"
	}
	return " ORDER BY " + col + dir
}
