package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/pkg/models"
)

// PostgresWorkflowStore is a PostgreSQL implementation of WorkflowStore.
type PostgresWorkflowStore struct {
	db *pgxpool.Pool
}

const workflowColumns = "id, account_id, name, instance_ids, version, created_at"

func scanWorkflow(row interface{ Scan(...any) error }) (*models.Workflow, error) {
	var w models.Workflow
	err := row.Scan(&w.ID, &w.AccountID, &w.Name, &w.WorktyInstanceIDs, &w.Version, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *PostgresWorkflowStore) Get(ctx context.Context, id string) (*models.Workflow, error) {
	row := s.db.QueryRow(ctx, "SELECT "+workflowColumns+" FROM workflows WHERE id = $1", id)
	w, err := scanWorkflow(row)
	if err != nil {
		return nil, readErr(err, "workflow")
	}
	return w, nil
}

func (s *PostgresWorkflowStore) Create(ctx context.Context, workflow *models.Workflow) error {
	ids := workflow.WorktyInstanceIDs
	if ids == nil {
		ids = []string{}
	}
	_, err := s.db.Exec(ctx,
		"INSERT INTO workflows (id, account_id, name, instance_ids) VALUES ($1, $2, $3, $4)",
		workflow.ID, workflow.AccountID, workflow.Name, ids)
	if err != nil {
		return saveErr(err, "workflow")
	}
	return nil
}

func (s *PostgresWorkflowStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return deleteErr(err, "workflow")
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.EntityNotDeleted, "workflow not deleted")
	}
	return nil
}

var workflowSortColumns = map[string]string{
	"name":    "name",
	"created": "created_at",
}

func (s *PostgresWorkflowStore) List(ctx context.Context, accountID string, opts models.ListOptions) ([]*models.Workflow, error) {
	opts = opts.Normalize()

	query := "SELECT " + workflowColumns + " FROM workflows WHERE TRUE"
	args := []any{}
	if accountID != "" {
		args = append(args, accountID)
		query += fmt.Sprintf(" AND account_id = $%d", len(args))
	}
	query += orderClause(workflowSortColumns, opts, "created_at")
	args = append(args, opts.PerPage, opts.Offset())
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, readErr(err, "workflows")
	}
	defer rows.Close()

	var workflows []*models.Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, readErr(err, "workflows")
		}
		workflows = append(workflows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(err, "workflows")
	}
	return workflows, nil
}

// ReplaceInstanceIDs writes the ordered id list guarded by the version the
// caller read. The version bump makes a concurrent splice visible as a
// zero-row update instead of a silent lost write.
func (s *PostgresWorkflowStore) ReplaceInstanceIDs(ctx context.Context, id string, ids []string, expectedVersion int64) error {
	if ids == nil {
		ids = []string{}
	}
	tag, err := s.db.Exec(ctx,
		"UPDATE workflows SET instance_ids = $2, version = version + 1 WHERE id = $1 AND version = $3",
		id, ids, expectedVersion)
	if err != nil {
		return updateErr(err, "workflow instance list")
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.EntityNotUpdated, "workflow instance list not written")
	}
	return nil
}
