package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/pkg/models"
)

// PostgresInstanceStore is a PostgreSQL implementation of InstanceStore.
type PostgresInstanceStore struct {
	db *pgxpool.Pool
}

const instanceColumns = "id, workflow_id, workty_id, name, descr, state, property_ids, created_at"

func scanInstance(row interface{ Scan(...any) error }) (*models.WorktyInstance, error) {
	var i models.WorktyInstance
	err := row.Scan(&i.ID, &i.WorkflowID, &i.WorktyID, &i.Name, &i.Desc, &i.State,
		&i.PropertyIDs, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *PostgresInstanceStore) Get(ctx context.Context, id string) (*models.WorktyInstance, error) {
	row := s.db.QueryRow(ctx, "SELECT "+instanceColumns+" FROM workty_instances WHERE id = $1", id)
	i, err := scanInstance(row)
	if err != nil {
		return nil, readErr(err, "workty instance")
	}
	return i, nil
}

func (s *PostgresInstanceStore) Create(ctx context.Context, instance *models.WorktyInstance) error {
	props := instance.PropertyIDs
	if props == nil {
		props = []string{}
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO workty_instances (id, workflow_id, workty_id, name, descr, state, property_ids)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		instance.ID, instance.WorkflowID, instance.WorktyID, instance.Name,
		instance.Desc, instance.State, props)
	if err != nil {
		return saveErr(err, "workty instance")
	}
	return nil
}

func (s *PostgresInstanceStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM workty_instances WHERE id = $1", id)
	if err != nil {
		return deleteErr(err, "workty instance")
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.EntityNotDeleted, "workty instance not deleted")
	}
	return nil
}

func (s *PostgresInstanceStore) SetPropertyIDs(ctx context.Context, id string, propertyIDs []string) error {
	if propertyIDs == nil {
		propertyIDs = []string{}
	}
	tag, err := s.db.Exec(ctx,
		"UPDATE workty_instances SET property_ids = $2 WHERE id = $1", id, propertyIDs)
	if err != nil {
		return updateErr(err, "workty instance properties")
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.EntityNotUpdated, "workty instance properties not written")
	}
	return nil
}

func (s *PostgresInstanceStore) ApplyPatch(ctx context.Context, id string, patch models.InstancePatch) error {
	query := "UPDATE workty_instances SET id = id"
	args := []any{id}
	if patch.Name != nil {
		args = append(args, *patch.Name)
		query += fmt.Sprintf(", name = $%d", len(args))
	}
	if patch.Desc != nil {
		args = append(args, *patch.Desc)
		query += fmt.Sprintf(", descr = $%d", len(args))
	}
	if patch.State != nil {
		args = append(args, *patch.State)
		query += fmt.Sprintf(", state = $%d", len(args))
	}
	query += " WHERE id = $1"

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return updateErr(err, "workty instance")
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.EntityNotUpdated, "workty instance not updated")
	}
	return nil
}

func (s *PostgresInstanceStore) List(ctx context.Context, filter InstanceFilter, opts models.ListOptions) ([]*models.WorktyInstance, error) {
	opts = opts.Normalize()

	query := "SELECT " + prefixColumns("i", instanceColumns) + " FROM workty_instances i"
	args := []any{}
	if filter.AccountID != "" {
		query += " JOIN workflows w ON w.id = i.workflow_id"
	}
	query += " WHERE TRUE"
	if filter.WorkflowID != "" {
		args = append(args, filter.WorkflowID)
		query += fmt.Sprintf(" AND i.workflow_id = $%d", len(args))
	}
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		query += fmt.Sprintf(" AND w.account_id = $%d", len(args))
	}
	if filter.State != "" {
		args = append(args, filter.State)
		query += fmt.Sprintf(" AND i.state = $%d", len(args))
	}
	query += " ORDER BY i.created_at"
	if opts.Desc {
		query += " DESC"
	}
	args = append(args, opts.PerPage, opts.Offset())
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, readErr(err, "workty instances")
	}
	defer rows.Close()

	var instances []*models.WorktyInstance
	for rows.Next() {
		i, err := scanInstance(rows)
		if err != nil {
			return nil, readErr(err, "workty instances")
		}
		instances = append(instances, i)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(err, "workty instances")
	}
	return instances, nil
}

func prefixColumns(alias, columns string) string {
	cols := strings.Split(columns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}
