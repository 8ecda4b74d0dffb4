package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/pkg/models"
)

// PostgresPropertyStore is a PostgreSQL implementation of PropertyStore.
type PostgresPropertyStore struct {
	db *pgxpool.Pool
}

func (s *PostgresPropertyStore) Get(ctx context.Context, id string) (*models.WorktyProperty, error) {
	var p models.WorktyProperty
	err := s.db.QueryRow(ctx,
		"SELECT id, name, value, COALESCE(batch_id::text, '') FROM workty_properties WHERE id = $1",
		id).Scan(&p.ID, &p.Name, &p.Value, &p.BatchID)
	if err != nil {
		return nil, readErr(err, "workty property")
	}
	return &p, nil
}

func (s *PostgresPropertyStore) GetMany(ctx context.Context, ids []string) ([]*models.WorktyProperty, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx,
		"SELECT id, name, value, COALESCE(batch_id::text, '') FROM workty_properties WHERE id = ANY($1)",
		ids)
	if err != nil {
		return nil, readErr(err, "workty properties")
	}
	defer rows.Close()

	byID := make(map[string]*models.WorktyProperty, len(ids))
	for rows.Next() {
		var p models.WorktyProperty
		if err := rows.Scan(&p.ID, &p.Name, &p.Value, &p.BatchID); err != nil {
			return nil, readErr(err, "workty properties")
		}
		byID[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(err, "workty properties")
	}

	// Preserve the caller's order; the id list on the owner is authoritative.
	props := make([]*models.WorktyProperty, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			props = append(props, p)
		}
	}
	return props, nil
}

func (s *PostgresPropertyStore) Create(ctx context.Context, property *models.WorktyProperty) error {
	var batch any
	if property.BatchID != "" {
		batch = property.BatchID
	}
	_, err := s.db.Exec(ctx,
		"INSERT INTO workty_properties (id, name, value, batch_id) VALUES ($1, $2, $3, $4)",
		property.ID, property.Name, property.Value, batch)
	if err != nil {
		return saveErr(err, "workty property")
	}
	return nil
}

func (s *PostgresPropertyStore) Update(ctx context.Context, property *models.WorktyProperty) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE workty_properties SET name = $2, value = $3 WHERE id = $1",
		property.ID, property.Name, property.Value)
	if err != nil {
		return updateErr(err, "workty property")
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.EntityNotUpdated, "workty property not updated")
	}
	return nil
}

func (s *PostgresPropertyStore) DeleteBatch(ctx context.Context, batchID string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM workty_properties WHERE batch_id = $1", batchID)
	if err != nil {
		return deleteErr(err, "workty property batch")
	}
	return nil
}
