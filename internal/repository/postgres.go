// Package repository contains the persistence layer for the workty
// marketplace. All implementations are backed by PostgreSQL via pgx.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/internal/policy"
)

// Stores bundles every Postgres-backed store over a shared pool.
type Stores struct {
	Accounts     AccountStore
	Workties     WorktyStore
	Properties   PropertyStore
	Transactions TransactionStore
	Workflows    WorkflowStore
	Instances    InstanceStore
	Policy       policy.Store
}

// NewPostgresStores creates the full store set over one connection pool.
func NewPostgresStores(db *pgxpool.Pool) *Stores {
	return &Stores{
		Accounts:     &PostgresAccountStore{db: db},
		Workties:     &PostgresWorktyStore{db: db},
		Properties:   &PostgresPropertyStore{db: db},
		Transactions: &PostgresTransactionStore{db: db},
		Workflows:    &PostgresWorkflowStore{db: db},
		Instances:    &PostgresInstanceStore{db: db},
		Policy:       &PostgresPolicyStore{db: db},
	}
}

// readErr maps a query failure to a typed kind: no rows is EntityNotFound,
// anything else is unexpected.
func readErr(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Newf(apperr.EntityNotFound, "%s not found", what)
	}
	return apperr.Wrap(apperr.GenericUnexpected, "failed to read "+what, err)
}

func saveErr(err error, what string) error {
	return apperr.Wrap(apperr.EntityNotSaved, "failed to save "+what, err)
}

func updateErr(err error, what string) error {
	return apperr.Wrap(apperr.EntityNotUpdated, "failed to update "+what, err)
}

func deleteErr(err error, what string) error {
	return apperr.Wrap(apperr.EntityNotDeleted, "failed to delete "+what, err)
}

// Migrate applies the schema. Statements are idempotent so the call is safe
// on every startup.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schema)
	if err != nil {
		return apperr.Wrap(apperr.GenericUnexpected, "schema migration failed", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id UUID PRIMARY KEY,
	amount BIGINT NOT NULL DEFAULT 0,
	removed BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS workties (
	id UUID PRIMARY KEY,
	owner_account_id UUID,
	template BOOLEAN NOT NULL DEFAULT FALSE,
	price BIGINT NOT NULL DEFAULT 0,
	discount_percent INT NOT NULL DEFAULT 0,
	name TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	language_type TEXT NOT NULL DEFAULT '',
	validation_state TEXT NOT NULL DEFAULT '',
	entry_point TEXT NOT NULL DEFAULT '',
	code BYTEA,
	property_ids TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS workty_properties (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	value JSONB,
	batch_id UUID
);
CREATE INDEX IF NOT EXISTS idx_workty_properties_batch ON workty_properties (batch_id);
CREATE TABLE IF NOT EXISTS payment_transactions (
	id UUID PRIMARY KEY,
	account_id UUID NOT NULL,
	workty_id UUID NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS workflows (
	id UUID PRIMARY KEY,
	account_id UUID NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	instance_ids TEXT[] NOT NULL DEFAULT '{}',
	version BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS workty_instances (
	id UUID PRIMARY KEY,
	workflow_id UUID NOT NULL,
	workty_id UUID NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	descr TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL DEFAULT 'initial',
	property_ids TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_workty_instances_workflow ON workty_instances (workflow_id);
CREATE TABLE IF NOT EXISTS acl_rules (
	account_id UUID NOT NULL,
	resource TEXT NOT NULL,
	permission TEXT NOT NULL,
	PRIMARY KEY (account_id, resource, permission)
);
CREATE TABLE IF NOT EXISTS acl_admins (
	account_id UUID PRIMARY KEY
);
`
