package repository

import (
	"context"

	"worktyhub/backend/pkg/models"
)

// AccountStore persists credit accounts.
type AccountStore interface {
	// Get retrieves an account by id.
	Get(ctx context.Context, id string) (*models.Account, error)
	// Create persists a new account.
	Create(ctx context.Context, account *models.Account) error
	// SetAmount overwrites the account balance.
	SetAmount(ctx context.Context, id string, amount int64) error
}

// WorktyFilter narrows a workty listing.
type WorktyFilter struct {
	Template       *bool
	OwnerAccountID string
	Category       string
}

// WorktyStore persists catalog templates and owned clones.
type WorktyStore interface {
	Get(ctx context.Context, id string) (*models.Workty, error)
	Create(ctx context.Context, workty *models.Workty) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter WorktyFilter, opts models.ListOptions) ([]*models.Workty, error)
}

// PropertyStore persists workty property documents.
type PropertyStore interface {
	Get(ctx context.Context, id string) (*models.WorktyProperty, error)
	// GetMany returns properties in the order of the requested ids,
	// skipping ids that no longer exist.
	GetMany(ctx context.Context, ids []string) ([]*models.WorktyProperty, error)
	Create(ctx context.Context, property *models.WorktyProperty) error
	Update(ctx context.Context, property *models.WorktyProperty) error
	// DeleteBatch removes every property written under the given batch id.
	DeleteBatch(ctx context.Context, batchID string) error
}

// TransactionStore persists payment transactions.
type TransactionStore interface {
	Get(ctx context.Context, id string) (*models.PaymentTransaction, error)
	Create(ctx context.Context, tx *models.PaymentTransaction) error
	Delete(ctx context.Context, id string) error
	// UpdateMessage edits the human-readable message; everything else on a
	// transaction is append-only.
	UpdateMessage(ctx context.Context, id, message string) error
	List(ctx context.Context, accountID string, opts models.ListOptions) ([]*models.PaymentTransaction, error)
}

// WorkflowStore persists workflows and their authoritative instance order.
type WorkflowStore interface {
	Get(ctx context.Context, id string) (*models.Workflow, error)
	Create(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, accountID string, opts models.ListOptions) ([]*models.Workflow, error)
	// ReplaceInstanceIDs writes the full ordered id list, guarded by the
	// version the caller read. A stale version affects zero rows and
	// returns EntityNotUpdated.
	ReplaceInstanceIDs(ctx context.Context, id string, ids []string, expectedVersion int64) error
}

// InstanceFilter narrows an instance listing.
type InstanceFilter struct {
	WorkflowID string
	AccountID  string
	State      string
}

// InstanceStore persists workty instances.
type InstanceStore interface {
	Get(ctx context.Context, id string) (*models.WorktyInstance, error)
	Create(ctx context.Context, instance *models.WorktyInstance) error
	Delete(ctx context.Context, id string) error
	SetPropertyIDs(ctx context.Context, id string, propertyIDs []string) error
	ApplyPatch(ctx context.Context, id string, patch models.InstancePatch) error
	List(ctx context.Context, filter InstanceFilter, opts models.ListOptions) ([]*models.WorktyInstance, error)
}
