package services

import (
	"context"

	"github.com/google/uuid"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/internal/repository"
	"worktyhub/backend/pkg/models"
)

// Registry is the read/list façade over workflows, workties, and instances,
// plus the run/pause/stop pass-through hooks. It never mutates pipeline
// composition; that is the Composer's job.
type Registry struct {
	workflows repository.WorkflowStore
	workties  repository.WorktyStore
	instances repository.InstanceStore
	txs       repository.TransactionStore
	embed     *embedder
	hook      ExecutionHook
	log       Logger
}

// NewRegistry creates a new Registry.
func NewRegistry(stores *repository.Stores, hook ExecutionHook, log Logger) *Registry {
	if hook == nil {
		hook = NopExecutionHook{}
	}
	return &Registry{
		workflows: stores.Workflows,
		workties:  stores.Workties,
		instances: stores.Instances,
		txs:       stores.Transactions,
		embed:     newEmbedder(stores),
		hook:      hook,
		log:       log,
	}
}

func (r *Registry) loadScopedWorkflow(ctx context.Context, caller Caller, workflowID string) (*models.Workflow, error) {
	wf, err := r.workflows.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if wf.AccountID != caller.AccountID && !caller.Admin {
		return nil, apperr.New(apperr.EntityNotFound, "workflow not found")
	}
	return wf, nil
}

// CreateWorkflow persists an empty pipeline for the caller's account.
func (r *Registry) CreateWorkflow(ctx context.Context, caller Caller, name string) (*models.Workflow, error) {
	if name == "" {
		return nil, apperr.MissingParameters("name")
	}
	wf := &models.Workflow{
		ID:                uuid.New().String(),
		AccountID:         caller.AccountID,
		Name:              name,
		WorktyInstanceIDs: []string{},
	}
	if err := r.workflows.Create(ctx, wf); err != nil {
		return nil, err
	}
	return r.workflows.Get(ctx, wf.ID)
}

// ListWorkflows returns the caller's workflows; admins see every account.
func (r *Registry) ListWorkflows(ctx context.Context, caller Caller, opts models.ListOptions) ([]*models.Workflow, error) {
	scope := caller.AccountID
	if caller.Admin {
		scope = ""
	}
	workflows, err := r.workflows.List(ctx, scope, opts)
	if err != nil {
		return nil, err
	}
	for _, wf := range workflows {
		if err := r.embed.attachWorkflow(ctx, wf, opts.Embeds); err != nil {
			return nil, err
		}
	}
	return workflows, nil
}

// GetWorkflow returns one workflow with the requested relations attached.
func (r *Registry) GetWorkflow(ctx context.Context, caller Caller, workflowID string, embeds []string) (*models.Workflow, error) {
	wf, err := r.loadScopedWorkflow(ctx, caller, workflowID)
	if err != nil {
		return nil, err
	}
	if err := r.embed.attachWorkflow(ctx, wf, embeds); err != nil {
		return nil, err
	}
	return wf, nil
}

// ListInstances returns instances inside one workflow, or across every
// workflow of the caller when workflowID is empty.
func (r *Registry) ListInstances(ctx context.Context, caller Caller, workflowID string, opts models.ListOptions) ([]*models.WorktyInstance, error) {
	filter := repository.InstanceFilter{WorkflowID: workflowID}
	if workflowID != "" {
		if _, err := r.loadScopedWorkflow(ctx, caller, workflowID); err != nil {
			return nil, err
		}
	} else if !caller.Admin {
		filter.AccountID = caller.AccountID
	}

	instances, err := r.instances.List(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	for _, inst := range instances {
		if err := r.embed.attachInstance(ctx, inst, opts.Embeds); err != nil {
			return nil, err
		}
	}
	return instances, nil
}

// GetInstance returns one instance of a workflow with requested relations.
func (r *Registry) GetInstance(ctx context.Context, caller Caller, workflowID, instanceID string, embeds []string) (*models.WorktyInstance, error) {
	wf, err := r.loadScopedWorkflow(ctx, caller, workflowID)
	if err != nil {
		return nil, err
	}
	inst, err := r.instances.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.WorkflowID != wf.ID {
		return nil, apperr.New(apperr.EntityNotFound, "workty instance not found in workflow")
	}
	if err := r.embed.attachInstance(ctx, inst, embeds); err != nil {
		return nil, err
	}
	return inst, nil
}

// ListCatalog returns purchasable templates; visible to every account.
func (r *Registry) ListCatalog(ctx context.Context, category string, opts models.ListOptions) ([]*models.Workty, error) {
	template := true
	return r.workties.List(ctx, repository.WorktyFilter{Template: &template, Category: category}, opts)
}

// ListOwnedWorkties returns the workties the caller has purchased.
func (r *Registry) ListOwnedWorkties(ctx context.Context, caller Caller, opts models.ListOptions) ([]*models.Workty, error) {
	template := false
	return r.workties.List(ctx, repository.WorktyFilter{Template: &template, OwnerAccountID: caller.AccountID}, opts)
}

// GetWorkty returns a single workty the caller may see: any template, or an
// owned workty of the caller's account.
func (r *Registry) GetWorkty(ctx context.Context, caller Caller, worktyID string, embeds []string) (*models.Workty, error) {
	w, err := r.workties.Get(ctx, worktyID)
	if err != nil {
		return nil, err
	}
	if !w.Template && w.OwnerAccountID != caller.AccountID && !caller.Admin {
		return nil, apperr.New(apperr.EntityNotFound, "workty not found")
	}
	for _, name := range embeds {
		if name == EmbedProperties {
			props, err := r.embed.props.GetMany(ctx, w.PropertyIDs)
			if err != nil {
				return nil, err
			}
			w.Properties = props
		}
	}
	return w, nil
}

// ListTransactions returns the caller's payment history; admins may list
// any account by passing its id, or every account with an empty id.
func (r *Registry) ListTransactions(ctx context.Context, caller Caller, accountID string, opts models.ListOptions) ([]*models.PaymentTransaction, error) {
	if !caller.Admin {
		accountID = caller.AccountID
	}
	return r.txs.List(ctx, accountID, opts)
}

// UpdateTransactionMessage edits the free-form message of one of the
// caller's transactions. Everything else on a transaction is append-only.
func (r *Registry) UpdateTransactionMessage(ctx context.Context, caller Caller, transactionID, message string) (*models.PaymentTransaction, error) {
	tx, err := r.txs.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.AccountID != caller.AccountID && !caller.Admin {
		return nil, apperr.New(apperr.EntityNotFound, "payment transaction not found")
	}
	if err := r.txs.UpdateMessage(ctx, tx.ID, message); err != nil {
		return nil, err
	}
	return r.txs.Get(ctx, tx.ID)
}

// Run hands the workflow to the execution engine and returns it. The
// marketplace core does not track execution progress.
func (r *Registry) Run(ctx context.Context, caller Caller, workflowID string) (*models.Workflow, error) {
	return r.control(ctx, caller, workflowID, "run", r.hook.Run)
}

// Pause asks the execution engine to pause the workflow and returns it.
func (r *Registry) Pause(ctx context.Context, caller Caller, workflowID string) (*models.Workflow, error) {
	return r.control(ctx, caller, workflowID, "pause", r.hook.Pause)
}

// Stop asks the execution engine to stop the workflow and returns it.
func (r *Registry) Stop(ctx context.Context, caller Caller, workflowID string) (*models.Workflow, error) {
	return r.control(ctx, caller, workflowID, "stop", r.hook.Stop)
}

func (r *Registry) control(ctx context.Context, caller Caller, workflowID, action string, hook func(context.Context, *models.Workflow) error) (*models.Workflow, error) {
	wf, err := r.loadScopedWorkflow(ctx, caller, workflowID)
	if err != nil {
		return nil, err
	}
	if err := hook(ctx, wf); err != nil {
		return nil, apperr.Wrap(apperr.GenericUnexpected, "execution engine rejected "+action, err)
	}
	r.log.Debug("workflow control forwarded", "action", action, "workflow", wf.ID)
	return wf, nil
}
