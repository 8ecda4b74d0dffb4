package services

import (
	"context"

	"github.com/google/uuid"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/internal/repository"
	"worktyhub/backend/pkg/models"
)

// Composer mutates a workflow's ordered instance list: it inserts owned
// workties as positioned instances, removes instances, and applies typed
// patches. The parent array and the instance documents are separate writes,
// so a failed array write compensates by deleting the instance it created.
type Composer struct {
	workflows repository.WorkflowStore
	instances repository.InstanceStore
	workties  repository.WorktyStore
	props     repository.PropertyStore
	cloner    *PropertyCloner
	embed     *embedder
	log       Logger
}

// NewComposer creates a new Composer.
func NewComposer(stores *repository.Stores, cloner *PropertyCloner, log Logger) *Composer {
	return &Composer{
		workflows: stores.Workflows,
		instances: stores.Instances,
		workties:  stores.Workties,
		props:     stores.Properties,
		cloner:    cloner,
		embed:     newEmbedder(stores),
		log:       log,
	}
}

// loadScopedWorkflow fetches a workflow visible to the caller. Workflows of
// other accounts read as absent rather than forbidden.
func (c *Composer) loadScopedWorkflow(ctx context.Context, caller Caller, workflowID string) (*models.Workflow, error) {
	wf, err := c.workflows.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if wf.AccountID != caller.AccountID && !caller.Admin {
		return nil, apperr.New(apperr.EntityNotFound, "workflow not found")
	}
	return wf, nil
}

// Insert creates a workty instance inside the workflow at the position the
// spec resolves to. The source workty must be owned by the workflow's
// account; catalog templates must be purchased first.
func (c *Composer) Insert(ctx context.Context, caller Caller, workflowID, sourceWorktyID string, spec models.PositionSpec, embeds []string) (*models.WorktyInstance, error) {
	var missing []string
	if workflowID == "" {
		missing = append(missing, "workflow_id")
	}
	if sourceWorktyID == "" {
		missing = append(missing, "workty_id")
	}
	if len(missing) > 0 {
		return nil, apperr.MissingParameters(missing...)
	}

	wf, err := c.loadScopedWorkflow(ctx, caller, workflowID)
	if err != nil {
		return nil, err
	}

	source, err := c.workties.Get(ctx, sourceWorktyID)
	if err != nil {
		return nil, err
	}
	if source.Template || source.OwnerAccountID != wf.AccountID {
		return nil, apperr.New(apperr.NotOwnWorktyUsed, "workty is not owned by the workflow's account")
	}

	// The array read above is the one every later step works against. A
	// concurrent splice bumps the workflow version and surfaces below as a
	// zero-row update instead of a lost write.
	current := wf.WorktyInstanceIDs

	inst := &models.WorktyInstance{
		ID:         uuid.New().String(),
		WorkflowID: wf.ID,
		WorktyID:   source.ID,
		Name:       source.Name,
		State:      models.InstanceStateInitial,
	}
	if err := c.instances.Create(ctx, inst); err != nil {
		return nil, err
	}

	idx, err := ResolveInsertIndex(spec, current)
	if err != nil {
		return nil, c.rollbackInsert(ctx, inst.ID, err)
	}

	propertyIDs, err := c.cloner.CloneByIDs(ctx, inst.ID, source.PropertyIDs)
	if err != nil {
		return nil, c.rollbackInsert(ctx, inst.ID, err)
	}
	if err := c.instances.SetPropertyIDs(ctx, inst.ID, propertyIDs); err != nil {
		return nil, c.rollbackInsert(ctx, inst.ID, err)
	}

	next := spliceAt(current, inst.ID, idx)
	if err := c.workflows.ReplaceInstanceIDs(ctx, wf.ID, next, wf.Version); err != nil {
		return nil, c.rollbackInsert(ctx, inst.ID, err)
	}

	fresh, err := c.instances.Get(ctx, inst.ID)
	if err != nil {
		return nil, err
	}
	if err := c.embed.attachInstance(ctx, fresh, embeds); err != nil {
		return nil, err
	}
	return fresh, nil
}

// rollbackInsert compensating-deletes the instance created by a failed
// insert, along with its cloned property batch, and returns the original
// cause. A failed compensation orphans the instance and is only logged.
func (c *Composer) rollbackInsert(ctx context.Context, instanceID string, cause error) error {
	if err := c.props.DeleteBatch(ctx, instanceID); err != nil {
		c.log.Error("insert rollback left orphan properties", "instance", instanceID, "error", err)
	}
	if err := c.instances.Delete(ctx, instanceID); err != nil {
		c.log.Error("insert rollback left orphan instance", "instance", instanceID, "error", err)
	}
	return cause
}

// Delete removes the instance from the workflow's ordered list and deletes
// the instance document together with its cloned properties. The instance
// delete lands before the workflow save; if the save then fails the list
// keeps a dangling id and the error says so.
func (c *Composer) Delete(ctx context.Context, caller Caller, workflowID, instanceID string) error {
	wf, err := c.loadScopedWorkflow(ctx, caller, workflowID)
	if err != nil {
		return err
	}

	inst, err := c.instances.Get(ctx, instanceID)
	if err != nil {
		return err
	}
	if inst.WorkflowID != wf.ID {
		return apperr.New(apperr.EntityNotFound, "workty instance not found in workflow")
	}

	next, _ := removeFirst(wf.WorktyInstanceIDs, inst.ID)

	if err := c.props.DeleteBatch(ctx, inst.ID); err != nil {
		return err
	}
	if err := c.instances.Delete(ctx, inst.ID); err != nil {
		return err
	}
	if err := c.workflows.ReplaceInstanceIDs(ctx, wf.ID, next, wf.Version); err != nil {
		return apperr.Wrap(apperr.EntityNotUpdated, "instance deleted but workflow list not saved", err)
	}
	return nil
}

// Update applies a typed patch to an instance. State transitions are
// reserved to admin callers; owners may only change the descriptive fields.
func (c *Composer) Update(ctx context.Context, caller Caller, workflowID, instanceID string, patch models.InstancePatch) (*models.WorktyInstance, error) {
	wf, err := c.loadScopedWorkflow(ctx, caller, workflowID)
	if err != nil {
		return nil, err
	}

	inst, err := c.instances.Get(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.WorkflowID != wf.ID {
		return nil, apperr.New(apperr.EntityNotFound, "workty instance not found in workflow")
	}

	if patch.State != nil && !caller.Admin {
		return nil, apperr.New(apperr.OperationForbidden, "state is admin-only")
	}
	if patch.Empty() {
		return inst, nil
	}

	if err := c.instances.ApplyPatch(ctx, inst.ID, patch); err != nil {
		return nil, err
	}
	return c.instances.Get(ctx, inst.ID)
}
