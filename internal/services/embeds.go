package services

import (
	"context"

	"worktyhub/backend/internal/repository"
	"worktyhub/backend/pkg/models"
)

// Embeddable relation names accepted by the read endpoints.
const (
	EmbedWorkflow   = "workflow"
	EmbedWorkty     = "workty"
	EmbedState      = "state"
	EmbedProperties = "properties"
	EmbedInstances  = "instances"
)

// embedder resolves requested relations onto fetched documents.
type embedder struct {
	workflows repository.WorkflowStore
	workties  repository.WorktyStore
	props     repository.PropertyStore
	instances repository.InstanceStore
}

func newEmbedder(stores *repository.Stores) *embedder {
	return &embedder{
		workflows: stores.Workflows,
		workties:  stores.Workties,
		props:     stores.Properties,
		instances: stores.Instances,
	}
}

func (e *embedder) attachInstance(ctx context.Context, inst *models.WorktyInstance, embeds []string) error {
	for _, name := range embeds {
		switch name {
		case EmbedWorkflow:
			wf, err := e.workflows.Get(ctx, inst.WorkflowID)
			if err != nil {
				return err
			}
			inst.Workflow = wf
		case EmbedWorkty:
			w, err := e.workties.Get(ctx, inst.WorktyID)
			if err != nil {
				return err
			}
			inst.Workty = w
		case EmbedProperties:
			props, err := e.props.GetMany(ctx, inst.PropertyIDs)
			if err != nil {
				return err
			}
			inst.Properties = props
		case EmbedState:
			// state lives inline on the instance document
		}
	}
	return nil
}

// attachWorkflow resolves the instances relation in the workflow's
// authoritative order.
func (e *embedder) attachWorkflow(ctx context.Context, wf *models.Workflow, embeds []string) error {
	for _, name := range embeds {
		if name != EmbedInstances {
			continue
		}
		listed, err := e.instances.List(ctx,
			repository.InstanceFilter{WorkflowID: wf.ID},
			models.ListOptions{PerPage: len(wf.WorktyInstanceIDs) + 1})
		if err != nil {
			return err
		}
		byID := make(map[string]*models.WorktyInstance, len(listed))
		for _, inst := range listed {
			byID[inst.ID] = inst
		}
		ordered := make([]*models.WorktyInstance, 0, len(wf.WorktyInstanceIDs))
		for _, id := range wf.WorktyInstanceIDs {
			if inst, ok := byID[id]; ok {
				ordered = append(ordered, inst)
			}
		}
		wf.Instances = ordered
	}
	return nil
}
