package services

import (
	"context"
	"sync"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/internal/repository"
	"worktyhub/backend/pkg/models"
)

// NoOpLogger for testing
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, args ...any) {}
func (l *NoOpLogger) Info(msg string, args ...any)  {}
func (l *NoOpLogger) Warn(msg string, args ...any)  {}
func (l *NoOpLogger) Error(msg string, args ...any) {}

// In-memory stores backing the service tests. Each store allows one
// injectable error per failure point so saga compensation paths can be
// exercised deterministically.

type memAccounts struct {
	mu           sync.Mutex
	byID         map[string]*models.Account
	setAmountErr error
}

func (s *memAccounts) Get(ctx context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, apperr.New(apperr.EntityNotFound, "account not found")
	}
	cp := *a
	return &cp, nil
}

func (s *memAccounts) Create(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *account
	s.byID[account.ID] = &cp
	return nil
}

func (s *memAccounts) SetAmount(ctx context.Context, id string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setAmountErr != nil {
		return s.setAmountErr
	}
	a, ok := s.byID[id]
	if !ok {
		return apperr.New(apperr.EntityNotUpdated, "account not updated")
	}
	a.Amount = amount
	return nil
}

type memWorkties struct {
	mu        sync.Mutex
	byID      map[string]*models.Workty
	createErr error
}

func (s *memWorkties) Get(ctx context.Context, id string) (*models.Workty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.byID[id]
	if !ok {
		return nil, apperr.New(apperr.EntityNotFound, "workty not found")
	}
	cp := *w
	return &cp, nil
}

func (s *memWorkties) Create(ctx context.Context, workty *models.Workty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	cp := *workty
	s.byID[workty.ID] = &cp
	return nil
}

func (s *memWorkties) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return apperr.New(apperr.EntityNotDeleted, "workty not deleted")
	}
	delete(s.byID, id)
	return nil
}

func (s *memWorkties) List(ctx context.Context, filter repository.WorktyFilter, opts models.ListOptions) ([]*models.Workty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Workty
	for _, w := range s.byID {
		if filter.Template != nil && w.Template != *filter.Template {
			continue
		}
		if filter.OwnerAccountID != "" && w.OwnerAccountID != filter.OwnerAccountID {
			continue
		}
		if filter.Category != "" && w.Category != filter.Category {
			continue
		}
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}

type memProperties struct {
	mu        sync.Mutex
	byID      map[string]*models.WorktyProperty
	createErr error
}

func (s *memProperties) Get(ctx context.Context, id string) (*models.WorktyProperty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, apperr.New(apperr.EntityNotFound, "property not found")
	}
	cp := *p
	return &cp, nil
}

func (s *memProperties) GetMany(ctx context.Context, ids []string) ([]*models.WorktyProperty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.WorktyProperty, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memProperties) Create(ctx context.Context, property *models.WorktyProperty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	cp := *property
	s.byID[property.ID] = &cp
	return nil
}

func (s *memProperties) Update(ctx context.Context, property *models.WorktyProperty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[property.ID]; !ok {
		return apperr.New(apperr.EntityNotUpdated, "property not updated")
	}
	cp := *property
	s.byID[property.ID] = &cp
	return nil
}

func (s *memProperties) DeleteBatch(ctx context.Context, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.byID {
		if p.BatchID == batchID {
			delete(s.byID, id)
		}
	}
	return nil
}

// countBatch reports how many stored properties carry the batch id.
func (s *memProperties) countBatch(batchID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.byID {
		if p.BatchID == batchID {
			n++
		}
	}
	return n
}

type memTransactions struct {
	mu        sync.Mutex
	byID      map[string]*models.PaymentTransaction
	createErr error
}

func (s *memTransactions) Get(ctx context.Context, id string) (*models.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.byID[id]
	if !ok {
		return nil, apperr.New(apperr.EntityNotFound, "payment transaction not found")
	}
	cp := *tx
	return &cp, nil
}

func (s *memTransactions) Create(ctx context.Context, tx *models.PaymentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	cp := *tx
	s.byID[tx.ID] = &cp
	return nil
}

func (s *memTransactions) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return apperr.New(apperr.EntityNotDeleted, "payment transaction not deleted")
	}
	delete(s.byID, id)
	return nil
}

func (s *memTransactions) UpdateMessage(ctx context.Context, id, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.byID[id]
	if !ok {
		return apperr.New(apperr.EntityNotUpdated, "payment transaction not updated")
	}
	tx.Message = message
	return nil
}

func (s *memTransactions) List(ctx context.Context, accountID string, opts models.ListOptions) ([]*models.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.PaymentTransaction
	for _, tx := range s.byID {
		if accountID != "" && tx.AccountID != accountID {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}
	return out, nil
}

type memWorkflows struct {
	mu         sync.Mutex
	byID       map[string]*models.Workflow
	replaceErr error
}

func (s *memWorkflows) Get(ctx context.Context, id string) (*models.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wf, ok := s.byID[id]
	if !ok {
		return nil, apperr.New(apperr.EntityNotFound, "workflow not found")
	}
	cp := *wf
	cp.WorktyInstanceIDs = append([]string(nil), wf.WorktyInstanceIDs...)
	return &cp, nil
}

func (s *memWorkflows) Create(ctx context.Context, workflow *models.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *workflow
	cp.WorktyInstanceIDs = append([]string(nil), workflow.WorktyInstanceIDs...)
	s.byID[workflow.ID] = &cp
	return nil
}

func (s *memWorkflows) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return apperr.New(apperr.EntityNotDeleted, "workflow not deleted")
	}
	delete(s.byID, id)
	return nil
}

func (s *memWorkflows) List(ctx context.Context, accountID string, opts models.ListOptions) ([]*models.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Workflow
	for _, wf := range s.byID {
		if accountID != "" && wf.AccountID != accountID {
			continue
		}
		cp := *wf
		cp.WorktyInstanceIDs = append([]string(nil), wf.WorktyInstanceIDs...)
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memWorkflows) ReplaceInstanceIDs(ctx context.Context, id string, ids []string, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaceErr != nil {
		return s.replaceErr
	}
	wf, ok := s.byID[id]
	if !ok || wf.Version != expectedVersion {
		return apperr.New(apperr.EntityNotUpdated, "workflow instance list not written")
	}
	wf.WorktyInstanceIDs = append([]string(nil), ids...)
	wf.Version++
	return nil
}

type memInstances struct {
	mu         sync.Mutex
	byID       map[string]*models.WorktyInstance
	workflows  *memWorkflows
	setPropErr error
}

func (s *memInstances) Get(ctx context.Context, id string) (*models.WorktyInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.byID[id]
	if !ok {
		return nil, apperr.New(apperr.EntityNotFound, "workty instance not found")
	}
	cp := *inst
	return &cp, nil
}

func (s *memInstances) Create(ctx context.Context, instance *models.WorktyInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *instance
	s.byID[instance.ID] = &cp
	return nil
}

func (s *memInstances) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return apperr.New(apperr.EntityNotDeleted, "workty instance not deleted")
	}
	delete(s.byID, id)
	return nil
}

func (s *memInstances) SetPropertyIDs(ctx context.Context, id string, propertyIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setPropErr != nil {
		return s.setPropErr
	}
	inst, ok := s.byID[id]
	if !ok {
		return apperr.New(apperr.EntityNotUpdated, "workty instance not updated")
	}
	inst.PropertyIDs = append([]string(nil), propertyIDs...)
	return nil
}

func (s *memInstances) ApplyPatch(ctx context.Context, id string, patch models.InstancePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.byID[id]
	if !ok {
		return apperr.New(apperr.EntityNotUpdated, "workty instance not updated")
	}
	if patch.Name != nil {
		inst.Name = *patch.Name
	}
	if patch.Desc != nil {
		inst.Desc = *patch.Desc
	}
	if patch.State != nil {
		inst.State = *patch.State
	}
	return nil
}

func (s *memInstances) List(ctx context.Context, filter repository.InstanceFilter, opts models.ListOptions) ([]*models.WorktyInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.WorktyInstance
	for _, inst := range s.byID {
		if filter.WorkflowID != "" && inst.WorkflowID != filter.WorkflowID {
			continue
		}
		if filter.State != "" && inst.State != filter.State {
			continue
		}
		if filter.AccountID != "" && s.workflows != nil {
			wf, ok := s.workflows.byID[inst.WorkflowID]
			if !ok || wf.AccountID != filter.AccountID {
				continue
			}
		}
		cp := *inst
		out = append(out, &cp)
	}
	return out, nil
}

func newMemStores() *repository.Stores {
	workflows := &memWorkflows{byID: map[string]*models.Workflow{}}
	return &repository.Stores{
		Accounts:     &memAccounts{byID: map[string]*models.Account{}},
		Workties:     &memWorkties{byID: map[string]*models.Workty{}},
		Properties:   &memProperties{byID: map[string]*models.WorktyProperty{}},
		Transactions: &memTransactions{byID: map[string]*models.PaymentTransaction{}},
		Workflows:    workflows,
		Instances:    &memInstances{byID: map[string]*models.WorktyInstance{}, workflows: workflows},
	}
}
