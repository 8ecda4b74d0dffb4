package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/internal/repository"
	"worktyhub/backend/pkg/models"
)

// purchaseMessage is the fixed transaction message written by the saga. The
// message may be edited later through the transaction store.
const purchaseMessage = "workty purchased from catalog"

// PurchaseResult is the output of a completed purchase.
type PurchaseResult struct {
	Transaction *models.PaymentTransaction `json:"payment_transaction"`
	Workty      *models.Workty             `json:"workty"`
}

// PurchaseService clones a catalog template into an owned workty, records
// the payment transaction, and debits the buyer's balance. The steps lack
// multi-document atomicity, so each completed write registers an undo that
// is replayed in reverse if a later step fails.
type PurchaseService struct {
	accounts repository.AccountStore
	workties repository.WorktyStore
	props    repository.PropertyStore
	txs      repository.TransactionStore
	cloner   *PropertyCloner
	log      Logger
}

// NewPurchaseService creates a new PurchaseService.
func NewPurchaseService(stores *repository.Stores, cloner *PropertyCloner, log Logger) *PurchaseService {
	return &PurchaseService{
		accounts: stores.Accounts,
		workties: stores.Workties,
		props:    stores.Properties,
		txs:      stores.Transactions,
		cloner:   cloner,
		log:      log,
	}
}

// undo is one registered compensation of a partially completed purchase.
type undo struct {
	step string
	fn   func(context.Context) error
}

// RealPrice computes the charged amount in cents after the catalog discount,
// using exact decimal arithmetic.
func RealPrice(price int64, discountPercent int) int64 {
	return decimal.NewFromInt(price).
		Mul(decimal.NewFromInt(int64(100 - discountPercent))).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// Purchase runs the saga: validate → look up template and account → check
// balance → clone template and properties → record transaction → debit
// balance. The balance check is pure and runs before any write; a purchase
// that cannot be paid for leaves no side effects. Each invocation creates a
// fresh clone and transaction, purchases are deliberately not idempotent.
func (s *PurchaseService) Purchase(ctx context.Context, caller Caller, templateID string) (*PurchaseResult, error) {
	var missing []string
	if caller.AccountID == "" {
		missing = append(missing, "account_id")
	}
	if templateID == "" {
		missing = append(missing, "workty_id")
	}
	if len(missing) > 0 {
		return nil, apperr.MissingParameters(missing...)
	}

	template, err := s.workties.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !template.Template {
		return nil, apperr.New(apperr.EntityNotFound, "workty is not a catalog template")
	}

	account, err := s.accounts.Get(ctx, caller.AccountID)
	if err != nil {
		return nil, err
	}
	if account.Removed {
		return nil, apperr.New(apperr.EntityNotFound, "account is removed")
	}

	realPrice := RealPrice(template.Price, template.DiscountPercent)
	newAmount := account.Amount - realPrice
	if newAmount < 0 && realPrice > 0 {
		return nil, apperr.Newf(apperr.NotEnoughFunds, "balance %d is below price %d", account.Amount, realPrice)
	}

	var undos []undo
	fail := func(cause error) (*PurchaseResult, error) {
		s.compensate(ctx, undos)
		return nil, cause
	}

	// Clone the template's properties first; the owning workty is written
	// afterwards with the resulting id list.
	ownedID := uuid.New().String()
	propertyIDs, err := s.cloner.CloneByIDs(ctx, ownedID, template.PropertyIDs)
	if err != nil {
		return fail(err)
	}
	undos = append(undos, undo{step: "clone properties", fn: func(ctx context.Context) error {
		return s.props.DeleteBatch(ctx, ownedID)
	}})

	owned := cloneTemplate(template, ownedID, caller.AccountID, propertyIDs)
	if err := s.workties.Create(ctx, owned); err != nil {
		return fail(err)
	}
	undos = append(undos, undo{step: "clone workty", fn: func(ctx context.Context) error {
		return s.workties.Delete(ctx, ownedID)
	}})

	tx := &models.PaymentTransaction{
		ID:        uuid.New().String(),
		AccountID: caller.AccountID,
		WorktyID:  ownedID,
		Message:   purchaseMessage,
	}
	if err := s.txs.Create(ctx, tx); err != nil {
		return fail(err)
	}
	undos = append(undos, undo{step: "record transaction", fn: func(ctx context.Context) error {
		return s.txs.Delete(ctx, tx.ID)
	}})

	// The debit is awaited; a failed write aborts the whole purchase rather
	// than reporting success against an untouched balance.
	if err := s.accounts.SetAmount(ctx, caller.AccountID, newAmount); err != nil {
		return fail(apperr.Wrap(apperr.EntityNotUpdated, "balance debit failed", err))
	}

	s.log.Info("purchase completed",
		"workty", ownedID, "template", templateID, "price", realPrice)

	return &PurchaseResult{Transaction: tx, Workty: owned}, nil
}

// compensate walks the registered undos in reverse. A failed undo leaves an
// orphan; it is logged and skipped so the remaining undos still run.
func (s *PurchaseService) compensate(ctx context.Context, undos []undo) {
	for i := len(undos) - 1; i >= 0; i-- {
		if err := undos[i].fn(ctx); err != nil {
			s.log.Error("purchase compensation failed, orphan left behind",
				"step", undos[i].step, "error", err)
		}
	}
}

// cloneTemplate copies every descriptive field of the template verbatim onto
// an owned workty. Template is forced off and ownership pinned to the buyer.
func cloneTemplate(template *models.Workty, id, ownerAccountID string, propertyIDs []string) *models.Workty {
	code := make([]byte, len(template.Code))
	copy(code, template.Code)
	return &models.Workty{
		ID:              id,
		OwnerAccountID:  ownerAccountID,
		Template:        false,
		Price:           template.Price,
		DiscountPercent: template.DiscountPercent,
		Name:            template.Name,
		Category:        template.Category,
		LanguageType:    template.LanguageType,
		ValidationState: template.ValidationState,
		EntryPoint:      template.EntryPoint,
		Code:            code,
		PropertyIDs:     propertyIDs,
	}
}
