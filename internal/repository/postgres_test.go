package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/internal/policy"
	"worktyhub/backend/pkg/models"
)

func TestPostgresStores(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	if err := Migrate(ctx, pool); err != nil {
		t.Fatal(err)
	}

	stores := NewPostgresStores(pool)

	t.Run("accounts", func(t *testing.T) {
		id := uuid.New().String()
		err := stores.Accounts.Create(ctx, &models.Account{ID: id, Amount: 1000})
		assert.NoError(t, err)

		account, err := stores.Accounts.Get(ctx, id)
		assert.NoError(t, err)
		assert.Equal(t, int64(1000), account.Amount)
		assert.False(t, account.Removed)

		err = stores.Accounts.SetAmount(ctx, id, 550)
		assert.NoError(t, err)

		account, err = stores.Accounts.Get(ctx, id)
		assert.NoError(t, err)
		assert.Equal(t, int64(550), account.Amount)

		err = stores.Accounts.SetAmount(ctx, uuid.New().String(), 1)
		assert.Equal(t, apperr.EntityNotUpdated, apperr.KindOf(err))

		_, err = stores.Accounts.Get(ctx, uuid.New().String())
		assert.Equal(t, apperr.EntityNotFound, apperr.KindOf(err))
	})

	t.Run("workties", func(t *testing.T) {
		owner := uuid.New().String()
		tplID := uuid.New().String()
		err := stores.Workties.Create(ctx, &models.Workty{
			ID:              tplID,
			Template:        true,
			Price:           500,
			DiscountPercent: 10,
			Name:            "CSV Normalizer",
			Category:        "etl",
			LanguageType:    "javascript",
			EntryPoint:      "index.js",
			Code:            []byte("module.exports = run"),
			PropertyIDs:     []string{uuid.New().String()},
		})
		assert.NoError(t, err)

		ownedID := uuid.New().String()
		err = stores.Workties.Create(ctx, &models.Workty{
			ID:             ownedID,
			OwnerAccountID: owner,
			Name:           "CSV Normalizer",
			Category:       "etl",
		})
		assert.NoError(t, err)

		tpl, err := stores.Workties.Get(ctx, tplID)
		assert.NoError(t, err)
		assert.True(t, tpl.Template)
		assert.Empty(t, tpl.OwnerAccountID, "templates carry no owner")
		assert.Equal(t, []byte("module.exports = run"), tpl.Code)
		assert.Len(t, tpl.PropertyIDs, 1)

		isTemplate := true
		templates, err := stores.Workties.List(ctx, WorktyFilter{Template: &isTemplate, Category: "etl"}, models.ListOptions{PerPage: 50})
		assert.NoError(t, err)
		for _, w := range templates {
			assert.True(t, w.Template)
		}

		owned, err := stores.Workties.List(ctx, WorktyFilter{OwnerAccountID: owner}, models.ListOptions{PerPage: 50})
		assert.NoError(t, err)
		require.Len(t, owned, 1)
		assert.Equal(t, ownedID, owned[0].ID)

		err = stores.Workties.Delete(ctx, ownedID)
		assert.NoError(t, err)
		_, err = stores.Workties.Get(ctx, ownedID)
		assert.Equal(t, apperr.EntityNotFound, apperr.KindOf(err))
	})

	t.Run("properties", func(t *testing.T) {
		batch := uuid.New().String()
		p1 := &models.WorktyProperty{ID: uuid.New().String(), Name: "delimiter", Value: json.RawMessage(`","`), BatchID: batch}
		p2 := &models.WorktyProperty{ID: uuid.New().String(), Name: "trim", Value: json.RawMessage(`true`), BatchID: batch}
		require.NoError(t, stores.Properties.Create(ctx, p1))
		require.NoError(t, stores.Properties.Create(ctx, p2))

		// order follows the requested ids, absent ids are skipped
		got, err := stores.Properties.GetMany(ctx, []string{p2.ID, uuid.New().String(), p1.ID})
		assert.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "trim", got[0].Name)
		assert.Equal(t, "delimiter", got[1].Name)

		p1.Value = json.RawMessage(`";"`)
		assert.NoError(t, stores.Properties.Update(ctx, p1))
		fresh, err := stores.Properties.Get(ctx, p1.ID)
		assert.NoError(t, err)
		assert.JSONEq(t, `";"`, string(fresh.Value))

		assert.NoError(t, stores.Properties.DeleteBatch(ctx, batch))
		_, err = stores.Properties.Get(ctx, p1.ID)
		assert.Equal(t, apperr.EntityNotFound, apperr.KindOf(err))
		_, err = stores.Properties.Get(ctx, p2.ID)
		assert.Equal(t, apperr.EntityNotFound, apperr.KindOf(err))
	})

	t.Run("transactions", func(t *testing.T) {
		accountID := uuid.New().String()
		tx := &models.PaymentTransaction{
			ID:        uuid.New().String(),
			AccountID: accountID,
			WorktyID:  uuid.New().String(),
			Message:   "workty purchased from catalog",
		}
		require.NoError(t, stores.Transactions.Create(ctx, tx))

		assert.NoError(t, stores.Transactions.UpdateMessage(ctx, tx.ID, "starter pack"))
		fresh, err := stores.Transactions.Get(ctx, tx.ID)
		assert.NoError(t, err)
		assert.Equal(t, "starter pack", fresh.Message)

		list, err := stores.Transactions.List(ctx, accountID, models.ListOptions{})
		assert.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, tx.ID, list[0].ID)

		assert.NoError(t, stores.Transactions.Delete(ctx, tx.ID))
		_, err = stores.Transactions.Get(ctx, tx.ID)
		assert.Equal(t, apperr.EntityNotFound, apperr.KindOf(err))
	})

	t.Run("workflow instance list versioning", func(t *testing.T) {
		wfID := uuid.New().String()
		require.NoError(t, stores.Workflows.Create(ctx, &models.Workflow{
			ID:        wfID,
			AccountID: uuid.New().String(),
			Name:      "etl pipeline",
		}))

		wf, err := stores.Workflows.Get(ctx, wfID)
		require.NoError(t, err)
		assert.Empty(t, wf.WorktyInstanceIDs)

		ids := []string{uuid.New().String(), uuid.New().String()}
		assert.NoError(t, stores.Workflows.ReplaceInstanceIDs(ctx, wfID, ids, wf.Version))

		fresh, err := stores.Workflows.Get(ctx, wfID)
		require.NoError(t, err)
		assert.Equal(t, ids, fresh.WorktyInstanceIDs)
		assert.Equal(t, wf.Version+1, fresh.Version)

		// a write against the stale version affects zero rows
		err = stores.Workflows.ReplaceInstanceIDs(ctx, wfID, nil, wf.Version)
		assert.Equal(t, apperr.EntityNotUpdated, apperr.KindOf(err))

		unchanged, err := stores.Workflows.Get(ctx, wfID)
		require.NoError(t, err)
		assert.Equal(t, ids, unchanged.WorktyInstanceIDs)
	})

	t.Run("instances", func(t *testing.T) {
		accountID := uuid.New().String()
		wfID := uuid.New().String()
		require.NoError(t, stores.Workflows.Create(ctx, &models.Workflow{
			ID: wfID, AccountID: accountID, Name: "media pipeline",
		}))

		inst := &models.WorktyInstance{
			ID:         uuid.New().String(),
			WorkflowID: wfID,
			WorktyID:   uuid.New().String(),
			Name:       "resize step",
			State:      models.InstanceStateInitial,
		}
		require.NoError(t, stores.Instances.Create(ctx, inst))

		propIDs := []string{uuid.New().String()}
		assert.NoError(t, stores.Instances.SetPropertyIDs(ctx, inst.ID, propIDs))

		name := "resize to 800px"
		state := models.InstanceStateRunning
		assert.NoError(t, stores.Instances.ApplyPatch(ctx, inst.ID, models.InstancePatch{Name: &name, State: &state}))

		fresh, err := stores.Instances.Get(ctx, inst.ID)
		require.NoError(t, err)
		assert.Equal(t, "resize to 800px", fresh.Name)
		assert.Equal(t, models.InstanceStateRunning, fresh.State)
		assert.Equal(t, propIDs, fresh.PropertyIDs)

		byWorkflow, err := stores.Instances.List(ctx, InstanceFilter{WorkflowID: wfID}, models.ListOptions{})
		assert.NoError(t, err)
		require.Len(t, byWorkflow, 1)

		byAccount, err := stores.Instances.List(ctx, InstanceFilter{AccountID: accountID}, models.ListOptions{})
		assert.NoError(t, err)
		require.Len(t, byAccount, 1)
		assert.Equal(t, inst.ID, byAccount[0].ID)

		assert.NoError(t, stores.Instances.Delete(ctx, inst.ID))
		_, err = stores.Instances.Get(ctx, inst.ID)
		assert.Equal(t, apperr.EntityNotFound, apperr.KindOf(err))
	})

	t.Run("policy rules", func(t *testing.T) {
		policyStore := stores.Policy.(*PostgresPolicyStore)
		accountID := uuid.New().String()
		adminID := uuid.New().String()

		rule := policy.Rule{AccountID: accountID, Resource: "workties", Permission: "view"}
		require.NoError(t, policyStore.InsertRule(ctx, rule))
		// inserts are idempotent
		require.NoError(t, policyStore.InsertRule(ctx, rule))
		require.NoError(t, policyStore.InsertAdmin(ctx, adminID))

		rules, err := policyStore.ListRules(ctx)
		assert.NoError(t, err)
		assert.Contains(t, rules, rule)

		admins, err := policyStore.ListAdminAccounts(ctx)
		assert.NoError(t, err)
		assert.Contains(t, admins, adminID)
	})
}
