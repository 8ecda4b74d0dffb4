// marketctl is the operator CLI: it seeds catalog data, adjusts account
// balances, and manages ACL entries directly against the database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"worktyhub/backend/internal/config"
	"worktyhub/backend/internal/logging"
	"worktyhub/backend/internal/policy"
	"worktyhub/backend/internal/repository"
	"worktyhub/backend/pkg/models"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:   "marketctl",
		Short: "Operator tooling for the workty marketplace",
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file")

	root.AddCommand(seedCmd(), creditCmd(), aclCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect loads config, opens the pool, and applies the schema.
func connect(ctx context.Context) (*pgxpool.Pool, *repository.Stores, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, repository.NewPostgresStores(pool), nil
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed demo accounts and catalog templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := logging.NewLogger()

			pool, stores, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			buyer := &models.Account{ID: uuid.New().String(), Amount: 100000}
			if err := stores.Accounts.Create(ctx, buyer); err != nil {
				return err
			}
			policyStore := stores.Policy.(*repository.PostgresPolicyStore)
			for _, resource := range []string{"workties", "workflows", "payments"} {
				for _, perm := range []string{"view", "update"} {
					rule := policy.Rule{AccountID: buyer.ID, Resource: resource, Permission: perm}
					if err := policyStore.InsertRule(ctx, rule); err != nil {
						return err
					}
				}
			}
			logger.Info("Seeded buyer account", "id", buyer.ID, "amount", buyer.Amount)

			templates := []struct {
				Name     string
				Category string
				Price    int64
				Discount int
				Props    map[string]any
			}{
				{"CSV Normalizer", "etl", 500, 10, map[string]any{"delimiter": ",", "trim": true}},
				{"Image Resizer", "media", 1200, 0, map[string]any{"width": 800, "height": 600}},
				{"Webhook Notifier", "integration", 300, 25, map[string]any{"retries": 3}},
			}
			for _, t := range templates {
				if t.Discount < 0 || t.Discount > models.MaxDiscountPercent {
					return fmt.Errorf("template %q: discount %d out of range", t.Name, t.Discount)
				}
				var propIDs []string
				batch := uuid.New().String()
				for name, value := range t.Props {
					raw, _ := json.Marshal(value)
					prop := &models.WorktyProperty{
						ID:      uuid.New().String(),
						Name:    name,
						Value:   raw,
						BatchID: batch,
					}
					if err := stores.Properties.Create(ctx, prop); err != nil {
						return err
					}
					propIDs = append(propIDs, prop.ID)
				}

				workty := &models.Workty{
					ID:              uuid.New().String(),
					Template:        true,
					Price:           t.Price,
					DiscountPercent: t.Discount,
					Name:            t.Name,
					Category:        t.Category,
					LanguageType:    "javascript",
					ValidationState: "approved",
					EntryPoint:      "index.js",
					PropertyIDs:     propIDs,
				}
				if err := stores.Workties.Create(ctx, workty); err != nil {
					return err
				}
				logger.Info("Seeded template", "name", t.Name, "id", workty.ID)
			}

			logger.Info("Seeding complete!")
			return nil
		},
	}
}

func creditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "credit <account-id> <amount-cents>",
		Short: "Overwrite an account balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("amount must be an integer: %w", err)
			}

			pool, stores, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := stores.Accounts.SetAmount(ctx, args[0], amount); err != nil {
				return err
			}
			fmt.Printf("balance set to %d\n", amount)
			return nil
		},
	}
}

func aclCmd() *cobra.Command {
	acl := &cobra.Command{
		Use:   "acl",
		Short: "Manage ACL rules",
	}

	acl.AddCommand(&cobra.Command{
		Use:   "grant <account-id> <resource> <permission>",
		Short: "Grant a permission on a resource",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, stores, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			rule := policy.Rule{AccountID: args[0], Resource: args[1], Permission: args[2]}
			return stores.Policy.(*repository.PostgresPolicyStore).InsertRule(cmd.Context(), rule)
		},
	})

	acl.AddCommand(&cobra.Command{
		Use:   "admin <account-id>",
		Short: "Mark an account as admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, stores, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			return stores.Policy.(*repository.PostgresPolicyStore).InsertAdmin(cmd.Context(), args[0])
		},
	})

	return acl
}
