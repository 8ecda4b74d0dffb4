package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"worktyhub/backend/internal/policy"
)

// PostgresPolicyStore loads ACL rules for the policy engine.
type PostgresPolicyStore struct {
	db *pgxpool.Pool
}

func (s *PostgresPolicyStore) ListRules(ctx context.Context) ([]policy.Rule, error) {
	rows, err := s.db.Query(ctx, "SELECT account_id, resource, permission FROM acl_rules")
	if err != nil {
		return nil, readErr(err, "acl rules")
	}
	defer rows.Close()

	var rules []policy.Rule
	for rows.Next() {
		var r policy.Rule
		if err := rows.Scan(&r.AccountID, &r.Resource, &r.Permission); err != nil {
			return nil, readErr(err, "acl rules")
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(err, "acl rules")
	}
	return rules, nil
}

func (s *PostgresPolicyStore) ListAdminAccounts(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, "SELECT account_id FROM acl_admins")
	if err != nil {
		return nil, readErr(err, "acl admins")
	}
	defer rows.Close()

	var admins []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, readErr(err, "acl admins")
		}
		admins = append(admins, id)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(err, "acl admins")
	}
	return admins, nil
}

// InsertRule grants a permission; used by the admin CLI.
func (s *PostgresPolicyStore) InsertRule(ctx context.Context, r policy.Rule) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO acl_rules (account_id, resource, permission) VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		r.AccountID, r.Resource, r.Permission)
	if err != nil {
		return saveErr(err, "acl rule")
	}
	return nil
}

// InsertAdmin marks an account as admin; used by the admin CLI.
func (s *PostgresPolicyStore) InsertAdmin(ctx context.Context, accountID string) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO acl_admins (account_id) VALUES ($1) ON CONFLICT DO NOTHING", accountID)
	if err != nil {
		return saveErr(err, "acl admin")
	}
	return nil
}
