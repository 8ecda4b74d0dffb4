// Package policy is the permission gate consulted before every mutating
// entry point. Rules are loaded into an immutable snapshot; handlers read
// the snapshot of the moment and never touch shared mutable state.
package policy

import (
	"context"
	"sync"
)

// Rule grants one permission on one resource to one account.
type Rule struct {
	AccountID  string
	Resource   string
	Permission string
}

// Store loads the persisted rule set.
type Store interface {
	ListRules(ctx context.Context) ([]Rule, error)
	ListAdminAccounts(ctx context.Context) ([]string, error)
}

// Snapshot is a read-only view of the rule set at load time.
type Snapshot struct {
	allowed map[string]struct{}
	admins  map[string]struct{}
}

// IsAllowed reports whether the account holds the permission on the
// resource. Admin accounts hold every permission.
func (s *Snapshot) IsAllowed(accountID, resource, permission string) bool {
	if s == nil {
		return false
	}
	if _, ok := s.admins[accountID]; ok {
		return true
	}
	_, ok := s.allowed[ruleKey(accountID, resource, permission)]
	return ok
}

// HasAdminRole reports whether the account carries the admin role.
func (s *Snapshot) HasAdminRole(accountID string) bool {
	if s == nil {
		return false
	}
	_, ok := s.admins[accountID]
	return ok
}

func ruleKey(accountID, resource, permission string) string {
	return accountID + "\x00" + resource + "\x00" + permission
}

// Logger is the logging interface the engine needs.
type Logger interface {
	Info(msg string, args ...any)
}

// Engine owns the current snapshot and swaps it atomically on reload.
type Engine struct {
	store Store
	log   Logger

	mu   sync.RWMutex
	snap *Snapshot
}

// NewEngine creates an engine over the given store. Load must be called
// before the first request is served.
func NewEngine(store Store, log Logger) *Engine {
	return &Engine{store: store, log: log}
}

// Load reads the full rule set and replaces the current snapshot.
func (e *Engine) Load(ctx context.Context) error {
	rules, err := e.store.ListRules(ctx)
	if err != nil {
		return err
	}
	admins, err := e.store.ListAdminAccounts(ctx)
	if err != nil {
		return err
	}

	snap := &Snapshot{
		allowed: make(map[string]struct{}, len(rules)),
		admins:  make(map[string]struct{}, len(admins)),
	}
	for _, r := range rules {
		snap.allowed[ruleKey(r.AccountID, r.Resource, r.Permission)] = struct{}{}
	}
	for _, id := range admins {
		snap.admins[id] = struct{}{}
	}

	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()

	if e.log != nil {
		e.log.Info("policy snapshot loaded", "rules", len(rules), "admins", len(admins))
	}
	return nil
}

// Reload re-reads the rule set. Requests in flight keep the snapshot they
// started with.
func (e *Engine) Reload(ctx context.Context) error { return e.Load(ctx) }

// Snapshot returns the current read-only view.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// StaticSnapshot builds a snapshot directly from rules and admin ids,
// bypassing any store. Intended for tests and the dev bypass path.
func StaticSnapshot(rules []Rule, admins []string) *Snapshot {
	snap := &Snapshot{
		allowed: make(map[string]struct{}, len(rules)),
		admins:  make(map[string]struct{}, len(admins)),
	}
	for _, r := range rules {
		snap.allowed[ruleKey(r.AccountID, r.Resource, r.Permission)] = struct{}{}
	}
	for _, id := range admins {
		snap.admins[id] = struct{}{}
	}
	return snap
}
