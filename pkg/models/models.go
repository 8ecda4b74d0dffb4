// Package models defines the domain documents for the workty marketplace.
package models

import "time"

// Account holds a buyer's internal credit balance. Amount is kept in minor
// units (cents); a removed account stays on record for transaction history.
type Account struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	Removed   bool      `json:"removed"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentTransaction records a single purchase. It is written once by the
// purchase saga; only the message may be edited afterwards.
type PaymentTransaction struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	WorktyID  string    `json:"workty_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created"`
}

// PositionType selects a symbolic insertion point in a workflow's ordered
// instance list.
type PositionType string

const (
	PositionFirst PositionType = "first"
	PositionLast  PositionType = "last"
)

// PositionSpec carries the mutually-prioritized position arguments of an
// insert request. An explicit Index wins over ID; both win over Type.
type PositionSpec struct {
	Type  PositionType
	Index *int
	ID    string
}

// ListOptions are the already-parsed pagination/sort/projection options a
// list call honors. Parsing query parameters into this struct is the
// transport layer's business.
type ListOptions struct {
	Page    int
	PerPage int
	Sort    string
	Desc    bool
	Fields  []string
	Embeds  []string
}

const DefaultPerPage = 10

// Normalize clamps paging values to sane defaults.
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PerPage < 1 {
		o.PerPage = DefaultPerPage
	}
	return o
}

// Offset returns the row offset for the current page.
func (o ListOptions) Offset() int {
	return (o.Page - 1) * o.PerPage
}

// HasEmbed reports whether the given relation was requested.
func (o ListOptions) HasEmbed(name string) bool {
	for _, e := range o.Embeds {
		if e == name {
			return true
		}
	}
	return false
}

// InstancePatch enumerates the mutable fields of a workty instance. State
// transitions are reserved to admin callers; owners may only touch the
// descriptive fields.
type InstancePatch struct {
	Name  *string `json:"name,omitempty"`
	Desc  *string `json:"desc,omitempty"`
	State *string `json:"state,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p InstancePatch) Empty() bool {
	return p.Name == nil && p.Desc == nil && p.State == nil
}
