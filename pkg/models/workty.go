package models

import (
	"encoding/json"
	"time"
)

// Workty is a reusable workflow component. With Template=true it is immutable
// catalog data owned by nobody; purchasing clones it into an owned copy with
// Template=false and OwnerAccountID set to the buyer.
type Workty struct {
	ID              string    `json:"id"`
	OwnerAccountID  string    `json:"owner_account_id,omitempty"`
	Template        bool      `json:"template"`
	Price           int64     `json:"price"` // minor units (cents)
	DiscountPercent int       `json:"discount_percent"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	LanguageType    string    `json:"language_type"`
	ValidationState string    `json:"validation_state"`
	EntryPoint      string    `json:"entry_point"`
	Code            []byte    `json:"code,omitempty"` // compressed source blob
	PropertyIDs     []string  `json:"property_ids"`
	CreatedAt       time.Time `json:"created"`

	// Embedded relations, populated on request.
	Properties []*WorktyProperty `json:"properties,omitempty"`
}

// MaxDiscountPercent bounds catalog discounts.
const MaxDiscountPercent = 30

// WorktyProperty is a single name/value document attached to a workty or to
// a workty instance. Clones share name and value with their source but never
// identity; BatchID groups the clones written by one saga so a partial batch
// can be swept by key.
type WorktyProperty struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Value   json.RawMessage `json:"value"`
	BatchID string          `json:"-"`
}
