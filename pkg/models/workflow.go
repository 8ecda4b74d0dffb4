package models

import "time"

// Workflow is an account-owned ordered pipeline of workty instances.
// WorktyInstanceIDs is the authoritative order; Version guards the
// read-modify-write of that array against concurrent mutation.
type Workflow struct {
	ID                string    `json:"id"`
	AccountID         string    `json:"account_id"`
	Name              string    `json:"name"`
	WorktyInstanceIDs []string  `json:"workty_instance_ids"`
	Version           int64     `json:"-"`
	CreatedAt         time.Time `json:"created"`

	// Embedded relations, populated on request.
	Instances []*WorktyInstance `json:"instances,omitempty"`
}

// Instance lifecycle states.
const (
	InstanceStateInitial = "initial"
	InstanceStateRunning = "running"
	InstanceStatePaused  = "paused"
	InstanceStateStopped = "stopped"
)

// WorktyInstance is a per-workflow occurrence of an owned workty. Its
// PropertyIDs are independent clones made when the instance was inserted,
// never shared with the source workty.
type WorktyInstance struct {
	ID          string    `json:"id"`
	WorkflowID  string    `json:"workflow_id"`
	WorktyID    string    `json:"workty_id"`
	Name        string    `json:"name"`
	Desc        string    `json:"desc,omitempty"`
	State       string    `json:"state"`
	PropertyIDs []string  `json:"property_ids"`
	CreatedAt   time.Time `json:"created"`

	// Embedded relations, populated on request.
	Workflow   *Workflow         `json:"workflow,omitempty"`
	Workty     *Workty           `json:"workty,omitempty"`
	Properties []*WorktyProperty `json:"properties,omitempty"`
}
