package models

// Action is the single store write an applied order produced.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionClosed  Action = "closed"
)

// Outcome is the result of applying one executed order.
type Outcome struct {
	Action    Action    `json:"action"`
	Position  *Position `json:"position"`            // state after the write; quantity 0 when closed
	Overdraft bool      `json:"overdraft,omitempty"` // sell exceeded the held quantity and was closed out
}

// GroupMerge describes one duplicate group folded into its survivor.
type GroupMerge struct {
	Instrument string     `json:"instrument"`
	SurvivorID string     `json:"survivor_id"`
	RemovedIDs []string   `json:"removed_ids"`
	Before     []Position `json:"before"`
	After      Position   `json:"after"`
}

// GroupFailure is a duplicate group that could not be merged. Its records
// are left as they were.
type GroupFailure struct {
	Instrument string   `json:"instrument"`
	IDs        []string `json:"ids"`
	Reason     string   `json:"reason"`
	Err        error    `json:"-"`
}

// Consolidation is the outcome of merging duplicate positions.
type Consolidation struct {
	Merged     []Position     `json:"merged"`      // survivors plus untouched records, by instrument
	RemovedIDs []string       `json:"removed_ids"` // records absorbed into a survivor
	Groups     []GroupMerge   `json:"groups"`
	Failures   []GroupFailure `json:"failures,omitempty"`
}

// DuplicateGroup is a set of live positions sharing one instrument.
type DuplicateGroup struct {
	Instrument string     `json:"instrument"`
	Positions  []Position `json:"positions"`
	Preview    *Position  `json:"preview,omitempty"` // merged survivor if consolidated now
	Reason     string     `json:"reason,omitempty"`  // why it cannot be merged
}

// OrderFailure records an order from a source that was not applied.
type OrderFailure struct {
	Line   int    `json:"line,omitempty"`
	Order  *Order `json:"order,omitempty"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// ApplyReport summarises draining an order source.
type ApplyReport struct {
	Applied  int            `json:"applied"`
	Outcomes []Outcome      `json:"outcomes"`
	Failures []OrderFailure `json:"failures,omitempty"`
}
