package models

import "time"

// Occurrence statuses.
const (
	OccurrencePending   = "PENDING"
	OccurrenceConfirmed = "CONFIRMED"
	OccurrenceSkipped   = "SKIPPED"
	OccurrenceFailed    = "FAILED"
)

// Occurrence is one concrete instance of a recurring obligation due on
// a specific date. Uniqueness on (definition_id, due_date) is the sole
// idempotency guard for materialization.
type Occurrence struct {
	ID            int64      `json:"id"`
	DefinitionID  int64      `json:"definition_id"`
	DueDate       time.Time  `json:"due_date"`
	Status        string     `json:"status"`
	TransactionID *int64     `json:"transaction_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}
