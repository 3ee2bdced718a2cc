package models

import (
	"encoding/json"
	"time"
)

// Notification statuses. READ and RESOLVED are terminal.
const (
	NotificationUnread   = "UNREAD"
	NotificationRead     = "READ"
	NotificationResolved = "RESOLVED"
)

// Notification types raised by the scheduler.
const (
	NotificationBudgetAlert = "BUDGET_THRESHOLD"
)

// Notification is an ephemeral message for a profile. DedupKey lets the
// budget aggregator suppress repeated alerts for the same threshold
// crossing while an unresolved one exists.
type Notification struct {
	ID        int64           `json:"id"`
	ProfileID int64           `json:"profile_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	DedupKey  string          `json:"dedup_key"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}
