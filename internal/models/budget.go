package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget represents a spending plan for one profile over a fixed period.
type Budget struct {
	ID        int64     `json:"id"`
	ProfileID int64     `json:"profile_id"`
	Currency  string    `json:"currency"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BudgetCategory is one allocation line within a budget. SpentAmount is
// derived by the budget aggregator and never hand-edited.
type BudgetCategory struct {
	ID                int64           `json:"id"`
	BudgetID          int64           `json:"budget_id"`
	CategoryID        int64           `json:"category_id"`
	AllocatedAmount   decimal.Decimal `json:"allocated_amount"`
	SpentAmount       decimal.Decimal `json:"spent_amount"`
	AlertThresholdPct decimal.Decimal `json:"alert_threshold_pct"`
}
