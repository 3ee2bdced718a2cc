package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancialGoal is a savings target. CurrentAmount is the sum of owned
// contributions; CompletionProbability is derived by the estimator.
type FinancialGoal struct {
	ID                    int64           `json:"id"`
	ProfileID             int64           `json:"profile_id"`
	Name                  string          `json:"name"`
	Currency              string          `json:"currency"`
	TargetAmount          decimal.Decimal `json:"target_amount"`
	TargetDate            time.Time       `json:"target_date"`
	CurrentAmount         decimal.Decimal `json:"current_amount"`
	CompletionProbability float64         `json:"completion_probability"`
	IsActive              bool            `json:"is_active"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// GoalContribution is a single payment toward a goal. Deleted together
// with its goal.
type GoalContribution struct {
	ID     int64           `json:"id"`
	GoalID int64           `json:"goal_id"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}
