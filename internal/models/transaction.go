package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionSourceRecurring tags transactions created by the materializer.
const TransactionSourceRecurring = "RECURRING"

// Transaction represents a financial transaction
type Transaction struct {
	ID          int64           `json:"id"`
	ProfileID   int64           `json:"profile_id"`
	AccountID   int64           `json:"account_id"`
	CategoryID  int64           `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
	Source      string          `json:"source"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
