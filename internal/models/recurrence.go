package models

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/shopspring/decimal"
)

// FrequencyKind enumerates the supported recurrence frequencies.
type FrequencyKind string

const (
	FrequencyDaily      FrequencyKind = "DAILY"
	FrequencyWeekly     FrequencyKind = "WEEKLY"
	FrequencyMonthly    FrequencyKind = "MONTHLY"
	FrequencyYearly     FrequencyKind = "YEARLY"
	FrequencyCustomDays FrequencyKind = "CUSTOM_DAYS"
)

// Frequency is a closed variant: the kind carries its own interval, so
// invalid kind/interval combinations are unrepresentable.
type Frequency struct {
	Kind     FrequencyKind `json:"kind"`
	Interval int           `json:"interval"`
}

// Validate checks the frequency for a known kind and a positive interval.
func (f Frequency) Validate() error {
	switch f.Kind {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly, FrequencyCustomDays:
	default:
		return &ValidationError{Reason: fmt.Sprintf("unknown frequency kind %q", f.Kind)}
	}
	if f.Interval < 1 {
		return &ValidationError{Reason: fmt.Sprintf("frequency interval must be >= 1, got %d", f.Interval)}
	}
	return nil
}

// RecurrenceDefinition describes a recurring financial obligation.
// The amount is either fixed (AmountFixed set) or sampled from the
// inclusive range [AmountMin, AmountMax].
type RecurrenceDefinition struct {
	ID                int64            `json:"id"`
	ProfileID         int64            `json:"profile_id"`
	AccountID         int64            `json:"account_id"`
	CategoryID        int64            `json:"category_id"`
	AmountFixed       *decimal.Decimal `json:"amount_fixed,omitempty"`
	AmountMin         *decimal.Decimal `json:"amount_min,omitempty"`
	AmountMax         *decimal.Decimal `json:"amount_max,omitempty"`
	Currency          string           `json:"currency"`
	Frequency         Frequency        `json:"frequency"`
	StartDate         time.Time        `json:"start_date"`
	EndDate           *time.Time       `json:"end_date,omitempty"`
	LastGeneratedDate *time.Time       `json:"last_generated_date,omitempty"`
	IsActive          bool             `json:"is_active"`
	Description       string           `json:"description"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// Validate checks the definition for a well-formed rule and amount model.
func (d *RecurrenceDefinition) Validate() error {
	if err := d.Frequency.Validate(); err != nil {
		return err
	}
	if d.Currency == "" {
		return &ValidationError{Reason: "currency is required"}
	}
	if d.StartDate.IsZero() {
		return &ValidationError{Reason: "start_date is required"}
	}
	if d.EndDate != nil && d.EndDate.Before(d.StartDate) {
		return &ValidationError{Reason: "end_date precedes start_date"}
	}
	switch {
	case d.AmountFixed != nil:
		if d.AmountMin != nil || d.AmountMax != nil {
			return &ValidationError{Reason: "amount is either fixed or a range, not both"}
		}
	case d.AmountMin != nil && d.AmountMax != nil:
		if d.AmountMax.LessThan(*d.AmountMin) {
			return &ValidationError{Reason: "amount_max precedes amount_min"}
		}
	default:
		return &ValidationError{Reason: "amount model is required (fixed or min/max range)"}
	}
	return nil
}

// AmountFor resolves the transaction amount for one due date. Ranged
// amounts are sampled from an FNV-1a hash of (definition id, due date),
// so retries of the same occurrence always produce the same amount.
func (d *RecurrenceDefinition) AmountFor(due time.Time) decimal.Decimal {
	if d.AmountFixed != nil {
		return *d.AmountFixed
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s", d.ID, due.Format("2006-01-02"))
	span := d.AmountMax.Sub(*d.AmountMin)
	frac := decimal.NewFromFloat(float64(h.Sum64()%100001) / 100000.0)
	return d.AmountMin.Add(span.Mul(frac)).Round(2)
}
