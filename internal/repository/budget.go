package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/finance-scheduler/internal/models"
)

// ListActiveBudgets retrieves every active budget.
func (r *Repository) ListActiveBudgets(ctx context.Context) ([]models.Budget, error) {
	query := `
		SELECT id, profile_id, currency, start_date, end_date, is_active, created_at, updated_at
		FROM scheduler.budgets
		WHERE is_active = TRUE
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistence("list budgets", err)
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		var b models.Budget
		err := rows.Scan(&b.ID, &b.ProfileID, &b.Currency, &b.StartDate, &b.EndDate, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, persistence("scan budget", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list budgets", err)
	}
	return budgets, nil
}

// ListBudgetCategories retrieves the allocation lines of one budget.
func (r *Repository) ListBudgetCategories(ctx context.Context, budgetID int64) ([]models.BudgetCategory, error) {
	query := `
		SELECT id, budget_id, category_id, allocated_amount, spent_amount, alert_threshold_pct
		FROM scheduler.budget_categories
		WHERE budget_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, budgetID)
	if err != nil {
		return nil, persistence("list budget categories", err)
	}
	defer rows.Close()

	var cats []models.BudgetCategory
	for rows.Next() {
		var c models.BudgetCategory
		err := rows.Scan(&c.ID, &c.BudgetID, &c.CategoryID, &c.AllocatedAmount, &c.SpentAmount, &c.AlertThresholdPct)
		if err != nil {
			return nil, persistence("scan budget category", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list budget categories", err)
	}
	return cats, nil
}

// ListTransactionsInPeriod retrieves a profile's transactions dated
// within [start, end] in one batch query.
func (r *Repository) ListTransactionsInPeriod(ctx context.Context, profileID int64, start, end time.Time) ([]models.Transaction, error) {
	query := `
		SELECT id, profile_id, account_id, category_id, amount, currency, date, source, description, created_at
		FROM scheduler.transactions
		WHERE profile_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, id`
	rows, err := r.db.QueryContext(ctx, query, profileID, start, end)
	if err != nil {
		return nil, persistence("list transactions", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.ProfileID, &t.AccountID, &t.CategoryID, &t.Amount, &t.Currency, &t.Date, &t.Source, &t.Description, &t.CreatedAt)
		if err != nil {
			return nil, persistence("scan transaction", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list transactions", err)
	}
	return txns, nil
}

// UpdateBudgetCategorySpent overwrites the derived spent_amount of one
// allocation line.
func (r *Repository) UpdateBudgetCategorySpent(ctx context.Context, budgetCategoryID int64, spent decimal.Decimal) error {
	query := `
		UPDATE scheduler.budget_categories
		SET spent_amount = $1
		WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, spent, budgetCategoryID); err != nil {
		return persistence("update spent amount", err)
	}
	return nil
}

// FindRateOnOrBefore returns the most recent exchange rate for the pair
// dated on or before the given date. found is false when the pair has
// no rate at all in that range.
func (r *Repository) FindRateOnOrBefore(ctx context.Context, from, to string, date time.Time) (rate decimal.Decimal, found bool, err error) {
	query := `
		SELECT rate
		FROM scheduler.exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND rate_date <= $3
		ORDER BY rate_date DESC
		LIMIT 1`
	err = r.db.QueryRowContext(ctx, query, from, to, date).Scan(&rate)
	if err == sql.ErrNoRows {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, persistence("find exchange rate", err)
	}
	return rate, true, nil
}
