package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/finance-scheduler/internal/models"
)

// ListActiveGoals retrieves every active financial goal.
func (r *Repository) ListActiveGoals(ctx context.Context) ([]models.FinancialGoal, error) {
	query := `
		SELECT id, profile_id, name, currency, target_amount, target_date,
		       current_amount, completion_probability, is_active, created_at, updated_at
		FROM scheduler.financial_goals
		WHERE is_active = TRUE
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistence("list goals", err)
	}
	defer rows.Close()

	var goals []models.FinancialGoal
	for rows.Next() {
		var g models.FinancialGoal
		err := rows.Scan(&g.ID, &g.ProfileID, &g.Name, &g.Currency, &g.TargetAmount, &g.TargetDate,
			&g.CurrentAmount, &g.CompletionProbability, &g.IsActive, &g.CreatedAt, &g.UpdatedAt)
		if err != nil {
			return nil, persistence("scan goal", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list goals", err)
	}
	return goals, nil
}

// ListRecentContributions retrieves the latest limit contributions of a
// goal in ascending date order.
func (r *Repository) ListRecentContributions(ctx context.Context, goalID int64, limit int) ([]models.GoalContribution, error) {
	query := `
		SELECT id, goal_id, amount, date FROM (
			SELECT id, goal_id, amount, date
			FROM scheduler.goal_contributions
			WHERE goal_id = $1
			ORDER BY date DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY date, id`
	rows, err := r.db.QueryContext(ctx, query, goalID, limit)
	if err != nil {
		return nil, persistence("list contributions", err)
	}
	defer rows.Close()

	var contribs []models.GoalContribution
	for rows.Next() {
		var c models.GoalContribution
		if err := rows.Scan(&c.ID, &c.GoalID, &c.Amount, &c.Date); err != nil {
			return nil, persistence("scan contribution", err)
		}
		contribs = append(contribs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list contributions", err)
	}
	return contribs, nil
}

// SumContributions returns the total contributed amount of a goal.
func (r *Repository) SumContributions(ctx context.Context, goalID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM scheduler.goal_contributions
		WHERE goal_id = $1`
	if err := r.db.QueryRowContext(ctx, query, goalID).Scan(&total); err != nil {
		return decimal.Zero, persistence("sum contributions", err)
	}
	return total, nil
}

// UpdateGoalDerived overwrites the derived current_amount and
// completion_probability of one goal.
func (r *Repository) UpdateGoalDerived(ctx context.Context, goalID int64, current decimal.Decimal, probability float64) error {
	query := `
		UPDATE scheduler.financial_goals
		SET current_amount = $1, completion_probability = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, current, probability, goalID); err != nil {
		return persistence("update goal", err)
	}
	return nil
}

// DeleteGoal removes a goal together with its owned contributions as
// one transactional unit.
func (r *Repository) DeleteGoal(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence("begin delete goal", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scheduler.goal_contributions WHERE goal_id = $1`, id); err != nil {
		return persistence("delete contributions", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM scheduler.financial_goals WHERE id = $1`, id)
	if err != nil {
		return persistence("delete goal", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("goal %d not found", id)
	}
	if err := tx.Commit(); err != nil {
		return persistence("commit delete goal", err)
	}
	return nil
}
