package jobs

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/finance-scheduler/internal/models"
)

// MaterializerStore is the persistence surface of the occurrence
// materializer. MaterializeBatch must commit a definition's whole batch
// atomically and treat duplicates on (definition_id, due_date) as
// benign skips.
type MaterializerStore interface {
	ListActiveDefinitions(ctx context.Context) ([]models.RecurrenceDefinition, error)
	MaterializeBatch(ctx context.Context, def *models.RecurrenceDefinition, dues []time.Time) (created, skipped int, err error)
}

// BudgetStore is the persistence surface of the budget aggregator.
type BudgetStore interface {
	ListActiveBudgets(ctx context.Context) ([]models.Budget, error)
	ListBudgetCategories(ctx context.Context, budgetID int64) ([]models.BudgetCategory, error)
	ListTransactionsInPeriod(ctx context.Context, profileID int64, start, end time.Time) ([]models.Transaction, error)
	UpdateBudgetCategorySpent(ctx context.Context, budgetCategoryID int64, spent decimal.Decimal) error
	FindRateOnOrBefore(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, bool, error)
	HasUnresolvedNotification(ctx context.Context, dedupKey string) (bool, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// GoalStore is the persistence surface of the goal probability estimator.
type GoalStore interface {
	ListActiveGoals(ctx context.Context) ([]models.FinancialGoal, error)
	ListRecentContributions(ctx context.Context, goalID int64, limit int) ([]models.GoalContribution, error)
	SumContributions(ctx context.Context, goalID int64) (decimal.Decimal, error)
	UpdateGoalDerived(ctx context.Context, goalID int64, current decimal.Decimal, probability float64) error
}

// JanitorStore is the persistence surface of the notification janitor.
type JanitorStore interface {
	DeleteExpiredNotifications(ctx context.Context, asOf time.Time) (int64, error)
	DeleteTerminalNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RateStore persists refreshed exchange rates.
type RateStore interface {
	InsertRates(ctx context.Context, rates []models.ExchangeRate) (created, skipped int, err error)
}

// RateSource fetches the day's exchange rates from an external provider.
type RateSource interface {
	FetchDailyRates(ctx context.Context, onDate time.Time) ([]models.ExchangeRate, error)
}

// RunStore records job runs for observability and period idempotency.
type RunStore interface {
	CreateJobRun(ctx context.Context, run *models.JobRun) error
	CompleteJobRun(ctx context.Context, runID int64, status string, summary models.JobSummary) error
	HasSuccessfulRun(ctx context.Context, jobName string, asOf time.Time) (bool, error)
}

// AlertMailer delivers budget threshold alerts out of band. Delivery is
// best effort; failures never fail the aggregation.
type AlertMailer interface {
	SendBudgetAlert(profileID, categoryID int64, allocated, spent, thresholdPct decimal.Decimal) error
}
