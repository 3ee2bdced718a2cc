package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finance-scheduler/internal/models"
)

// BudgetAggregator recomputes per-category spent amounts for active
// budgets from transaction history and raises threshold alerts.
type BudgetAggregator struct {
	store    BudgetStore
	mailer   AlertMailer // nil disables email delivery
	log      *logrus.Logger
	alertTTL time.Duration
}

// NewBudgetAggregator initializes a new budget aggregator.
func NewBudgetAggregator(store BudgetStore, mailer AlertMailer, log *logrus.Logger, alertTTL time.Duration) *BudgetAggregator {
	return &BudgetAggregator{store: store, mailer: mailer, log: log, alertTTL: alertTTL}
}

// Run recomputes spent_amount for every active budget as of asOf.
// stale marks the summary when the last exchange-rate refresh failed
// and aggregation ran on previously stored rates. The returned error is
// non-nil only when the job could not start at all.
func (a *BudgetAggregator) Run(ctx context.Context, asOf time.Time, stale bool) (models.JobSummary, error) {
	summary := models.JobSummary{Stale: stale}

	budgets, err := a.store.ListActiveBudgets(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list budgets: %w", err)
	}

	rates := newRateCache(a.store)
	for i := range budgets {
		budget := &budgets[i]
		alerts, incomplete, err := a.aggregateOne(ctx, budget, rates, asOf)
		summary.Processed++
		summary.Created += alerts
		if incomplete {
			summary.Incomplete = true
		}
		if err != nil {
			summary.RecordError(fmt.Errorf("budget %d: %w", budget.ID, err))
		}
	}

	a.log.Infof("Budget aggregation done: %d budgets, %d alerts raised, %d failed (stale=%v incomplete=%v)",
		summary.Processed, summary.Created, summary.Failed, summary.Stale, summary.Incomplete)
	return summary, nil
}

// aggregateOne recomputes one budget. It returns the number of alerts
// raised and whether any conversion had to be omitted for lack of a
// rate.
func (a *BudgetAggregator) aggregateOne(ctx context.Context, budget *models.Budget, rates *rateCache, asOf time.Time) (alerts int, incomplete bool, err error) {
	cats, err := a.store.ListBudgetCategories(ctx, budget.ID)
	if err != nil {
		return 0, false, err
	}
	if len(cats) == 0 {
		return 0, false, nil
	}

	txns, err := a.store.ListTransactionsInPeriod(ctx, budget.ProfileID, budget.StartDate, budget.EndDate)
	if err != nil {
		return 0, false, err
	}

	// One pass over the period's transactions, grouped by category.
	spentByCategory := make(map[int64]decimal.Decimal, len(cats))
	for _, txn := range txns {
		converted, ok, err := rates.convert(ctx, txn.Amount, txn.Currency, budget.Currency, txn.Date)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			incomplete = true
			continue
		}
		spentByCategory[txn.CategoryID] = spentByCategory[txn.CategoryID].Add(converted)
	}

	for _, cat := range cats {
		spent := spentByCategory[cat.CategoryID]
		if err := a.store.UpdateBudgetCategorySpent(ctx, cat.ID, spent); err != nil {
			return alerts, incomplete, err
		}
		raised, err := a.maybeRaiseAlert(ctx, budget, &cat, spent, asOf)
		if err != nil {
			return alerts, incomplete, err
		}
		if raised {
			alerts++
		}
	}
	return alerts, incomplete, nil
}

// maybeRaiseAlert raises a threshold notification when spent crosses
// alert_threshold_pct of the allocation, exactly once: an unresolved
// notification with the same dedup key suppresses re-raising.
func (a *BudgetAggregator) maybeRaiseAlert(ctx context.Context, budget *models.Budget, cat *models.BudgetCategory, spent decimal.Decimal, asOf time.Time) (bool, error) {
	if cat.AllocatedAmount.Sign() <= 0 || cat.AlertThresholdPct.Sign() <= 0 {
		return false, nil
	}
	limit := cat.AllocatedAmount.Mul(cat.AlertThresholdPct).Div(decimal.NewFromInt(100))
	if spent.LessThan(limit) {
		return false, nil
	}

	dedupKey := fmt.Sprintf("budget_alert:%d:%s", cat.ID, cat.AlertThresholdPct.String())
	exists, err := a.store.HasUnresolvedNotification(ctx, dedupKey)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"budget_id":     budget.ID,
		"category_id":   cat.CategoryID,
		"allocated":     cat.AllocatedAmount,
		"spent":         spent,
		"threshold_pct": cat.AlertThresholdPct,
	})
	if err != nil {
		return false, fmt.Errorf("failed to encode alert payload: %w", err)
	}

	notification := &models.Notification{
		ProfileID: budget.ProfileID,
		Type:      models.NotificationBudgetAlert,
		Payload:   payload,
		DedupKey:  dedupKey,
		Status:    models.NotificationUnread,
		ExpiresAt: asOf.Add(a.alertTTL),
	}
	if err := a.store.CreateNotification(ctx, notification); err != nil {
		return false, err
	}

	if a.mailer != nil {
		if err := a.mailer.SendBudgetAlert(budget.ProfileID, cat.CategoryID, cat.AllocatedAmount, spent, cat.AlertThresholdPct); err != nil {
			a.log.Warnf("Failed to email budget alert for category %d: %v", cat.CategoryID, err)
		}
	}
	a.log.Infof("Budget alert raised for budget %d category %d: spent %s of %s (threshold %s%%)",
		budget.ID, cat.CategoryID, spent, cat.AllocatedAmount, cat.AlertThresholdPct)
	return true, nil
}

// rateCache memoizes exchange-rate lookups within one aggregation run.
type rateCache struct {
	store BudgetStore
	hits  map[string]rateHit
}

type rateHit struct {
	rate  decimal.Decimal
	found bool
}

func newRateCache(store BudgetStore) *rateCache {
	return &rateCache{store: store, hits: make(map[string]rateHit)}
}

// convert converts amount from one currency to another using the most
// recent rate dated on or before date. ok is false when no rate exists
// for the pair.
func (c *rateCache) convert(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (decimal.Decimal, bool, error) {
	if from == to {
		return amount, true, nil
	}
	key := fmt.Sprintf("%s|%s|%s", from, to, date.Format("2006-01-02"))
	hit, cached := c.hits[key]
	if !cached {
		rate, found, err := c.store.FindRateOnOrBefore(ctx, from, to, date)
		if err != nil {
			return decimal.Zero, false, err
		}
		hit = rateHit{rate: rate, found: found}
		c.hits[key] = hit
	}
	if !hit.found {
		return decimal.Zero, false, nil
	}
	return amount.Mul(hit.rate), true, nil
}
