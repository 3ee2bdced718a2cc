package jobs

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finance-scheduler/internal/models"
	"github.com/Dan9191/finance-scheduler/internal/recurrence"
)

// GoalEstimator recomputes current_amount and completion_probability
// for active financial goals from their contribution history.
type GoalEstimator struct {
	store    GoalStore
	log      *logrus.Logger
	trailing int // number of recent contributions forming the rate window
}

// NewGoalEstimator initializes a new goal estimator.
func NewGoalEstimator(store GoalStore, log *logrus.Logger, trailing int) *GoalEstimator {
	if trailing < 1 {
		trailing = 10
	}
	return &GoalEstimator{store: store, log: log, trailing: trailing}
}

// Run recomputes every active goal as of asOf. stale marks the summary
// when the last exchange-rate refresh failed. The returned error is
// non-nil only when the job could not start at all.
func (e *GoalEstimator) Run(ctx context.Context, asOf time.Time, stale bool) (models.JobSummary, error) {
	summary := models.JobSummary{Stale: stale}

	goals, err := e.store.ListActiveGoals(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list goals: %w", err)
	}

	for i := range goals {
		goal := &goals[i]
		summary.Processed++
		if err := e.estimateOne(ctx, goal, asOf); err != nil {
			summary.RecordError(fmt.Errorf("goal %d: %w", goal.ID, err))
		}
	}

	e.log.Infof("Goal estimation done: %d goals, %d failed", summary.Processed, summary.Failed)
	return summary, nil
}

func (e *GoalEstimator) estimateOne(ctx context.Context, goal *models.FinancialGoal, asOf time.Time) error {
	current, err := e.store.SumContributions(ctx, goal.ID)
	if err != nil {
		return err
	}
	contribs, err := e.store.ListRecentContributions(ctx, goal.ID, e.trailing)
	if err != nil {
		return err
	}

	probability := completionProbability(goal.TargetAmount, current, goal.TargetDate, contribs, asOf)
	if err := e.store.UpdateGoalDerived(ctx, goal.ID, current, probability); err != nil {
		return err
	}

	e.log.Debugf("Goal %d: current %s of %s, probability %.3f", goal.ID, current, goal.TargetAmount, probability)
	return nil
}

// completionProbability is a bounded [0,1], deterministic function of
// the observed contribution rate versus the rate required to reach the
// target on time. The observed rate comes from the trailing window of
// contributions; the ratio of the two is discounted by a confidence
// factor built from sample size and the coefficient of variation of
// contribution amounts, so a single large contribution cannot yield
// certainty.
func completionProbability(target, current decimal.Decimal, targetDate time.Time, contribs []models.GoalContribution, asOf time.Time) float64 {
	remaining := target.Sub(current)
	if remaining.Sign() <= 0 {
		return 1
	}
	if len(contribs) == 0 {
		return 0
	}

	asOfDate := recurrence.DateOf(asOf)
	daysLeft := recurrence.DateOf(targetDate).Sub(asOfDate).Hours() / 24
	if daysLeft <= 0 {
		// Target date reached with an outstanding balance.
		return 0
	}

	var total float64
	amounts := make([]float64, len(contribs))
	for i, c := range contribs {
		amounts[i] = c.Amount.InexactFloat64()
		total += amounts[i]
	}
	windowDays := asOfDate.Sub(recurrence.DateOf(contribs[0].Date)).Hours() / 24
	if windowDays < 1 {
		windowDays = 1
	}

	elapsedRate := total / windowDays
	requiredRate := remaining.InexactFloat64() / daysLeft
	if requiredRate <= 0 {
		return 1
	}

	ratio := elapsedRate / requiredRate
	base := math.Min(1, ratio)

	n := float64(len(contribs))
	mean := total / n
	cv := 1.0 // maximal uncertainty for a single data point
	if len(contribs) >= 2 && mean > 0 {
		var variance float64
		for _, a := range amounts {
			variance += (a - mean) * (a - mean)
		}
		variance /= n - 1
		cv = math.Sqrt(variance) / mean
	}
	confidence := n / (n + 1 + cv)

	p := base * confidence
	return math.Max(0, math.Min(1, p))
}
