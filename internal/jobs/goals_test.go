package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/finance-scheduler/internal/models"
)

func seedGoal(store *memStore, target string, targetDate time.Time) {
	store.goals = append(store.goals, models.FinancialGoal{
		ID:           1,
		ProfileID:    1,
		Name:         "vacation",
		Currency:     "RUB",
		TargetAmount: dec(target),
		TargetDate:   targetDate,
		IsActive:     true,
	})
}

func contribute(store *memStore, amount string, on time.Time) {
	store.contribs = append(store.contribs, models.GoalContribution{
		ID:     int64(len(store.contribs) + 1),
		GoalID: 1,
		Amount: dec(amount),
		Date:   on,
	})
}

func TestGoalEstimator_ZeroContributionsMeansZeroProbability(t *testing.T) {
	store := newMemStore()
	seedGoal(store, "1000", date(2025, time.January, 1))

	e := NewGoalEstimator(store, testLogger(), 10)
	summary, err := e.Run(context.Background(), date(2024, time.June, 1), false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Failed)

	assert.Equal(t, 0.0, store.goals[0].CompletionProbability)
	assert.True(t, store.goals[0].CurrentAmount.Equal(decimal.Zero))
}

func TestGoalEstimator_MetGoalMeansCertainty(t *testing.T) {
	store := newMemStore()
	seedGoal(store, "1000", date(2025, time.January, 1))
	contribute(store, "600", date(2024, time.March, 1))
	contribute(store, "500", date(2024, time.April, 1))

	e := NewGoalEstimator(store, testLogger(), 10)
	_, err := e.Run(context.Background(), date(2024, time.June, 1), false)
	require.NoError(t, err)

	assert.Equal(t, 1.0, store.goals[0].CompletionProbability)
	assert.True(t, store.goals[0].CurrentAmount.Equal(dec("1100")))
}

func TestGoalEstimator_PastTargetDateWithShortfallIsZero(t *testing.T) {
	store := newMemStore()
	seedGoal(store, "1000", date(2024, time.January, 1))
	contribute(store, "100", date(2023, time.December, 1))

	e := NewGoalEstimator(store, testLogger(), 10)
	_, err := e.Run(context.Background(), date(2024, time.June, 1), false)
	require.NoError(t, err)

	assert.Equal(t, 0.0, store.goals[0].CompletionProbability)
}

func TestGoalEstimator_Deterministic(t *testing.T) {
	store := newMemStore()
	seedGoal(store, "1000", date(2025, time.January, 1))
	contribute(store, "100", date(2024, time.January, 15))
	contribute(store, "110", date(2024, time.February, 15))
	contribute(store, "95", date(2024, time.March, 15))

	e := NewGoalEstimator(store, testLogger(), 10)
	asOf := date(2024, time.April, 1)

	_, err := e.Run(context.Background(), asOf, false)
	require.NoError(t, err)
	first := store.goals[0].CompletionProbability

	_, err = e.Run(context.Background(), asOf, false)
	require.NoError(t, err)
	assert.Equal(t, first, store.goals[0].CompletionProbability)
}

func TestCompletionProbability_Bounds(t *testing.T) {
	asOf := date(2024, time.June, 1)
	targetDate := date(2024, time.December, 1)
	contribs := []models.GoalContribution{
		{Amount: dec("100"), Date: date(2024, time.March, 1)},
		{Amount: dec("100"), Date: date(2024, time.April, 1)},
		{Amount: dec("100"), Date: date(2024, time.May, 1)},
	}

	for _, target := range []string{"350", "1000", "5000", "100000"} {
		p := completionProbability(dec(target), dec("300"), targetDate, contribs, asOf)
		assert.GreaterOrEqual(t, p, 0.0, "target %s", target)
		assert.LessOrEqual(t, p, 1.0, "target %s", target)
	}
}

func TestCompletionProbability_SurplusBeatsShortfall(t *testing.T) {
	asOf := date(2024, time.June, 1)
	targetDate := date(2024, time.December, 1)
	steady := []models.GoalContribution{
		{Amount: dec("500"), Date: date(2024, time.March, 1)},
		{Amount: dec("500"), Date: date(2024, time.April, 1)},
		{Amount: dec("500"), Date: date(2024, time.May, 1)},
	}

	// ~16.3/day observed vs ~1.1/day required: comfortably on track.
	onTrack := completionProbability(dec("1700"), dec("1500"), targetDate, steady, asOf)
	// Same history against a far larger remainder.
	behind := completionProbability(dec("50000"), dec("1500"), targetDate, steady, asOf)

	assert.Greater(t, onTrack, 0.6, "on-track goal should score high")
	assert.Less(t, behind, 0.2, "behind goal should score low")
	assert.Greater(t, onTrack, behind)
}

func TestCompletionProbability_SingleContributionNotCertain(t *testing.T) {
	asOf := date(2024, time.June, 1)
	targetDate := date(2024, time.December, 1)
	single := []models.GoalContribution{
		{Amount: dec("10000"), Date: date(2024, time.May, 31)},
	}

	p := completionProbability(dec("11000"), dec("10000"), targetDate, single, asOf)
	assert.Greater(t, p, 0.0)
	assert.Less(t, p, 0.5, "one data point must not yield confidence")
}

func TestGoalEstimator_StaleFlagPropagates(t *testing.T) {
	store := newMemStore()
	seedGoal(store, "1000", date(2025, time.January, 1))

	e := NewGoalEstimator(store, testLogger(), 10)
	summary, err := e.Run(context.Background(), date(2024, time.June, 1), true)
	require.NoError(t, err)
	assert.True(t, summary.Stale)
}
