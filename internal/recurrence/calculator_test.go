package recurrence

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/finance-scheduler/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedDef(kind models.FrequencyKind, interval int, start time.Time) *models.RecurrenceDefinition {
	amount := decimal.NewFromInt(100)
	return &models.RecurrenceDefinition{
		ID:          1,
		Currency:    "EUR",
		AmountFixed: &amount,
		Frequency:   models.Frequency{Kind: kind, Interval: interval},
		StartDate:   start,
		IsActive:    true,
	}
}

func TestDueDates_WeeklyScenario(t *testing.T) {
	def := fixedDef(models.FrequencyWeekly, 1, date(2024, time.January, 1))
	cursor := date(2024, time.January, 1)
	def.LastGeneratedDate = &cursor

	due, err := DueDates(def, date(2024, time.January, 22))
	require.NoError(t, err)

	want := []time.Time{
		date(2024, time.January, 8),
		date(2024, time.January, 15),
		date(2024, time.January, 22),
	}
	assert.Equal(t, want, due)
}

func TestDueDates_FreshDefinitionIncludesStart(t *testing.T) {
	def := fixedDef(models.FrequencyDaily, 1, date(2024, time.March, 1))

	due, err := DueDates(def, date(2024, time.March, 3))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		date(2024, time.March, 1),
		date(2024, time.March, 2),
		date(2024, time.March, 3),
	}, due)
}

func TestDueDates_MonthlyNoDrift(t *testing.T) {
	// Anchored on Jan 31: the clamped Feb step must not drag the
	// following months down to day 28/29.
	def := fixedDef(models.FrequencyMonthly, 1, date(2024, time.January, 31))

	due, err := DueDates(def, date(2025, time.January, 31))
	require.NoError(t, err)
	require.Len(t, due, 13)

	assert.Equal(t, date(2024, time.January, 31), due[0])
	assert.Equal(t, date(2024, time.February, 29), due[1]) // leap year
	assert.Equal(t, date(2024, time.March, 31), due[2])
	assert.Equal(t, date(2024, time.April, 30), due[3])
	assert.Equal(t, date(2024, time.November, 30), due[10])
	assert.Equal(t, date(2024, time.December, 31), due[11])
	assert.Equal(t, date(2025, time.January, 31), due[12])
}

func TestDueDates_YearlyFeb29Clamping(t *testing.T) {
	def := fixedDef(models.FrequencyYearly, 1, date(2024, time.February, 29))

	due, err := DueDates(def, date(2028, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		date(2024, time.February, 29),
		date(2025, time.February, 28),
		date(2026, time.February, 28),
		date(2027, time.February, 28),
		date(2028, time.February, 29),
	}, due)
}

func TestDueDates_CustomDays(t *testing.T) {
	def := fixedDef(models.FrequencyCustomDays, 10, date(2024, time.June, 1))
	cursor := date(2024, time.June, 1)
	def.LastGeneratedDate = &cursor

	due, err := DueDates(def, date(2024, time.July, 1))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		date(2024, time.June, 11),
		date(2024, time.June, 21),
		date(2024, time.July, 1),
	}, due)
}

func TestDueDates_BoundedByEndDate(t *testing.T) {
	def := fixedDef(models.FrequencyWeekly, 1, date(2024, time.January, 1))
	end := date(2024, time.January, 10)
	def.EndDate = &end

	due, err := DueDates(def, date(2024, time.February, 1))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		date(2024, time.January, 1),
		date(2024, time.January, 8),
	}, due)
}

func TestDueDates_StrictlyIncreasingAndBounded(t *testing.T) {
	kinds := []models.FrequencyKind{
		models.FrequencyDaily,
		models.FrequencyWeekly,
		models.FrequencyMonthly,
		models.FrequencyYearly,
		models.FrequencyCustomDays,
	}
	cursor := date(2023, time.May, 15)
	asOf := date(2025, time.August, 30)

	for _, kind := range kinds {
		for _, interval := range []int{1, 2, 3} {
			def := fixedDef(kind, interval, date(2023, time.January, 31))
			def.LastGeneratedDate = &cursor

			due, err := DueDates(def, asOf)
			require.NoError(t, err, "%s{%d}", kind, interval)
			for i, d := range due {
				assert.True(t, d.After(cursor), "%s{%d}: %v not after cursor", kind, interval, d)
				assert.False(t, d.After(asOf), "%s{%d}: %v after as_of", kind, interval, d)
				if i > 0 {
					assert.True(t, d.After(due[i-1]), "%s{%d}: not strictly increasing", kind, interval)
				}
			}
		}
	}
}

func TestDueDates_Deterministic(t *testing.T) {
	def := fixedDef(models.FrequencyMonthly, 2, date(2023, time.October, 30))
	asOf := date(2025, time.January, 1)

	first, err := DueDates(def, asOf)
	require.NoError(t, err)
	second, err := DueDates(def, asOf)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDueDates_EmptyWhenUpToDate(t *testing.T) {
	def := fixedDef(models.FrequencyMonthly, 1, date(2024, time.January, 1))
	cursor := date(2024, time.June, 1)
	def.LastGeneratedDate = &cursor

	due, err := DueDates(def, date(2024, time.June, 20))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestDueDates_InvalidRule(t *testing.T) {
	def := fixedDef(models.FrequencyDaily, 0, date(2024, time.January, 1))

	_, err := DueDates(def, date(2024, time.February, 1))
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAmountFor_DeterministicWithinRange(t *testing.T) {
	lo := decimal.NewFromInt(10)
	hi := decimal.NewFromInt(20)
	def := &models.RecurrenceDefinition{
		ID:        7,
		Currency:  "EUR",
		AmountMin: &lo,
		AmountMax: &hi,
		Frequency: models.Frequency{Kind: models.FrequencyDaily, Interval: 1},
		StartDate: date(2024, time.January, 1),
	}
	require.NoError(t, def.Validate())

	due := date(2024, time.January, 5)
	first := def.AmountFor(due)
	second := def.AmountFor(due)
	assert.True(t, first.Equal(second), "sampling must be deterministic per (id, due date)")
	assert.True(t, first.GreaterThanOrEqual(lo))
	assert.True(t, first.LessThanOrEqual(hi))
}
