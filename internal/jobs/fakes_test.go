package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/finance-scheduler/internal/models"
)

// memStore is an in-memory implementation of every job store interface,
// mirroring the transactional semantics of the postgres repository:
// per-definition batches commit atomically, duplicates on
// (definition_id, due_date) are skipped, the cursor only moves forward.
type memStore struct {
	mu sync.Mutex

	defs          []models.RecurrenceDefinition
	occurrences   map[string]models.Occurrence
	transactions  []models.Transaction
	budgets       []models.Budget
	budgetCats    []models.BudgetCategory
	rates         []models.ExchangeRate
	notifications []models.Notification
	goals         []models.FinancialGoal
	contribs      []models.GoalContribution
	runs          []models.JobRun

	nextID int64

	// failMaterialize forces MaterializeBatch to fail for a definition.
	failMaterialize map[int64]error
}

func newMemStore() *memStore {
	return &memStore{
		occurrences:     make(map[string]models.Occurrence),
		failMaterialize: make(map[int64]error),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func occKey(defID int64, due time.Time) string {
	return fmt.Sprintf("%d|%s", defID, due.Format("2006-01-02"))
}

func (s *memStore) ListActiveDefinitions(ctx context.Context) ([]models.RecurrenceDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RecurrenceDefinition
	for _, d := range s.defs {
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memStore) MaterializeBatch(ctx context.Context, def *models.RecurrenceDefinition, dues []time.Time) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failMaterialize[def.ID]; err != nil {
		return 0, 0, err
	}

	created, skipped := 0, 0
	for _, due := range dues {
		key := occKey(def.ID, due)
		if _, exists := s.occurrences[key]; exists {
			skipped++
			continue
		}
		txnID := s.id()
		s.transactions = append(s.transactions, models.Transaction{
			ID:         txnID,
			ProfileID:  def.ProfileID,
			AccountID:  def.AccountID,
			CategoryID: def.CategoryID,
			Amount:     def.AmountFor(due),
			Currency:   def.Currency,
			Date:       due,
			Source:     models.TransactionSourceRecurring,
		})
		s.occurrences[key] = models.Occurrence{
			ID:            s.id(),
			DefinitionID:  def.ID,
			DueDate:       due,
			Status:        models.OccurrenceConfirmed,
			TransactionID: &txnID,
		}
		created++
	}

	maxDue := dues[len(dues)-1]
	for i := range s.defs {
		d := &s.defs[i]
		if d.ID == def.ID && (d.LastGeneratedDate == nil || d.LastGeneratedDate.Before(maxDue)) {
			t := maxDue
			d.LastGeneratedDate = &t
		}
	}
	return created, skipped, nil
}

func (s *memStore) cursorOf(defID int64) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.defs {
		if d.ID == defID {
			return d.LastGeneratedDate
		}
	}
	return nil
}

func (s *memStore) ListActiveBudgets(ctx context.Context) ([]models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Budget
	for _, b := range s.budgets {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *memStore) ListBudgetCategories(ctx context.Context, budgetID int64) ([]models.BudgetCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.BudgetCategory
	for _, c := range s.budgetCats {
		if c.BudgetID == budgetID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) ListTransactionsInPeriod(ctx context.Context, profileID int64, start, end time.Time) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for _, t := range s.transactions {
		if t.ProfileID == profileID && !t.Date.Before(start) && !t.Date.After(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memStore) UpdateBudgetCategorySpent(ctx context.Context, budgetCategoryID int64, spent decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgetCats {
		if s.budgetCats[i].ID == budgetCategoryID {
			s.budgetCats[i].SpentAmount = spent
		}
	}
	return nil
}

func (s *memStore) FindRateOnOrBefore(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	best := -1
	for i, r := range s.rates {
		if r.FromCurrency != from || r.ToCurrency != to || r.RateDate.After(date) {
			continue
		}
		if best == -1 || s.rates[i].RateDate.After(s.rates[best].RateDate) {
			best = i
		}
	}
	if best == -1 {
		return decimal.Zero, false, nil
	}
	return s.rates[best].Rate, true, nil
}

func (s *memStore) HasUnresolvedNotification(ctx context.Context, dedupKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.DedupKey == dedupKey && n.Status != models.NotificationResolved {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.id()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *memStore) ListActiveGoals(ctx context.Context) ([]models.FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FinancialGoal
	for _, g := range s.goals {
		if g.IsActive {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *memStore) ListRecentContributions(ctx context.Context, goalID int64, limit int) ([]models.GoalContribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.GoalContribution
	for _, c := range s.contribs {
		if c.GoalID == goalID {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Date.Before(all[j].Date) })
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (s *memStore) SumContributions(ctx context.Context, goalID int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, c := range s.contribs {
		if c.GoalID == goalID {
			total = total.Add(c.Amount)
		}
	}
	return total, nil
}

func (s *memStore) UpdateGoalDerived(ctx context.Context, goalID int64, current decimal.Decimal, probability float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == goalID {
			s.goals[i].CurrentAmount = current
			s.goals[i].CompletionProbability = probability
		}
	}
	return nil
}

func (s *memStore) DeleteExpiredNotifications(ctx context.Context, asOf time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []models.Notification
	var deleted int64
	for _, n := range s.notifications {
		if !n.ExpiresAt.After(asOf) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	s.notifications = kept
	return deleted, nil
}

func (s *memStore) DeleteTerminalNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []models.Notification
	var deleted int64
	for _, n := range s.notifications {
		terminal := n.Status == models.NotificationRead || n.Status == models.NotificationResolved
		if terminal && n.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	s.notifications = kept
	return deleted, nil
}

func (s *memStore) InsertRates(ctx context.Context, rates []models.ExchangeRate) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created, skipped := 0, 0
	for _, r := range rates {
		dup := false
		for _, have := range s.rates {
			if have.FromCurrency == r.FromCurrency && have.ToCurrency == r.ToCurrency && have.RateDate.Equal(r.RateDate) {
				dup = true
				break
			}
		}
		if dup {
			skipped++
			continue
		}
		r.ID = s.id()
		s.rates = append(s.rates, r)
		created++
	}
	return created, skipped, nil
}

func (s *memStore) CreateJobRun(ctx context.Context, run *models.JobRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = s.id()
	run.StartedAt = time.Now()
	run.Status = models.JobRunRunning
	s.runs = append(s.runs, *run)
	return nil
}

func (s *memStore) CompleteJobRun(ctx context.Context, runID int64, status string, summary models.JobSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID == runID {
			now := time.Now()
			s.runs[i].Status = status
			s.runs[i].Summary = summary
			s.runs[i].CompletedAt = &now
		}
	}
	return nil
}

func (s *memStore) HasSuccessfulRun(ctx context.Context, jobName string, asOf time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		if r.JobName == jobName && r.AsOf.Equal(asOf) && r.Status == models.JobRunSuccess {
			return true, nil
		}
	}
	return false, nil
}

// fakeRateSource serves canned rates or a canned error.
type fakeRateSource struct {
	rates []models.ExchangeRate
	err   error
	calls int
}

func (f *fakeRateSource) FetchDailyRates(ctx context.Context, onDate time.Time) ([]models.ExchangeRate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.ExchangeRate, len(f.rates))
	copy(out, f.rates)
	for i := range out {
		out[i].RateDate = onDate
	}
	return out, nil
}

// fakeMailer records alert deliveries.
type fakeMailer struct {
	sent int
	err  error
}

func (f *fakeMailer) SendBudgetAlert(profileID, categoryID int64, allocated, spent, thresholdPct decimal.Decimal) error {
	f.sent++
	return f.err
}
