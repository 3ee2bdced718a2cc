package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finance-scheduler/internal/models"
)

// RateRefresher pulls the day's exchange rates from the external
// provider and appends them to storage.
type RateRefresher struct {
	source RateSource
	store  RateStore
	log    *logrus.Logger
}

// NewRateRefresher initializes a new exchange-rate refresher.
func NewRateRefresher(source RateSource, store RateStore, log *logrus.Logger) *RateRefresher {
	return &RateRefresher{source: source, store: store, log: log}
}

// Run fetches and stores the rates effective on asOf. An unreachable
// provider is reported as an ExternalDependencyError so downstream
// aggregation can degrade to stored rates instead of failing.
func (r *RateRefresher) Run(ctx context.Context, asOf time.Time) (models.JobSummary, error) {
	var summary models.JobSummary

	rates, err := r.source.FetchDailyRates(ctx, asOf)
	if err != nil {
		return summary, &models.ExternalDependencyError{Source: "exchange-rate provider", Err: err}
	}
	summary.Processed = len(rates)

	created, skipped, err := r.store.InsertRates(ctx, rates)
	summary.Created = created
	summary.Skipped = skipped
	if err != nil {
		return summary, fmt.Errorf("failed to store rates: %w", err)
	}

	r.log.Infof("Exchange rates refreshed: %d fetched, %d stored, %d already present", len(rates), created, skipped)
	return summary, nil
}
