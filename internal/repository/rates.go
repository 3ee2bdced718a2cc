package repository

import (
	"context"

	"github.com/Dan9191/finance-scheduler/internal/models"
)

// InsertRates appends exchange-rate rows, skipping pairs already
// recorded for the same effective date. The table is append-only.
func (r *Repository) InsertRates(ctx context.Context, rates []models.ExchangeRate) (created, skipped int, err error) {
	query := `
		INSERT INTO scheduler.exchange_rates (from_currency, to_currency, rate, rate_date, created_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		ON CONFLICT (from_currency, to_currency, rate_date) DO NOTHING`
	for _, rate := range rates {
		res, err := r.db.ExecContext(ctx, query, rate.FromCurrency, rate.ToCurrency, rate.Rate, rate.RateDate)
		if err != nil {
			return created, skipped, persistence("insert exchange rate", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			skipped++
		} else {
			created++
		}
	}
	return created, skipped, nil
}
