package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/finance-scheduler/internal/models"
)

// ListActiveDefinitions retrieves every active recurrence definition in
// one batch query.
func (r *Repository) ListActiveDefinitions(ctx context.Context) ([]models.RecurrenceDefinition, error) {
	query := `
		SELECT id, profile_id, account_id, category_id,
		       amount_fixed, amount_min, amount_max, currency,
		       frequency_kind, frequency_interval,
		       start_date, end_date, last_generated_date, is_active,
		       description, created_at, updated_at
		FROM scheduler.recurrence_definitions
		WHERE is_active = TRUE
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistence("list definitions", err)
	}
	defer rows.Close()

	var defs []models.RecurrenceDefinition
	for rows.Next() {
		var d models.RecurrenceDefinition
		var fixed, min, max decimal.NullDecimal
		var endDate, lastGenerated sql.NullTime
		err := rows.Scan(
			&d.ID, &d.ProfileID, &d.AccountID, &d.CategoryID,
			&fixed, &min, &max, &d.Currency,
			&d.Frequency.Kind, &d.Frequency.Interval,
			&d.StartDate, &endDate, &lastGenerated, &d.IsActive,
			&d.Description, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, persistence("scan definition", err)
		}
		if fixed.Valid {
			d.AmountFixed = &fixed.Decimal
		}
		if min.Valid {
			d.AmountMin = &min.Decimal
		}
		if max.Valid {
			d.AmountMax = &max.Decimal
		}
		if endDate.Valid {
			t := endDate.Time
			d.EndDate = &t
		}
		if lastGenerated.Valid {
			t := lastGenerated.Time
			d.LastGeneratedDate = &t
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list definitions", err)
	}
	return defs, nil
}

// MaterializeBatch creates one occurrence plus its backing transaction
// for each due date of a single definition, all inside one database
// transaction. INSERT ... ON CONFLICT DO NOTHING on the
// (definition_id, due_date) uniqueness guard makes duplicate attempts
// benign no-ops. The last_generated_date cursor advances to the maximum
// due date only when the whole batch commits; the guard in its UPDATE
// keeps the cursor monotone even under overlapping invocations.
func (r *Repository) MaterializeBatch(ctx context.Context, def *models.RecurrenceDefinition, dues []time.Time) (created, skipped int, err error) {
	if len(dues) == 0 {
		return 0, 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, persistence("begin materialization", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, due := range dues {
		var occurrenceID int64
		insertOcc := `
			INSERT INTO scheduler.occurrences (definition_id, due_date, status, created_at)
			VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
			ON CONFLICT (definition_id, due_date) DO NOTHING
			RETURNING id`
		err = tx.QueryRowContext(ctx, insertOcc, def.ID, due, models.OccurrencePending).Scan(&occurrenceID)
		if err == sql.ErrNoRows {
			// Already materialized by an earlier or concurrent run.
			err = nil
			skipped++
			continue
		}
		if err != nil {
			return 0, 0, persistence("create occurrence", err)
		}

		amount := def.AmountFor(due)
		var transactionID int64
		insertTx := `
			INSERT INTO scheduler.transactions
				(profile_id, account_id, category_id, amount, currency, date, source, description, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
			RETURNING id`
		description := def.Description
		if description == "" {
			description = fmt.Sprintf("recurring payment (definition %d)", def.ID)
		}
		err = tx.QueryRowContext(ctx, insertTx,
			def.ProfileID, def.AccountID, def.CategoryID,
			amount, def.Currency, due, models.TransactionSourceRecurring, description,
		).Scan(&transactionID)
		if err != nil {
			return 0, 0, persistence("create transaction", err)
		}

		confirm := `
			UPDATE scheduler.occurrences
			SET transaction_id = $1, status = $2, resolved_at = CURRENT_TIMESTAMP
			WHERE id = $3`
		if _, err = tx.ExecContext(ctx, confirm, transactionID, models.OccurrenceConfirmed, occurrenceID); err != nil {
			return 0, 0, persistence("confirm occurrence", err)
		}
		created++
	}

	maxDue := dues[len(dues)-1]
	advance := `
		UPDATE scheduler.recurrence_definitions
		SET last_generated_date = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		  AND (last_generated_date IS NULL OR last_generated_date < $1)`
	if _, err = tx.ExecContext(ctx, advance, maxDue, def.ID); err != nil {
		return 0, 0, persistence("advance cursor", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, persistence("commit materialization", err)
	}
	return created, skipped, nil
}

// DeleteDefinition removes a definition together with its owned
// occurrences as one transactional unit.
func (r *Repository) DeleteDefinition(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence("begin delete definition", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scheduler.occurrences WHERE definition_id = $1`, id); err != nil {
		return persistence("delete occurrences", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM scheduler.recurrence_definitions WHERE id = $1`, id)
	if err != nil {
		return persistence("delete definition", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("definition %d not found", id)
	}
	if err := tx.Commit(); err != nil {
		return persistence("commit delete definition", err)
	}
	return nil
}
