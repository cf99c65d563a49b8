// internal/infra/database/postgres_rule_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"recurring_ledger_bot/internal/domain/recurrence"
	"recurring_ledger_bot/internal/domain/recurring"
)

// Custom errors
var ErrRuleNotFound = recurring.ErrNotFound
var ErrStaleRule = recurring.ErrStaleTransaction

const ruleColumns = `id, name, amount, kind, category_id, note, ledger_id,
       frequency, interval_count, anchor_day_of_week, anchor_day_of_month, anchor_month_of_year,
       start_date, end_date, max_occurrences,
       next_due_date, last_executed_date, occurrence_count, is_enabled, auto_execute, status,
       created_at, updated_at`

type PostgresRuleRepository struct {
	db *sql.DB
}

func NewPostgresRuleRepository(db *sql.DB) *PostgresRuleRepository {
	return &PostgresRuleRepository{db: db}
}

func (r *PostgresRuleRepository) Create(ctx context.Context, t *recurring.Transaction) error {
	query := `INSERT INTO recurring_transactions (name, amount, kind, category_id, note, ledger_id,
               frequency, interval_count, anchor_day_of_week, anchor_day_of_month, anchor_month_of_year,
               start_date, end_date, max_occurrences,
               next_due_date, last_executed_date, occurrence_count, is_enabled, auto_execute, status)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
               RETURNING id, created_at, updated_at`

	args := append(specArgs(t), scheduleArgs(t)...)
	args = append(args, t.IsEnabled, t.AutoExecute, t.Status)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating recurring transaction: %w", err)
	}
	return nil
}

func (r *PostgresRuleRepository) GetByID(ctx context.Context, id int64) (*recurring.Transaction, error) {
	query := `SELECT ` + ruleColumns + ` FROM recurring_transactions WHERE id = $1`
	t, err := scanRule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("error getting recurring transaction by ID: %w", err)
	}
	return t, nil
}

func (r *PostgresRuleRepository) Update(ctx context.Context, t *recurring.Transaction) error {
	query := `UPDATE recurring_transactions
               SET name = $1, amount = $2, kind = $3, category_id = $4, note = $5, ledger_id = $6,
                   frequency = $7, interval_count = $8, anchor_day_of_week = $9, anchor_day_of_month = $10,
                   anchor_month_of_year = $11, start_date = $12, end_date = $13, max_occurrences = $14,
                   next_due_date = $15, last_executed_date = $16, occurrence_count = $17,
                   is_enabled = $18, auto_execute = $19, status = $20, updated_at = NOW()
               WHERE id = $21
               RETURNING updated_at`

	args := append(specArgs(t), scheduleArgs(t)...)
	args = append(args, t.IsEnabled, t.AutoExecute, t.Status, t.ID)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRuleNotFound
		}
		return fmt.Errorf("error updating recurring transaction: %w", err)
	}
	return nil
}

func (r *PostgresRuleRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting recurring transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading deleted row count: %w", err)
	}
	if n == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (r *PostgresRuleRepository) ListAll(ctx context.Context) ([]*recurring.Transaction, error) {
	query := `SELECT ` + ruleColumns + ` FROM recurring_transactions ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing recurring transactions: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func (r *PostgresRuleRepository) ListDue(ctx context.Context, today recurrence.Day) ([]*recurring.Transaction, error) {
	query := `SELECT ` + ruleColumns + `
               FROM recurring_transactions
               WHERE status = $1 AND is_enabled = TRUE AND next_due_date <= $2
               ORDER BY next_due_date, id`
	rows, err := r.db.QueryContext(ctx, query, recurring.StatusActive, dayArg(today))
	if err != nil {
		return nil, fmt.Errorf("error listing due recurring transactions: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

// saveTransition writes the post-execution state through q. The WHERE clause
// pins the pre-execution occurrence count and due date, so two writers cannot
// both advance. Inside a transaction the UPDATE also locks the row until commit.
func saveTransition(ctx context.Context, q querier, tr recurring.Transition) error {
	query := `UPDATE recurring_transactions
               SET next_due_date = $1, last_executed_date = $2, occurrence_count = $3, status = $4, updated_at = NOW()
               WHERE id = $5 AND occurrence_count = $6 AND next_due_date = $7
               RETURNING updated_at`

	after := tr.After
	err := q.QueryRowContext(ctx, query,
		dayArg(after.NextDueDate), nullDayArg(after.LastExecutedDate), after.OccurrenceCount, after.Status,
		after.ID, tr.Before.OccurrenceCount, dayArg(tr.Before.NextDueDate),
	).Scan(&after.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("error saving recurring transaction execution: %w", err)
	}

	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM recurring_transactions WHERE id = $1)`, after.ID).Scan(&exists); err != nil {
		return fmt.Errorf("error checking recurring transaction existence: %w", err)
	}
	if !exists {
		return ErrRuleNotFound
	}
	return ErrStaleRule
}

func (r *PostgresRuleRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET is_enabled = $1, updated_at = NOW() WHERE id = $2`, enabled, id)
	if err != nil {
		return fmt.Errorf("error toggling recurring transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading toggled row count: %w", err)
	}
	if n == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func specArgs(t *recurring.Transaction) []interface{} {
	rule := t.Rule
	return []interface{}{
		t.Name, t.Amount, t.Kind, t.CategoryID, t.Note, t.LedgerID,
		rule.Frequency, rule.Interval,
		nullIntArg(rule.AnchorDayOfWeek), nullIntArg(rule.AnchorDayOfMonth), nullIntArg(rule.AnchorMonthOfYear),
		dayArg(rule.StartDate), nullDayArg(rule.EndDate), nullIntArg(rule.MaxOccurrences),
	}
}

func scheduleArgs(t *recurring.Transaction) []interface{} {
	return []interface{}{dayArg(t.NextDueDate), nullDayArg(t.LastExecutedDate), t.OccurrenceCount}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func scanRule(row rowScanner) (*recurring.Transaction, error) {
	var (
		t                                   recurring.Transaction
		anchorWeekday, anchorDay, anchorMon sql.NullInt64
		maxOcc                              sql.NullInt64
		start, next                         sql.NullTime
		end, lastExec                       sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.Name, &t.Amount, &t.Kind, &t.CategoryID, &t.Note, &t.LedgerID,
		&t.Rule.Frequency, &t.Rule.Interval, &anchorWeekday, &anchorDay, &anchorMon,
		&start, &end, &maxOcc,
		&next, &lastExec, &t.OccurrenceCount, &t.IsEnabled, &t.AutoExecute, &t.Status,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Rule.AnchorDayOfWeek = int(anchorWeekday.Int64)
	t.Rule.AnchorDayOfMonth = int(anchorDay.Int64)
	t.Rule.AnchorMonthOfYear = int(anchorMon.Int64)
	t.Rule.MaxOccurrences = int(maxOcc.Int64)
	t.Rule.StartDate = recurrence.DayOfTime(start.Time)
	t.Rule.EndDate = dayFromNull(end)
	t.NextDueDate = recurrence.DayOfTime(next.Time)
	t.LastExecutedDate = dayFromNull(lastExec)
	return &t, nil
}

// Helper to scan multiple rows
func scanRules(rows *sql.Rows) ([]*recurring.Transaction, error) {
	out := make([]*recurring.Transaction, 0)
	for rows.Next() {
		t, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning recurring transaction row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recurring transaction rows: %w", err)
	}
	return out, nil
}
