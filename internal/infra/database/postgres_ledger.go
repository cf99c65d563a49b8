// internal/infra/database/postgres_ledger.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"recurring_ledger_bot/internal/domain/ledger"
	"recurring_ledger_bot/internal/domain/recurrence"
	"recurring_ledger_bot/internal/domain/recurring"

	"github.com/google/uuid"
)

const entryColumns = `id, rule_id, ledger_id, entry_date, kind, amount, category_id, note, created_at`

// PostgresLedger books ledger entries. The (rule_id, entry_date) unique
// constraint makes booking idempotent across retries and restarts.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) BookEntry(ctx context.Context, req ledger.BookingRequest) (*ledger.Entry, error) {
	return bookEntry(ctx, l.db, req)
}

// BookOccurrence inserts the entry and advances the rule in one transaction.
// The rule UPDATE runs first so a concurrent executor blocks on the row lock
// and then fails the occurrence-count check instead of booking twice.
func (l *PostgresLedger) BookOccurrence(ctx context.Context, req ledger.BookingRequest, tr recurring.Transition) (*ledger.Entry, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error starting booking transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := saveTransition(ctx, tx, tr); err != nil {
		return nil, err
	}
	entry, err := bookEntry(ctx, tx, req)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing booking %s: %w", req.IdempotencyKey(), err)
	}
	return entry, nil
}

func (l *PostgresLedger) ListByRule(ctx context.Context, ruleID int64) ([]*ledger.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE rule_id = $1 ORDER BY entry_date`
	rows, err := l.db.QueryContext(ctx, query, ruleID)
	if err != nil {
		return nil, fmt.Errorf("error querying ledger entries by rule: %w", err)
	}
	defer rows.Close()

	entries := make([]*ledger.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning ledger entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entry rows: %w", err)
	}
	return entries, nil
}

// bookEntry inserts req unless (rule_id, entry_date) is already booked, in which
// case the earlier entry is returned. ON CONFLICT keeps an enclosing
// transaction usable where a unique violation would abort it.
func bookEntry(ctx context.Context, q querier, req ledger.BookingRequest) (*ledger.Entry, error) {
	query := `INSERT INTO ledger_entries (id, rule_id, ledger_id, entry_date, kind, amount, category_id, note)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
               ON CONFLICT ON CONSTRAINT ledger_entries_rule_date_unique DO NOTHING
               RETURNING ` + entryColumns

	entry, err := scanEntry(q.QueryRowContext(ctx, query,
		uuid.New(), req.RuleID, req.LedgerID, dayArg(req.DueDate), req.Kind, req.Amount, req.CategoryID, req.Note,
	))
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("error booking ledger entry %s: %w", req.IdempotencyKey(), err)
	}

	existing, err := getByRuleAndDate(ctx, q, req.RuleID, req.DueDate)
	if err != nil {
		return nil, fmt.Errorf("error loading existing ledger entry %s: %w", req.IdempotencyKey(), err)
	}
	return existing, nil
}

func getByRuleAndDate(ctx context.Context, q querier, ruleID int64, due recurrence.Day) (*ledger.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE rule_id = $1 AND entry_date = $2`
	return scanEntry(q.QueryRowContext(ctx, query, ruleID, dayArg(due)))
}

func scanEntry(row rowScanner) (*ledger.Entry, error) {
	var (
		e         ledger.Entry
		entryDate sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.RuleID, &e.LedgerID, &entryDate, &e.Kind, &e.Amount, &e.CategoryID, &e.Note, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.EntryDate = recurrence.DayOfTime(entryDate.Time)
	return &e, nil
}
