// internal/app/schedule_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recurring_ledger_bot/internal/domain/ledger"
	"recurring_ledger_bot/internal/domain/recurrence"
	"recurring_ledger_bot/internal/domain/recurring"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ExecutionResult is what a successful Execute booked and where the rule ended up.
type ExecutionResult struct {
	Entry       *ledger.Entry
	Transaction *recurring.Transaction
	FiredDate   recurrence.Day
	Completed   bool
}

// RunFailure records a rule that could not be executed during RunDue.
type RunFailure struct {
	Transaction *recurring.Transaction
	Err         error
}

// RunReport summarizes one pass of the driver over the due rules.
type RunReport struct {
	RunID                string
	Today                recurrence.Day
	Booked               []*ExecutionResult
	AwaitingConfirmation []*recurring.Transaction
	Skipped              int // already booked, completed, paused or not due by the time it ran
	Failures             []RunFailure
}

// ScheduleService owns the lifecycle of recurring transactions: seeding,
// due detection, execution and termination.
type ScheduleService struct {
	rules  recurring.Repository
	booker ledger.Booker
	locks  *ruleLocks
	clock  func() time.Time
	logger *logrus.Entry
}

func NewScheduleService(
	rules recurring.Repository,
	booker ledger.Booker, // books an entry and advances the rule in one unit
	clock func() time.Time, // nil means time.Now
	logger *logrus.Entry,
) *ScheduleService {
	if clock == nil {
		clock = time.Now
	}
	return &ScheduleService{
		rules:  rules,
		booker: booker,
		locks:  newRuleLocks(),
		clock:  clock,
		logger: logger.WithField("component", "schedule_service"),
	}
}

// Today is the current calendar day in the clock's location.
func (s *ScheduleService) Today() recurrence.Day {
	return recurrence.DayOfTime(s.clock())
}

// CreateRule validates spec, seeds the first occurrence and stores a new rule.
func (s *ScheduleService) CreateRule(ctx context.Context, spec recurring.Spec) (*recurring.Transaction, error) {
	spec, due, err := s.prepare(spec)
	if err != nil {
		return nil, err
	}

	t := &recurring.Transaction{IsEnabled: true, Status: recurring.StatusActive}
	spec.Apply(t, due)

	if err := s.rules.Create(ctx, t); err != nil {
		return nil, persistenceError("create recurring transaction", err)
	}
	s.logger.WithFields(logrus.Fields{
		"rule_id":   t.ID,
		"frequency": t.Rule.Frequency,
		"due_date":  t.NextDueDate.String(),
	}).Info("Recurring transaction created")
	return t, nil
}

// EditRule replaces the rule's fields and reseeds from today. The occurrence count
// carries over, so MaxOccurrences keeps capping total firings. Completed rules
// cannot be edited.
func (s *ScheduleService) EditRule(ctx context.Context, id int64, spec recurring.Spec) (*recurring.Transaction, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	spec, due, err := s.prepare(spec)
	if err != nil {
		return nil, err
	}

	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Completed() {
		return nil, ErrRuleCompleted
	}
	if spec.Rule.ReachedCap(t.OccurrenceCount) {
		return nil, &ValidationError{
			Field:  "max_occurrences",
			Reason: fmt.Sprintf("must exceed the %d occurrences already booked", t.OccurrenceCount),
		}
	}
	spec.Apply(t, due)

	if err := s.rules.Update(ctx, t); err != nil {
		if errors.Is(err, recurring.ErrNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, persistenceError("update recurring transaction", err)
	}
	s.logger.WithFields(logrus.Fields{
		"rule_id":          id,
		"due_date":         due.String(),
		"occurrence_count": t.OccurrenceCount,
	}).Info("Recurring transaction edited and reseeded")
	return t, nil
}

// DeleteRule removes the rule. Entries it already booked stay in the ledger.
func (s *ScheduleService) DeleteRule(ctx context.Context, id int64) error {
	unlock := s.locks.lock(id)
	defer unlock()

	if err := s.rules.Delete(ctx, id); err != nil {
		if errors.Is(err, recurring.ErrNotFound) {
			return ErrRuleNotFound
		}
		return persistenceError("delete recurring transaction", err)
	}
	s.logger.WithField("rule_id", id).Info("Recurring transaction deleted")
	return nil
}

// GetRule returns a single rule.
func (s *ScheduleService) GetRule(ctx context.Context, id int64) (*recurring.Transaction, error) {
	return s.get(ctx, id)
}

// ListRules returns every rule, completed ones included.
func (s *ScheduleService) ListRules(ctx context.Context) ([]*recurring.Transaction, error) {
	all, err := s.rules.ListAll(ctx)
	if err != nil {
		return nil, persistenceError("list recurring transactions", err)
	}
	return all, nil
}

// DueRules returns the rules whose next occurrence should fire on today. It has no
// side effects; calling it twice without an Execute yields the same rules.
func (s *ScheduleService) DueRules(ctx context.Context, today recurrence.Day) ([]*recurring.Transaction, error) {
	candidates, err := s.rules.ListDue(ctx, today)
	if err != nil {
		return nil, persistenceError("list due recurring transactions", err)
	}
	due := make([]*recurring.Transaction, 0, len(candidates))
	for _, t := range candidates {
		if t.IsDue(today) {
			due = append(due, t)
		}
	}
	return due, nil
}

// Execute books the rule's current occurrence and advances it. The rule is
// reloaded under its lock, so a stale caller copy cannot double-book. Booking
// and advancing happen as one unit: on any error neither the ledger nor the
// rule changed.
func (s *ScheduleService) Execute(ctx context.Context, id int64) (*ExecutionResult, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	logCtx := s.logger.WithFields(logrus.Fields{"rule_id": id, "due_date": t.NextDueDate.String()})

	tr, err := recurring.Fire(t)
	if err != nil {
		logCtx.WithError(err).Debug("Execution rejected")
		return nil, err
	}
	if !t.IsEnabled {
		return nil, ErrRulePaused
	}
	if !t.IsDue(s.Today()) {
		return nil, ErrNotDue
	}

	entry, err := s.booker.BookOccurrence(ctx, ledger.RequestFor(t), tr)
	if err != nil {
		switch {
		case errors.Is(err, recurring.ErrStaleTransaction):
			logCtx.Warn("Rule advanced concurrently; treating as already executed")
			return nil, ErrAlreadyExecuted
		case errors.Is(err, recurring.ErrNotFound):
			return nil, ErrRuleNotFound
		}
		logCtx.WithError(err).Error("Failed to book ledger entry")
		return nil, persistenceError("book ledger entry", err)
	}
	logCtx = logCtx.WithField("entry_id", entry.ID)

	if tr.Completed() {
		logCtx.Info("Occurrence booked; recurring transaction completed")
	} else {
		logCtx.WithField("next_due_date", tr.After.NextDueDate.String()).Info("Occurrence booked")
	}
	return &ExecutionResult{
		Entry:       entry,
		Transaction: tr.After,
		FiredDate:   tr.FiredDate,
		Completed:   tr.Completed(),
	}, nil
}

// Pause stops the rule from surfacing as due. NextDueDate is kept.
func (s *ScheduleService) Pause(ctx context.Context, id int64) (*recurring.Transaction, error) {
	return s.setEnabled(ctx, id, false)
}

// Resume re-enables a paused rule. An overdue rule fires one occurrence on the
// next scan; skipped periods are not caught up.
func (s *ScheduleService) Resume(ctx context.Context, id int64) (*recurring.Transaction, error) {
	return s.setEnabled(ctx, id, true)
}

// RunDue is one driver pass: every due auto-executing rule fires one occurrence;
// manual rules are reported as awaiting confirmation. A failing rule does not
// stop the others.
func (s *ScheduleService) RunDue(ctx context.Context, today recurrence.Day) (*RunReport, error) {
	report := &RunReport{RunID: uuid.NewString(), Today: today}
	logCtx := s.logger.WithFields(logrus.Fields{"run_id": report.RunID, "today": today.String()})

	due, err := s.DueRules(ctx, today)
	if err != nil {
		logCtx.WithError(err).Error("Failed to list due rules")
		return nil, err
	}
	logCtx.WithField("due_count", len(due)).Info("Processing due recurring transactions")

	for _, t := range due {
		if !t.AutoExecute {
			report.AwaitingConfirmation = append(report.AwaitingConfirmation, t)
			continue
		}
		res, err := s.Execute(ctx, t.ID)
		switch {
		case err == nil:
			report.Booked = append(report.Booked, res)
		case errors.Is(err, ErrAlreadyExecuted), errors.Is(err, ErrRuleCompleted),
			errors.Is(err, ErrNotDue), errors.Is(err, ErrRulePaused), errors.Is(err, ErrRuleNotFound):
			report.Skipped++
		default:
			logCtx.WithError(err).WithField("rule_id", t.ID).Error("Recurring transaction execution failed")
			report.Failures = append(report.Failures, RunFailure{Transaction: t, Err: err})
		}
	}

	logCtx.WithFields(logrus.Fields{
		"booked":   len(report.Booked),
		"awaiting": len(report.AwaitingConfirmation),
		"skipped":  report.Skipped,
		"failed":   len(report.Failures),
	}).Info("Due run finished")
	return report, nil
}

func (s *ScheduleService) setEnabled(ctx context.Context, id int64, enabled bool) (*recurring.Transaction, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	t, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Completed() {
		return nil, ErrRuleCompleted
	}
	if t.IsEnabled == enabled {
		return t, nil
	}
	if err := s.rules.SetEnabled(ctx, id, enabled); err != nil {
		return nil, persistenceError("update recurring transaction state", err)
	}
	t.IsEnabled = enabled
	s.logger.WithFields(logrus.Fields{"rule_id": id, "enabled": enabled}).Info("Recurring transaction toggled")
	return t, nil
}

func (s *ScheduleService) get(ctx context.Context, id int64) (*recurring.Transaction, error) {
	t, err := s.rules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, recurring.ErrNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, persistenceError(fmt.Sprintf("get recurring transaction %d", id), err)
	}
	return t, nil
}

// prepare validates spec and computes its first due date.
func (s *ScheduleService) prepare(spec recurring.Spec) (recurring.Spec, recurrence.Day, error) {
	spec.Name = strings.TrimSpace(spec.Name)
	spec.Rule = spec.Rule.Normalize()
	if err := validateSpec(spec); err != nil {
		return spec, 0, err
	}

	due := recurrence.Seed(spec.Rule, s.Today())
	if spec.Rule.HasEnded(due) {
		return spec, 0, &ValidationError{Field: "end_date", Reason: "no occurrence falls on or before the end date"}
	}
	return spec, due, nil
}

func validateSpec(spec recurring.Spec) error {
	if spec.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be blank"}
	}
	if !spec.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if !spec.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", string(spec.Kind))}
	}
	if err := spec.Rule.Validate(); err != nil {
		var ruleErr *recurrence.RuleError
		if errors.As(err, &ruleErr) {
			return &ValidationError{Field: ruleErr.Field, Reason: ruleErr.Reason}
		}
		return &ValidationError{Field: "rule", Reason: err.Error()}
	}
	return nil
}
