package scheduler

import (
	"context"
	"fmt"
	"time"

	"recurring_ledger_bot/internal/app"
	"recurring_ledger_bot/internal/domain/recurrence"
	"recurring_ledger_bot/internal/domain/recurring"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DueRunner is the part of the schedule service the driver needs.
type DueRunner interface {
	Today() recurrence.Day
	RunDue(ctx context.Context, today recurrence.Day) (*app.RunReport, error)
	DueRules(ctx context.Context, today recurrence.Day) ([]*recurring.Transaction, error)
}

// Notifier delivers run outcomes to the owner.
type Notifier interface {
	NotifyRun(ctx context.Context, report *app.RunReport) error
	RemindAwaiting(ctx context.Context, awaiting []*recurring.Transaction) error
}

type DueScheduler struct {
	cronEngine       *cron.Cron
	runner           DueRunner
	notifier         Notifier
	logger           *logrus.Entry
	cronSpecDueCheck string
	cronSpecReminder string // Empty disables the evening reminder
	jobTimeout       time.Duration
}

func NewDueScheduler(
	runner DueRunner,
	notifier Notifier,
	logger *logrus.Entry,
	cronSpecDueCheck string, // e.g., "0 8 * * *" (8:00 AM daily)
	cronSpecReminder string, // e.g., "0 19 * * *" (7:00 PM daily)
	jobTimeout time.Duration,
) *DueScheduler {
	return &DueScheduler{
		cronEngine:       cron.New(cron.WithLocation(time.Local)), // Due dates are local calendar days
		runner:           runner,
		notifier:         notifier,
		logger:           logger.WithField("component", "scheduler"),
		cronSpecDueCheck: cronSpecDueCheck,
		cronSpecReminder: cronSpecReminder,
		jobTimeout:       jobTimeout,
	}
}

// Start registers the jobs and starts the cron engine.
func (s *DueScheduler) Start() error {
	s.logger.Info("Starting due scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecDueCheck, func() {
		s.logger.Info("Cron job triggered for due check.")
		s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("could not add due check cron job %q: %w", s.cronSpecDueCheck, err)
	}

	if s.cronSpecReminder != "" {
		_, err = s.cronEngine.AddFunc(s.cronSpecReminder, func() {
			s.logger.Info("Cron job triggered for confirmation reminders.")
			s.RemindOnce(context.Background())
		})
		if err != nil {
			return fmt.Errorf("could not add reminder cron job %q: %w", s.cronSpecReminder, err)
		}
	}

	s.cronEngine.Start()
	s.logger.WithField("entries", len(s.cronEngine.Entries())).Info("Due scheduler started with jobs.")
	return nil
}

// RunOnce performs one due check for today and reports the result. Errors are
// logged; the next tick simply tries again.
func (s *DueScheduler) RunOnce(ctx context.Context) *app.RunReport {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	today := s.runner.Today()
	report, err := s.runner.RunDue(ctx, today)
	if err != nil {
		s.logger.WithError(err).WithField("today", today.String()).Error("Due check failed")
		return nil
	}
	if err := s.notifier.NotifyRun(ctx, report); err != nil {
		s.logger.WithError(err).WithField("run_id", report.RunID).Error("Failed to notify owner about due run")
	}
	return report
}

// RemindOnce re-sends confirmation prompts for manual rules that are still due.
func (s *DueScheduler) RemindOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	due, err := s.runner.DueRules(ctx, s.runner.Today())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list due rules for reminders")
		return 0
	}
	awaiting := make([]*recurring.Transaction, 0, len(due))
	for _, t := range due {
		if !t.AutoExecute {
			awaiting = append(awaiting, t)
		}
	}
	if len(awaiting) == 0 {
		s.logger.Debug("No manual rules awaiting confirmation.")
		return 0
	}
	if err := s.notifier.RemindAwaiting(ctx, awaiting); err != nil {
		s.logger.WithError(err).Error("Failed to send some confirmation reminders")
	}
	return len(awaiting)
}

func (s *DueScheduler) Stop() {
	s.logger.Info("Stopping due scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Due scheduler gracefully stopped.")
}
