// internal/app/reminder_service.go
package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"recurring_ledger_bot/internal/domain/recurring"
	domainTelegram "recurring_ledger_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// CallbackBookUnique identifies the inline "Book now" button; its data is the rule id.
const CallbackBookUnique = "book"

// ReminderService tells the owner what the scheduler booked and which manual
// rules wait for a trigger. A nil client turns it into a log-only notifier.
type ReminderService struct {
	client      domainTelegram.Client
	ownerChatID int64
	logger      *logrus.Entry
}

func NewReminderService(client domainTelegram.Client, ownerChatID int64, logger *logrus.Entry) *ReminderService {
	return &ReminderService{
		client:      client,
		ownerChatID: ownerChatID,
		logger:      logger.WithField("component", "reminder_service"),
	}
}

// NotifyRun reports the outcome of a driver pass.
func (s *ReminderService) NotifyRun(ctx context.Context, report *RunReport) error {
	if report == nil {
		return nil
	}
	if len(report.Booked) > 0 || len(report.Failures) > 0 {
		if err := s.send(FormatRunSummary(report), nil); err != nil {
			return err
		}
	}
	return s.RemindAwaiting(ctx, report.AwaitingConfirmation)
}

// RemindAwaiting sends one message per manual rule with a "Book now" button.
// Send failures for one rule do not stop the rest; the last error is returned.
func (s *ReminderService) RemindAwaiting(_ context.Context, awaiting []*recurring.Transaction) error {
	var lastErr error
	for _, t := range awaiting {
		markup := &telebot.ReplyMarkup{}
		btn := markup.Data("Book now", CallbackBookUnique, strconv.FormatInt(t.ID, 10))
		markup.Inline(markup.Row(btn))

		text := fmt.Sprintf("%s (%s %s) was due on %s and waits for confirmation.",
			t.Name, strings.ToLower(string(t.Kind)), t.Amount.StringFixed(2), t.NextDueDate)
		if err := s.send(text, &telebot.SendOptions{ReplyMarkup: markup}); err != nil {
			s.logger.WithError(err).WithField("rule_id", t.ID).Error("Failed to send confirmation reminder")
			lastErr = err
		}
	}
	return lastErr
}

// NotifyExecuted confirms a manual booking.
func (s *ReminderService) NotifyExecuted(_ context.Context, res *ExecutionResult) error {
	return s.send(FormatBooking(res), nil)
}

func (s *ReminderService) send(text string, opts *telebot.SendOptions) error {
	if s.client == nil || s.ownerChatID == 0 {
		s.logger.WithField("message", text).Info("Notification (no Telegram client configured)")
		return nil
	}
	if err := s.client.SendMessage(s.ownerChatID, text, opts); err != nil {
		return fmt.Errorf("failed to send message to owner: %w", err)
	}
	return nil
}

// FormatRunSummary renders a RunReport as a chat message.
func FormatRunSummary(report *RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recurring run for %s\n", report.Today)
	for _, res := range report.Booked {
		b.WriteString("• ")
		b.WriteString(FormatBooking(res))
		b.WriteString("\n")
	}
	for _, f := range report.Failures {
		fmt.Fprintf(&b, "• %s failed: %v\n", f.Transaction.Name, f.Err)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatBooking describes one booked occurrence and where the rule goes next.
func FormatBooking(res *ExecutionResult) string {
	t := res.Transaction
	msg := fmt.Sprintf("Booked %s %s %s on %s", t.Name, strings.ToLower(string(t.Kind)), res.Entry.Amount.StringFixed(2), res.FiredDate)
	if res.Completed {
		return msg + " (final occurrence)"
	}
	return msg + fmt.Sprintf(", next on %s", t.NextDueDate)
}
