package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"recurring_ledger_bot/internal/app"
	"recurring_ledger_bot/internal/domain/recurring"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RunTrigger starts an out-of-schedule due check.
type RunTrigger interface {
	RunOnce(ctx context.Context) *app.RunReport
}

// RuleCommands implements the owner's rule management commands. Each method
// returns the reply text so the handlers stay thin.
type RuleCommands struct {
	schedule        *app.ScheduleService
	reminders       *app.ReminderService
	runner          RunTrigger
	defaultLedgerID string
	logger          *logrus.Entry
}

func NewRuleCommands(schedule *app.ScheduleService, reminders *app.ReminderService, runner RunTrigger, defaultLedgerID string, logger *logrus.Entry) *RuleCommands {
	return &RuleCommands{
		schedule:        schedule,
		reminders:       reminders,
		runner:          runner,
		defaultLedgerID: defaultLedgerID,
		logger:          logger.WithField("handler_group", "rules"),
	}
}

// RegisterAdminHandlers registers the rule commands. Only ownerTelegramID may use them.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, cmds *RuleCommands, ownerTelegramID int64) {
	owner := func(command string, fn func(args []string) string) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			logCtx := cmds.logger.WithFields(logrus.Fields{
				"handler":   command,
				"sender_id": c.Sender().ID,
			})
			if c.Sender().ID != ownerTelegramID {
				logCtx.Warn("Unauthorized access attempt")
				return c.Send("Error: you are not allowed to run this command.")
			}
			logCtx.Info("Command received")
			return c.Send(fn(c.Args()))
		}
	}

	b.Handle("/rules", owner("/rules", func(_ []string) string { return cmds.ListRules(ctx) }))
	b.Handle("/due", owner("/due", func(_ []string) string { return cmds.ListDue(ctx) }))
	b.Handle("/add_rule", owner("/add_rule", func(args []string) string { return cmds.AddRule(ctx, args) }))
	b.Handle("/edit_rule", owner("/edit_rule", func(args []string) string { return cmds.EditRule(ctx, args) }))
	b.Handle("/pause", owner("/pause", func(args []string) string { return cmds.Pause(ctx, args) }))
	b.Handle("/resume", owner("/resume", func(args []string) string { return cmds.Resume(ctx, args) }))
	b.Handle("/delete", owner("/delete", func(args []string) string { return cmds.Delete(ctx, args) }))
	b.Handle("/book", owner("/book", func(args []string) string { return cmds.Book(ctx, args) }))
	b.Handle("/run", owner("/run", func(_ []string) string { return cmds.RunNow(ctx) }))
}

func (h *RuleCommands) ListRules(ctx context.Context) string {
	rules, err := h.schedule.ListRules(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list rules")
		return "Failed to load rules, please try again later."
	}
	if len(rules) == 0 {
		return "No recurring transactions yet. Add one with /add_rule."
	}
	return formatRuleList("Recurring transactions", rules)
}

func (h *RuleCommands) ListDue(ctx context.Context) string {
	due, err := h.schedule.DueRules(ctx, h.schedule.Today())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list due rules")
		return "Failed to load due rules, please try again later."
	}
	if len(due) == 0 {
		return "Nothing is due today."
	}
	return formatRuleList("Due today", due)
}

func (h *RuleCommands) AddRule(ctx context.Context, args []string) string {
	spec, err := ParseRuleArgs(args, h.defaultLedgerID)
	if err != nil {
		return fmt.Sprintf("Invalid command: %v\nUsage: /add_rule %s", err, ruleArgsUsage)
	}
	t, err := h.schedule.CreateRule(ctx, spec)
	if err != nil {
		return h.failure("create rule", 0, err)
	}
	return fmt.Sprintf("Added %s. First occurrence on %s.", formatRule(t), t.NextDueDate)
}

func (h *RuleCommands) EditRule(ctx context.Context, args []string) string {
	if len(args) < 1 {
		return "Usage: /edit_rule <id> " + ruleArgsUsage
	}
	id, err := parseRuleID(args[0])
	if err != nil {
		return fmt.Sprintf("Error: %v.", err)
	}
	spec, err := ParseRuleArgs(args[1:], h.defaultLedgerID)
	if err != nil {
		return fmt.Sprintf("Invalid command: %v\nUsage: /edit_rule <id> %s", err, ruleArgsUsage)
	}
	t, err := h.schedule.EditRule(ctx, id, spec)
	if err != nil {
		return h.failure("edit rule", id, err)
	}
	return fmt.Sprintf("Updated %s. Next occurrence on %s.", formatRule(t), t.NextDueDate)
}

func (h *RuleCommands) Pause(ctx context.Context, args []string) string {
	id, reply := singleRuleID("/pause", args)
	if reply != "" {
		return reply
	}
	t, err := h.schedule.Pause(ctx, id)
	if err != nil {
		return h.failure("pause rule", id, err)
	}
	return fmt.Sprintf("Paused %s.", formatRule(t))
}

func (h *RuleCommands) Resume(ctx context.Context, args []string) string {
	id, reply := singleRuleID("/resume", args)
	if reply != "" {
		return reply
	}
	t, err := h.schedule.Resume(ctx, id)
	if err != nil {
		return h.failure("resume rule", id, err)
	}
	return fmt.Sprintf("Resumed %s.", formatRule(t))
}

func (h *RuleCommands) Delete(ctx context.Context, args []string) string {
	id, reply := singleRuleID("/delete", args)
	if reply != "" {
		return reply
	}
	if err := h.schedule.DeleteRule(ctx, id); err != nil {
		return h.failure("delete rule", id, err)
	}
	return fmt.Sprintf("Deleted rule #%d. Booked entries are kept.", id)
}

// Book executes a due rule by hand, the same way the "Book now" button does.
func (h *RuleCommands) Book(ctx context.Context, args []string) string {
	id, reply := singleRuleID("/book", args)
	if reply != "" {
		return reply
	}
	res, reply := h.book(ctx, id)
	if res == nil {
		return reply
	}
	return app.FormatBooking(res) + "."
}

func (h *RuleCommands) RunNow(ctx context.Context) string {
	report := h.runner.RunOnce(ctx)
	if report == nil {
		return "Due check failed, see logs."
	}
	return fmt.Sprintf("Due check for %s finished: %d booked, %d awaiting confirmation, %d skipped, %d failed.",
		report.Today, len(report.Booked), len(report.AwaitingConfirmation), report.Skipped, len(report.Failures))
}

// book executes the rule. On failure the result is nil and the string is the reply.
func (h *RuleCommands) book(ctx context.Context, id int64) (*app.ExecutionResult, string) {
	res, err := h.schedule.Execute(ctx, id)
	if err != nil {
		return nil, h.failure("book rule", id, err)
	}
	return res, ""
}

// failure maps service errors to a reply; unexpected ones are logged.
func (h *RuleCommands) failure(op string, id int64, err error) string {
	var vErr *app.ValidationError
	switch {
	case errors.As(err, &vErr):
		return fmt.Sprintf("Invalid %s: %s.", vErr.Field, vErr.Reason)
	case errors.Is(err, app.ErrRuleNotFound):
		return fmt.Sprintf("Rule #%d not found.", id)
	case errors.Is(err, app.ErrAlreadyExecuted):
		return fmt.Sprintf("Rule #%d is already booked for this occurrence.", id)
	case errors.Is(err, app.ErrRuleCompleted):
		return fmt.Sprintf("Rule #%d is completed and will not fire again.", id)
	case errors.Is(err, app.ErrNotDue):
		return fmt.Sprintf("Rule #%d is not due yet.", id)
	case errors.Is(err, app.ErrRulePaused):
		return fmt.Sprintf("Rule #%d is paused. Use /resume %d first.", id, id)
	default:
		h.logger.WithError(err).WithFields(logrus.Fields{"op": op, "rule_id": id}).Error("Rule command failed")
		return fmt.Sprintf("Failed to %s, please try again later.", op)
	}
}

// singleRuleID parses the lone <id> argument. A non-empty reply means the
// arguments were unusable and is sent back as is.
func singleRuleID(command string, args []string) (int64, string) {
	if len(args) != 1 {
		return 0, fmt.Sprintf("Usage: %s <id>", command)
	}
	id, err := parseRuleID(args[0])
	if err != nil {
		return 0, fmt.Sprintf("Error: %v.", err)
	}
	return id, ""
}

func parseRuleID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("rule id must be a positive number, got %q", s)
	}
	return id, nil
}

func formatRuleList(title string, rules []*recurring.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s ---\n", title)
	for _, t := range rules {
		b.WriteString(formatRule(t))
		switch {
		case t.Completed():
			b.WriteString(", completed")
		default:
			fmt.Fprintf(&b, ", next %s", t.NextDueDate)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRule(t *recurring.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s: %s %s, %s", t.ID, t.Name, strings.ToLower(string(t.Kind)), t.Amount.StringFixed(2), describeCadence(t))
	if t.OccurrenceCount > 0 {
		fmt.Fprintf(&b, ", %d booked", t.OccurrenceCount)
	}
	if !t.IsEnabled {
		b.WriteString(", paused")
	}
	if !t.AutoExecute {
		b.WriteString(", manual")
	}
	return b.String()
}

func describeCadence(t *recurring.Transaction) string {
	r := t.Rule
	s := strings.ToLower(string(r.Frequency))
	if r.Interval > 1 {
		s = fmt.Sprintf("%s every %d", s, r.Interval)
	}
	switch {
	case r.AnchorDayOfWeek != 0:
		s += fmt.Sprintf(" on weekday %d", r.AnchorDayOfWeek)
	case r.AnchorMonthOfYear != 0:
		s += fmt.Sprintf(" on %02d-%02d", r.AnchorMonthOfYear, r.AnchorDayOfMonth)
	case r.AnchorDayOfMonth != 0:
		s += fmt.Sprintf(" on day %d", r.AnchorDayOfMonth)
	}
	return s
}
