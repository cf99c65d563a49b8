// internal/infra/telegram/booking_response_handlers.go
package telegram

import (
	"context"
	"fmt"
	"strings"

	"recurring_ledger_bot/internal/app"

	"gopkg.in/telebot.v3"
)

// RegisterBookingResponseHandlers handles the "Book now" button attached to
// confirmation reminders.
func RegisterBookingResponseHandlers(ctx context.Context, b *telebot.Bot, cmds *RuleCommands, ownerTelegramID int64) {
	b.Handle(&telebot.Btn{Unique: app.CallbackBookUnique}, func(c telebot.Context) error {
		if c.Sender().ID != ownerTelegramID {
			cmds.logger.WithField("sender_id", c.Sender().ID).Warn("Unauthorized booking callback")
			return c.Respond(&telebot.CallbackResponse{Text: "Not allowed."})
		}

		toast, done := cmds.BookFromCallback(ctx, c.Callback().Data)
		if done {
			// Drop the button so the same reminder cannot be tapped again.
			if err := c.Edit(c.Message().Text + "\n\nBooked."); err != nil {
				cmds.logger.WithError(err).Debug("Failed to edit reminder message")
			}
		}
		return c.Respond(&telebot.CallbackResponse{Text: toast})
	})
}

// BookFromCallback executes the rule named by the callback data and sends the
// booking confirmation. It returns the callback toast and whether a booking
// happened.
func (h *RuleCommands) BookFromCallback(ctx context.Context, data string) (string, bool) {
	id, err := parseRuleID(strings.TrimSpace(data))
	if err != nil {
		h.logger.WithError(err).WithField("data", data).Warn("Invalid booking callback data")
		return "Invalid rule id.", false
	}

	res, reply := h.book(ctx, id)
	if res == nil {
		return reply, false
	}
	if err := h.reminders.NotifyExecuted(ctx, res); err != nil {
		h.logger.WithError(err).WithField("rule_id", id).Warn("Failed to send booking confirmation")
	}
	return fmt.Sprintf("Booked %s.", res.Transaction.Name), true
}
