// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(
	b *telebot.Bot,
	ownerTelegramID int64,
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID != ownerTelegramID {
			logCtx.Info("User is not the owner")
			return c.Send("Hi! This bot keeps a private ledger and only answers its owner.")
		}
		return c.Send(fmt.Sprintf("Hi, %s! I book your recurring income and expenses. Use /help for the list of commands.", c.Sender().FirstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if senderID != ownerTelegramID {
			return c.Send("No commands are available to you.")
		}
		return c.Send(HelpText(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}

// HelpText lists the owner commands.
func HelpText() string {
	var helpText strings.Builder
	helpText.WriteString("Available commands:\n\n")
	helpText.WriteString("`/rules`\n - List all recurring transactions.\n\n")
	helpText.WriteString("`/due`\n - Show what is due today.\n\n")
	helpText.WriteString("`/add_rule " + ruleArgsUsage + "`\n - Add a recurring transaction. " +
		"Frequencies: daily, weekly, biweekly, monthly, quarterly, yearly. Use `_` for spaces in the name.\n\n")
	helpText.WriteString("`/edit_rule <id> ...`\n - Replace a rule with new arguments; its schedule restarts.\n\n")
	helpText.WriteString("`/pause <id>`, `/resume <id>`\n - Stop or restart booking a rule.\n\n")
	helpText.WriteString("`/delete <id>`\n - Remove a rule. Booked entries stay in the ledger.\n\n")
	helpText.WriteString("`/book <id>`\n - Book a due rule now.\n\n")
	helpText.WriteString("`/run`\n - Run the due check immediately.\n\n")
	helpText.WriteString("`/help`\n - Show this message.")
	return helpText.String()
}
