package telegram

import "gopkg.in/telebot.v3"

// Client sends messages to the owner's chat.
// The bot library stays behind this interface so services can be tested without it.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
