// Package telegram mirrors reminders to an operator channel as plain text.
// The channel has no rich cards, so only the plain-text rendering is sent.
package telegram

import (
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends plain-text messages to a single chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// New creates a Notifier for the given bot token and chat.
func New(token string, chatID int64) (*Notifier, error) {
	return NewWithEndpoint(token, chatID, tgbotapi.APIEndpoint, nil)
}

// NewWithEndpoint creates a Notifier against a custom API endpoint (for testing).
func NewWithEndpoint(token string, chatID int64, endpoint string, client *http.Client) (*Notifier, error) {
	if client == nil {
		client = http.DefaultClient
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram: creating bot api: %w", err)
	}

	return &Notifier{bot: bot, chatID: chatID}, nil
}

// Send pushes a plain-text message to the configured chat.
func (n *Notifier) Send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}
