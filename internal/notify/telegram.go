package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"

	"github.com/nanafuji/estimail/pkg/models"
)

// Telegram announces newly saved estimate mails in a staff chat.
// Delivery is best effort: a failed send is logged and forgotten.
type Telegram struct {
	bot    *bot.Bot
	chatID int64
	logger *slog.Logger
}

// New creates a Telegram notifier
func New(token string, chatID int64, logger *slog.Logger) (*Telegram, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
		logger: logger.With("component", "notify"),
	}, nil
}

// NotifyNewEmail sends a short summary of a freshly stored email
func (t *Telegram) NotifyNewEmail(ctx context.Context, email *models.Email) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	text := fmt.Sprintf("新しい見積もりメール\n件名: %s\n差出人: %s\n受信日時: %s",
		email.Subject, email.FromAddr, email.Date.Format("2006-01-02 15:04"))

	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   text,
	})
	if err != nil {
		t.logger.Warn("failed to send notification", "message_id", email.MessageID, "error", err)
	}
}
