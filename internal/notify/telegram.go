package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

type telegramSender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// TelegramNotifier posts captured contacts to the staff Telegram chat.
type TelegramNotifier struct {
	bot    telegramSender
	chatID int64
	logger *logging.Logger
}

// NewTelegramNotifier creates a notifier for the given bot token and chat.
func NewTelegramNotifier(token string, chatID int64, logger *logging.Logger) (*TelegramNotifier, error) {
	if chatID == 0 {
		return nil, errors.New("notify: telegram chat id is required")
	}
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("notify: create telegram bot: %w", err)
	}
	return newTelegramNotifier(bot, chatID, logger), nil
}

func newTelegramNotifier(bot telegramSender, chatID int64, logger *logging.Logger) *TelegramNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

// NotifyContact sends the formatted contact to the staff chat.
func (t *TelegramNotifier) NotifyContact(ctx context.Context, n ContactNotification) error {
	msg, err := t.bot.SendMessage(ctx, tu.Message(tu.ID(t.chatID), FormatContact(n)))
	if err != nil {
		return fmt.Errorf("notify: telegram send failed: %w", err)
	}
	t.logger.Info("contact sent to telegram", "chat_id", t.chatID, "message_id", msg.MessageID)
	return nil
}
