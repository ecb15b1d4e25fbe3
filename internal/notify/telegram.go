package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of the Telegram bot API the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	api    Sender
	chatID int64
	logger *zap.Logger
}

// NewTelegram connects to the bot API with token and posts notices to chatID.
func NewTelegram(token string, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	logger.Info("Telegram notifier ready", zap.String("bot", api.Self.UserName), zap.Int64("chat_id", chatID))
	return NewTelegramWithSender(api, chatID, logger), nil
}

func NewTelegramWithSender(api Sender, chatID int64, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		api:    api,
		chatID: chatID,
		logger: logger,
	}
}

func (n *TelegramNotifier) NotifyDraft(ctx context.Context, notice DraftNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, formatNotice(notice))
	msg.ParseMode = "MarkdownV2"

	if _, err := n.api.Send(msg); err != nil {
		n.logger.Error("Failed to send draft notice",
			zap.Error(err),
			zap.Int64("chat_id", n.chatID),
			zap.String("draft_id", notice.DraftID))
		return fmt.Errorf("sending telegram notice: %w", err)
	}
	return nil
}

func formatNotice(n DraftNotice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*New draft* for %s\n", escapeMarkdown(n.ModelName))
	fmt.Fprintf(&b, "*Fan:* %s \\(tier %d\\)\n", escapeMarkdown(n.FanID), n.FanTier)
	fmt.Fprintf(&b, "*Mode:* %s \\| *Energy:* %s\n", escapeMarkdown("#"+n.Mode), escapeMarkdown(n.Energy))
	if n.OfferTitle != "" {
		fmt.Fprintf(&b, "*Offer:* %s for %s\n", escapeMarkdown(n.OfferTitle), escapeMarkdown("$"+n.OfferPrice.StringFixed(2)))
	}
	fmt.Fprintf(&b, "\n_%s_", escapeMarkdown(n.Text))
	return b.String()
}

// escapeMarkdown escapes special characters for MarkdownV2
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}
