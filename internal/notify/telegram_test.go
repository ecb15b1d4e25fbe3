package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestTelegramNotifier_NotifyDraft(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramWithSender(sender, 42, zaptest.NewLogger(t))

	err := n.NotifyDraft(context.Background(), DraftNotice{
		DraftID:    "d1",
		ModelName:  "Luna",
		FanID:      "fan_1",
		FanTier:    2,
		Mode:       "OFFER",
		Energy:     "flirty",
		OfferTitle: "Beach set",
		OfferPrice: decimal.RequireFromString("14.5"),
		Text:       "want to see more?",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.ChatID != 42 || msg.ParseMode != "MarkdownV2" {
		t.Errorf("msg = %+v", msg)
	}
	for _, want := range []string{"fan\\_1", "\\#OFFER", "Beach set", "$14\\.50", "want to see more?"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text missing %q:\n%s", want, msg.Text)
		}
	}
}

func TestTelegramNotifier_SendError(t *testing.T) {
	n := NewTelegramWithSender(&fakeSender{err: errors.New("boom")}, 1, zaptest.NewLogger(t))
	if err := n.NotifyDraft(context.Background(), DraftNotice{}); err == nil {
		t.Error("expected error")
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := escapeMarkdown("a_b.c!"); got != "a\\_b\\.c\\!" {
		t.Errorf("got %q", got)
	}
}
