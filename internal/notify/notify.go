// Package notify tells the chat staff that a new draft is ready.
package notify

import (
	"context"

	"github.com/shopspring/decimal"
)

// DraftNotice summarises one generated draft.
type DraftNotice struct {
	DraftID    string
	ModelName  string
	FanID      string
	FanTier    int
	Mode       string
	Energy     string
	OfferTitle string
	OfferPrice decimal.Decimal
	Text       string
}

type Notifier interface {
	NotifyDraft(ctx context.Context, notice DraftNotice) error
}

// Nop drops every notice.
type Nop struct{}

func (Nop) NotifyDraft(context.Context, DraftNotice) error { return nil }
