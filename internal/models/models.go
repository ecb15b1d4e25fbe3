package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fan tiers, ordered by spend.
const (
	TierNew   = 0
	TierMid   = 1
	TierWhale = 2
)

// Sender of a chat message.
type Sender string

const (
	FromFan   Sender = "fan"
	FromModel Sender = "model"
)

// TransactionType is the kind of payment a fan made.
type TransactionType string

const (
	TransactionPurchase TransactionType = "compra"
	TransactionTip      TransactionType = "tip"
)

// Model represents a content creator account
type Model struct {
	ID    string `json:"model_id"`
	Name  string `json:"name"`
	Niche string `json:"niche"`
}

// ModelConfig holds per-model settings for the LLM call. A nil Temperature
// means the global default applies.
type ModelConfig struct {
	ModelID     string   `json:"model_id"`
	APIKey      string   `json:"-"`
	LLMModel    string   `json:"llm_model"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens"`
}

// Fan represents a subscriber of a model
type Fan struct {
	FanID      string          `json:"fan_id"`
	ModelID    string          `json:"model_id"`
	Name       string          `json:"name"`
	Tier       int             `json:"tier"`
	SpentTotal decimal.Decimal `json:"spent_total"`
}

// ChatMessage is a single message of a fan conversation
type ChatMessage struct {
	ID        int64     `json:"id"`
	ModelID   string    `json:"model_id"`
	FanID     string    `json:"fan_id"`
	From      Sender    `json:"from"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Transaction is a purchase or tip made by a fan
type Transaction struct {
	ID        int64           `json:"id"`
	ModelID   string          `json:"model_id"`
	FanID     string          `json:"fan_id"`
	Type      TransactionType `json:"type"`
	OfferID   string          `json:"offer_id"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"ts"`
}

// CatalogItem is a sellable PPV content unit
type CatalogItem struct {
	OfferID     string          `json:"offer_id"`
	ModelID     string          `json:"model_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Nivel       int             `json:"nivel"`
	Tags        string          `json:"tags"`
	Keywords    []string        `json:"keywords"`
	IsActive    bool            `json:"is_active"`
}

// Draft is a generated reply suggestion kept for the chat staff
type Draft struct {
	ID        string    `json:"id"`
	ModelID   string    `json:"model_id"`
	FanID     string    `json:"fan_id"`
	Mode      string    `json:"mode"`
	Energy    string    `json:"energy"`
	OfferID   string    `json:"offer_id,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
