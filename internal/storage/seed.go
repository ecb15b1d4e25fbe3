package storage

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/xaenox/chatter-assist/internal/models"
)

// Seed is a YAML fixture for MemoryStorage. Messages are listed oldest first.
type Seed struct {
	Models       []SeedModel       `yaml:"models"`
	Fans         []SeedFan         `yaml:"fans"`
	Messages     []SeedMessage     `yaml:"messages"`
	Transactions []SeedTransaction `yaml:"transactions"`
	Catalog      []SeedItem        `yaml:"catalog"`
}

type SeedModel struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Niche       string   `yaml:"niche"`
	APIKey      string   `yaml:"api_key"`
	LLMModel    string   `yaml:"llm_model"`
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
}

type SeedFan struct {
	ModelID    string          `yaml:"model_id"`
	FanID      string          `yaml:"fan_id"`
	Name       string          `yaml:"name"`
	Tier       int             `yaml:"tier"`
	SpentTotal decimal.Decimal `yaml:"spent_total"`
}

type SeedMessage struct {
	ModelID string    `yaml:"model_id"`
	FanID   string    `yaml:"fan_id"`
	From    string    `yaml:"from"`
	Message string    `yaml:"message"`
	At      time.Time `yaml:"at"`
}

type SeedTransaction struct {
	ModelID string          `yaml:"model_id"`
	FanID   string          `yaml:"fan_id"`
	Type    string          `yaml:"type"`
	OfferID string          `yaml:"offer_id"`
	Amount  decimal.Decimal `yaml:"amount"`
	At      time.Time       `yaml:"at"`
}

// SeedItem is a catalog entry. Active defaults to true.
type SeedItem struct {
	ModelID     string          `yaml:"model_id"`
	OfferID     string          `yaml:"offer_id"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	BasePrice   decimal.Decimal `yaml:"base_price"`
	Nivel       int             `yaml:"nivel"`
	Tags        string          `yaml:"tags"`
	Keywords    []string        `yaml:"keywords"`
	Active      *bool           `yaml:"active"`
}

// LoadSeed reads and checks a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	if err := seed.validate(); err != nil {
		return nil, fmt.Errorf("invalid seed file %s: %w", path, err)
	}
	return &seed, nil
}

func (s *Seed) validate() error {
	known := make(map[string]bool, len(s.Models))
	for _, m := range s.Models {
		if m.ID == "" {
			return errors.New("model without id")
		}
		known[m.ID] = true
	}
	for _, f := range s.Fans {
		if !known[f.ModelID] || f.FanID == "" {
			return fmt.Errorf("fan %q: unknown model %q or missing fan_id", f.FanID, f.ModelID)
		}
	}
	for i, m := range s.Messages {
		if m.From != string(models.FromFan) && m.From != string(models.FromModel) {
			return fmt.Errorf("message %d: from must be %q or %q, got %q", i, models.FromFan, models.FromModel, m.From)
		}
	}
	for i, tx := range s.Transactions {
		if tx.Type != string(models.TransactionPurchase) && tx.Type != string(models.TransactionTip) {
			return fmt.Errorf("transaction %d: type must be %q or %q, got %q", i, models.TransactionPurchase, models.TransactionTip, tx.Type)
		}
	}
	for _, item := range s.Catalog {
		if !known[item.ModelID] || item.OfferID == "" {
			return fmt.Errorf("catalog item %q: unknown model %q or missing offer_id", item.OfferID, item.ModelID)
		}
	}
	return nil
}

// Apply loads seed into the store. Existing rows with the same keys are
// replaced, messages and transactions are appended.
func (s *MemoryStorage) Apply(seed *Seed) {
	for _, m := range seed.Models {
		s.PutModel(models.Model{ID: m.ID, Name: m.Name, Niche: m.Niche}, &models.ModelConfig{
			APIKey:      m.APIKey,
			LLMModel:    m.LLMModel,
			Temperature: m.Temperature,
			MaxTokens:   m.MaxTokens,
		})
	}
	for _, f := range seed.Fans {
		s.PutFan(models.Fan{FanID: f.FanID, ModelID: f.ModelID, Name: f.Name, Tier: f.Tier, SpentTotal: f.SpentTotal})
	}
	for _, m := range seed.Messages {
		s.AddMessage(models.ChatMessage{
			ModelID:   m.ModelID,
			FanID:     m.FanID,
			From:      models.Sender(m.From),
			Message:   m.Message,
			Timestamp: m.At,
		})
	}
	for _, tx := range seed.Transactions {
		s.AddTransaction(models.Transaction{
			ModelID:   tx.ModelID,
			FanID:     tx.FanID,
			Type:      models.TransactionType(tx.Type),
			OfferID:   tx.OfferID,
			Amount:    tx.Amount,
			Timestamp: tx.At,
		})
	}
	for _, item := range seed.Catalog {
		s.PutCatalogItem(models.CatalogItem{
			OfferID:     item.OfferID,
			ModelID:     item.ModelID,
			Title:       item.Title,
			Description: item.Description,
			BasePrice:   item.BasePrice,
			Nivel:       item.Nivel,
			Tags:        item.Tags,
			Keywords:    item.Keywords,
			IsActive:    item.Active == nil || *item.Active,
		})
	}
}
