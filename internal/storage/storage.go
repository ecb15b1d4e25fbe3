package storage

import (
	"context"
	"errors"

	"github.com/xaenox/chatter-assist/internal/models"
)

// ErrNotFound is returned when a model, model config or fan row is missing.
var ErrNotFound = errors.New("not found")

type Storage interface {
	GetModel(ctx context.Context, modelID string) (*models.Model, error)
	GetModelConfig(ctx context.Context, modelID string) (*models.ModelConfig, error)
	GetFan(ctx context.Context, modelID, fanID string) (*models.Fan, error)
	Close() error

	// Embed ConversationStorage interface
	ConversationStorage
}

// ConversationStorage reads the per-fan conversation snapshot and keeps drafts.
type ConversationStorage interface {
	// GetRecentMessages returns the latest limit messages, oldest first.
	GetRecentMessages(ctx context.Context, modelID, fanID string, limit int) ([]models.ChatMessage, error)
	GetTransactions(ctx context.Context, modelID, fanID string) ([]models.Transaction, error)
	// GetActiveCatalog returns active items ordered by nivel, then offer id.
	GetActiveCatalog(ctx context.Context, modelID string) ([]models.CatalogItem, error)
	SaveDraft(ctx context.Context, draft *models.Draft) error
}
