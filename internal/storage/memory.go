package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xaenox/chatter-assist/internal/models"
)

type fanKey struct {
	modelID string
	fanID   string
}

type MemoryStorage struct {
	mu           sync.RWMutex
	models       map[string]*models.Model
	configs      map[string]*models.ModelConfig
	fans         map[fanKey]*models.Fan
	messages     map[fanKey][]models.ChatMessage
	transactions map[fanKey][]models.Transaction
	catalog      map[string][]models.CatalogItem
	drafts       map[string]*models.Draft
	nextID       int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		models:       make(map[string]*models.Model),
		configs:      make(map[string]*models.ModelConfig),
		fans:         make(map[fanKey]*models.Fan),
		messages:     make(map[fanKey][]models.ChatMessage),
		transactions: make(map[fanKey][]models.Transaction),
		catalog:      make(map[string][]models.CatalogItem),
		drafts:       make(map[string]*models.Draft),
	}
}

func (s *MemoryStorage) GetModel(ctx context.Context, modelID string) (*models.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, exists := s.models[modelID]; exists {
		out := *m
		return &out, nil
	}
	return nil, fmt.Errorf("model %s: %w", modelID, ErrNotFound)
}

func (s *MemoryStorage) GetModelConfig(ctx context.Context, modelID string) (*models.ModelConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cfg, exists := s.configs[modelID]; exists {
		out := *cfg
		return &out, nil
	}
	return nil, fmt.Errorf("config for model %s: %w", modelID, ErrNotFound)
}

func (s *MemoryStorage) GetFan(ctx context.Context, modelID, fanID string) (*models.Fan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if fan, exists := s.fans[fanKey{modelID, fanID}]; exists {
		out := *fan
		return &out, nil
	}
	return nil, fmt.Errorf("fan %s of model %s: %w", fanID, modelID, ErrNotFound)
}

func (s *MemoryStorage) GetRecentMessages(ctx context.Context, modelID, fanID string, limit int) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.messages[fanKey{modelID, fanID}]
	start := 0
	if limit > 0 && len(all) > limit {
		start = len(all) - limit
	}
	out := make([]models.ChatMessage, len(all)-start)
	copy(out, all[start:])
	return out, nil
}

func (s *MemoryStorage) GetTransactions(ctx context.Context, modelID, fanID string) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.transactions[fanKey{modelID, fanID}]
	out := make([]models.Transaction, len(all))
	copy(out, all)
	return out, nil
}

func (s *MemoryStorage) GetActiveCatalog(ctx context.Context, modelID string) ([]models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CatalogItem, 0, len(s.catalog[modelID]))
	for _, item := range s.catalog[modelID] {
		if item.IsActive {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Nivel != out[j].Nivel {
			return out[i].Nivel < out[j].Nivel
		}
		return out[i].OfferID < out[j].OfferID
	})
	return out, nil
}

func (s *MemoryStorage) SaveDraft(ctx context.Context, draft *models.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now()
	}
	out := *draft
	s.drafts[draft.ID] = &out
	return nil
}

// Draft returns a saved draft by id.
func (s *MemoryStorage) Draft(id string) (*models.Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[id]
	return d, ok
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

// PutModel stores a model and, when cfg is non-nil, its config.
func (s *MemoryStorage) PutModel(m models.Model, cfg *models.ModelConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.models[m.ID] = &m
	if cfg != nil {
		c := *cfg
		c.ModelID = m.ID
		s.configs[m.ID] = &c
	}
}

func (s *MemoryStorage) PutFan(fan models.Fan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fans[fanKey{fan.ModelID, fan.FanID}] = &fan
}

// AddMessage appends a message to the conversation. Messages must be added
// in chronological order.
func (s *MemoryStorage) AddMessage(msg models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	if msg.ID == 0 {
		msg.ID = s.nextID
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	key := fanKey{msg.ModelID, msg.FanID}
	s.messages[key] = append(s.messages[key], msg)
}

func (s *MemoryStorage) AddTransaction(tx models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fanKey{tx.ModelID, tx.FanID}
	s.transactions[key] = append(s.transactions[key], tx)
}

func (s *MemoryStorage) PutCatalogItem(item models.CatalogItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.catalog[item.ModelID]
	for i := range items {
		if items[i].OfferID == item.OfferID {
			items[i] = item
			return
		}
	}
	s.catalog[item.ModelID] = append(items, item)
}
