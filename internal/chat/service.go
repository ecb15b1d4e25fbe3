package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
	"github.com/xaenox/chatter-assist/internal/classifier"
	"github.com/xaenox/chatter-assist/internal/drafter"
	"github.com/xaenox/chatter-assist/internal/models"
	"github.com/xaenox/chatter-assist/internal/notify"
	"github.com/xaenox/chatter-assist/internal/pricing"
	"github.com/xaenox/chatter-assist/internal/storage"
	"go.uber.org/zap"
)

const (
	DefaultHistoryFetchLimit  = 30
	DefaultHistoryReplayLimit = 20
)

type Options struct {
	// HistoryFetchLimit caps the messages loaded per request. The classifier's
	// message count is the size of this window.
	HistoryFetchLimit int
	// HistoryReplayLimit caps the messages sent to the LLM.
	HistoryReplayLimit int
	// FallbackAPIKey is used for models without their own key.
	FallbackAPIKey string
}

type service struct {
	store      storage.Storage
	classifier *classifier.Classifier
	drafter    drafter.Drafter
	notifier   notify.Notifier
	prices     pricing.Multipliers
	opts       Options
	logger     *zap.Logger
}

func NewService(
	store storage.Storage,
	clf *classifier.Classifier,
	d drafter.Drafter,
	notifier notify.Notifier,
	prices pricing.Multipliers,
	opts Options,
	logger *zap.Logger,
) Service {
	if opts.HistoryFetchLimit <= 0 {
		opts.HistoryFetchLimit = DefaultHistoryFetchLimit
	}
	if opts.HistoryReplayLimit <= 0 {
		opts.HistoryReplayLimit = DefaultHistoryReplayLimit
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &service{
		store:      store,
		classifier: clf,
		drafter:    d,
		notifier:   notifier,
		prices:     prices,
		opts:       opts,
		logger:     logger,
	}
}

// snapshot is everything one request reads. Each field is written by exactly
// one loader goroutine.
type snapshot struct {
	model        *models.Model
	config       *models.ModelConfig
	fan          *models.Fan
	history      []models.ChatMessage
	transactions []models.Transaction
	catalog      []models.CatalogItem
}

func (s *service) loadSnapshot(ctx context.Context, req GenerateRequest) (*snapshot, error) {
	var snap snapshot
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()

	p.Go(func(ctx context.Context) (err error) {
		snap.model, err = s.store.GetModel(ctx, req.ModelID)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		snap.config, err = s.store.GetModelConfig(ctx, req.ModelID)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		snap.fan, err = s.store.GetFan(ctx, req.ModelID, req.FanID)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		snap.history, err = s.store.GetRecentMessages(ctx, req.ModelID, req.FanID, s.opts.HistoryFetchLimit)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		snap.transactions, err = s.store.GetTransactions(ctx, req.ModelID, req.FanID)
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		snap.catalog, err = s.store.GetActiveCatalog(ctx, req.ModelID)
		return err
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func validate(req GenerateRequest) error {
	if strings.TrimSpace(req.ModelID) == "" ||
		strings.TrimSpace(req.FanID) == "" ||
		strings.TrimSpace(req.Message) == "" {
		return ErrInvalidRequest
	}
	return nil
}

func (s *service) classify(ctx context.Context, req GenerateRequest) (*snapshot, classifier.Result, error) {
	if err := validate(req); err != nil {
		return nil, classifier.Result{}, err
	}

	snap, err := s.loadSnapshot(ctx, req)
	if err != nil {
		s.logger.Warn("Failed to load conversation",
			zap.Error(err),
			zap.String("model_id", req.ModelID),
			zap.String("fan_id", req.FanID))
		return nil, classifier.Result{}, err
	}

	res := s.classifier.Classify(classifier.Input{
		Message:      req.Message,
		History:      snap.history,
		Transactions: snap.transactions,
		Catalog:      snap.catalog,
	})
	return snap, res, nil
}

func (s *service) Classify(ctx context.Context, req GenerateRequest) (*ClassifyResponse, error) {
	snap, res, err := s.classify(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ClassifyResponse{
		Success:        true,
		Classification: res,
		ContentToOffer: s.offered(res, snap.fan),
		Contexto:       contextOf(res, snap.fan),
	}, nil
}

func (s *service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()

	snap, res, err := s.classify(ctx, req)
	if err != nil {
		return nil, err
	}

	apiKey := snap.config.APIKey
	if apiKey == "" {
		apiKey = s.opts.FallbackAPIKey
	}
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	offer := s.offered(res, snap.fan)
	price := s.price(res, snap.fan)

	raw, err := s.drafter.Draft(ctx, drafter.Request{
		APIKey:      apiKey,
		Model:       snap.config.LLMModel,
		Temperature: snap.config.Temperature,
		MaxTokens:   snap.config.MaxTokens,
		Instructions: drafter.BuildInstructions(drafter.PromptInput{
			Model:      *snap.model,
			Fan:        *snap.fan,
			Result:     res,
			OfferPrice: price,
		}),
		History: s.replay(snap.history, req.Message),
	})
	if err != nil {
		return nil, &LLMError{Err: err}
	}

	reply := drafter.ParseReply(raw)
	if !reply.Structured {
		s.logger.Warn("LLM reply was not JSON, using raw text", zap.String("model_id", req.ModelID))
	}

	draft := &models.Draft{
		ID:      uuid.NewString(),
		ModelID: req.ModelID,
		FanID:   req.FanID,
		Mode:    string(res.Mode),
		Energy:  string(res.Energy),
		Text:    reply.Text,
	}
	if res.OfferedItem != nil {
		draft.OfferID = res.OfferedItem.OfferID
	}
	if err := s.store.SaveDraft(ctx, draft); err != nil {
		s.logger.Error("Failed to save draft", zap.Error(err), zap.String("draft_id", draft.ID))
	}

	notice := notify.DraftNotice{
		DraftID:   draft.ID,
		ModelName: snap.model.Name,
		FanID:     req.FanID,
		FanTier:   snap.fan.Tier,
		Mode:      draft.Mode,
		Energy:    draft.Energy,
		Text:      draft.Text,
	}
	if res.OfferedItem != nil {
		notice.OfferTitle = res.OfferedItem.Title
		notice.OfferPrice = price
	}
	if err := s.notifier.NotifyDraft(ctx, notice); err != nil {
		s.logger.Warn("Failed to notify chatters", zap.Error(err), zap.String("draft_id", draft.ID))
	}

	s.logger.Info("Draft generated",
		zap.String("draft_id", draft.ID),
		zap.String("model_id", req.ModelID),
		zap.String("fan_id", req.FanID),
		zap.String("mode", draft.Mode),
		zap.String("energy", draft.Energy),
		zap.String("offer_id", draft.OfferID),
		zap.Duration("took", time.Since(start)))

	return &GenerateResponse{
		Success: true,
		DraftID: draft.ID,
		Response: DraftResponse{
			Texto:          reply.Text,
			ContentToOffer: offer,
			Contexto:       contextOf(res, snap.fan),
		},
	}, nil
}

// replay maps the tail of history to LLM messages and appends the new fan message.
func (s *service) replay(history []models.ChatMessage, message string) []drafter.Message {
	start := len(history) - s.opts.HistoryReplayLimit
	if start < 0 {
		start = 0
	}
	out := make([]drafter.Message, 0, len(history)-start+1)
	for _, m := range history[start:] {
		role := drafter.RoleUser
		if m.From == models.FromModel {
			role = drafter.RoleAssistant
		}
		out = append(out, drafter.Message{Role: role, Text: m.Message})
	}
	return append(out, drafter.Message{Role: drafter.RoleUser, Text: message})
}

func (s *service) price(res classifier.Result, fan *models.Fan) decimal.Decimal {
	if res.OfferedItem == nil {
		return decimal.Zero
	}
	return s.prices.Price(res.OfferedItem.BasePrice, fan.Tier)
}

func (s *service) offered(res classifier.Result, fan *models.Fan) *OfferedContent {
	item := res.OfferedItem
	if item == nil {
		return nil
	}
	return &OfferedContent{
		OfferID:     item.OfferID,
		Titulo:      item.Title,
		Precio:      s.price(res, fan).InexactFloat64(),
		Descripcion: item.Description,
		Nivel:       item.Nivel,
	}
}

func contextOf(res classifier.Result, fan *models.Fan) Context {
	return Context{
		Mode:         res.Mode,
		FanTier:      fan.Tier,
		SpentTotal:   fan.SpentTotal.InexactFloat64(),
		MessageCount: res.MessageCount,
		Energy:       res.Energy,
		CanOffer:     res.CanOffer(),
		Language:     res.Language,
	}
}
