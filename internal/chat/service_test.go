package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xaenox/chatter-assist/internal/classifier"
	"github.com/xaenox/chatter-assist/internal/drafter"
	"github.com/xaenox/chatter-assist/internal/models"
	"github.com/xaenox/chatter-assist/internal/notify"
	"github.com/xaenox/chatter-assist/internal/pricing"
	"github.com/xaenox/chatter-assist/internal/storage"
	"go.uber.org/zap/zaptest"
)

type mockDrafter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []drafter.Request
}

func (m *mockDrafter) Draft(ctx context.Context, req drafter.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	return m.reply, m.err
}

type mockNotifier struct {
	notices []notify.DraftNotice
	err     error
}

func (m *mockNotifier) NotifyDraft(ctx context.Context, n notify.DraftNotice) error {
	m.notices = append(m.notices, n)
	return m.err
}

type fixture struct {
	store    *storage.MemoryStorage
	drafter  *mockDrafter
	notifier *mockNotifier
	svc      Service
}

func newFixture(t *testing.T, apiKey string, opts Options) *fixture {
	t.Helper()
	store := storage.NewMemoryStorage()
	store.PutModel(models.Model{ID: "m1", Name: "Luna", Niche: "fitness"}, &models.ModelConfig{APIKey: apiKey, LLMModel: "gpt-4o-mini"})
	store.PutFan(models.Fan{FanID: "f1", ModelID: "m1", Tier: models.TierMid, SpentTotal: decimal.RequireFromString("42.5")})

	f := &fixture{
		store:    store,
		drafter:  &mockDrafter{reply: `{"texto":"hey handsome"}`},
		notifier: &mockNotifier{},
	}
	f.svc = NewService(store, classifier.Default(), f.drafter, f.notifier, pricing.DefaultMultipliers(), opts, zaptest.NewLogger(t))
	return f
}

func (f *fixture) chat(n int) {
	for i := 0; i < n; i++ {
		from, text := models.FromFan, "hey"
		if i%2 == 1 {
			from, text = models.FromModel, "hi there"
		}
		f.store.AddMessage(models.ChatMessage{ModelID: "m1", FanID: "f1", From: from, Message: fmt.Sprintf("%s %d", text, i)})
	}
}

func (f *fixture) catalog(items ...models.CatalogItem) {
	for _, item := range items {
		item.ModelID = "m1"
		item.IsActive = true
		f.store.PutCatalogItem(item)
	}
}

func TestGenerate_Offer(t *testing.T) {
	f := newFixture(t, "sk-model", Options{})
	f.chat(6)
	f.catalog(models.CatalogItem{OfferID: "o1", Title: "Beach set", Description: "sunny", BasePrice: decimal.NewFromInt(10), Nivel: 1})

	resp, err := f.svc.Generate(context.Background(), GenerateRequest{ModelID: "m1", FanID: "f1", Message: "can I see a video of you"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !resp.Success || resp.DraftID == "" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Response.Texto != "hey handsome" {
		t.Errorf("texto = %q", resp.Response.Texto)
	}
	offer := resp.Response.ContentToOffer
	if offer == nil || offer.OfferID != "o1" || offer.Precio != 12 || offer.Titulo != "Beach set" {
		t.Fatalf("content_to_offer = %+v", offer)
	}
	ctx := resp.Response.Contexto
	if ctx.Mode != classifier.ModeOffer || ctx.MessageCount != 6 || ctx.FanTier != 1 || ctx.SpentTotal != 42.5 || !ctx.CanOffer {
		t.Errorf("contexto = %+v", ctx)
	}

	if len(f.drafter.calls) != 1 {
		t.Fatalf("drafter calls = %d", len(f.drafter.calls))
	}
	call := f.drafter.calls[0]
	if call.APIKey != "sk-model" || call.Model != "gpt-4o-mini" {
		t.Errorf("drafter request = %+v", call)
	}
	last := call.History[len(call.History)-1]
	if last.Role != drafter.RoleUser || last.Text != "can I see a video of you" {
		t.Errorf("last history message = %+v", last)
	}

	saved, ok := f.store.Draft(resp.DraftID)
	if !ok || saved.OfferID != "o1" || saved.Mode != "OFFER" {
		t.Errorf("saved draft = %+v", saved)
	}
	if len(f.notifier.notices) != 1 || f.notifier.notices[0].OfferTitle != "Beach set" {
		t.Errorf("notices = %+v", f.notifier.notices)
	}
}

func TestGenerate_ModelTemperature(t *testing.T) {
	f := newFixture(t, "sk-model", Options{})
	if _, err := f.svc.Generate(context.Background(), GenerateRequest{ModelID: "m1", FanID: "f1", Message: "hi"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := f.drafter.calls[0].Temperature; got != nil {
		t.Errorf("unset config temperature forwarded as %v", *got)
	}

	zero := 0.0
	f.store.PutModel(models.Model{ID: "m1", Name: "Luna"}, &models.ModelConfig{APIKey: "sk-model", Temperature: &zero})
	if _, err := f.svc.Generate(context.Background(), GenerateRequest{ModelID: "m1", FanID: "f1", Message: "hi"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := f.drafter.calls[1].Temperature; got == nil || *got != 0 {
		t.Errorf("temperature = %v, want explicit 0", got)
	}
}

func TestGenerate_EmpathyNeverOffers(t *testing.T) {
	f := newFixture(t, "sk-model", Options{})
	f.chat(10)
	f.catalog(models.CatalogItem{OfferID: "o1", Title: "Dog pics", BasePrice: decimal.NewFromInt(5), Nivel: 1, Tags: "dog"})

	resp, err := f.svc.Generate(context.Background(), GenerateRequest{ModelID: "m1", FanID: "f1", Message: "my dog died today"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Response.Contexto.Mode != classifier.ModeEmpathy || resp.Response.ContentToOffer != nil {
		t.Errorf("resp = %+v", resp.Response)
	}
}

func TestGenerate_ReplayLimit(t *testing.T) {
	f := newFixture(t, "sk-model", Options{HistoryFetchLimit: 30, HistoryReplayLimit: 20})
	f.chat(40)

	resp, err := f.svc.Generate(context.Background(), GenerateRequest{ModelID: "m1", FanID: "f1", Message: "how was your day"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Response.Contexto.MessageCount != 30 {
		t.Errorf("message count = %d, want 30", resp.Response.Contexto.MessageCount)
	}
	history := f.drafter.calls[0].History
	if len(history) != 21 {
		t.Fatalf("replayed %d messages, want 21", len(history))
	}
	if history[0].Text != "hey 20" || history[1].Role != drafter.RoleAssistant {
		t.Errorf("first replayed = %+v, second = %+v", history[0], history[1])
	}
}

func TestGenerate_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t, "sk", Options{})
		_, err := f.svc.Generate(ctx, GenerateRequest{ModelID: "m1", FanID: "f1", Message: "  "})
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("unknown fan", func(t *testing.T) {
		f := newFixture(t, "sk", Options{})
		_, err := f.svc.Generate(ctx, GenerateRequest{ModelID: "m1", FanID: "ghost", Message: "hi"})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v", err)
		}
		if len(f.drafter.calls) != 0 {
			t.Error("drafter called for unknown fan")
		}
	})

	t.Run("unknown model", func(t *testing.T) {
		f := newFixture(t, "sk", Options{})
		_, err := f.svc.Generate(ctx, GenerateRequest{ModelID: "nope", FanID: "f1", Message: "hi"})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("no api key", func(t *testing.T) {
		f := newFixture(t, "", Options{})
		_, err := f.svc.Generate(ctx, GenerateRequest{ModelID: "m1", FanID: "f1", Message: "hi"})
		if !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("fallback api key", func(t *testing.T) {
		f := newFixture(t, "", Options{FallbackAPIKey: "sk-global"})
		if _, err := f.svc.Generate(ctx, GenerateRequest{ModelID: "m1", FanID: "f1", Message: "hi"}); err != nil {
			t.Fatal(err)
		}
		if f.drafter.calls[0].APIKey != "sk-global" {
			t.Errorf("api key = %q", f.drafter.calls[0].APIKey)
		}
	})

	t.Run("llm failure", func(t *testing.T) {
		f := newFixture(t, "sk", Options{})
		f.drafter.err = &drafter.Error{StatusCode: 429, Body: "rate limited"}
		_, err := f.svc.Generate(ctx, GenerateRequest{ModelID: "m1", FanID: "f1", Message: "hi"})
		var llmErr *LLMError
		if !errors.As(err, &llmErr) {
			t.Fatalf("err = %v", err)
		}
		if llmErr.Details() != "rate limited" {
			t.Errorf("details = %q", llmErr.Details())
		}
		if len(f.drafter.calls) != 1 {
			t.Errorf("drafter called %d times, want exactly 1", len(f.drafter.calls))
		}
	})
}

func TestGenerate_RawReplyAndNotifierFailure(t *testing.T) {
	f := newFixture(t, "sk", Options{})
	f.drafter.reply = "plain reply"
	f.notifier.err = errors.New("telegram down")

	resp, err := f.svc.Generate(context.Background(), GenerateRequest{ModelID: "m1", FanID: "f1", Message: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Response.Texto != "plain reply" {
		t.Errorf("texto = %q", resp.Response.Texto)
	}
}

func TestClassify_DoesNotCallLLM(t *testing.T) {
	f := newFixture(t, "", Options{})
	f.chat(2)

	resp, err := f.svc.Classify(context.Background(), GenerateRequest{ModelID: "m1", FanID: "f1", Message: "hola como estas"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Classification.Language != classifier.Spanish || resp.Contexto.Mode != classifier.ModeConnection {
		t.Errorf("resp = %+v", resp)
	}
	if len(f.drafter.calls) != 0 {
		t.Error("classify called the drafter")
	}
}
