package drafter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xaenox/chatter-assist/internal/classifier"
	"github.com/xaenox/chatter-assist/internal/models"
	"go.uber.org/zap/zaptest"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

func TestOpenAIDrafter_Draft(t *testing.T) {
	var got capturedRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": " {\"texto\":\"hey you\"} "}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	}))
	defer srv.Close()

	d := NewOpenAIDrafter(srv.URL+"/v1", "gpt-4o-mini", 200, 0.8, zaptest.NewLogger(t))
	raw, err := d.Draft(context.Background(), Request{
		APIKey:       "sk-model",
		Instructions: "be nice",
		History: []Message{
			{Role: RoleUser, Text: "hi"},
			{Role: RoleAssistant, Text: "hello"},
		},
	})
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if raw != `{"texto":"hey you"}` {
		t.Errorf("raw = %q", raw)
	}
	if auth != "Bearer sk-model" {
		t.Errorf("authorization = %q", auth)
	}
	if got.Model != "gpt-4o-mini" || got.MaxTokens != 200 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 3 || got.Messages[0].Role != "system" || got.Messages[2].Role != "assistant" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestOpenAIDrafter_Temperature(t *testing.T) {
	zero, low := 0.0, 0.3
	tests := []struct {
		name  string
		temp  *float64
		check func(got float64) bool
	}{
		{"unset uses default", nil, func(got float64) bool { return math.Abs(got-0.8) < 1e-6 }},
		{"explicit value", &low, func(got float64) bool { return math.Abs(got-0.3) < 1e-6 }},
		{"explicit zero stays near zero", &zero, func(got float64) bool { return got > 0 && got < 1e-6 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got capturedRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				if err := json.Unmarshal(body, &got); err != nil {
					t.Errorf("bad request body: %v", err)
				}
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}}]}`)
			}))
			defer srv.Close()

			d := NewOpenAIDrafter(srv.URL+"/v1", "gpt-4o-mini", 200, 0.8, zaptest.NewLogger(t))
			if _, err := d.Draft(context.Background(), Request{APIKey: "sk", Temperature: tt.temp}); err != nil {
				t.Fatalf("Draft: %v", err)
			}
			if !tt.check(got.Temperature) {
				t.Errorf("temperature = %v", got.Temperature)
			}
		})
	}
}

func TestOpenAIDrafter_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`)
	}))
	defer srv.Close()

	d := NewOpenAIDrafter(srv.URL+"/v1", "gpt-4o-mini", 100, 0.7, zaptest.NewLogger(t))
	_, err := d.Draft(context.Background(), Request{APIKey: "bad", Instructions: "x"})

	var llmErr *Error
	if !errors.As(err, &llmErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if llmErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", llmErr.StatusCode)
	}
	if !strings.Contains(llmErr.Body, "Incorrect API key") {
		t.Errorf("body = %q", llmErr.Body)
	}
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		want       string
		structured bool
	}{
		{"json", `{"texto":"hola amor"}`, "hola amor", true},
		{"fenced", "```json\n{\"texto\": \"hi babe\"}\n```", "hi babe", true},
		{"text key", `{"text":"hey"}`, "hey", true},
		{"plain text", "just text", "just text", false},
		{"json without text", `{"foo":"bar"}`, `{"foo":"bar"}`, false},
		{"broken json", `{"texto": "oops`, `{"texto": "oops`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReply(tt.raw)
			if got.Text != tt.want || got.Structured != tt.structured {
				t.Errorf("ParseReply(%q) = %+v", tt.raw, got)
			}
			if got.Raw != tt.raw {
				t.Errorf("raw not kept: %q", got.Raw)
			}
		})
	}
}

func TestBuildInstructions(t *testing.T) {
	item := &models.CatalogItem{OfferID: "o1", Title: "Beach set", Description: "sunny", Nivel: 1}
	out := BuildInstructions(PromptInput{
		Model: models.Model{Name: "Luna", Niche: "fitness"},
		Fan:   models.Fan{FanID: "f1", Tier: models.TierWhale, SpentTotal: decimal.NewFromInt(300)},
		Result: classifier.Result{
			Language:    classifier.Spanish,
			Energy:      classifier.EnergyFlirty,
			Mode:        classifier.ModeOffer,
			OfferedItem: item,
		},
		OfferPrice: decimal.RequireFromString("14.5"),
	})

	for _, want := range []string{"Luna", "fitness", "top spender", "300.00", "MODE: OFFER", "Beach set", "$14.50", "Responde en español", `{"texto"`} {
		if !strings.Contains(out, want) {
			t.Errorf("instructions missing %q:\n%s", want, out)
		}
	}
}

func TestBuildInstructions_NoOfferOutsideOfferMode(t *testing.T) {
	out := BuildInstructions(PromptInput{
		Model:  models.Model{Name: "Luna"},
		Fan:    models.Fan{FanID: "f1"},
		Result: classifier.Result{Language: classifier.English, Energy: classifier.EnergyCasual, Mode: classifier.ModeEmpathy},
	})
	if strings.Contains(out, "CONTENT TO OFFER") {
		t.Error("empathy instructions mention content")
	}
	if !strings.Contains(out, "Reply in English") || !strings.Contains(out, "fan f1") {
		t.Errorf("unexpected instructions:\n%s", out)
	}
}
