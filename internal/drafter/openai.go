package drafter

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type OpenAIDrafter struct {
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

// NewOpenAIDrafter returns a drafter for the chat completions API. model,
// maxTokens and temperature are used when a Request leaves them empty. An
// empty baseURL targets api.openai.com.
func NewOpenAIDrafter(baseURL string, model string, maxTokens int, temperature float64, logger *zap.Logger) *OpenAIDrafter {
	return &OpenAIDrafter{
		baseURL:     baseURL,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

func (d *OpenAIDrafter) Draft(ctx context.Context, req Request) (string, error) {
	cfg := openai.DefaultConfig(req.APIKey)
	if d.baseURL != "" {
		cfg.BaseURL = d.baseURL
	}
	client := openai.NewClientWithConfig(cfg)

	model := req.Model
	if model == "" {
		model = d.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = d.maxTokens
	}
	temperature := d.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: req.Instructions,
	})
	for _, m := range req.History {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: wireTemperature(temperature),
	})
	if err != nil {
		d.logger.Error("Failed to get GPT response", zap.Error(err), zap.String("model", model))
		return "", wrapError(err)
	}

	if len(resp.Choices) == 0 {
		d.logger.Error("Empty GPT response", zap.String("model", model))
		return "", &Error{Err: errors.New("empty choices")}
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	d.logger.Debug("GPT response",
		zap.String("model", model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.String("response", raw))

	return raw, nil
}

// wireTemperature keeps an explicit zero on the wire. The client omits a zero
// temperature and the API would then apply its own default of 1.
func wireTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error(), Err: err}
	}
	return &Error{Err: err}
}
