package chat

import (
	"context"

	"github.com/xaenox/chatter-assist/internal/classifier"
)

// GenerateRequest is the body of both chat endpoints.
type GenerateRequest struct {
	ModelID string `json:"model_id"`
	FanID   string `json:"fan_id"`
	Message string `json:"message"`
}

type GenerateResponse struct {
	Success  bool          `json:"success"`
	DraftID  string        `json:"draft_id"`
	Response DraftResponse `json:"response"`
}

type DraftResponse struct {
	Texto          string          `json:"texto"`
	ContentToOffer *OfferedContent `json:"content_to_offer"`
	Contexto       Context         `json:"contexto"`
}

// OfferedContent is the catalog item picked for the fan, priced for their tier.
type OfferedContent struct {
	OfferID     string  `json:"offer_id"`
	Titulo      string  `json:"titulo"`
	Precio      float64 `json:"precio"`
	Descripcion string  `json:"descripcion"`
	Nivel       int     `json:"nivel"`
}

// Context echoes what the reply was shaped by.
type Context struct {
	Mode         classifier.Mode     `json:"mode"`
	FanTier      int                 `json:"fan_tier"`
	SpentTotal   float64             `json:"spent_total"`
	MessageCount int                 `json:"message_count"`
	Energy       classifier.Energy   `json:"energy"`
	CanOffer     bool                `json:"can_offer"`
	Language     classifier.Language `json:"language"`
}

type ClassifyResponse struct {
	Success        bool              `json:"success"`
	Classification classifier.Result `json:"classification"`
	ContentToOffer *OfferedContent   `json:"content_to_offer"`
	Contexto       Context           `json:"contexto"`
}

// Service drafts replies to fan messages.
type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	Classify(ctx context.Context, req GenerateRequest) (*ClassifyResponse, error)
}
